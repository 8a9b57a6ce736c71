// internal/interfaces/http/handlers/cart.go
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/your-org/pouchprint-backend/internal/domain/cart"
	"github.com/your-org/pouchprint-backend/internal/interfaces/http/middleware"
)

// CartService owns cart state for users and guest sessions
type CartService interface {
	GetCart(ctx context.Context, userID *uint, sessionID string) (*cart.CartResponse, error)
	AddToCart(ctx context.Context, userID *uint, sessionID string, req *cart.AddToCartRequest) (*cart.CartResponse, error)
	UpdateCartItem(ctx context.Context, userID *uint, sessionID, lineID string, req *cart.UpdateCartItemRequest) (*cart.CartResponse, error)
	RemoveFromCart(ctx context.Context, userID *uint, sessionID, lineID string) (*cart.CartResponse, error)
	ClearCart(ctx context.Context, userID *uint, sessionID string) error
	GetCartItemCount(ctx context.Context, userID *uint, sessionID string) (int, error)
	MergeGuestCartToUser(ctx context.Context, userID uint, sessionID string) error
}

// CartHandler handles cart endpoints
type CartHandler struct {
	cartService CartService
}

// NewCartHandler creates a new cart handler
func NewCartHandler(carts CartService) *CartHandler {
	return &CartHandler{cartService: carts}
}

// GetCart handles GET /cart
func (h *CartHandler) GetCart(c *gin.Context) {
	cartResponse, err := h.cartService.GetCart(c.Request.Context(), middleware.OptionalUserID(c), sessionID(c))
	if err != nil {
		respondError(c, err, "Failed to retrieve cart")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart retrieved successfully",
		"data":    cartResponse,
	})
}

// AddToCart handles POST /cart/items
func (h *CartHandler) AddToCart(c *gin.Context) {
	var req cart.AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	cartResponse, err := h.cartService.AddToCart(c.Request.Context(), middleware.OptionalUserID(c), sessionID(c), &req)
	if err != nil {
		respondError(c, err, "Failed to add item to cart")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Item added to cart successfully",
		"data":    cartResponse,
	})
}

// UpdateCartItem handles PUT /cart/items/:line_id. A zero quantity removes the line.
func (h *CartHandler) UpdateCartItem(c *gin.Context) {
	var req cart.UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	cartResponse, err := h.cartService.UpdateCartItem(c.Request.Context(), middleware.OptionalUserID(c), sessionID(c), c.Param("line_id"), &req)
	if err != nil {
		respondError(c, err, "Failed to update cart item")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart item updated successfully",
		"data":    cartResponse,
	})
}

// RemoveFromCart handles DELETE /cart/items/:line_id
func (h *CartHandler) RemoveFromCart(c *gin.Context) {
	cartResponse, err := h.cartService.RemoveFromCart(c.Request.Context(), middleware.OptionalUserID(c), sessionID(c), c.Param("line_id"))
	if err != nil {
		respondError(c, err, "Failed to remove cart item")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Item removed from cart successfully",
		"data":    cartResponse,
	})
}

// ClearCart handles DELETE /cart
func (h *CartHandler) ClearCart(c *gin.Context) {
	if err := h.cartService.ClearCart(c.Request.Context(), middleware.OptionalUserID(c), sessionID(c)); err != nil {
		respondError(c, err, "Failed to clear cart")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart cleared successfully",
	})
}

// GetCartCount handles GET /cart/count
func (h *CartHandler) GetCartCount(c *gin.Context) {
	count, err := h.cartService.GetCartItemCount(c.Request.Context(), middleware.OptionalUserID(c), sessionID(c))
	if err != nil {
		respondError(c, err, "Failed to get cart count")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart count retrieved successfully",
		"data": gin.H{
			"count": count,
		},
	})
}

// MergeGuestCart handles POST /cart/merge, called after login
func (h *CartHandler) MergeGuestCart(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	session := sessionID(c)

	if err := h.cartService.MergeGuestCartToUser(ctx, userID, session); err != nil {
		respondError(c, err, "Failed to merge cart")
		return
	}

	cartResponse, err := h.cartService.GetCart(ctx, &userID, session)
	if err != nil {
		respondError(c, err, "Failed to retrieve merged cart")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Guest cart merged successfully",
		"data":    cartResponse,
	})
}
