// internal/interfaces/http/handlers/checkout.go
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/your-org/pouchprint-backend/internal/domain/checkout"
	"github.com/your-org/pouchprint-backend/internal/interfaces/http/middleware"
)

// CheckoutService prices carts for checkout
type CheckoutService interface {
	Summary(ctx context.Context, userID *uint, sessionID string, req *checkout.SummaryRequest) (*checkout.CheckoutSummary, error)
	ShippingQuote(req *checkout.ShippingQuoteRequest) []checkout.ShippingMethod
	ApplyCoupon(ctx context.Context, userID *uint, sessionID, couponCode string) (*checkout.CouponApplication, error)
	RemoveCoupon(ctx context.Context, userID *uint, sessionID string) error
}

// CheckoutHandler handles checkout endpoints
type CheckoutHandler struct {
	checkoutService CheckoutService
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(checkoutService CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkoutService: checkoutService}
}

// GetCheckoutSummary handles GET /checkout/summary
func (h *CheckoutHandler) GetCheckoutSummary(c *gin.Context) {
	var req checkout.SummaryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid query parameters",
			"details": err.Error(),
		})
		return
	}

	summary, err := h.checkoutService.Summary(c.Request.Context(), middleware.OptionalUserID(c), sessionID(c), &req)
	if err != nil {
		respondError(c, err, "Failed to calculate checkout summary")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Checkout summary calculated successfully",
		"data":    summary,
	})
}

// GetShippingQuote handles GET /checkout/shipping?weight_grams=&subtotal=
func (h *CheckoutHandler) GetShippingQuote(c *gin.Context) {
	weight, err := decimalQuery(c, "weight_grams")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid weight_grams",
		})
		return
	}
	subtotal, err := decimalQuery(c, "subtotal")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid subtotal",
		})
		return
	}

	methods := h.checkoutService.ShippingQuote(&checkout.ShippingQuoteRequest{
		WeightGrams: weight,
		Subtotal:    subtotal,
	})

	c.JSON(http.StatusOK, gin.H{
		"message": "Shipping methods retrieved successfully",
		"data":    methods,
	})
}

// ApplyCoupon handles POST /checkout/coupon
func (h *CheckoutHandler) ApplyCoupon(c *gin.Context) {
	var req struct {
		CouponCode string `json:"coupon_code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	coupon, err := h.checkoutService.ApplyCoupon(c.Request.Context(), middleware.OptionalUserID(c), sessionID(c), req.CouponCode)
	if err != nil {
		respondError(c, err, "Failed to apply coupon")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Coupon applied successfully",
		"data":    coupon,
	})
}

// RemoveCoupon handles DELETE /checkout/coupon
func (h *CheckoutHandler) RemoveCoupon(c *gin.Context) {
	if err := h.checkoutService.RemoveCoupon(c.Request.Context(), middleware.OptionalUserID(c), sessionID(c)); err != nil {
		respondError(c, err, "Failed to remove coupon")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Coupon removed successfully",
	})
}

var errNegativeAmount = errors.New("amount must not be negative")

// decimalQuery parses an optional non-negative decimal query parameter
func decimalQuery(c *gin.Context, name string) (decimal.Decimal, error) {
	raw := c.Query(name)
	if raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, errNegativeAmount
	}
	return d, nil
}
