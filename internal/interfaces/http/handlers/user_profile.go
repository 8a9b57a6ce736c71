package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/your-org/pouchprint-backend/internal/domain/order"
	"github.com/your-org/pouchprint-backend/internal/domain/user"
)

// ProfileReader loads a user's profile
type ProfileReader interface {
	GetProfile(ctx context.Context, userID uint) (*user.User, error)
}

// OrderHistory provides a customer's order overview
type OrderHistory interface {
	UserStats(ctx context.Context, userID uint) (*order.UserOrderStats, error)
	GetUserOrders(ctx context.Context, userID uint, page, limit int) (*order.OrderResponse, error)
}

// UserProfileHandler serves the customer account dashboard
type UserProfileHandler struct {
	userService  ProfileReader
	orderHistory OrderHistory
}

// NewUserProfileHandler creates a new user profile handler
func NewUserProfileHandler(users ProfileReader, orders OrderHistory) *UserProfileHandler {
	return &UserProfileHandler{
		userService:  users,
		orderHistory: orders,
	}
}

// GetDashboard handles GET /users/dashboard
func (h *UserProfileHandler) GetDashboard(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	profile, err := h.userService.GetProfile(ctx, userID)
	if err != nil {
		respondError(c, err, "Failed to get user profile")
		return
	}

	stats, err := h.orderHistory.UserStats(ctx, userID)
	if err != nil {
		respondError(c, err, "Failed to get user statistics")
		return
	}

	recent, err := h.orderHistory.GetUserOrders(ctx, userID, 1, 5)
	if err != nil {
		respondError(c, err, "Failed to get recent orders")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Dashboard data retrieved successfully",
		"data": gin.H{
			"user":          profile,
			"stats":         stats,
			"recent_orders": recent.Orders,
		},
	})
}
