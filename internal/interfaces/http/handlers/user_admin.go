// internal/interfaces/http/handlers/user_admin.go
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/your-org/pouchprint-backend/internal/domain/user"
)

// UserDirectory is the admin view of accounts
type UserDirectory interface {
	ListUsers(ctx context.Context, req *user.UserListRequest) (*user.UserListResponse, error)
	GetUser(ctx context.Context, userID uint) (*user.User, error)
	SetUserStatus(ctx context.Context, adminID, userID uint, active bool) (*user.User, error)
}

// UserAdminHandler handles admin user management endpoints
type UserAdminHandler struct {
	users UserDirectory
}

// NewUserAdminHandler creates a new user admin handler
func NewUserAdminHandler(users UserDirectory) *UserAdminHandler {
	return &UserAdminHandler{users: users}
}

// GetUsers handles GET /admin/users
func (h *UserAdminHandler) GetUsers(c *gin.Context) {
	var req user.UserListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid query parameters",
			"details": err.Error(),
		})
		return
	}

	response, err := h.users.ListUsers(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, "Failed to retrieve users")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Users retrieved successfully",
		"data":    response,
	})
}

// GetUser handles GET /admin/users/:id
func (h *UserAdminHandler) GetUser(c *gin.Context) {
	userID, ok := parseID(c, "id", "user ID")
	if !ok {
		return
	}

	account, err := h.users.GetUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "Failed to retrieve user")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "User retrieved successfully",
		"data":    account,
	})
}

// UpdateUserStatus handles PUT /admin/users/:id/status
func (h *UserAdminHandler) UpdateUserStatus(c *gin.Context) {
	adminID, ok := requireUser(c)
	if !ok {
		return
	}
	userID, ok := parseID(c, "id", "user ID")
	if !ok {
		return
	}

	var req struct {
		IsActive *bool `json:"is_active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	account, err := h.users.SetUserStatus(c.Request.Context(), adminID, userID, *req.IsActive)
	if err != nil {
		respondError(c, err, "Failed to update user status")
		return
	}

	action := "activated"
	if !*req.IsActive {
		action = "deactivated"
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "User " + action + " successfully",
		"data":    account,
	})
}
