package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/your-org/pouchprint-backend/internal/domain/cart"
	"github.com/your-org/pouchprint-backend/internal/domain/checkout"
	"github.com/your-org/pouchprint-backend/internal/domain/order"
	"github.com/your-org/pouchprint-backend/internal/domain/payment"
	"github.com/your-org/pouchprint-backend/internal/domain/pricing"
	"github.com/your-org/pouchprint-backend/internal/domain/product"
	"github.com/your-org/pouchprint-backend/internal/domain/user"
	"github.com/your-org/pouchprint-backend/internal/interfaces/http/middleware"
	"github.com/your-org/pouchprint-backend/internal/pkg/auth"
)

// errorStatuses maps domain errors to HTTP statuses. Anything not listed is
// a 500 and its message is not shown to the client.
var errorStatuses = []struct {
	err    error
	status int
}{
	{product.ErrProductNotFound, http.StatusNotFound},
	{product.ErrCategoryNotFound, http.StatusNotFound},
	{product.ErrNotVariantPriced, http.StatusNotFound},
	{order.ErrOrderNotFound, http.StatusNotFound},
	{user.ErrUserNotFound, http.StatusNotFound},
	{user.ErrAddressNotFound, http.StatusNotFound},
	{cart.ErrItemNotFound, http.StatusNotFound},

	{user.ErrEmailTaken, http.StatusConflict},
	{product.ErrDuplicateSKU, http.StatusConflict},
	{product.ErrCategoryInUse, http.StatusConflict},
	{order.ErrOrderNotCancellable, http.StatusConflict},
	{order.ErrInvalidTransition, http.StatusConflict},
	{order.ErrBalanceDue, http.StatusConflict},
	{order.ErrOrderNotPayable, http.StatusConflict},
	{payment.ErrNothingDue, http.StatusConflict},

	{user.ErrInvalidCredentials, http.StatusUnauthorized},
	{auth.ErrInvalidToken, http.StatusUnauthorized},

	{payment.ErrNotOrderOwner, http.StatusForbidden},
	{user.ErrCannotModifySelf, http.StatusForbidden},

	{payment.ErrInvalidSignature, http.StatusBadRequest},
	{payment.ErrOrderMismatch, http.StatusBadRequest},
	{payment.ErrPaymentNotPaid, http.StatusPaymentRequired},
	{order.ErrPaymentAmountMismatch, http.StatusBadRequest},

	{user.ErrPasswordMismatch, http.StatusBadRequest},
	{user.ErrWrongPassword, http.StatusBadRequest},
	{user.ErrInvalidGSTIN, http.StatusBadRequest},
	{user.ErrInvalidPostalCode, http.StatusBadRequest},
	{user.ErrInvalidCountry, http.StatusBadRequest},
	{auth.ErrWeakPassword, http.StatusBadRequest},
	{product.ErrInvalidPricing, http.StatusBadRequest},
	{pricing.ErrInvalidTier, http.StatusBadRequest},
	{pricing.ErrOverlappingTiers, http.StatusBadRequest},
	{cart.ErrSessionRequired, http.StatusBadRequest},
	{cart.ErrInvalidQuantity, http.StatusBadRequest},
	{cart.ErrProductNotInStock, http.StatusBadRequest},
	{checkout.ErrCartEmpty, http.StatusBadRequest},
	{checkout.ErrUnknownShippingMethod, http.StatusBadRequest},
	{checkout.ErrShippingUnavailable, http.StatusBadRequest},
	{checkout.ErrInvalidCoupon, http.StatusBadRequest},
	{checkout.ErrUnknownPaymentMode, http.StatusBadRequest},
	{checkout.ErrPartialNotAllowed, http.StatusBadRequest},
	{order.ErrUnavailableItems, http.StatusBadRequest},
	{order.ErrBelowMinimumQuantity, http.StatusBadRequest},
	{order.ErrEmailRequired, http.StatusBadRequest},
}

// statusFor resolves the HTTP status for err
func statusFor(err error) int {
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			return e.status
		}
	}

	var apiErr *payment.APIError
	if errors.As(err, &apiErr) {
		return http.StatusBadGateway
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// respondError writes err with its mapped status. fallback replaces the
// message of unmapped errors, which are attached to the context for the
// request logger. Failures after the request deadline passed are a 504.
func respondError(c *gin.Context, err error, fallback string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError && errors.Is(c.Request.Context().Err(), context.DeadlineExceeded) {
		_ = c.Error(err)
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "Request timeout"})
		return
	}
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
		c.JSON(status, gin.H{"error": fallback})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Invalid request data",
		"details": err.Error(),
	})
}

// parseID reads a positive numeric path parameter
func parseID(c *gin.Context, name, label string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid " + label,
		})
		return 0, false
	}
	return uint(id), true
}

// requireUser returns the authenticated user ID or writes a 401
func requireUser(c *gin.Context) (uint, bool) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User not authenticated",
		})
		return 0, false
	}
	return userID, true
}

// sessionID returns the guest session from the X-Session-ID header or the
// session cookie, minting a new one when neither is present
func sessionID(c *gin.Context) string {
	id := c.GetHeader(middleware.SessionIDHeader)
	if id == "" {
		id, _ = c.Cookie("session_id")
	}
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
		// 24 hours, matching the guest cart TTL
		c.SetCookie("session_id", id, 86400, "/", "", false, true)
	}

	c.Header(middleware.SessionIDHeader, id)
	return id
}
