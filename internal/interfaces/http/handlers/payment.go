// internal/interfaces/http/handlers/payment.go
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/your-org/pouchprint-backend/internal/domain/order"
	"github.com/your-org/pouchprint-backend/internal/domain/payment"
	"github.com/your-org/pouchprint-backend/internal/interfaces/http/middleware"
)

// PaymentService collects order installments through the gateway
type PaymentService interface {
	CreatePaymentOrder(ctx context.Context, userID *uint, orderID uint) (*payment.PaymentInitiationResponse, error)
	VerifyPayment(ctx context.Context, userID *uint, req *payment.PaymentVerificationRequest) (*order.Order, error)
	HandleWebhook(ctx context.Context, body []byte, signature string) error
}

// razorpaySignatureHeader signs webhook bodies
const razorpaySignatureHeader = "X-Razorpay-Signature"

// PaymentHandler handles payment endpoints
type PaymentHandler struct {
	paymentService PaymentService
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(payments PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: payments}
}

// InitiatePayment handles POST /payments/orders/:id. It opens a gateway order
// for the next installment due on the order.
func (h *PaymentHandler) InitiatePayment(c *gin.Context) {
	orderID, ok := parseID(c, "id", "order ID")
	if !ok {
		return
	}

	response, err := h.paymentService.CreatePaymentOrder(c.Request.Context(), middleware.OptionalUserID(c), orderID)
	if err != nil {
		respondError(c, err, "Failed to initiate payment")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Payment initiated successfully",
		"data":    response,
	})
}

// VerifyPayment handles POST /payments/verify
func (h *PaymentHandler) VerifyPayment(c *gin.Context) {
	var req payment.PaymentVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	o, err := h.paymentService.VerifyPayment(c.Request.Context(), middleware.OptionalUserID(c), &req)
	if err != nil {
		respondError(c, err, "Failed to verify payment")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Payment verified successfully",
		"data":    o,
	})
}

// RazorpayWebhook handles POST /webhooks/razorpay. Failures other than a bad
// signature answer 500 so the gateway retries delivery.
func (h *PaymentHandler) RazorpayWebhook(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Failed to read request body",
		})
		return
	}

	err = h.paymentService.HandleWebhook(c.Request.Context(), body, c.GetHeader(razorpaySignatureHeader))
	if errors.Is(err, payment.ErrInvalidSignature) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid webhook signature",
		})
		return
	}
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to process webhook",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}
