// internal/domain/payment/service.go
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/your-org/pouchprint-backend/internal/config"
	"github.com/your-org/pouchprint-backend/internal/domain/order"
	"github.com/your-org/pouchprint-backend/internal/domain/pricing"
)

var (
	ErrInvalidSignature = errors.New("invalid payment signature")
	ErrOrderMismatch    = errors.New("payment does not belong to this order")
	ErrNothingDue       = errors.New("order has no balance due")
	ErrPaymentNotPaid   = errors.New("payment has not been captured")
	ErrNotOrderOwner    = errors.New("order belongs to another customer")
)

// Orders is the part of the order service payments need
type Orders interface {
	GetOrder(ctx context.Context, id uint) (*order.Order, error)
	GetUserOrder(ctx context.Context, userID, orderID uint) (*order.Order, error)
	GetOrderByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*order.Order, error)
	SetGatewayOrder(ctx context.Context, orderID uint, gatewayOrderID string) error
	RecordPayment(ctx context.Context, orderID uint, rec order.PaymentRecord) (*order.Order, error)
}

// Gateway is the Razorpay API surface used by the service
type Gateway interface {
	KeyID() string
	CreateOrder(ctx context.Context, req CreateGatewayOrderRequest) (*RazorpayOrder, error)
	GetPayment(ctx context.Context, paymentID string) (*RazorpayPayment, error)
}

// Service collects order installments through Razorpay
type Service struct {
	orders        Orders
	gateway       Gateway
	keySecret     string
	webhookSecret string
	log           *logrus.Entry
}

// NewService creates a payment service
func NewService(orders Orders, gateway Gateway, cfg *config.Config, log *logrus.Logger) *Service {
	return &Service{
		orders:        orders,
		gateway:       gateway,
		keySecret:     cfg.External.Razorpay.KeySecret,
		webhookSecret: cfg.External.Razorpay.WebhookSecret,
		log:           log.WithField("component", "payment"),
	}
}

// PaymentInitiationResponse is what the storefront needs to open the checkout widget
type PaymentInitiationResponse struct {
	RazorpayOrderID string            `json:"razorpay_order_id"`
	Amount          int64             `json:"amount"` // paise
	Currency        string            `json:"currency"`
	Receipt         string            `json:"receipt"`
	KeyID           string            `json:"key_id"`
	Installment     string            `json:"installment"`
	Notes           map[string]string `json:"notes"`
	OrderDetails    *order.Order      `json:"order_details"`
}

// PaymentVerificationRequest carries the checkout widget callback
type PaymentVerificationRequest struct {
	RazorpayOrderID   string `json:"razorpay_order_id" binding:"required"`
	RazorpayPaymentID string `json:"razorpay_payment_id" binding:"required"`
	RazorpaySignature string `json:"razorpay_signature" binding:"required"`
	OrderID           uint   `json:"order_id" binding:"required"`
}

// WebhookEvent is the subset of a Razorpay webhook the service reads
type WebhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity RazorpayPayment `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// CreatePaymentOrder opens a gateway order for the next installment due.
// A nil userID means a guest order.
func (s *Service) CreatePaymentOrder(ctx context.Context, userID *uint, orderID uint) (*PaymentInitiationResponse, error) {
	o, err := s.loadOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}

	if o.Status == order.OrderStatusCancelled || o.IsFullyPaid() {
		return nil, ErrNothingDue
	}

	due := o.NextInstallment()
	if !due.IsPositive() {
		return nil, ErrNothingDue
	}

	installment := o.InstallmentLabel()
	notes := map[string]string{
		"order_id":     strconv.FormatUint(uint64(o.ID), 10),
		"order_number": o.OrderNumber,
		"installment":  installment,
	}

	gwOrder, err := s.gateway.CreateOrder(ctx, CreateGatewayOrderRequest{
		Amount:   pricing.ToMinorUnits(due),
		Currency: o.Currency,
		Receipt:  fmt.Sprintf("%s-%s", o.OrderNumber, installment),
		Notes:    notes,
	})
	if err != nil {
		return nil, err
	}

	if err := s.orders.SetGatewayOrder(ctx, o.ID, gwOrder.ID); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"order_id":         o.ID,
		"gateway_order_id": gwOrder.ID,
		"amount_paise":     gwOrder.Amount,
		"installment":      installment,
	}).Info("payment order created")

	return &PaymentInitiationResponse{
		RazorpayOrderID: gwOrder.ID,
		Amount:          gwOrder.Amount,
		Currency:        gwOrder.Currency,
		Receipt:         gwOrder.Receipt,
		KeyID:           s.gateway.KeyID(),
		Installment:     installment,
		Notes:           notes,
		OrderDetails:    o,
	}, nil
}

// VerifyPayment checks the checkout signature, confirms the capture with the
// gateway and records the installment against the order
func (s *Service) VerifyPayment(ctx context.Context, userID *uint, req *PaymentVerificationRequest) (*order.Order, error) {
	if !VerifyCheckoutSignature(s.keySecret, req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature) {
		s.log.WithField("order_id", req.OrderID).Warn("payment signature mismatch")
		return nil, ErrInvalidSignature
	}

	o, err := s.loadOrder(ctx, userID, req.OrderID)
	if err != nil {
		return nil, err
	}
	if o.GatewayOrderID != req.RazorpayOrderID {
		// Already recorded by the webhook, or never opened for this order.
		for _, p := range o.Payments {
			if p.ProviderPaymentID == req.RazorpayPaymentID {
				return o, nil
			}
		}
		return nil, ErrOrderMismatch
	}

	payment, err := s.gateway.GetPayment(ctx, req.RazorpayPaymentID)
	if err != nil {
		return nil, err
	}

	return s.record(ctx, o.ID, payment)
}

// VerifyWebhook checks a webhook body against its signature header
func (s *Service) VerifyWebhook(body []byte, signature string) error {
	if !VerifyWebhookSignature(s.webhookSecret, body, signature) {
		return ErrInvalidSignature
	}
	return nil
}

// HandleWebhook records captured payments delivered by webhook. Events other
// than payment.captured are acknowledged and ignored.
func (s *Service) HandleWebhook(ctx context.Context, body []byte, signature string) error {
	if err := s.VerifyWebhook(body, signature); err != nil {
		return err
	}

	var event WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("failed to parse webhook: %w", err)
	}

	entry := s.log.WithField("event", event.Event)
	if event.Event != "payment.captured" {
		entry.Debug("webhook ignored")
		return nil
	}

	payment := event.Payload.Payment.Entity
	o, err := s.orders.GetOrderByGatewayOrderID(ctx, payment.OrderID)
	if errors.Is(err, order.ErrOrderNotFound) {
		// Installment already recorded through the checkout callback.
		entry.WithField("gateway_order_id", payment.OrderID).Info("webhook for settled gateway order")
		return nil
	}
	if err != nil {
		return err
	}

	_, err = s.record(ctx, o.ID, &payment)
	return err
}

func (s *Service) record(ctx context.Context, orderID uint, payment *RazorpayPayment) (*order.Order, error) {
	if payment.Status != "captured" && payment.Status != "authorized" {
		return nil, fmt.Errorf("%w: status %s", ErrPaymentNotPaid, payment.Status)
	}

	return s.orders.RecordPayment(ctx, orderID, order.PaymentRecord{
		Method:            "razorpay:" + payment.Method,
		ProviderOrderID:   payment.OrderID,
		ProviderPaymentID: payment.ID,
		Amount:            pricing.FromMinorUnits(payment.Amount),
	})
}

func (s *Service) loadOrder(ctx context.Context, userID *uint, orderID uint) (*order.Order, error) {
	if userID != nil {
		return s.orders.GetUserOrder(ctx, *userID, orderID)
	}

	o, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != nil {
		return nil, ErrNotOrderOwner
	}
	return o, nil
}
