// internal/domain/order/service.go
package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/your-org/pouchprint-backend/internal/config"
	"github.com/your-org/pouchprint-backend/internal/domain/checkout"
)

var (
	ErrOrderNotFound          = errors.New("order not found")
	ErrOrderNotCancellable    = errors.New("order cannot be cancelled in current status")
	ErrInvalidTransition      = errors.New("invalid status transition")
	ErrBalanceDue             = errors.New("order balance must be paid before dispatch")
	ErrOrderNotPayable        = errors.New("order has nothing left to pay")
	ErrUnavailableItems       = errors.New("cart contains products that are no longer available")
	ErrBelowMinimumQuantity   = errors.New("cart line is below the minimum order quantity")
	ErrEmailRequired          = errors.New("email is required for guest checkout")
	ErrPaymentAmountMismatch  = errors.New("payment amount does not match the installment due")
	ErrDuplicatePaymentRecord = errors.New("payment already recorded")
)

// Pricer produces the checkout summary an order is built from
type Pricer interface {
	Summary(ctx context.Context, userID *uint, sessionID string, req *checkout.SummaryRequest) (*checkout.CheckoutSummary, error)
}

// CartClearer empties the cart once the order exists
type CartClearer interface {
	ClearUserCart(tx *gorm.DB, userID uint) error
	ClearCart(ctx context.Context, userID *uint, sessionID string) error
}

// Notifier sends order notifications
type Notifier interface {
	SendOrderConfirmation(ctx context.Context, o *Order) error
}

// Service handles order business logic
type Service struct {
	db       *gorm.DB
	config   *config.Config
	pricer   Pricer
	carts    CartClearer
	notifier Notifier
	log      *logrus.Entry
}

// NewService creates a new order service. notifier may be nil.
func NewService(db *gorm.DB, cfg *config.Config, pricer Pricer, carts CartClearer, notifier Notifier, log *logrus.Logger) *Service {
	return &Service{
		db:       db,
		config:   cfg,
		pricer:   pricer,
		carts:    carts,
		notifier: notifier,
		log:      log.WithField("component", "order"),
	}
}

// CreateOrderRequest represents order creation data
type CreateOrderRequest struct {
	Email                string   `json:"email"`
	Phone                string   `json:"phone"`
	ShippingAddress      Address  `json:"shipping_address" binding:"required"`
	BillingAddress       *Address `json:"billing_address,omitempty"` // Optional, defaults to shipping
	UseShippingAsBilling bool     `json:"use_shipping_as_billing"`
	ShippingMethod       string   `json:"shipping_method"`
	PaymentMode          string   `json:"payment_mode"`
	CouponCode           string   `json:"coupon_code,omitempty"`
	Notes                string   `json:"notes,omitempty"`
}

// OrderListRequest represents order list query parameters
type OrderListRequest struct {
	Page          int           `form:"page,default=1"`
	Limit         int           `form:"limit,default=20"`
	Status        OrderStatus   `form:"status"`
	PaymentStatus PaymentStatus `form:"payment_status"`
	UserID        uint          `form:"user_id"`
	Search        string        `form:"search"`
	SortBy        string        `form:"sort_by,default=created_at"`
	SortOrder     string        `form:"sort_order,default=desc"`
	DateFrom      string        `form:"date_from"`
	DateTo        string        `form:"date_to"`
}

// OrderResponse represents order response with pagination
type OrderResponse struct {
	Orders     []Order    `json:"orders"`
	Pagination Pagination `json:"pagination"`
}

// Pagination represents pagination information
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// PaymentRecord is a verified gateway capture
type PaymentRecord struct {
	Method            string
	ProviderOrderID   string
	ProviderPaymentID string
	Amount            decimal.Decimal
}

// BuildOrder turns a checkout summary into an unsaved order. Unit prices, line
// totals and weights come from the same resolver quotes the cart displayed.
func BuildOrder(summary *checkout.CheckoutSummary, req *CreateOrderRequest) (*Order, error) {
	if summary == nil || summary.Cart == nil {
		return nil, checkout.ErrCartEmpty
	}

	var items []OrderItem
	for _, line := range summary.Cart.Items {
		if line.Unavailable || line.Product == nil {
			return nil, fmt.Errorf("%w: product %d", ErrUnavailableItems, line.ProductID)
		}
		if line.Quantity < line.MinimumQuantity {
			return nil, fmt.Errorf("%w: %s needs at least %d units", ErrBelowMinimumQuantity, line.Product.Name, line.MinimumQuantity)
		}
		q := line.Quote
		items = append(items, OrderItem{
			ProductID:       line.ProductID,
			SKU:             line.Product.SKU,
			Name:            line.Product.Name,
			Slug:            line.Product.Slug,
			Family:          q.Family,
			VariantKey:      q.VariantKey,
			Customization:   line.Customization,
			DesignFileURL:   line.DesignFileURL,
			Quantity:        line.Quantity,
			UnitPrice:       q.UnitPrice,
			LineTotal:       q.LineTotal,
			UnitWeightGrams: q.UnitWeight,
			LineWeightGrams: q.LineWeight,
		})
	}
	if len(items) == 0 {
		return nil, checkout.ErrCartEmpty
	}

	billing := req.ShippingAddress
	if !req.UseShippingAsBilling && req.BillingAddress != nil {
		billing = *req.BillingAddress
	}

	p := summary.Pricing
	plan := summary.PaymentPlan

	coupon := ""
	if summary.AppliedCoupon != nil {
		coupon = summary.AppliedCoupon.CouponCode
	}

	return &Order{
		Email:               req.Email,
		Phone:               req.Phone,
		Status:              OrderStatusPending,
		PaymentStatus:       PaymentStatusPending,
		PaymentMode:         plan.Mode,
		SubtotalAmount:      p.Subtotal,
		ShippingAmount:      p.ShippingCost,
		DiscountAmount:      p.DiscountAmount,
		TaxAmount:           p.TaxAmount,
		TotalAmount:         p.TotalAmount,
		AdvanceAmount:       plan.Advance,
		AmountPaid:          decimal.Zero,
		AmountDue:           p.TotalAmount,
		Currency:            p.Currency,
		ShippingAddress:     req.ShippingAddress,
		BillingAddress:      billing,
		Notes:               req.Notes,
		CouponCode:          coupon,
		ShippingMethod:      summary.ShippingMethod.ID,
		ShippingCarrier:     summary.ShippingMethod.Carrier,
		ShippingWeightGrams: p.WeightGrams,
		Items:               items,
	}, nil
}

// CreateOrder prices the cart through checkout, persists the order and clears the cart
func (s *Service) CreateOrder(ctx context.Context, userID *uint, sessionID string, req *CreateOrderRequest) (*Order, error) {
	summary, err := s.pricer.Summary(ctx, userID, sessionID, &checkout.SummaryRequest{
		ShippingMethodID: req.ShippingMethod,
		CouponCode:       req.CouponCode,
		PaymentMode:      req.PaymentMode,
	})
	if err != nil {
		return nil, err
	}

	order, err := BuildOrder(summary, req)
	if err != nil {
		return nil, err
	}
	order.UserID = userID

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if order.Email == "" {
			if userID == nil {
				return ErrEmailRequired
			}
			var user struct{ Email string }
			if err := tx.Table("users").Select("email").Where("id = ?", *userID).Take(&user).Error; err != nil {
				return fmt.Errorf("failed to get user email: %w", err)
			}
			order.Email = user.Email
		}

		order.AddStatusHistory(OrderStatusPending, "Order created", derefUser(userID))
		if err := tx.Create(order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		order.OrderNumber = GenerateOrderNumber(order.CreatedAt, order.ID)
		if err := tx.Model(order).Update("order_number", order.OrderNumber).Error; err != nil {
			return fmt.Errorf("failed to update order number: %w", err)
		}

		if userID != nil {
			if err := s.carts.ClearUserCart(tx, *userID); err != nil {
				return fmt.Errorf("failed to clear cart: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if userID == nil {
		if err := s.carts.ClearCart(ctx, nil, sessionID); err != nil {
			s.log.WithError(err).WithField("order_id", order.ID).Warn("failed to clear guest cart after order creation")
		}
	}

	s.log.WithFields(logrus.Fields{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"total":        order.TotalAmount.String(),
		"payment_mode": order.PaymentMode,
	}).Info("order created")

	return s.GetOrder(ctx, order.ID)
}

// GetOrders retrieves orders with filtering and pagination
func (s *Service) GetOrders(ctx context.Context, req *OrderListRequest) (*OrderResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 || req.Limit > 100 {
		req.Limit = 20
	}

	var orders []Order
	var total int64

	query := s.db.WithContext(ctx).Model(&Order{})

	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}
	if req.PaymentStatus != "" {
		query = query.Where("payment_status = ?", req.PaymentStatus)
	}
	if req.UserID > 0 {
		query = query.Where("user_id = ?", req.UserID)
	}
	if req.Search != "" {
		search := "%" + req.Search + "%"
		query = query.Where("order_number ILIKE ? OR email ILIKE ?", search, search)
	}
	if req.DateFrom != "" {
		query = query.Where("created_at >= ?", req.DateFrom)
	}
	if req.DateTo != "" {
		query = query.Where("created_at <= ?", req.DateTo)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	offset := (req.Page - 1) * req.Limit
	err := query.Preload("Items").
		Order(buildOrderClause(req.SortBy, req.SortOrder)).
		Offset(offset).Limit(req.Limit).
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve orders: %w", err)
	}

	totalPages := int((total + int64(req.Limit) - 1) / int64(req.Limit))
	return &OrderResponse{
		Orders: orders,
		Pagination: Pagination{
			Page:       req.Page,
			Limit:      req.Limit,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    req.Page < totalPages,
			HasPrev:    req.Page > 1,
		},
	}, nil
}

// GetUserOrders retrieves orders for a specific user
func (s *Service) GetUserOrders(ctx context.Context, userID uint, page, limit int) (*OrderResponse, error) {
	return s.GetOrders(ctx, &OrderListRequest{Page: page, Limit: limit, UserID: userID})
}

// GetOrder retrieves a single order by ID
func (s *Service) GetOrder(ctx context.Context, id uint) (*Order, error) {
	return s.findOrder(ctx, "id = ?", id)
}

// GetOrderByNumber retrieves a single order by order number
func (s *Service) GetOrderByNumber(ctx context.Context, orderNumber string) (*Order, error) {
	return s.findOrder(ctx, "order_number = ?", orderNumber)
}

// GetUserOrder retrieves an order owned by userID
func (s *Service) GetUserOrder(ctx context.Context, userID, orderID uint) (*Order, error) {
	return s.findOrder(ctx, "id = ? AND user_id = ?", orderID, userID)
}

// GetGuestOrder retrieves a guest order by number and email
func (s *Service) GetGuestOrder(ctx context.Context, orderNumber, email string) (*Order, error) {
	return s.findOrder(ctx, "order_number = ? AND LOWER(email) = LOWER(?) AND user_id IS NULL", orderNumber, email)
}

// GetOrderByGatewayOrderID finds the order a gateway order was opened for
func (s *Service) GetOrderByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*Order, error) {
	return s.findOrder(ctx, "gateway_order_id = ?", gatewayOrderID)
}

// SetGatewayOrder remembers the gateway order opened for the next installment
func (s *Service) SetGatewayOrder(ctx context.Context, orderID uint, gatewayOrderID string) error {
	result := s.db.WithContext(ctx).Model(&Order{}).Where("id = ?", orderID).Update("gateway_order_id", gatewayOrderID)
	if result.Error != nil {
		return fmt.Errorf("failed to store gateway order: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// UpdateOrderStatus moves an order through the fulfilment workflow
func (s *Service) UpdateOrderStatus(ctx context.Context, orderID uint, status OrderStatus, comment string, updatedBy uint) (*Order, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order Order
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("failed to load order: %w", err)
		}

		if status == OrderStatusCancelled {
			return s.cancel(tx, &order, comment, updatedBy)
		}

		if !CanTransition(order.Status, status) {
			return fmt.Errorf("%w from %s to %s", ErrInvalidTransition, order.Status, status)
		}
		if status == OrderStatusShipped && !order.IsFullyPaid() {
			return ErrBalanceDue
		}

		updates := map[string]interface{}{"status": status}
		now := time.Now().UTC()
		switch status {
		case OrderStatusConfirmed:
			updates["confirmed_at"] = now
		case OrderStatusShipped:
			updates["shipped_at"] = now
		case OrderStatusDelivered:
			updates["delivered_at"] = now
		}

		if err := tx.Model(&order).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update order status: %w", err)
		}

		return tx.Create(&OrderStatusHistory{
			OrderID:   orderID,
			Status:    status,
			Comment:   comment,
			CreatedBy: updatedBy,
			CreatedAt: now,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	return s.GetOrder(ctx, orderID)
}

// CancelOrder cancels an order. A non-nil userID restricts it to that customer's orders.
func (s *Service) CancelOrder(ctx context.Context, orderID uint, userID *uint, reason string) (*Order, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", orderID)
		if userID != nil {
			query = query.Where("user_id = ?", *userID)
		}

		var order Order
		if err := query.First(&order).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("failed to load order: %w", err)
		}
		return s.cancel(tx, &order, reason, derefUser(userID))
	})
	if err != nil {
		return nil, err
	}
	return s.GetOrder(ctx, orderID)
}

// RecordPayment applies a verified capture to the order. Replaying the same
// provider payment is a no-op.
func (s *Service) RecordPayment(ctx context.Context, orderID uint, rec PaymentRecord) (*Order, error) {
	var confirmed bool

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&Payment{}).Where("provider_payment_id = ?", rec.ProviderPaymentID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check payment: %w", err)
		}
		if count > 0 {
			return ErrDuplicatePaymentRecord
		}

		var order Order
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("failed to load order: %w", err)
		}

		if order.Status == OrderStatusCancelled || order.IsFullyPaid() {
			return ErrOrderNotPayable
		}
		if !rec.Amount.Equal(order.NextInstallment()) {
			return fmt.Errorf("%w: got %s, due %s", ErrPaymentAmountMismatch, rec.Amount, order.NextInstallment())
		}

		now := time.Now().UTC()
		payment := Payment{
			OrderID:           order.ID,
			PaymentMethod:     rec.Method,
			ProviderOrderID:   rec.ProviderOrderID,
			ProviderPaymentID: rec.ProviderPaymentID,
			Amount:            rec.Amount,
			Currency:          order.Currency,
			Installment:       order.InstallmentLabel(),
			Status:            PaymentStatusPaid,
			ProcessedAt:       &now,
		}
		if err := tx.Create(&payment).Error; err != nil {
			return fmt.Errorf("failed to record payment: %w", err)
		}

		confirmed = order.ApplyPayment(rec.Amount, now)
		updates := map[string]interface{}{
			"amount_paid":      order.AmountPaid,
			"amount_due":       order.AmountDue,
			"payment_status":   order.PaymentStatus,
			"status":           order.Status,
			"confirmed_at":     order.ConfirmedAt,
			"gateway_order_id": "",
		}
		if err := tx.Model(&order).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update order payment: %w", err)
		}

		comment := fmt.Sprintf("%s payment of %s received", payment.Installment, rec.Amount.StringFixed(2))
		return tx.Create(&OrderStatusHistory{
			OrderID:   order.ID,
			Status:    order.Status,
			Comment:   comment,
			CreatedAt: now,
		}).Error
	})
	if errors.Is(err, ErrDuplicatePaymentRecord) {
		return s.GetOrder(ctx, orderID)
	}
	if err != nil {
		return nil, err
	}

	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if confirmed && s.notifier != nil {
		if err := s.notifier.SendOrderConfirmation(ctx, order); err != nil {
			s.log.WithError(err).WithField("order_id", order.ID).Warn("failed to send order confirmation")
		}
	}

	s.log.WithFields(logrus.Fields{
		"order_id":       order.ID,
		"amount":         rec.Amount.String(),
		"payment_status": order.PaymentStatus,
	}).Info("payment recorded")

	return order, nil
}

// CancelStaleOrders cancels pending orders with nothing paid that were created
// before olderThan ago. It returns the number of cancelled orders.
func (s *Service) CancelStaleOrders(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-olderThan)

	var stale []Order
	err := s.db.WithContext(ctx).
		Where("status = ? AND payment_status = ? AND created_at < ?", OrderStatusPending, PaymentStatusPending, cutoff).
		Find(&stale).Error
	if err != nil {
		return 0, fmt.Errorf("failed to find stale orders: %w", err)
	}

	cancelled := 0
	for i := range stale {
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return s.cancel(tx, &stale[i], "Payment not received", 0)
		})
		if err != nil {
			s.log.WithError(err).WithField("order_id", stale[i].ID).Warn("failed to cancel stale order")
			continue
		}
		cancelled++
	}

	return cancelled, nil
}

// UserOrderStats summarises a customer's order history
type UserOrderStats struct {
	TotalOrders int64           `json:"total_orders"`
	OpenOrders  int64           `json:"open_orders"`
	TotalPaid   decimal.Decimal `json:"total_paid"`
	BalanceDue  decimal.Decimal `json:"balance_due"`
}

// UserStats aggregates order counts and money for one customer. Cancelled
// and refunded orders count towards the total only.
func (s *Service) UserStats(ctx context.Context, userID uint) (*UserOrderStats, error) {
	closed := []OrderStatus{OrderStatusCancelled, OrderStatusRefunded}
	open := []OrderStatus{
		OrderStatusPending, OrderStatusConfirmed, OrderStatusInProduction,
		OrderStatusReadyToShip, OrderStatusShipped,
	}

	var row struct {
		TotalOrders int64
		OpenOrders  int64
		TotalPaid   decimal.NullDecimal
		BalanceDue  decimal.NullDecimal
	}
	err := s.db.WithContext(ctx).Model(&Order{}).
		Select(`COUNT(*) AS total_orders,
			COUNT(*) FILTER (WHERE status IN ?) AS open_orders,
			SUM(amount_paid) FILTER (WHERE status NOT IN ?) AS total_paid,
			SUM(amount_due) FILTER (WHERE status NOT IN ?) AS balance_due`, open, closed, closed).
		Where("user_id = ?", userID).
		Scan(&row).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load order stats: %w", err)
	}

	stats := &UserOrderStats{
		TotalOrders: row.TotalOrders,
		OpenOrders:  row.OpenOrders,
		TotalPaid:   decimal.Zero,
		BalanceDue:  decimal.Zero,
	}
	if row.TotalPaid.Valid {
		stats.TotalPaid = row.TotalPaid.Decimal
	}
	if row.BalanceDue.Valid {
		stats.BalanceDue = row.BalanceDue.Decimal
	}
	return stats, nil
}

// Private helper methods

func (s *Service) findOrder(ctx context.Context, query string, args ...interface{}) (*Order, error) {
	var order Order
	err := s.db.WithContext(ctx).
		Preload("Items").
		Preload("Payments", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC")
		}).
		Where(query, args...).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to retrieve order: %w", err)
	}
	return &order, nil
}

func (s *Service) cancel(tx *gorm.DB, order *Order, reason string, by uint) error {
	if !order.CanBeCancelled() {
		return fmt.Errorf("%w: %s", ErrOrderNotCancellable, order.Status)
	}

	now := time.Now().UTC()
	updates := map[string]interface{}{
		"status":       OrderStatusCancelled,
		"cancelled_at": now,
	}
	if order.AmountPaid.IsZero() {
		updates["payment_status"] = PaymentStatusCancelled
	}
	if err := tx.Model(order).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}

	return tx.Create(&OrderStatusHistory{
		OrderID:   order.ID,
		Status:    OrderStatusCancelled,
		Comment:   fmt.Sprintf("Order cancelled: %s", reason),
		CreatedBy: by,
		CreatedAt: now,
	}).Error
}

func derefUser(userID *uint) uint {
	if userID == nil {
		return 0
	}
	return *userID
}

func buildOrderClause(sortBy, sortOrder string) string {
	validSortFields := map[string]bool{
		"created_at":   true,
		"updated_at":   true,
		"total_amount": true,
		"status":       true,
		"order_number": true,
	}

	if !validSortFields[sortBy] {
		sortBy = "created_at"
	}

	if sortOrder != "asc" && sortOrder != "desc" {
		sortOrder = "desc"
	}

	return fmt.Sprintf("%s %s", sortBy, sortOrder)
}
