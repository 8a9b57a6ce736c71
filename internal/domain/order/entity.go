// internal/domain/order/entity.go
package order

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/your-org/pouchprint-backend/internal/domain/checkout"
	"github.com/your-org/pouchprint-backend/internal/domain/pricing"
)

// OrderStatus represents the order status
type OrderStatus string

const (
	OrderStatusPending      OrderStatus = "pending"
	OrderStatusConfirmed    OrderStatus = "confirmed"
	OrderStatusInProduction OrderStatus = "in_production"
	OrderStatusReadyToShip  OrderStatus = "ready_to_ship"
	OrderStatusShipped      OrderStatus = "shipped"
	OrderStatusDelivered    OrderStatus = "delivered"
	OrderStatusCompleted    OrderStatus = "completed"
	OrderStatusCancelled    OrderStatus = "cancelled"
	OrderStatusRefunded     OrderStatus = "refunded"
)

// PaymentStatus represents payment status
type PaymentStatus string

const (
	PaymentStatusPending       PaymentStatus = "pending"
	PaymentStatusPartiallyPaid PaymentStatus = "partially_paid"
	PaymentStatusPaid          PaymentStatus = "paid"
	PaymentStatusFailed        PaymentStatus = "failed"
	PaymentStatusCancelled     PaymentStatus = "cancelled"
	PaymentStatusRefunded      PaymentStatus = "refunded"
)

// Order represents the order entity. Money columns hold rupees rounded to paise.
type Order struct {
	ID            uint                 `gorm:"primaryKey" json:"id"`
	OrderNumber   string               `gorm:"uniqueIndex;size:50" json:"order_number"`
	UserID        *uint                `gorm:"index" json:"user_id"` // Nullable for guest orders
	Email         string               `gorm:"not null;size:255" json:"email"`
	Phone         string               `gorm:"size:20" json:"phone"`
	Status        OrderStatus          `gorm:"not null;default:'pending'" json:"status"`
	PaymentStatus PaymentStatus        `gorm:"not null;default:'pending'" json:"payment_status"`
	PaymentMode   checkout.PaymentMode `gorm:"not null;size:20;default:'full'" json:"payment_mode"`

	// Financial Information
	SubtotalAmount decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"subtotal_amount"`
	ShippingAmount decimal.Decimal `gorm:"type:numeric(14,2);default:0" json:"shipping_amount"`
	DiscountAmount decimal.Decimal `gorm:"type:numeric(14,2);default:0" json:"discount_amount"`
	TaxAmount      decimal.Decimal `gorm:"type:numeric(14,2);default:0" json:"tax_amount"`
	TotalAmount    decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"total_amount"`
	AdvanceAmount  decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"advance_amount"`
	AmountPaid     decimal.Decimal `gorm:"type:numeric(14,2);default:0" json:"amount_paid"`
	AmountDue      decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount_due"`
	Currency       string          `gorm:"size:3;default:'INR'" json:"currency"`

	// Addresses
	ShippingAddress Address `gorm:"embedded;embeddedPrefix:shipping_" json:"shipping_address"`
	BillingAddress  Address `gorm:"embedded;embeddedPrefix:billing_" json:"billing_address"`

	Notes         string `gorm:"type:text" json:"notes"`
	InternalNotes string `gorm:"type:text" json:"-"`
	CouponCode    string `gorm:"size:50" json:"coupon_code"`

	// Shipping Information
	ShippingMethod      string          `gorm:"size:100" json:"shipping_method"`
	ShippingWeightGrams decimal.Decimal `gorm:"type:numeric(14,2)" json:"shipping_weight_grams"`
	TrackingNumber      string          `gorm:"size:100" json:"tracking_number"`
	ShippingCarrier     string          `gorm:"size:50" json:"shipping_carrier"`

	// Gateway order for the installment currently being collected
	GatewayOrderID string `gorm:"size:100;index" json:"gateway_order_id,omitempty"`

	// Timestamps
	ConfirmedAt *time.Time     `json:"confirmed_at"`
	ShippedAt   *time.Time     `json:"shipped_at"`
	DeliveredAt *time.Time     `json:"delivered_at"`
	CancelledAt *time.Time     `json:"cancelled_at"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Items         []OrderItem          `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items"`
	Payments      []Payment            `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"payments,omitempty"`
	StatusHistory []OrderStatusHistory `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"status_history,omitempty"`
}

// OrderItem snapshots a priced cart line at order time
type OrderItem struct {
	ID              uint                  `gorm:"primaryKey" json:"id"`
	OrderID         uint                  `gorm:"not null;index" json:"order_id"`
	ProductID       uint                  `gorm:"not null;index" json:"product_id"`
	SKU             string                `gorm:"not null;size:100" json:"sku"`
	Name            string                `gorm:"not null;size:255" json:"name"`
	Slug            string                `gorm:"size:255" json:"slug"`
	Family          pricing.Family        `gorm:"size:50" json:"family,omitempty"`
	VariantKey      string                `gorm:"size:50" json:"variant_key,omitempty"`
	Customization   pricing.Customization `gorm:"serializer:json;type:jsonb" json:"customization"`
	DesignFileURL   string                `gorm:"size:500" json:"design_file_url,omitempty"`
	Quantity        int                   `gorm:"not null" json:"quantity"`
	UnitPrice       decimal.Decimal       `gorm:"type:numeric(12,4);not null" json:"unit_price"`
	LineTotal       decimal.Decimal       `gorm:"type:numeric(16,4);not null" json:"line_total"`
	UnitWeightGrams decimal.Decimal       `gorm:"type:numeric(12,2)" json:"unit_weight_grams"`
	LineWeightGrams decimal.Decimal       `gorm:"type:numeric(14,2)" json:"line_weight_grams"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

// Payment represents a captured gateway payment against an order
type Payment struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	OrderID           uint            `gorm:"not null;index" json:"order_id"`
	PaymentMethod     string          `gorm:"not null;size:50" json:"payment_method"`
	ProviderOrderID   string          `gorm:"size:255;index" json:"provider_order_id"`
	ProviderPaymentID string          `gorm:"size:255;uniqueIndex" json:"provider_payment_id"`
	Amount            decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
	Currency          string          `gorm:"size:3;default:'INR'" json:"currency"`
	Installment       string          `gorm:"size:20" json:"installment"` // advance, balance, full
	Status            PaymentStatus   `gorm:"not null" json:"status"`
	ProcessedAt       *time.Time      `json:"processed_at"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// OrderStatusHistory tracks order status changes
type OrderStatusHistory struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	OrderID   uint        `gorm:"not null;index" json:"order_id"`
	Status    OrderStatus `gorm:"not null" json:"status"`
	Comment   string      `gorm:"type:text" json:"comment"`
	CreatedBy uint        `gorm:"index" json:"created_by"` // 0 for system changes
	CreatedAt time.Time   `json:"created_at"`
}

// Address represents shipping/billing address (embedded in Order)
type Address struct {
	FirstName    string `gorm:"size:100" json:"first_name" binding:"required"`
	LastName     string `gorm:"size:100" json:"last_name"`
	Company      string `gorm:"size:100" json:"company"`
	GSTIN        string `gorm:"size:15" json:"gstin"`
	AddressLine1 string `gorm:"size:255" json:"address_line1" binding:"required"`
	AddressLine2 string `gorm:"size:255" json:"address_line2"`
	City         string `gorm:"size:100" json:"city" binding:"required"`
	State        string `gorm:"size:100" json:"state" binding:"required"`
	PostalCode   string `gorm:"size:20" json:"postal_code" binding:"required"`
	Country      string `gorm:"size:2" json:"country"`
	Phone        string `gorm:"size:20" json:"phone"`
}

// TableName overrides
func (Order) TableName() string              { return "orders" }
func (OrderItem) TableName() string          { return "order_items" }
func (Payment) TableName() string            { return "payments" }
func (OrderStatusHistory) TableName() string { return "order_status_history" }

// GenerateOrderNumber formats the public order number, PP-YYYYMMDD-XXXXX
func GenerateOrderNumber(createdAt time.Time, id uint) string {
	return fmt.Sprintf("PP-%s-%05d", createdAt.Format("20060102"), id)
}

// CanBeCancelled checks if order can be cancelled
func (o *Order) CanBeCancelled() bool {
	return o.Status == OrderStatusPending || o.Status == OrderStatusConfirmed
}

// IsFullyPaid reports whether nothing is left to collect
func (o *Order) IsFullyPaid() bool {
	return !o.AmountDue.IsPositive()
}

// NextInstallment is the amount the customer is asked to pay next: the rest of
// the advance first, then the balance
func (o *Order) NextInstallment() decimal.Decimal {
	if o.AmountPaid.LessThan(o.AdvanceAmount) {
		return o.AdvanceAmount.Sub(o.AmountPaid)
	}
	if o.AmountDue.IsNegative() {
		return decimal.Zero
	}
	return o.AmountDue
}

// InstallmentLabel names the installment NextInstallment would collect
func (o *Order) InstallmentLabel() string {
	switch {
	case o.PaymentMode != checkout.PaymentModePartial:
		return "full"
	case o.AmountPaid.LessThan(o.AdvanceAmount):
		return "advance"
	default:
		return "balance"
	}
}

// ApplyPayment adds a captured amount and moves payment and order status
// forward. It returns true when the order became confirmed.
func (o *Order) ApplyPayment(amount decimal.Decimal, at time.Time) bool {
	o.AmountPaid = o.AmountPaid.Add(amount)
	o.AmountDue = o.TotalAmount.Sub(o.AmountPaid)
	if o.AmountDue.IsNegative() {
		o.AmountDue = decimal.Zero
	}

	switch {
	case o.IsFullyPaid():
		o.PaymentStatus = PaymentStatusPaid
	case o.AmountPaid.IsPositive():
		o.PaymentStatus = PaymentStatusPartiallyPaid
	}

	if o.Status == OrderStatusPending && o.AmountPaid.GreaterThanOrEqual(o.AdvanceAmount) {
		o.Status = OrderStatusConfirmed
		o.ConfirmedAt = &at
		return true
	}
	return false
}

// AddStatusHistory adds a new status change to history
func (o *Order) AddStatusHistory(status OrderStatus, comment string, createdBy uint) {
	o.StatusHistory = append(o.StatusHistory, OrderStatusHistory{
		OrderID:   o.ID,
		Status:    status,
		Comment:   comment,
		CreatedBy: createdBy,
		CreatedAt: time.Now().UTC(),
	})
}

var validTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:      {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed:    {OrderStatusInProduction, OrderStatusCancelled},
	OrderStatusInProduction: {OrderStatusReadyToShip},
	OrderStatusReadyToShip:  {OrderStatusShipped},
	OrderStatusShipped:      {OrderStatusDelivered},
	OrderStatusDelivered:    {OrderStatusCompleted, OrderStatusRefunded},
}

// CanTransition checks the order workflow
func CanTransition(from, to OrderStatus) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
