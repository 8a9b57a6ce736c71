// internal/domain/checkout/service.go
package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/your-org/pouchprint-backend/internal/config"
	"github.com/your-org/pouchprint-backend/internal/domain/cart"
	"github.com/your-org/pouchprint-backend/internal/domain/pricing"
)

const couponTTL = 24 * time.Hour

var (
	ErrCartEmpty             = errors.New("cart is empty")
	ErrUnknownShippingMethod = errors.New("unknown shipping method")
	ErrShippingUnavailable   = errors.New("selected shipping method is not available")
	ErrInvalidCoupon         = errors.New("coupon cannot be applied")
)

// CartReader loads the priced cart for an owner
type CartReader interface {
	GetCart(ctx context.Context, userID *uint, sessionID string) (*cart.CartResponse, error)
}

// Service handles checkout business logic
type Service struct {
	redisClient *redis.Client
	carts       CartReader
	config      *config.Config
	rates       ShippingRates
	policy      PlanPolicy
	log         *logrus.Entry
}

// NewService creates a new checkout service
func NewService(redisClient *redis.Client, carts CartReader, cfg *config.Config, log *logrus.Logger) *Service {
	return &Service{
		redisClient: redisClient,
		carts:       carts,
		config:      cfg,
		rates:       RatesFromConfig(cfg.Checkout),
		policy:      PolicyFromConfig(cfg.Checkout),
		log:         log.WithField("component", "checkout"),
	}
}

// SummaryRequest selects the checkout options
type SummaryRequest struct {
	ShippingMethodID string `json:"shipping_method_id" form:"shipping_method_id"`
	CouponCode       string `json:"coupon_code" form:"coupon_code"`
	PaymentMode      string `json:"payment_mode" form:"payment_mode"`
}

// CheckoutPricing represents pricing breakdown
type CheckoutPricing struct {
	Currency       string          `json:"currency"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	ShippingCost   decimal.Decimal `json:"shipping_cost"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	WeightGrams    decimal.Decimal `json:"weight_grams"`
}

// PaymentMethod represents available payment methods
type PaymentMethod struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Available   bool   `json:"available"`
}

// CheckoutSummary represents complete checkout summary
type CheckoutSummary struct {
	Cart            *cart.CartResponse `json:"cart"`
	ShippingMethods []ShippingMethod   `json:"shipping_methods"`
	ShippingMethod  ShippingMethod     `json:"shipping_method"`
	Pricing         CheckoutPricing    `json:"pricing"`
	Tax             TaxCalculation     `json:"tax"`
	AppliedCoupon   *CouponApplication `json:"applied_coupon,omitempty"`
	PaymentPlan     PaymentPlan        `json:"payment_plan"`
	PaymentMethods  []PaymentMethod    `json:"payment_methods"`
	Warnings        []string           `json:"warnings,omitempty"`
}

// ShippingQuoteRequest prices shipping for a weight without a cart
type ShippingQuoteRequest struct {
	WeightGrams decimal.Decimal `json:"weight_grams" form:"weight_grams"`
	Subtotal    decimal.Decimal `json:"subtotal" form:"subtotal"`
}

// Rates exposes the configured shipping rates
func (s *Service) Rates() ShippingRates {
	return s.rates
}

// Policy exposes the configured partial payment rules
func (s *Service) Policy() PlanPolicy {
	return s.policy
}

// ShippingQuote lists shipping methods for a parcel
func (s *Service) ShippingQuote(req *ShippingQuoteRequest) []ShippingMethod {
	return s.rates.Quote(req.WeightGrams, req.Subtotal)
}

// Summary prices the owner's cart: resolver subtotal, coupon, shipping by
// weight slab, GST and the payment plan
func (s *Service) Summary(ctx context.Context, userID *uint, sessionID string, req *SummaryRequest) (*CheckoutSummary, error) {
	cartResponse, err := s.carts.GetCart(ctx, userID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	if cartResponse.IsEmpty() {
		return nil, ErrCartEmpty
	}

	mode, err := ParsePaymentMode(req.PaymentMode)
	if err != nil {
		return nil, err
	}

	subtotal := cartResponse.Totals.SubTotal
	weight := cartResponse.Totals.TotalWeightGrams

	summary := &CheckoutSummary{
		Cart:            cartResponse,
		ShippingMethods: s.rates.Quote(weight, subtotal),
		PaymentMethods:  s.paymentMethods(),
		Warnings:        cartResponse.Warnings,
	}

	method, ok := s.rates.Method(req.ShippingMethodID, weight, subtotal)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownShippingMethod, req.ShippingMethodID)
	}
	if !method.Available {
		return nil, ErrShippingUnavailable
	}
	summary.ShippingMethod = method

	couponCode := req.CouponCode
	if couponCode == "" {
		couponCode = s.storedCouponCode(ctx, userID, sessionID)
	}
	discount := decimal.Zero
	if couponCode != "" {
		coupon := ValidateCoupon(couponCode, subtotal)
		if coupon.Applied {
			summary.AppliedCoupon = coupon
			discount = coupon.DiscountAmount
		} else if req.CouponCode != "" {
			summary.Warnings = append(summary.Warnings, coupon.Message)
		}
	}

	roundedSubtotal := pricing.RoundMoney(subtotal)
	summary.Tax = CalculateTax(roundedSubtotal.Sub(discount), s.config.Checkout.GSTRate)

	total := roundedSubtotal.Sub(discount).Add(method.Price).Add(summary.Tax.TaxAmount)
	summary.Pricing = CheckoutPricing{
		Currency:       s.config.Checkout.Currency,
		Subtotal:       roundedSubtotal,
		ShippingCost:   method.Price,
		DiscountAmount: discount,
		TaxAmount:      summary.Tax.TaxAmount,
		TotalAmount:    pricing.RoundMoney(total),
		WeightGrams:    weight,
	}

	plan, err := s.policy.Plan(summary.Pricing.TotalAmount, mode)
	if err != nil {
		return nil, err
	}
	summary.PaymentPlan = plan

	return summary, nil
}

// ApplyCoupon validates a coupon against the current cart and remembers it
func (s *Service) ApplyCoupon(ctx context.Context, userID *uint, sessionID, couponCode string) (*CouponApplication, error) {
	cartResponse, err := s.carts.GetCart(ctx, userID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	if cartResponse.IsEmpty() {
		return nil, ErrCartEmpty
	}

	coupon := ValidateCoupon(couponCode, cartResponse.Totals.SubTotal)
	if !coupon.Applied {
		return coupon, fmt.Errorf("%w: %s", ErrInvalidCoupon, coupon.Message)
	}

	if err := s.redisClient.Set(ctx, couponKey(userID, sessionID), coupon.CouponCode, couponTTL).Err(); err != nil {
		return nil, fmt.Errorf("failed to store coupon: %w", err)
	}

	return coupon, nil
}

// RemoveCoupon removes applied coupon
func (s *Service) RemoveCoupon(ctx context.Context, userID *uint, sessionID string) error {
	return s.redisClient.Del(ctx, couponKey(userID, sessionID)).Err()
}

func (s *Service) storedCouponCode(ctx context.Context, userID *uint, sessionID string) string {
	if s.redisClient == nil {
		return ""
	}
	code, err := s.redisClient.Get(ctx, couponKey(userID, sessionID)).Result()
	if err != nil {
		return ""
	}
	return code
}

func couponKey(userID *uint, sessionID string) string {
	if userID != nil {
		return fmt.Sprintf("applied_coupon:user:%d", *userID)
	}
	return fmt.Sprintf("applied_coupon:session:%s", sessionID)
}

func (s *Service) paymentMethods() []PaymentMethod {
	return []PaymentMethod{
		{
			ID:          "razorpay",
			Name:        "Razorpay",
			Description: "Pay using Credit Card, Debit Card, NetBanking or UPI",
			Available:   s.config.External.Razorpay.KeyID != "",
		},
		{
			ID:          string(PaymentModePartial),
			Name:        "Advance Payment",
			Description: fmt.Sprintf("Pay %s%% now and the balance before dispatch", s.policy.AdvancePercent.String()),
			Available:   s.config.External.Razorpay.KeyID != "",
		},
	}
}
