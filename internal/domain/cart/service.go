// internal/domain/cart/service.go
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/your-org/pouchprint-backend/internal/config"
	"github.com/your-org/pouchprint-backend/internal/domain/pricing"
	"github.com/your-org/pouchprint-backend/internal/domain/product"
)

const guestCartTTL = 24 * time.Hour

var (
	ErrItemNotFound      = errors.New("item not found in cart")
	ErrSessionRequired   = errors.New("session ID required for guest cart")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
	ErrProductNotInStock = errors.New("product not found or inactive")
)

// Catalog loads products for cart lines
type Catalog interface {
	GetActiveProduct(ctx context.Context, id uint) (*product.Product, error)
}

// Service owns cart state. Guest carts live in Redis, user carts in Postgres.
type Service struct {
	db          *gorm.DB
	redisClient *redis.Client
	catalog     Catalog
	config      *config.Config
	log         *logrus.Entry
	now         func() time.Time
}

// NewService creates a new cart service
func NewService(db *gorm.DB, redisClient *redis.Client, catalog Catalog, cfg *config.Config, log *logrus.Logger) *Service {
	return &Service{
		db:          db,
		redisClient: redisClient,
		catalog:     catalog,
		config:      cfg,
		log:         log.WithField("component", "cart"),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// CartItemResponse represents a priced cart line
type CartItemResponse struct {
	LineID          string                `json:"line_id"`
	ProductID       uint                  `json:"product_id"`
	Quantity        int                   `json:"quantity"`
	Customization   pricing.Customization `json:"customization"`
	DesignFileURL   string                `json:"design_file_url,omitempty"`
	Product         *product.Product      `json:"product,omitempty"`
	Quote           pricing.Quote         `json:"quote"`
	MinimumQuantity int                   `json:"minimum_quantity"`
	Warning         string                `json:"warning,omitempty"`
	Unavailable     bool                  `json:"unavailable,omitempty"`
	AddedAt         time.Time             `json:"added_at"`
}

// CartResponse represents a shopping cart with items and summary
type CartResponse struct {
	SessionID string             `json:"session_id,omitempty"`
	UserID    *uint              `json:"user_id,omitempty"`
	Items     []CartItemResponse `json:"items"`
	Totals    CartTotals         `json:"totals"`
	Warnings  []string           `json:"warnings,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// AddToCartRequest represents add to cart request
type AddToCartRequest struct {
	ProductID     uint                  `json:"product_id" binding:"required"`
	Quantity      int                   `json:"quantity" binding:"required,min=1"`
	Customization pricing.Customization `json:"customization"`
	DesignFileURL string                `json:"design_file_url"`
}

// UpdateCartItemRequest represents update cart item request
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"min=0"`
}

// line is the storage-neutral view of a cart line
type line struct {
	LineID        string
	ProductID     uint
	Quantity      int
	Customization pricing.Customization
	DesignFileURL string
	AddedAt       time.Time
}

// LineItems converts priced, available cart lines into resolver input
func (r *CartResponse) LineItems() []pricing.LineItem {
	items := make([]pricing.LineItem, 0, len(r.Items))
	for _, it := range r.Items {
		if it.Unavailable || it.Product == nil {
			continue
		}
		items = append(items, pricing.LineItem{
			Product:       it.Product.PricingRef(),
			Quantity:      it.Quantity,
			Customization: it.Customization,
		})
	}
	return items
}

// IsEmpty reports whether the cart has no purchasable lines
func (r *CartResponse) IsEmpty() bool {
	return r.Totals.ItemCount == 0
}

// GetCart retrieves cart for user or session
func (s *Service) GetCart(ctx context.Context, userID *uint, sessionID string) (*CartResponse, error) {
	var (
		lines                []line
		createdAt, updatedAt time.Time
	)

	if userID != nil {
		var dbItems []CartItem
		err := s.db.WithContext(ctx).Where("user_id = ?", *userID).Order("created_at ASC, id ASC").Find(&dbItems).Error
		if err != nil {
			return nil, fmt.Errorf("failed to retrieve user cart: %w", err)
		}

		for _, item := range dbItems {
			lines = append(lines, line{
				LineID:        item.LineID,
				ProductID:     item.ProductID,
				Quantity:      item.Quantity,
				Customization: item.Customization,
				DesignFileURL: item.DesignFileURL,
				AddedAt:       item.CreatedAt,
			})
		}

		createdAt, updatedAt = s.now(), s.now()
		if len(dbItems) > 0 {
			createdAt = dbItems[0].CreatedAt
			updatedAt = dbItems[len(dbItems)-1].UpdatedAt
		}
	} else {
		sessionCart, err := s.getGuestCart(ctx, sessionID)
		if err != nil {
			return nil, err
		}

		for _, item := range sessionCart.Items {
			lines = append(lines, line{
				LineID:        item.LineID,
				ProductID:     item.ProductID,
				Quantity:      item.Quantity,
				Customization: item.Customization,
				DesignFileURL: item.DesignFileURL,
				AddedAt:       item.AddedAt,
			})
		}

		createdAt = sessionCart.CreatedAt
		updatedAt = sessionCart.UpdatedAt
	}

	items := s.priceLines(ctx, lines)
	totals := CalculateTotals(items)

	var warnings []string
	for _, it := range items {
		if it.Warning != "" {
			warnings = append(warnings, it.Warning)
		}
	}

	return &CartResponse{
		SessionID: sessionID,
		UserID:    userID,
		Items:     items,
		Totals:    totals,
		Warnings:  warnings,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}

// AddToCart adds a line, or tops up the line with the same product and customization
func (s *Service) AddToCart(ctx context.Context, userID *uint, sessionID string, req *AddToCartRequest) (*CartResponse, error) {
	if req.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	if _, err := s.catalog.GetActiveProduct(ctx, req.ProductID); err != nil {
		if errors.Is(err, product.ErrProductNotFound) {
			return nil, ErrProductNotInStock
		}
		return nil, err
	}

	var err error
	if userID != nil {
		err = s.addToUserCart(ctx, *userID, req)
	} else {
		err = s.addToGuestCart(ctx, sessionID, req)
	}
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"product_id": req.ProductID,
		"quantity":   req.Quantity,
		"guest":      userID == nil,
	}).Debug("item added to cart")

	return s.GetCart(ctx, userID, sessionID)
}

// UpdateCartItem sets the quantity of a line; zero removes it
func (s *Service) UpdateCartItem(ctx context.Context, userID *uint, sessionID, lineID string, req *UpdateCartItemRequest) (*CartResponse, error) {
	if req.Quantity < 0 {
		return nil, fmt.Errorf("quantity cannot be negative")
	}

	var err error
	if userID != nil {
		err = s.updateUserCartItem(ctx, *userID, lineID, req.Quantity)
	} else {
		err = s.updateGuestCartItem(ctx, sessionID, lineID, req.Quantity)
	}
	if err != nil {
		return nil, err
	}

	return s.GetCart(ctx, userID, sessionID)
}

// RemoveFromCart removes a line from the cart
func (s *Service) RemoveFromCart(ctx context.Context, userID *uint, sessionID, lineID string) (*CartResponse, error) {
	return s.UpdateCartItem(ctx, userID, sessionID, lineID, &UpdateCartItemRequest{Quantity: 0})
}

// ClearCart removes all items from the cart
func (s *Service) ClearCart(ctx context.Context, userID *uint, sessionID string) error {
	if userID != nil {
		return s.ClearUserCart(s.db.WithContext(ctx), *userID)
	}
	if sessionID == "" {
		return ErrSessionRequired
	}
	return s.redisClient.Del(ctx, guestCartKey(sessionID)).Err()
}

// ClearUserCart deletes a user's cart lines using tx, so order creation can
// clear the cart in its own transaction
func (s *Service) ClearUserCart(tx *gorm.DB, userID uint) error {
	return tx.Where("user_id = ?", userID).Delete(&CartItem{}).Error
}

// GetCartItemCount returns the total quantity in the cart without pricing it
func (s *Service) GetCartItemCount(ctx context.Context, userID *uint, sessionID string) (int, error) {
	if userID != nil {
		var total int64
		err := s.db.WithContext(ctx).Model(&CartItem{}).
			Where("user_id = ?", *userID).
			Select("COALESCE(SUM(quantity), 0)").
			Scan(&total).Error
		if err != nil {
			return 0, fmt.Errorf("failed to count cart items: %w", err)
		}
		return int(total), nil
	}

	if sessionID == "" {
		return 0, nil
	}
	sessionCart, err := s.getGuestCart(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, item := range sessionCart.Items {
		total += item.Quantity
	}
	return total, nil
}

// MergeGuestCartToUser merges guest cart to user cart when user logs in
func (s *Service) MergeGuestCartToUser(ctx context.Context, userID uint, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	guestCart, err := s.getGuestCart(ctx, sessionID)
	if err != nil || len(guestCart.Items) == 0 {
		return nil
	}

	for _, guestItem := range guestCart.Items {
		req := &AddToCartRequest{
			ProductID:     guestItem.ProductID,
			Quantity:      guestItem.Quantity,
			Customization: guestItem.Customization,
			DesignFileURL: guestItem.DesignFileURL,
		}
		if err := s.addToUserCart(ctx, userID, req); err != nil {
			return fmt.Errorf("failed to merge guest cart: %w", err)
		}
	}

	s.log.WithFields(logrus.Fields{"user_id": userID, "lines": len(guestCart.Items)}).Info("guest cart merged")
	return s.ClearCart(ctx, nil, sessionID)
}

// CalculateTotals sums the resolver quotes of available lines
func CalculateTotals(items []CartItemResponse) CartTotals {
	lineItems := make([]pricing.LineItem, 0, len(items))
	totals := CartTotals{}

	for _, item := range items {
		if item.Unavailable || item.Product == nil {
			continue
		}
		totals.ItemCount++
		totals.TotalQuantity += item.Quantity
		lineItems = append(lineItems, pricing.LineItem{
			Product:       item.Product.PricingRef(),
			Quantity:      item.Quantity,
			Customization: item.Customization,
		})
	}

	totals.SubTotal = pricing.ResolveCartTotal(lineItems)
	totals.TotalWeightGrams = pricing.ResolveCartWeight(lineItems)
	return totals
}

// Private helper methods

func (s *Service) priceLines(ctx context.Context, lines []line) []CartItemResponse {
	items := make([]CartItemResponse, 0, len(lines))
	for _, l := range lines {
		item := CartItemResponse{
			LineID:        l.LineID,
			ProductID:     l.ProductID,
			Quantity:      l.Quantity,
			Customization: l.Customization,
			DesignFileURL: l.DesignFileURL,
			AddedAt:       l.AddedAt,
		}

		prod, err := s.catalog.GetActiveProduct(ctx, l.ProductID)
		if err != nil {
			s.log.WithError(err).WithField("product_id", l.ProductID).Warn("cart line product unavailable")
			item.Unavailable = true
			item.Warning = fmt.Sprintf("product %d is no longer available", l.ProductID)
			items = append(items, item)
			continue
		}

		item.Product = prod
		item.Quote = prod.Quote(l.Quantity, l.Customization)
		item.MinimumQuantity = prod.MinimumQuantity(l.Customization)
		if l.Quantity < item.MinimumQuantity {
			item.Warning = fmt.Sprintf("%s requires a minimum order of %d units", prod.Name, item.MinimumQuantity)
		}
		items = append(items, item)
	}
	return items
}

func (s *Service) addToUserCart(ctx context.Context, userID uint, req *AddToCartRequest) error {
	db := s.db.WithContext(ctx)
	fingerprint := req.Customization.Fingerprint()

	var existingItem CartItem
	err := db.Where("user_id = ? AND product_id = ? AND fingerprint = ?", userID, req.ProductID, fingerprint).
		First(&existingItem).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		newItem := CartItem{
			LineID:        uuid.New().String(),
			UserID:        userID,
			ProductID:     req.ProductID,
			Quantity:      req.Quantity,
			Customization: req.Customization,
			Fingerprint:   fingerprint,
			DesignFileURL: req.DesignFileURL,
		}
		if err := db.Create(&newItem).Error; err != nil {
			return fmt.Errorf("failed to add cart item: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to look up cart item: %w", err)
	}

	existingItem.Quantity += req.Quantity
	if req.DesignFileURL != "" {
		existingItem.DesignFileURL = req.DesignFileURL
	}
	if err := db.Save(&existingItem).Error; err != nil {
		return fmt.Errorf("failed to update cart item: %w", err)
	}
	return nil
}

func (s *Service) addToGuestCart(ctx context.Context, sessionID string, req *AddToCartRequest) error {
	sessionCart, err := s.getGuestCart(ctx, sessionID)
	if err != nil {
		return err
	}

	fingerprint := req.Customization.Fingerprint()
	itemExists := false
	for i := range sessionCart.Items {
		it := &sessionCart.Items[i]
		if it.ProductID == req.ProductID && it.Customization.Fingerprint() == fingerprint {
			it.Quantity += req.Quantity
			if req.DesignFileURL != "" {
				it.DesignFileURL = req.DesignFileURL
			}
			itemExists = true
			break
		}
	}

	if !itemExists {
		sessionCart.Items = append(sessionCart.Items, SessionCartItem{
			LineID:        uuid.New().String(),
			ProductID:     req.ProductID,
			Quantity:      req.Quantity,
			Customization: req.Customization,
			DesignFileURL: req.DesignFileURL,
			AddedAt:       s.now(),
		})
	}

	sessionCart.UpdatedAt = s.now()
	return s.saveGuestCart(ctx, sessionCart)
}

func (s *Service) updateUserCartItem(ctx context.Context, userID uint, lineID string, quantity int) error {
	db := s.db.WithContext(ctx).Where("user_id = ? AND line_id = ?", userID, lineID)

	var result *gorm.DB
	if quantity == 0 {
		result = db.Delete(&CartItem{})
	} else {
		result = db.Model(&CartItem{}).Update("quantity", quantity)
	}
	if result.Error != nil {
		return fmt.Errorf("failed to update cart item: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (s *Service) updateGuestCartItem(ctx context.Context, sessionID, lineID string, quantity int) error {
	sessionCart, err := s.getGuestCart(ctx, sessionID)
	if err != nil {
		return err
	}

	itemFound := false
	for i := range sessionCart.Items {
		if sessionCart.Items[i].LineID != lineID {
			continue
		}
		if quantity == 0 {
			sessionCart.Items = append(sessionCart.Items[:i], sessionCart.Items[i+1:]...)
		} else {
			sessionCart.Items[i].Quantity = quantity
		}
		itemFound = true
		break
	}

	if !itemFound {
		return ErrItemNotFound
	}

	sessionCart.UpdatedAt = s.now()
	return s.saveGuestCart(ctx, sessionCart)
}

func guestCartKey(sessionID string) string {
	return fmt.Sprintf("cart:session:%s", sessionID)
}

func (s *Service) getGuestCart(ctx context.Context, sessionID string) (*SessionCart, error) {
	if sessionID == "" {
		return nil, ErrSessionRequired
	}

	cartData, err := s.redisClient.Get(ctx, guestCartKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		now := s.now()
		return &SessionCart{
			SessionID: sessionID,
			Items:     []SessionCartItem{},
			CreatedAt: now,
			UpdatedAt: now,
			ExpiresAt: now.Add(guestCartTTL),
		}, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to load guest cart: %w", err)
	}

	var sessionCart SessionCart
	if err := json.Unmarshal(cartData, &sessionCart); err != nil {
		return nil, fmt.Errorf("failed to decode guest cart: %w", err)
	}

	return &sessionCart, nil
}

func (s *Service) saveGuestCart(ctx context.Context, cart *SessionCart) error {
	cart.ExpiresAt = s.now().Add(guestCartTTL)

	cartData, err := json.Marshal(cart)
	if err != nil {
		return err
	}

	return s.redisClient.Set(ctx, guestCartKey(cart.SessionID), cartData, guestCartTTL).Err()
}
