// internal/domain/cart/entity.go
package cart

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/your-org/pouchprint-backend/internal/domain/pricing"
)

// CartItem represents a cart line stored in database for authenticated users.
// A line is one product with one customization; the same product with a
// different capacity or finish is a separate line.
type CartItem struct {
	ID            uint                  `gorm:"primaryKey" json:"-"`
	LineID        string                `gorm:"uniqueIndex;not null;size:36" json:"line_id"`
	UserID        uint                  `gorm:"not null;index" json:"user_id"`
	ProductID     uint                  `gorm:"not null;index" json:"product_id"`
	Quantity      int                   `gorm:"not null;default:1" json:"quantity"`
	Customization pricing.Customization `gorm:"serializer:json;type:jsonb" json:"customization"`
	Fingerprint   string                `gorm:"size:1000;not null;default:''" json:"-"`
	DesignFileURL string                `gorm:"size:500" json:"design_file_url,omitempty"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
	DeletedAt     gorm.DeletedAt        `gorm:"index" json:"-"`
}

// TableName overrides the table name
func (CartItem) TableName() string {
	return "cart_items"
}

// SessionCart represents a cart session for guest users (stored in Redis)
type SessionCart struct {
	SessionID string            `json:"session_id"`
	Items     []SessionCartItem `json:"items"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	ExpiresAt time.Time         `json:"expires_at"`
}

// SessionCartItem represents a cart line for guest users
type SessionCartItem struct {
	LineID        string                `json:"line_id"`
	ProductID     uint                  `json:"product_id"`
	Quantity      int                   `json:"quantity"`
	Customization pricing.Customization `json:"customization"`
	DesignFileURL string                `json:"design_file_url,omitempty"`
	AddedAt       time.Time             `json:"added_at"`
}

// CartTotals is derived from the pricing resolver on every read and never stored
type CartTotals struct {
	ItemCount        int             `json:"item_count"`     // Number of lines
	TotalQuantity    int             `json:"total_quantity"` // Sum of all quantities
	SubTotal         decimal.Decimal `json:"sub_total"`
	TotalWeightGrams decimal.Decimal `json:"total_weight_grams"`
}
