// internal/domain/product/entity.go
package product

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/your-org/pouchprint-backend/internal/domain/pricing"
)

// Product is a printable packaging item. Price is the base unit price; tiered
// products carry BulkPricing, pouch families are priced from fixed variant tables.
type Product struct {
	ID           uint                      `gorm:"primaryKey" json:"id"`
	SKU          string                    `gorm:"uniqueIndex;not null;size:100" json:"sku"`
	Name         string                    `gorm:"not null;size:255" json:"name"`
	Slug         string                    `gorm:"uniqueIndex;not null;size:255" json:"slug"`
	Description  string                    `gorm:"type:text" json:"description"`
	ShortDesc    string                    `gorm:"size:500" json:"short_description"`
	Price        decimal.Decimal           `gorm:"type:numeric(12,4);not null" json:"price"`
	ComparePrice decimal.Decimal           `gorm:"type:numeric(12,4)" json:"compare_price"`
	BulkPricing  []pricing.BulkPricingTier `gorm:"serializer:json;type:jsonb" json:"bulk_pricing,omitempty"`
	MinOrderQty  int                       `gorm:"default:1" json:"min_order_qty"`
	CategoryID   uint                      `gorm:"not null;index" json:"category_id"`
	Weight       float64                   `json:"weight"`                     // grams per empty unit
	Dimensions   string                    `gorm:"size:100" json:"dimensions"` // LxWxH format
	Material     string                    `gorm:"size:100" json:"material"`
	IsActive     bool                      `gorm:"default:true" json:"is_active"`
	IsFeatured   bool                      `gorm:"default:false" json:"is_featured"`
	Tags         string                    `gorm:"size:500" json:"tags"` // Comma-separated tags
	CreatedAt    time.Time                 `json:"created_at"`
	UpdatedAt    time.Time                 `json:"updated_at"`
	DeletedAt    gorm.DeletedAt            `gorm:"index" json:"-"`

	// Relationships
	Category Category       `gorm:"foreignKey:CategoryID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"category"`
	Images   []ProductImage `gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"images,omitempty"`
}

// Category represents product categories
type Category struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"not null;size:255" json:"name"`
	Slug        string         `gorm:"uniqueIndex;not null;size:255" json:"slug"`
	Description string         `gorm:"size:500" json:"description"`
	Image       string         `gorm:"size:500" json:"image"`
	SortOrder   int            `gorm:"default:0" json:"sort_order"`
	IsActive    bool           `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// ProductImage represents product images
type ProductImage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProductID uint      `gorm:"not null;index" json:"product_id"`
	URL       string    `gorm:"not null;size:500" json:"url"`
	AltText   string    `gorm:"size:255" json:"alt_text"`
	SortOrder int       `gorm:"default:0" json:"sort_order"`
	IsPrimary bool      `gorm:"default:false" json:"is_primary"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName overrides
func (Product) TableName() string      { return "products" }
func (Category) TableName() string     { return "categories" }
func (ProductImage) TableName() string { return "product_images" }

// PricingRef returns the snapshot the pricing resolver works on
func (p *Product) PricingRef() *pricing.ProductRef {
	if p == nil {
		return nil
	}
	tiers := make([]pricing.BulkPricingTier, len(p.BulkPricing))
	copy(tiers, p.BulkPricing)
	return &pricing.ProductRef{
		Slug:        p.Slug,
		Name:        p.Name,
		Price:       p.Price,
		BulkPricing: tiers,
	}
}

// Family classifies the product by slug
func (p *Product) Family() (pricing.Classification, bool) {
	return pricing.ClassifyProductFamily(p.Slug)
}

// Quote prices quantity units of the product with the given customization
func (p *Product) Quote(quantity int, c pricing.Customization) pricing.Quote {
	return pricing.Resolve(pricing.LineItem{
		Product:       p.PricingRef(),
		Quantity:      quantity,
		Customization: c,
	})
}

// MinimumQuantity is the larger of the product MOQ and the variant MOQ
func (p *Product) MinimumQuantity(c pricing.Customization) int {
	moq := p.MinOrderQty
	if q := p.Quote(0, c); q.MOQ > moq {
		moq = q.MOQ
	}
	if moq < 1 {
		moq = 1
	}
	return moq
}

func (p *Product) GetDiscountPercentage() int {
	if p.ComparePrice.IsPositive() && p.Price.LessThan(p.ComparePrice) {
		return int(p.ComparePrice.Sub(p.Price).Mul(decimal.NewFromInt(100)).Div(p.ComparePrice).IntPart())
	}
	return 0
}
