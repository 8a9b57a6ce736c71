// internal/domain/product/service.go
package product

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/your-org/pouchprint-backend/internal/config"
	"github.com/your-org/pouchprint-backend/internal/domain/pricing"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrInvalidPricing   = errors.New("invalid bulk pricing")
	ErrDuplicateSKU     = errors.New("product with this SKU already exists")
	ErrNotVariantPriced = errors.New("product is not priced from a variant table")
)

// Service handles product business logic
type Service struct {
	db     *gorm.DB
	cache  *slugCache
	config *config.Config
	log    *logrus.Entry
}

// NewService creates a new product service
func NewService(db *gorm.DB, redisClient *redis.Client, cfg *config.Config, log *logrus.Logger) *Service {
	return &Service{
		db:     db,
		cache:  newSlugCache(redisClient),
		config: cfg,
		log:    log.WithField("component", "product"),
	}
}

// ProductListRequest represents product list query parameters
type ProductListRequest struct {
	Page       int    `form:"page,default=1"`
	Limit      int    `form:"limit,default=20"`
	CategoryID uint   `form:"category_id"`
	Category   string `form:"category"`
	Search     string `form:"search"`
	SortBy     string `form:"sort_by,default=created_at"`
	SortOrder  string `form:"sort_order,default=desc"`
	IsFeatured *bool  `form:"is_featured"`
	All        bool   `form:"-"` // include inactive, admin only
}

// ProductCreateRequest represents product creation data
type ProductCreateRequest struct {
	SKU          string                    `json:"sku" binding:"required"`
	Name         string                    `json:"name" binding:"required"`
	Slug         string                    `json:"slug"`
	Description  string                    `json:"description"`
	ShortDesc    string                    `json:"short_description"`
	Price        decimal.Decimal           `json:"price"`
	ComparePrice decimal.Decimal           `json:"compare_price"`
	BulkPricing  []pricing.BulkPricingTier `json:"bulk_pricing"`
	MinOrderQty  int                       `json:"min_order_qty"`
	CategoryID   uint                      `json:"category_id" binding:"required"`
	Weight       float64                   `json:"weight"`
	Dimensions   string                    `json:"dimensions"`
	Material     string                    `json:"material"`
	IsActive     bool                      `json:"is_active"`
	IsFeatured   bool                      `json:"is_featured"`
	Tags         string                    `json:"tags"`
}

// ProductUpdateRequest represents product update data
type ProductUpdateRequest struct {
	Name         *string                    `json:"name"`
	Description  *string                    `json:"description"`
	ShortDesc    *string                    `json:"short_description"`
	Price        *decimal.Decimal           `json:"price"`
	ComparePrice *decimal.Decimal           `json:"compare_price"`
	BulkPricing  *[]pricing.BulkPricingTier `json:"bulk_pricing"`
	MinOrderQty  *int                       `json:"min_order_qty"`
	CategoryID   *uint                      `json:"category_id"`
	Weight       *float64                   `json:"weight"`
	Dimensions   *string                    `json:"dimensions"`
	Material     *string                    `json:"material"`
	IsActive     *bool                      `json:"is_active"`
	IsFeatured   *bool                      `json:"is_featured"`
	Tags         *string                    `json:"tags"`
}

// ProductResponse represents product response with pagination
type ProductResponse struct {
	Products   []Product  `json:"products"`
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

// VariantsResponse is the capacity/finish selector for a variant-priced product
type VariantsResponse struct {
	Slug     string                 `json:"slug"`
	Family   pricing.Family         `json:"family"`
	BaseSlug string                 `json:"base_slug"`
	Selected string                 `json:"selected,omitempty"`
	Variants []pricing.VariantPrice `json:"variants"`
	Finishes []pricing.Finish       `json:"finishes"`
}

// NewPagination computes page metadata
func NewPagination(page, limit int, total int64) Pagination {
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}

// GetProducts retrieves products with filtering and pagination
func (s *Service) GetProducts(ctx context.Context, req *ProductListRequest) (*ProductResponse, error) {
	normalizePage(&req.Page, &req.Limit)

	var products []Product
	var total int64

	query := s.db.WithContext(ctx).Model(&Product{}).
		Preload("Category").
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("is_primary DESC, sort_order ASC, id ASC")
		})

	if !req.All {
		query = query.Where("products.is_active = ?", true)
	}

	if req.CategoryID > 0 {
		query = query.Where("category_id = ?", req.CategoryID)
	}

	if req.Category != "" {
		query = query.Where("category_id IN (?)",
			s.db.Model(&Category{}).Select("id").Where("slug = ?", req.Category))
	}

	if req.Search != "" {
		search := "%" + strings.ToLower(req.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ? OR LOWER(tags) LIKE ?", search, search, search)
	}

	if req.IsFeatured != nil {
		query = query.Where("is_featured = ?", *req.IsFeatured)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	query = query.Order(buildOrderClause(req.SortBy, req.SortOrder))

	offset := (req.Page - 1) * req.Limit
	if err := query.Offset(offset).Limit(req.Limit).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve products: %w", err)
	}

	return &ProductResponse{
		Products:   products,
		Pagination: NewPagination(req.Page, req.Limit, total),
	}, nil
}

// GetProduct retrieves a single product by ID
func (s *Service) GetProduct(ctx context.Context, id uint) (*Product, error) {
	var product Product
	err := s.db.WithContext(ctx).
		Preload("Category").
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC, id ASC")
		}).
		Where("id = ?", id).
		First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to retrieve product: %w", err)
	}

	return &product, nil
}

// GetActiveProduct retrieves a product that can be added to a cart
func (s *Service) GetActiveProduct(ctx context.Context, id uint) (*Product, error) {
	var product Product
	err := s.db.WithContext(ctx).Where("id = ? AND is_active = ?", id, true).First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to retrieve product: %w", err)
	}
	return &product, nil
}

// GetProductBySlug retrieves an active product by slug, served from Redis when warm
func (s *Service) GetProductBySlug(ctx context.Context, slug string) (*Product, error) {
	if cached, ok := s.cache.get(ctx, slug); ok {
		return cached, nil
	}

	var product Product
	err := s.db.WithContext(ctx).
		Preload("Category").
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC, id ASC")
		}).
		Where("slug = ? AND is_active = ?", slug, true).
		First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to retrieve product: %w", err)
	}

	if err := s.cache.set(ctx, &product); err != nil {
		s.log.WithError(err).WithField("slug", slug).Warn("failed to cache product")
	}

	return &product, nil
}

// Variants returns the variant selector for a product slug
func (s *Service) Variants(slug string) (*VariantsResponse, error) {
	c, ok := pricing.ClassifyProductFamily(slug)
	if !ok {
		return nil, ErrNotVariantPriced
	}
	return &VariantsResponse{
		Slug:     slug,
		Family:   c.Family,
		BaseSlug: c.BaseSlug,
		Selected: c.VariantKey,
		Variants: pricing.VariantsFor(c.Family).Rows(),
		Finishes: []pricing.Finish{pricing.FinishGloss, pricing.FinishMatt},
	}, nil
}

// CreateProduct creates a new product
func (s *Service) CreateProduct(ctx context.Context, req *ProductCreateRequest) (*Product, error) {
	if err := validatePricing(req.Price, req.BulkPricing); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&Product{}).Where("sku = ?", req.SKU).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check sku: %w", err)
	}
	if count > 0 {
		return nil, ErrDuplicateSKU
	}

	slug := req.Slug
	if slug == "" {
		slug = Slugify(req.Name)
	}
	slug, err := s.uniqueSlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	product := Product{
		SKU:          req.SKU,
		Name:         req.Name,
		Slug:         slug,
		Description:  req.Description,
		ShortDesc:    req.ShortDesc,
		Price:        req.Price,
		ComparePrice: req.ComparePrice,
		BulkPricing:  sortedTiers(req.BulkPricing),
		MinOrderQty:  req.MinOrderQty,
		CategoryID:   req.CategoryID,
		Weight:       req.Weight,
		Dimensions:   req.Dimensions,
		Material:     req.Material,
		IsActive:     req.IsActive,
		IsFeatured:   req.IsFeatured,
		Tags:         req.Tags,
	}

	if err := db.Create(&product).Error; err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	db.Preload("Category").First(&product, product.ID)

	s.log.WithFields(logrus.Fields{"product_id": product.ID, "slug": product.Slug}).Info("product created")
	return &product, nil
}

// UpdateProduct updates an existing product
func (s *Service) UpdateProduct(ctx context.Context, id uint, req *ProductUpdateRequest) (*Product, error) {
	db := s.db.WithContext(ctx)

	var product Product
	if err := db.Where("id = ?", id).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}

	price := product.Price
	if req.Price != nil {
		price = *req.Price
	}
	tiers := product.BulkPricing
	if req.BulkPricing != nil {
		tiers = *req.BulkPricing
	}
	if err := validatePricing(price, tiers); err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})

	// Slug is stable on rename; it selects the pricing family.
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.ShortDesc != nil {
		updates["short_desc"] = *req.ShortDesc
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}
	if req.ComparePrice != nil {
		updates["compare_price"] = *req.ComparePrice
	}
	if req.MinOrderQty != nil {
		updates["min_order_qty"] = *req.MinOrderQty
	}
	if req.CategoryID != nil {
		updates["category_id"] = *req.CategoryID
	}
	if req.Weight != nil {
		updates["weight"] = *req.Weight
	}
	if req.Dimensions != nil {
		updates["dimensions"] = *req.Dimensions
	}
	if req.Material != nil {
		updates["material"] = *req.Material
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if req.IsFeatured != nil {
		updates["is_featured"] = *req.IsFeatured
	}
	if req.Tags != nil {
		updates["tags"] = *req.Tags
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(&product).Updates(updates).Error; err != nil {
				return err
			}
		}
		if req.BulkPricing != nil {
			product.BulkPricing = sortedTiers(*req.BulkPricing)
			if err := tx.Model(&product).Select("bulk_pricing").Updates(&product).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	s.cache.invalidate(ctx, product.Slug)

	db.Preload("Category").First(&product, product.ID)

	return &product, nil
}

// DeleteProduct soft deletes a product
func (s *Service) DeleteProduct(ctx context.Context, id uint) error {
	var product Product
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProductNotFound
		}
		return fmt.Errorf("failed to find product: %w", err)
	}

	if err := s.db.WithContext(ctx).Delete(&product).Error; err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	s.cache.invalidate(ctx, product.Slug)
	return nil
}

func (s *Service) uniqueSlug(ctx context.Context, base string) (string, error) {
	slug := base
	for i := 2; ; i++ {
		var count int64
		err := s.db.WithContext(ctx).Unscoped().Model(&Product{}).Where("slug = ?", slug).Count(&count).Error
		if err != nil {
			return "", fmt.Errorf("failed to check slug: %w", err)
		}
		if count == 0 {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}

func validatePricing(price decimal.Decimal, tiers []pricing.BulkPricingTier) error {
	if price.IsNegative() {
		return fmt.Errorf("%w: price cannot be negative", ErrInvalidPricing)
	}
	if err := pricing.ValidateTiers(tiers); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPricing, err)
	}
	return nil
}

func sortedTiers(tiers []pricing.BulkPricingTier) []pricing.BulkPricingTier {
	table, err := pricing.NewTierTable(tiers)
	if err != nil {
		return tiers
	}
	return table.Tiers()
}

func normalizePage(page, limit *int) {
	if *page < 1 {
		*page = 1
	}
	if *limit < 1 || *limit > 100 {
		*limit = 20
	}
}

// buildOrderClause builds ORDER BY clause for sorting
func buildOrderClause(sortBy, sortOrder string) string {
	validSortFields := map[string]bool{
		"name":       true,
		"price":      true,
		"created_at": true,
		"updated_at": true,
	}

	if !validSortFields[sortBy] {
		sortBy = "created_at"
	}

	if sortOrder != "asc" && sortOrder != "desc" {
		sortOrder = "desc"
	}

	return fmt.Sprintf("%s %s", sortBy, sortOrder)
}

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify generates a URL-friendly slug from a name
func Slugify(name string) string {
	slug := nonSlugChars.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(slug, "-")
}
