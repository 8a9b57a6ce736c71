package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/your-org/pouchprint-backend/internal/domain/pricing"
	"github.com/your-org/pouchprint-backend/internal/domain/product"
)

// ProductLookup finds the product a quote is for
type ProductLookup interface {
	GetProduct(ctx context.Context, id uint) (*product.Product, error)
	GetProductBySlug(ctx context.Context, slug string) (*product.Product, error)
}

// QuoteRequest prices one line item
type QuoteRequest struct {
	ProductID     uint                  `json:"product_id"`
	ProductSlug   string                `json:"product_slug"`
	Quantity      int                   `json:"quantity" binding:"min=0"`
	Customization pricing.Customization `json:"customization"`
}

// QuoteResponse is a priced line item with its ordering constraints
type QuoteResponse struct {
	ProductID       uint          `json:"product_id"`
	ProductSlug     string        `json:"product_slug"`
	ProductName     string        `json:"product_name"`
	Quantity        int           `json:"quantity"`
	Quote           pricing.Quote `json:"quote"`
	MinimumQuantity int           `json:"minimum_quantity"`
	BelowMinimum    bool          `json:"below_minimum"`
}

// ClassificationResponse describes how a slug is priced
type ClassificationResponse struct {
	Slug           string                  `json:"slug"`
	Matched        bool                    `json:"matched"`
	Classification *pricing.Classification `json:"classification,omitempty"`
	Variants       []pricing.VariantPrice  `json:"variants,omitempty"`
}

// PricingHandler exposes the price resolver
type PricingHandler struct {
	products ProductLookup
}

// NewPricingHandler creates a new pricing handler
func NewPricingHandler(products ProductLookup) *PricingHandler {
	return &PricingHandler{products: products}
}

// Quote handles POST /pricing/quote
func (h *PricingHandler) Quote(c *gin.Context) {
	var req QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if req.ProductID == 0 && req.ProductSlug == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "product_id or product_slug is required",
		})
		return
	}

	p, err := h.lookup(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, "Failed to load product")
		return
	}

	quote := p.Quote(req.Quantity, req.Customization)
	moq := p.MinimumQuantity(req.Customization)

	c.JSON(http.StatusOK, gin.H{
		"message": "Quote calculated successfully",
		"data": QuoteResponse{
			ProductID:       p.ID,
			ProductSlug:     p.Slug,
			ProductName:     p.Name,
			Quantity:        req.Quantity,
			Quote:           quote,
			MinimumQuantity: moq,
			BelowMinimum:    req.Quantity < moq,
		},
	})
}

// Classify handles GET /pricing/classify/:slug
func (h *PricingHandler) Classify(c *gin.Context) {
	slug := c.Param("slug")
	response := ClassificationResponse{Slug: slug}

	if classification, ok := pricing.ClassifyProductFamily(slug); ok {
		response.Matched = true
		response.Classification = &classification
		if table := pricing.VariantsFor(classification.Family); table != nil {
			response.Variants = table.Rows()
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Slug classified successfully",
		"data":    response,
	})
}

func (h *PricingHandler) lookup(ctx context.Context, req *QuoteRequest) (*product.Product, error) {
	if req.ProductSlug != "" {
		return h.products.GetProductBySlug(ctx, req.ProductSlug)
	}

	p, err := h.products.GetProduct(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, product.ErrProductNotFound
	}
	return p, nil
}
