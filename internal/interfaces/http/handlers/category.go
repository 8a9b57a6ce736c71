// internal/interfaces/http/handlers/category.go
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/your-org/pouchprint-backend/internal/domain/product"
)

// Categories manages product categories
type Categories interface {
	GetCategories(ctx context.Context, includeInactive bool) ([]product.CategoryWithProductCount, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*product.Category, error)
	CreateCategory(ctx context.Context, req *product.CategoryCreateRequest) (*product.Category, error)
	UpdateCategory(ctx context.Context, id uint, req *product.CategoryUpdateRequest) (*product.Category, error)
	DeleteCategory(ctx context.Context, id uint) error
}

// CategoryHandler handles category endpoints
type CategoryHandler struct {
	categoryService Categories
}

// NewCategoryHandler creates a new category handler
func NewCategoryHandler(categories Categories) *CategoryHandler {
	return &CategoryHandler{categoryService: categories}
}

// GetCategories handles GET /products/categories
func (h *CategoryHandler) GetCategories(c *gin.Context) {
	h.listCategories(c, false)
}

// GetCategoryBySlug handles GET /products/categories/:slug
func (h *CategoryHandler) GetCategoryBySlug(c *gin.Context) {
	category, err := h.categoryService.GetCategoryBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err, "Failed to retrieve category")
		return
	}
	if !category.IsActive {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Category not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Category retrieved successfully",
		"data":    category,
	})
}

// AdminGetCategories handles GET /admin/categories
func (h *CategoryHandler) AdminGetCategories(c *gin.Context) {
	h.listCategories(c, true)
}

// AdminCreateCategory handles POST /admin/categories
func (h *CategoryHandler) AdminCreateCategory(c *gin.Context) {
	var req product.CategoryCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	category, err := h.categoryService.CreateCategory(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, "Failed to create category")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Category created successfully",
		"data":    category,
	})
}

// AdminUpdateCategory handles PUT /admin/categories/:id
func (h *CategoryHandler) AdminUpdateCategory(c *gin.Context) {
	id, ok := parseID(c, "id", "category ID")
	if !ok {
		return
	}

	var req product.CategoryUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	category, err := h.categoryService.UpdateCategory(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err, "Failed to update category")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Category updated successfully",
		"data":    category,
	})
}

// AdminDeleteCategory handles DELETE /admin/categories/:id
func (h *CategoryHandler) AdminDeleteCategory(c *gin.Context) {
	id, ok := parseID(c, "id", "category ID")
	if !ok {
		return
	}

	if err := h.categoryService.DeleteCategory(c.Request.Context(), id); err != nil {
		respondError(c, err, "Failed to delete category")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Category deleted successfully",
	})
}

func (h *CategoryHandler) listCategories(c *gin.Context, includeInactive bool) {
	categories, err := h.categoryService.GetCategories(c.Request.Context(), includeInactive)
	if err != nil {
		respondError(c, err, "Failed to retrieve categories")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Categories retrieved successfully",
		"data":    categories,
	})
}
