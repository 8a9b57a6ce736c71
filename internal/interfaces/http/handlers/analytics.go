// internal/interfaces/http/handlers/analytics.go
package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/your-org/pouchprint-backend/internal/domain/analytics"
	"github.com/your-org/pouchprint-backend/internal/domain/pricing"
)

// Reports serves admin sales reporting
type Reports interface {
	GetDashboardStats(ctx context.Context) (*analytics.DashboardStats, error)
	GetSalesAnalytics(ctx context.Context, days int) (*analytics.SalesAnalytics, error)
}

// AnalyticsHandler handles analytics endpoints
type AnalyticsHandler struct {
	analyticsService Reports
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(reports Reports) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: reports}
}

// GetDashboard handles GET /admin/analytics/dashboard
func (h *AnalyticsHandler) GetDashboard(c *gin.Context) {
	stats, err := h.analyticsService.GetDashboardStats(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to retrieve dashboard statistics")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Dashboard statistics retrieved successfully",
		"data": gin.H{
			"booked_revenue":     pricing.FormatINR(stats.BookedRevenue),
			"booked_this_month":  pricing.FormatINR(stats.BookedThisMonth),
			"collected_revenue":  pricing.FormatINR(stats.CollectedRevenue),
			"outstanding_amount": pricing.FormatINR(stats.OutstandingAmount),
			"avg_order_value":    pricing.FormatINR(stats.AvgOrderValue),

			// Raw values for calculations
			"raw": stats,
		},
	})
}

// GetSales handles GET /admin/analytics/sales?days=30
func (h *AnalyticsHandler) GetSales(c *gin.Context) {
	days := 0
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid days",
			})
			return
		}
		days = n
	}

	sales, err := h.analyticsService.GetSalesAnalytics(c.Request.Context(), days)
	if err != nil {
		respondError(c, err, "Failed to retrieve sales analytics")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Sales analytics retrieved successfully",
		"data":    sales,
	})
}
