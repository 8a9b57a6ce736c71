// internal/domain/analytics/service.go
package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/your-org/pouchprint-backend/internal/domain/order"
)

const (
	defaultSalesDays = 30
	maxSalesDays     = 366
	topProductsLimit = 10
)

// excludedStatuses never count as booked revenue
var excludedStatuses = []order.OrderStatus{order.OrderStatusCancelled, order.OrderStatusRefunded}

// Service handles admin reporting over orders
type Service struct {
	db  *gorm.DB
	log *logrus.Logger
	now func() time.Time
}

// NewService creates a new analytics service
func NewService(db *gorm.DB, log *logrus.Logger) *Service {
	return &Service{
		db:  db,
		log: log,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// DashboardStats represents overall dashboard statistics
type DashboardStats struct {
	// Booked revenue is order totals, collected is what customers have paid
	BookedRevenue     decimal.Decimal `json:"booked_revenue"`
	BookedThisMonth   decimal.Decimal `json:"booked_this_month"`
	CollectedRevenue  decimal.Decimal `json:"collected_revenue"`
	OutstandingAmount decimal.Decimal `json:"outstanding_amount"`
	RevenueGrowth     float64         `json:"revenue_growth"` // month over month, percent

	TotalOrders     int64   `json:"total_orders"`
	OrdersToday     int64   `json:"orders_today"`
	OrdersThisWeek  int64   `json:"orders_this_week"`
	OrdersThisMonth int64   `json:"orders_this_month"`
	OrderGrowth     float64 `json:"order_growth"`
	AwaitingBalance int64   `json:"awaiting_balance"` // partially paid orders

	TotalCustomers    int64 `json:"total_customers"`
	NewCustomersMonth int64 `json:"new_customers_this_month"`
	ActiveProducts    int64 `json:"active_products"`

	AvgOrderValue decimal.Decimal `json:"avg_order_value"`
	OrdersByState []StatusData    `json:"orders_by_status"`
}

// SalesAnalytics represents sales over a trailing window
type SalesAnalytics struct {
	Days          int                `json:"days"`
	From          time.Time          `json:"from"`
	DailyRevenue  []TimeSeriesData   `json:"daily_revenue"`
	TotalOrders   int64              `json:"total_orders"`
	TotalRevenue  decimal.Decimal    `json:"total_revenue"`
	TotalUnits    int64              `json:"total_units"`
	AvgOrderValue decimal.Decimal    `json:"avg_order_value"`
	TopProducts   []ProductSalesData `json:"top_products"`
	ByFamily      []FamilySalesData  `json:"by_family"`
}

// TimeSeriesData is one day of sales
type TimeSeriesData struct {
	Date  string          `json:"date"`
	Value decimal.Decimal `json:"value"`
	Count int64           `json:"count"`
}

type ProductSalesData struct {
	ProductID   uint            `json:"product_id"`
	ProductName string          `json:"product_name"`
	SKU         string          `json:"sku"`
	TotalSold   int64           `json:"total_sold"`
	Revenue     decimal.Decimal `json:"revenue"`
	OrderCount  int64           `json:"order_count"`
}

// FamilySalesData splits sales by pricing family. Tier and flat priced
// products report an empty family.
type FamilySalesData struct {
	Family    string          `json:"family"`
	TotalSold int64           `json:"total_sold"`
	Revenue   decimal.Decimal `json:"revenue"`
}

type StatusData struct {
	Status string          `json:"status"`
	Count  int64           `json:"count"`
	Value  decimal.Decimal `json:"value"`
}

// GetDashboardStats retrieves overall dashboard statistics
func (s *Service) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	p := periodsAt(s.now())
	db := s.db.WithContext(ctx)
	stats := &DashboardStats{}

	var money struct {
		Booked      decimal.NullDecimal
		BookedMonth decimal.NullDecimal
		BookedLast  decimal.NullDecimal
		Collected   decimal.NullDecimal
		Outstanding decimal.NullDecimal
	}
	err := db.Model(&order.Order{}).
		Select(`SUM(total_amount) FILTER (WHERE status NOT IN @excluded) AS booked,
			SUM(total_amount) FILTER (WHERE status NOT IN @excluded AND created_at >= @month) AS booked_month,
			SUM(total_amount) FILTER (WHERE status NOT IN @excluded AND created_at >= @last AND created_at < @month) AS booked_last,
			SUM(amount_paid) FILTER (WHERE status NOT IN @excluded) AS collected,
			SUM(amount_due) FILTER (WHERE status NOT IN @excluded) AS outstanding`,
			map[string]interface{}{"excluded": excludedStatuses, "month": p.month, "last": p.lastMonth}).
		Scan(&money).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load revenue: %w", err)
	}
	stats.BookedRevenue = orZero(money.Booked)
	stats.BookedThisMonth = orZero(money.BookedMonth)
	stats.CollectedRevenue = orZero(money.Collected)
	stats.OutstandingAmount = orZero(money.Outstanding)
	stats.RevenueGrowth = growth(stats.BookedThisMonth, orZero(money.BookedLast))

	var counts struct {
		Total           int64
		Today           int64
		Week            int64
		Month           int64
		LastMonth       int64
		AwaitingBalance int64
		Booked          int64
	}
	err = db.Model(&order.Order{}).
		Select(`COUNT(*) AS total,
			COUNT(*) FILTER (WHERE created_at >= @today) AS today,
			COUNT(*) FILTER (WHERE created_at >= @week) AS week,
			COUNT(*) FILTER (WHERE created_at >= @month) AS month,
			COUNT(*) FILTER (WHERE created_at >= @last AND created_at < @month) AS last_month,
			COUNT(*) FILTER (WHERE payment_status = @partial AND status NOT IN @excluded) AS awaiting_balance,
			COUNT(*) FILTER (WHERE status NOT IN @excluded) AS booked`,
			map[string]interface{}{
				"today":    p.today,
				"week":     p.week,
				"month":    p.month,
				"last":     p.lastMonth,
				"partial":  order.PaymentStatusPartiallyPaid,
				"excluded": excludedStatuses,
			}).
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}
	stats.TotalOrders = counts.Total
	stats.OrdersToday = counts.Today
	stats.OrdersThisWeek = counts.Week
	stats.OrdersThisMonth = counts.Month
	stats.AwaitingBalance = counts.AwaitingBalance
	stats.OrderGrowth = growth(decimal.NewFromInt(counts.Month), decimal.NewFromInt(counts.LastMonth))
	stats.AvgOrderValue = average(stats.BookedRevenue, counts.Booked)

	if err := db.Table("users").Where("deleted_at IS NULL").Count(&stats.TotalCustomers).Error; err != nil {
		return nil, fmt.Errorf("failed to count customers: %w", err)
	}
	if err := db.Table("users").Where("deleted_at IS NULL AND created_at >= ?", p.month).Count(&stats.NewCustomersMonth).Error; err != nil {
		return nil, fmt.Errorf("failed to count new customers: %w", err)
	}
	if err := db.Table("products").Where("deleted_at IS NULL AND is_active = ?", true).Count(&stats.ActiveProducts).Error; err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	err = db.Model(&order.Order{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(total_amount), 0) AS value").
		Group("status").
		Order("count DESC").
		Scan(&stats.OrdersByState).Error
	if err != nil {
		return nil, fmt.Errorf("failed to group orders by status: %w", err)
	}

	return stats, nil
}

// GetSalesAnalytics retrieves sales for the trailing number of days. Days
// without orders are reported as zero.
func (s *Service) GetSalesAnalytics(ctx context.Context, days int) (*SalesAnalytics, error) {
	days = clampDays(days)
	now := s.now()
	from := startOfDay(now).AddDate(0, 0, -(days - 1))
	db := s.db.WithContext(ctx)

	analytics := &SalesAnalytics{Days: days, From: from}

	var daily []TimeSeriesData
	err := db.Model(&order.Order{}).
		Select("TO_CHAR(DATE(created_at), 'YYYY-MM-DD') AS date, COALESCE(SUM(total_amount), 0) AS value, COUNT(*) AS count").
		Where("created_at >= ? AND status NOT IN ?", from, excludedStatuses).
		Group("DATE(created_at)").
		Order("DATE(created_at)").
		Scan(&daily).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get daily revenue: %w", err)
	}
	analytics.DailyRevenue = fillDailySeries(from, days, daily)

	for _, d := range analytics.DailyRevenue {
		analytics.TotalOrders += d.Count
		analytics.TotalRevenue = analytics.TotalRevenue.Add(d.Value)
	}
	analytics.AvgOrderValue = average(analytics.TotalRevenue, analytics.TotalOrders)

	items := db.Table("order_items oi").
		Joins("JOIN orders o ON o.id = oi.order_id").
		Where("o.deleted_at IS NULL AND o.created_at >= ? AND o.status NOT IN ?", from, excludedStatuses)

	err = items.Session(&gorm.Session{}).
		Select(`oi.product_id, MAX(oi.name) AS product_name, MAX(oi.sku) AS sku,
			SUM(oi.quantity) AS total_sold, SUM(oi.line_total) AS revenue,
			COUNT(DISTINCT o.id) AS order_count`).
		Group("oi.product_id").
		Order("revenue DESC").
		Limit(topProductsLimit).
		Scan(&analytics.TopProducts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get top products: %w", err)
	}

	err = items.Session(&gorm.Session{}).
		Select("COALESCE(oi.family, '') AS family, SUM(oi.quantity) AS total_sold, SUM(oi.line_total) AS revenue").
		Group("COALESCE(oi.family, '')").
		Order("revenue DESC").
		Scan(&analytics.ByFamily).Error
	if err != nil {
		return nil, fmt.Errorf("failed to group sales by family: %w", err)
	}
	for _, f := range analytics.ByFamily {
		analytics.TotalUnits += f.TotalSold
	}

	s.log.WithFields(logrus.Fields{
		"days":   days,
		"orders": analytics.TotalOrders,
	}).Debug("📈 Sales analytics computed")

	return analytics, nil
}

// periods holds the reporting boundaries for a moment in time
type periods struct {
	today     time.Time
	week      time.Time // Monday
	month     time.Time
	lastMonth time.Time
}

func periodsAt(now time.Time) periods {
	today := startOfDay(now)
	offset := (int(today.Weekday()) + 6) % 7
	month := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return periods{
		today:     today,
		week:      today.AddDate(0, 0, -offset),
		month:     month,
		lastMonth: month.AddDate(0, -1, 0),
	}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func clampDays(days int) int {
	if days <= 0 {
		return defaultSalesDays
	}
	if days > maxSalesDays {
		return maxSalesDays
	}
	return days
}

// fillDailySeries returns one entry per day starting at from, taking values
// from rows where present
func fillDailySeries(from time.Time, days int, rows []TimeSeriesData) []TimeSeriesData {
	byDate := make(map[string]TimeSeriesData, len(rows))
	for _, r := range rows {
		byDate[r.Date] = r
	}

	series := make([]TimeSeriesData, days)
	for i := range series {
		date := from.AddDate(0, 0, i).Format("2006-01-02")
		if r, ok := byDate[date]; ok {
			series[i] = r
			continue
		}
		series[i] = TimeSeriesData{Date: date, Value: decimal.Zero}
	}
	return series
}

// growth is the percentage change from previous to current, zero when there
// is no previous value
func growth(current, previous decimal.Decimal) float64 {
	if !previous.IsPositive() {
		return 0
	}
	pct, _ := current.Sub(previous).Div(previous).Mul(decimal.NewFromInt(100)).Round(2).Float64()
	return pct
}

func average(total decimal.Decimal, count int64) decimal.Decimal {
	if count <= 0 {
		return decimal.Zero
	}
	return total.Div(decimal.NewFromInt(count)).Round(2)
}

func orZero(d decimal.NullDecimal) decimal.Decimal {
	if d.Valid {
		return d.Decimal
	}
	return decimal.Zero
}
