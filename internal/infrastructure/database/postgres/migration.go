// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/your-org/pouchprint-backend/internal/domain/cart"
	"github.com/your-org/pouchprint-backend/internal/domain/order"
	"github.com/your-org/pouchprint-backend/internal/domain/pricing"
	"github.com/your-org/pouchprint-backend/internal/domain/product"
	"github.com/your-org/pouchprint-backend/internal/domain/user"
)

// Migration handles database migrations
type Migration struct {
	db  *gorm.DB
	log *logrus.Entry
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB, log *logrus.Logger) *Migration {
	return &Migration{
		db:  db,
		log: log.WithField("component", "migration"),
	}
}

// Models lists every persisted model in dependency order
func Models() []interface{} {
	return []interface{}{
		&user.User{},
		&user.Address{},

		&product.Category{},
		&product.Product{},
		&product.ProductImage{},

		&cart.CartItem{},

		&order.Order{},
		&order.OrderItem{},
		&order.Payment{},
		&order.OrderStatusHistory{},
	}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	m.log.Info("🔄 Running database auto-migrations...")

	for _, model := range Models() {
		m.log.Debugf("Migrating model: %T", model)
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	m.log.Info("✅ Database auto-migrations completed successfully")
	return nil
}

var indexes = []string{
	"CREATE INDEX IF NOT EXISTS idx_users_email_active ON users(email, is_active)",

	"CREATE INDEX IF NOT EXISTS idx_products_category_active ON products(category_id, is_active)",
	"CREATE INDEX IF NOT EXISTS idx_products_featured ON products(is_featured, is_active)",
	"CREATE INDEX IF NOT EXISTS idx_products_created_at ON products(created_at DESC)",
	"CREATE INDEX IF NOT EXISTS idx_categories_sort_order ON categories(sort_order)",
	"CREATE INDEX IF NOT EXISTS idx_product_images_product_primary ON product_images(product_id, is_primary)",

	"CREATE UNIQUE INDEX IF NOT EXISTS idx_cart_items_user_line ON cart_items(user_id, product_id, fingerprint) WHERE deleted_at IS NULL",
	"CREATE INDEX IF NOT EXISTS idx_cart_items_created_at ON cart_items(created_at DESC)",

	"CREATE INDEX IF NOT EXISTS idx_orders_user_status ON orders(user_id, status)",
	"CREATE INDEX IF NOT EXISTS idx_orders_status_created ON orders(status, created_at DESC)",
	"CREATE INDEX IF NOT EXISTS idx_orders_stale ON orders(status, payment_status, created_at)",
	"CREATE INDEX IF NOT EXISTS idx_orders_email ON orders(LOWER(email))",

	"CREATE INDEX IF NOT EXISTS idx_payments_order_status ON payments(order_id, status)",
	"CREATE INDEX IF NOT EXISTS idx_payments_processed_at ON payments(processed_at DESC)",

	"CREATE INDEX IF NOT EXISTS idx_order_status_history_order ON order_status_history(order_id, created_at DESC)",

	"CREATE INDEX IF NOT EXISTS idx_addresses_user_type ON addresses(user_id, type)",
	"CREATE INDEX IF NOT EXISTS idx_addresses_user_default ON addresses(user_id, is_default)",
}

// CreateIndexes creates indexes AutoMigrate cannot express
func (m *Migration) CreateIndexes() error {
	m.log.Info("🔄 Creating additional database indexes...")

	failCount := 0
	for _, indexSQL := range indexes {
		if err := m.db.Exec(indexSQL).Error; err != nil {
			m.log.WithError(err).Warnf("⚠️ Failed to create index: %s", indexSQL)
			failCount++
		}
	}

	m.log.Infof("✅ Created %d indexes (%d failed)", len(indexes)-failCount, failCount)
	if failCount > 0 {
		return fmt.Errorf("%d indexes failed", failCount)
	}
	return nil
}

// SeedInitialData inserts a development catalog and an admin account
func (m *Migration) SeedInitialData(adminEmail, adminPassword string) error {
	m.log.Info("🌱 Seeding initial data...")

	categories, err := m.seedCategories()
	if err != nil {
		return fmt.Errorf("failed to seed categories: %w", err)
	}
	if err := m.seedProducts(categories); err != nil {
		return fmt.Errorf("failed to seed products: %w", err)
	}
	if adminEmail != "" && adminPassword != "" {
		if err := m.seedAdminUser(adminEmail, adminPassword); err != nil {
			return fmt.Errorf("failed to seed admin user: %w", err)
		}
	}

	m.log.Info("✅ Initial data seeded successfully")
	return nil
}

func (m *Migration) seedCategories() (map[string]uint, error) {
	seed := []product.Category{
		{Name: "Incense Pouches", Slug: "incense-pouches", Description: "Printed agarbatti and dhoop pouches", SortOrder: 1, IsActive: true},
		{Name: "Food Pouches", Slug: "food-pouches", Description: "Stand-up and zipper pouches for food products", SortOrder: 2, IsActive: true},
		{Name: "Labels & Bags", Slug: "labels-bags", Description: "Printed labels, stickers and carry bags", SortOrder: 3, IsActive: true},
	}

	ids := make(map[string]uint, len(seed))
	for i := range seed {
		c := seed[i]
		if err := m.db.Where(product.Category{Slug: c.Slug}).FirstOrCreate(&c).Error; err != nil {
			return nil, err
		}
		ids[c.Slug] = c.ID
	}
	return ids, nil
}

func (m *Migration) seedProducts(categories map[string]uint) error {
	var count int64
	if err := m.db.Model(&product.Product{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		m.log.Info("⏭️ Products already exist")
		return nil
	}

	upTo := func(n int) *int { return &n }

	products := []product.Product{
		{
			SKU: "PP-AGB-001", Name: "Agarbatti Pouches", Slug: "agarbatti-pouches",
			ShortDesc: "Custom printed incense stick pouches", Price: decimal.RequireFromString("4.50"),
			CategoryID: categories["incense-pouches"], MinOrderQty: 1000, Material: "BOPP/Metpet/PE",
			IsActive: true, IsFeatured: true,
		},
		{
			SKU: "PP-TEA-001", Name: "Tea Pouches", Slug: "tea-pouches",
			ShortDesc: "Printed stand-up pouches for loose tea", Price: decimal.RequireFromString("5.00"),
			CategoryID: categories["food-pouches"], MinOrderQty: 500, Material: "PET/Alu/PE",
			IsActive: true, IsFeatured: true,
		},
		{
			SKU: "PP-COF-001", Name: "Coffee Pouches", Slug: "coffee-pouches",
			ShortDesc: "Valve-ready coffee pouches", Price: decimal.RequireFromString("6.00"),
			CategoryID: categories["food-pouches"], MinOrderQty: 500, Material: "PET/Alu/PE",
			IsActive: true,
		},
		{
			SKU: "PP-LBL-001", Name: "Printed Product Labels", Slug: "printed-product-labels",
			ShortDesc: "Roll labels priced by quantity", Price: decimal.RequireFromString("1.20"),
			BulkPricing: []pricing.BulkPricingTier{
				{MinQty: 1000, MaxQty: upTo(4999), Price: decimal.RequireFromString("0.95")},
				{MinQty: 5000, MaxQty: upTo(9999), Price: decimal.RequireFromString("0.80")},
				{MinQty: 10000, Price: decimal.RequireFromString("0.65")},
			},
			CategoryID: categories["labels-bags"], MinOrderQty: 500, Weight: 2,
			IsActive: true,
		},
		{
			SKU: "PP-BAG-001", Name: "Kraft Carry Bags", Slug: "kraft-carry-bags",
			ShortDesc: "Printed kraft paper carry bags", Price: decimal.RequireFromString("12.00"),
			CategoryID: categories["labels-bags"], MinOrderQty: 100, Weight: 45,
			IsActive: true,
		},
	}

	if err := m.db.Create(&products).Error; err != nil {
		return err
	}
	m.log.Infof("✅ Created %d products", len(products))
	return nil
}

func (m *Migration) seedAdminUser(email, password string) error {
	var existing user.User
	err := m.db.Where("email = ?", user.NormalizeEmail(email)).First(&existing).Error
	if err == nil {
		m.log.Infof("⏭️ Admin user already exists with ID: %d", existing.ID)
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	admin := user.User{
		Email:     email,
		Password:  string(hashed),
		FirstName: "Admin",
		IsActive:  true,
		IsAdmin:   true,
	}
	if err := m.db.Create(&admin).Error; err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	m.log.Infof("✅ Created admin user: %s", admin.Email)
	return nil
}
