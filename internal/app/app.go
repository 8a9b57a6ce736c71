// Package app assembles the service graph shared by the HTTP server and the
// background scheduler.
package app

import (
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/your-org/pouchprint-backend/internal/config"
	"github.com/your-org/pouchprint-backend/internal/domain/analytics"
	"github.com/your-org/pouchprint-backend/internal/domain/cart"
	"github.com/your-org/pouchprint-backend/internal/domain/checkout"
	"github.com/your-org/pouchprint-backend/internal/domain/order"
	"github.com/your-org/pouchprint-backend/internal/domain/payment"
	"github.com/your-org/pouchprint-backend/internal/domain/product"
	"github.com/your-org/pouchprint-backend/internal/domain/user"
	"github.com/your-org/pouchprint-backend/internal/pkg/auth"
	"github.com/your-org/pouchprint-backend/internal/pkg/email"
	"github.com/your-org/pouchprint-backend/internal/pkg/pdf"
)

// Services holds every domain service wired against the same stores
type Services struct {
	Tokens     *auth.JWTManager
	Users      *user.Service
	Addresses  *user.AddressService
	Products   *product.Service
	Categories *product.CategoryService
	Carts      *cart.Service
	Checkout   *checkout.Service
	Orders     *order.Service
	Payments   *payment.Service
	Email      *email.Service
	Invoices   *pdf.Service
	Analytics  *analytics.Service
}

// NewServices builds the service graph. The order service depends on checkout
// for pricing and on cart for clearing, payments depend on orders.
func NewServices(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, log *logrus.Logger) *Services {
	tokens := auth.NewJWTManager(cfg)
	mailer := email.NewService(cfg, log)

	products := product.NewService(db, redisClient, cfg, log)
	carts := cart.NewService(db, redisClient, products, cfg, log)
	checkoutService := checkout.NewService(redisClient, carts, cfg, log)
	orders := order.NewService(db, cfg, checkoutService, carts, mailer, log)
	payments := payment.NewService(orders, payment.NewClient(cfg.External.Razorpay), cfg, log)

	return &Services{
		Tokens:     tokens,
		Users:      user.NewService(db, cfg, tokens, log),
		Addresses:  user.NewAddressService(db),
		Products:   products,
		Categories: product.NewCategoryService(db),
		Carts:      carts,
		Checkout:   checkoutService,
		Orders:     orders,
		Payments:   payments,
		Email:      mailer,
		Invoices:   pdf.NewService(cfg),
		Analytics:  analytics.NewService(db, log),
	}
}
