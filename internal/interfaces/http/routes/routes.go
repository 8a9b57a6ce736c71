// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/your-org/pouchprint-backend/internal/app"
	"github.com/your-org/pouchprint-backend/internal/interfaces/http/handlers"
	"github.com/your-org/pouchprint-backend/internal/interfaces/http/middleware"
)

// SetupRoutes registers every API v1 route on rg
func SetupRoutes(rg *gin.RouterGroup, svc *app.Services) {
	SetupAuthRoutes(rg, svc)
	SetupUserRoutes(rg, svc)
	SetupProductRoutes(rg, svc)
	SetupPricingRoutes(rg, svc)
	SetupCartRoutes(rg, svc)
	SetupCheckoutRoutes(rg, svc)
	SetupOrderRoutes(rg, svc)
	SetupPaymentRoutes(rg, svc)
	SetupAdminRoutes(rg, svc)
}

// SetupAuthRoutes sets up authentication related routes
func SetupAuthRoutes(rg *gin.RouterGroup, svc *app.Services) {
	authHandler := handlers.NewAuthHandler(svc.Users)

	auth := rg.Group("/auth")
	{
		// Public auth endpoints
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.RefreshToken)

		// Protected auth endpoints
		protected := auth.Group("")
		protected.Use(middleware.AuthMiddleware(svc.Tokens))
		{
			protected.POST("/logout", authHandler.Logout)
			protected.GET("/profile", authHandler.GetProfile)
			protected.PUT("/profile", authHandler.UpdateProfile)
			protected.PUT("/password", authHandler.ChangePassword)
		}
	}
}

// SetupUserRoutes sets up user related routes
func SetupUserRoutes(rg *gin.RouterGroup, svc *app.Services) {
	addressHandler := handlers.NewUserAddressHandler(svc.Addresses)
	profileHandler := handlers.NewUserProfileHandler(svc.Users, svc.Orders)

	users := rg.Group("/users")
	users.Use(middleware.AuthMiddleware(svc.Tokens))
	{
		users.GET("/dashboard", profileHandler.GetDashboard)

		users.GET("/addresses", addressHandler.GetAddresses)
		users.GET("/addresses/:id", addressHandler.GetAddress)
		users.POST("/addresses", addressHandler.CreateAddress)
		users.PUT("/addresses/:id", addressHandler.UpdateAddress)
		users.DELETE("/addresses/:id", addressHandler.DeleteAddress)
	}
}

// SetupProductRoutes sets up catalog routes
func SetupProductRoutes(rg *gin.RouterGroup, svc *app.Services) {
	productHandler := handlers.NewProductHandler(svc.Products)
	categoryHandler := handlers.NewCategoryHandler(svc.Categories)

	products := rg.Group("/products")
	{
		products.GET("", productHandler.GetProducts)
		products.GET("/:id", productHandler.GetProduct)
		products.GET("/slug/:slug", productHandler.GetProductBySlug)
		products.GET("/slug/:slug/variants", productHandler.GetVariants)
		products.GET("/categories", categoryHandler.GetCategories)
		products.GET("/categories/:slug", categoryHandler.GetCategoryBySlug)
	}
}

// SetupPricingRoutes exposes the price resolver to the storefront
func SetupPricingRoutes(rg *gin.RouterGroup, svc *app.Services) {
	pricingHandler := handlers.NewPricingHandler(svc.Products)

	pricing := rg.Group("/pricing")
	{
		pricing.POST("/quote", pricingHandler.Quote)
		pricing.GET("/classify/:slug", pricingHandler.Classify)
	}
}

// SetupCartRoutes sets up cart routes. Guests are identified by session.
func SetupCartRoutes(rg *gin.RouterGroup, svc *app.Services) {
	cartHandler := handlers.NewCartHandler(svc.Carts)

	cart := rg.Group("/cart")
	cart.Use(middleware.OptionalAuthMiddleware(svc.Tokens))
	{
		cart.GET("", cartHandler.GetCart)
		cart.GET("/count", cartHandler.GetCartCount)
		cart.POST("/items", cartHandler.AddToCart)
		cart.PUT("/items/:line_id", cartHandler.UpdateCartItem)
		cart.DELETE("/items/:line_id", cartHandler.RemoveFromCart)
		cart.DELETE("", cartHandler.ClearCart)
		cart.POST("/merge", middleware.AuthMiddleware(svc.Tokens), cartHandler.MergeGuestCart)
	}
}

// SetupCheckoutRoutes sets up checkout routes
func SetupCheckoutRoutes(rg *gin.RouterGroup, svc *app.Services) {
	checkoutHandler := handlers.NewCheckoutHandler(svc.Checkout)

	checkout := rg.Group("/checkout")
	checkout.Use(middleware.OptionalAuthMiddleware(svc.Tokens))
	{
		checkout.GET("/summary", checkoutHandler.GetCheckoutSummary)
		checkout.GET("/shipping", checkoutHandler.GetShippingQuote)
		checkout.POST("/coupon", checkoutHandler.ApplyCoupon)
		checkout.DELETE("/coupon", checkoutHandler.RemoveCoupon)
	}
}

// SetupOrderRoutes sets up order related routes
func SetupOrderRoutes(rg *gin.RouterGroup, svc *app.Services) {
	orderHandler := handlers.NewOrderHandler(svc.Orders)
	invoiceHandler := handlers.NewInvoiceHandler(svc.Orders, svc.Invoices)

	orders := rg.Group("/orders")
	{
		// Guests can place and look up orders
		guest := orders.Group("")
		guest.Use(middleware.OptionalAuthMiddleware(svc.Tokens))
		{
			guest.POST("", orderHandler.CreateOrder)
			guest.POST("/lookup", orderHandler.LookupGuestOrder)
		}

		protected := orders.Group("")
		protected.Use(middleware.AuthMiddleware(svc.Tokens))
		{
			protected.GET("", orderHandler.GetOrders)
			protected.GET("/:id", orderHandler.GetOrder)
			protected.PUT("/:id/cancel", orderHandler.CancelOrder)
			protected.GET("/:id/invoice", invoiceHandler.GenerateInvoice)
			protected.GET("/:id/invoice/data", invoiceHandler.GetInvoiceData)
		}
	}
}

// SetupPaymentRoutes sets up payment and gateway webhook routes
func SetupPaymentRoutes(rg *gin.RouterGroup, svc *app.Services) {
	paymentHandler := handlers.NewPaymentHandler(svc.Payments)

	payments := rg.Group("/payments")
	payments.Use(middleware.OptionalAuthMiddleware(svc.Tokens))
	{
		payments.POST("/orders/:id", paymentHandler.InitiatePayment)
		payments.POST("/verify", paymentHandler.VerifyPayment)
	}

	// Webhooks authenticate by signature, not by token
	webhooks := rg.Group("/webhooks")
	{
		webhooks.POST("/razorpay", paymentHandler.RazorpayWebhook)
	}
}

// SetupAdminRoutes sets up admin related routes
func SetupAdminRoutes(rg *gin.RouterGroup, svc *app.Services) {
	productHandler := handlers.NewProductHandler(svc.Products)
	categoryHandler := handlers.NewCategoryHandler(svc.Categories)
	orderHandler := handlers.NewOrderHandler(svc.Orders)
	invoiceHandler := handlers.NewInvoiceHandler(svc.Orders, svc.Invoices)
	userHandler := handlers.NewUserAdminHandler(svc.Users)
	analyticsHandler := handlers.NewAnalyticsHandler(svc.Analytics)

	admin := rg.Group("/admin")
	admin.Use(middleware.AuthMiddleware(svc.Tokens)) // Require authentication
	admin.Use(middleware.AdminMiddleware())          // Require admin privileges
	{
		// Product management
		products := admin.Group("/products")
		{
			products.GET("", productHandler.AdminGetProducts)
			products.GET("/:id", productHandler.AdminGetProduct)
			products.POST("", productHandler.AdminCreateProduct)
			products.PUT("/:id", productHandler.AdminUpdateProduct)
			products.DELETE("/:id", productHandler.AdminDeleteProduct)
		}

		categories := admin.Group("/categories")
		{
			categories.GET("", categoryHandler.AdminGetCategories)
			categories.POST("", categoryHandler.AdminCreateCategory)
			categories.PUT("/:id", categoryHandler.AdminUpdateCategory)
			categories.DELETE("/:id", categoryHandler.AdminDeleteCategory)
		}

		// Order management
		orders := admin.Group("/orders")
		{
			orders.GET("", orderHandler.AdminGetOrders)
			orders.GET("/:id", orderHandler.AdminGetOrder)
			orders.PUT("/:id/status", orderHandler.AdminUpdateOrderStatus)
			orders.GET("/:id/invoice", invoiceHandler.AdminGenerateInvoice)
		}

		// User management
		users := admin.Group("/users")
		{
			users.GET("", userHandler.GetUsers)
			users.GET("/:id", userHandler.GetUser)
			users.PUT("/:id/status", userHandler.UpdateUserStatus)
		}

		// Analytics
		analytics := admin.Group("/analytics")
		{
			analytics.GET("/dashboard", analyticsHandler.GetDashboard)
			analytics.GET("/sales", analyticsHandler.GetSales)
		}
	}
}
