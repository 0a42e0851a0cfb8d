package server

import (
	"context"
	"net/http"

	"coursebook/internal/achievement"
	"coursebook/internal/auth"
	"coursebook/internal/billing"
	"coursebook/internal/booking"
	"coursebook/internal/bundle"
	"coursebook/internal/config"
	"coursebook/internal/course"
	"coursebook/internal/customer"
	"coursebook/internal/email"
	"coursebook/internal/export"
	"coursebook/internal/payment"
	"coursebook/internal/tenant"
	"coursebook/internal/user"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	router *gin.Engine
	db     *sqlx.DB
	config *config.Config
	http   *http.Server
}

func New(db *sqlx.DB, redisClient *redis.Client, cfg *config.Config, emailService *email.Service) *Server {
	router := gin.Default()
	router.Use(corsMiddleware())
	router.Use(MetricsMiddleware())
	router.Use(RequestLoggingMiddleware())

	tenantRepo := tenant.NewRepository(db)
	courseRepo := course.NewRepository(db)
	customerRepo := customer.NewRepository(db)
	bookingRepo := booking.NewRepository(db)
	bundleRepo := bundle.NewRepository(db)
	paymentRepo := payment.NewRepository(db)
	achievementRepo := achievement.NewRepository(db)
	userRepo := user.NewRepository(db)

	intents := payment.NewStripeClient(cfg.StripeSecretKey)

	bookingService := booking.NewService(bookingRepo, courseRepo, customerRepo, tenantRepo, paymentRepo, achievementRepo, intents, emailService)
	bundleService := bundle.NewService(bundleRepo, courseRepo, customerRepo, tenantRepo, paymentRepo, intents, emailService)
	billingService := billing.NewService(tenantRepo, cfg.StripePriceIDs, cfg.AppURL)
	userService := user.NewService(userRepo, tenantRepo, redisClient, emailService, cfg.JWTSecret, cfg.AppURL)

	tenantHandler := tenant.NewHandler(db)
	courseHandler := course.NewHandler(db)
	customerHandler := customer.NewHandler(db)
	bookingHandler := booking.NewHandler(bookingService, bookingRepo)
	bundleHandler := bundle.NewHandler(bundleService, bundleRepo)
	paymentHandler := payment.NewHandler(paymentRepo)
	achievementHandler := achievement.NewHandler(db)
	billingHandler := billing.NewHandler(billingService)
	userHandler := user.NewHandler(userService)
	exportHandler := export.NewHandler(bookingRepo, customerRepo)
	webhookHandler := payment.NewWebhookHandler(paymentRepo, tenantRepo, bookingRepo, bundleRepo, billingService, emailService, cfg.StripeWebhookSecret)

	router.GET("/health", Health)
	router.GET("/metrics", Metrics())
	SetupSwagger(router)

	// Stripe authenticates by signature, not JWT.
	router.POST("/webhooks/stripe", webhookHandler.Handle)

	// Public branding lookup for the booking front end.
	router.GET("/tenants/:slug", tenantHandler.GetBySlug)

	authRoutes := router.Group("/auth")
	authRoutes.Use(RateLimitMiddleware(5, 10))
	{
		authRoutes.POST("/register", userHandler.Register)
		authRoutes.POST("/login", userHandler.Login)
		authRoutes.POST("/refresh", userHandler.Refresh)
		authRoutes.POST("/password-reset", userHandler.RequestPasswordReset)
		authRoutes.POST("/password-reset/confirm", userHandler.ConfirmPasswordReset)
	}

	authMiddleware := auth.AuthMiddleware(cfg.JWTSecret)

	me := router.Group("/auth")
	me.Use(authMiddleware)
	{
		me.GET("/me", userHandler.Me)
	}

	protected := router.Group("/tenant")
	protected.Use(authMiddleware)
	{
		protected.PUT("/branding", tenantHandler.UpdateBranding)
		protected.GET("/limits", tenantHandler.GetLimits)

		protected.POST("/courses", courseHandler.CreateCourse)
		protected.GET("/courses", courseHandler.ListCourses)
		protected.POST("/courses/:courseID/sessions", courseHandler.CreateSession)
		protected.GET("/courses/:courseID/sessions", courseHandler.ListSessions)

		protected.POST("/customers", customerHandler.Create)
		protected.GET("/customers", customerHandler.List)
		protected.GET("/customers/:customerID", customerHandler.Get)
		protected.GET("/customers/:customerID/achievements", achievementHandler.ListForCustomer)

		protected.POST("/bookings", bookingHandler.Create)
		protected.GET("/bookings", bookingHandler.List)
		protected.POST("/bookings/:bookingID/cancel", bookingHandler.Cancel)
		protected.POST("/bookings/:bookingID/complete", bookingHandler.Complete)
		protected.GET("/sessions/:sessionID/bookings", bookingHandler.ListBySession)

		protected.POST("/bundles", bundleHandler.CreateBundle)
		protected.GET("/bundles", bundleHandler.ListBundles)
		protected.DELETE("/bundles/:bundleID", bundleHandler.DeactivateBundle)
		protected.POST("/bundle-bookings", bundleHandler.CreateBooking)
		protected.POST("/bundle-bookings/:bookingID/cancel", bundleHandler.CancelBooking)

		protected.GET("/payments", paymentHandler.List)
	}

	adminOnly := auth.RequireRole("admin")

	tenantAdmin := router.Group("/tenant")
	tenantAdmin.Use(authMiddleware, adminOnly)
	{
		tenantAdmin.POST("/billing/checkout", billingHandler.StartCheckout)
		tenantAdmin.PUT("/billing/plan", billingHandler.ChangePlan)
		tenantAdmin.DELETE("/billing/subscription", billingHandler.Cancel)

		tenantAdmin.GET("/exports/bookings", exportHandler.Bookings)
		tenantAdmin.GET("/exports/customers", exportHandler.Customers)
	}

	admin := router.Group("/admin")
	admin.Use(authMiddleware, adminOnly)
	{
		admin.POST("/tenants", tenantHandler.Create)
		admin.GET("/tenants", tenantHandler.List)
	}

	return &Server{
		router: router,
		db:     db,
		config: cfg,
	}
}

func (s *Server) Start(port string) error {
	s.http = &http.Server{
		Addr:    ":" + port,
		Handler: s.router,
	}
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// Router is exposed for httptest.
func (s *Server) Router() *gin.Engine {
	return s.router
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
