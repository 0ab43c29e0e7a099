package routes

import (
	"log/slog"
	"net/http"
	"time"

	"storefront/cache"
	"storefront/events"
	"storefront/firebase"
	"storefront/handlers"
	"storefront/middleware"
	"storefront/payment"
	"storefront/store"
	"storefront/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Deps is everything the HTTP layer needs. Only DB and Sessions are
// required; the rest fall back to disabled implementations.
type Deps struct {
	DB       *gorm.DB
	Sessions *store.SessionHasher
	Cache    cache.CartCache
	Events   events.Publisher
	Payments payment.Processor
	Storage  firebase.StorageClient
	Mailer   handlers.Notifier
	Currency string
	Logger   *slog.Logger
	// AllowedOrigins defaults to http://localhost:3000 when empty.
	AllowedOrigins []string
}

// Router is the configured engine plus the background workers it owns.
type Router struct {
	*gin.Engine
	limiters []*middleware.RateLimiter
}

// Stop ends the rate limiter cleanup goroutines.
func (r *Router) Stop() {
	for _, rl := range r.limiters {
		rl.Stop()
	}
}

func NewRouter(d Deps) *Router {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	utils.RegisterJSONFieldNames()

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(d.Logger))

	// Limit multipart form memory to 10MB
	r.MaxMultipartMemory = 10 << 20

	origins := d.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
		d.Logger.Warn("no CORS origins configured, defaulting to http://localhost:3000")
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.SessionHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
	}))

	router := &Router{Engine: r}
	router.setupRoutes(d)
	return router
}

func (r *Router) setupRoutes(d Deps) {
	storage := d.Storage
	if storage == nil {
		storage = firebase.Unconfigured{}
	}
	currency := d.Currency
	if currency == "" {
		currency = "usd"
	}

	orders := store.NewOrderStore(d.DB)
	cartHandler := handlers.NewCartHandler(store.NewCartStore(d.DB, d.Sessions), d.Cache, d.Events)
	orderHandler := handlers.NewOrderHandler(orders, d.Payments, d.Events, d.Mailer)
	paymentHandler := &handlers.PaymentHandler{Processor: d.Payments, Currency: currency}
	addressHandler := &handlers.AddressHandler{Orders: orders}
	productHandler := &handlers.ProductHandler{Products: store.NewProductStore(d.DB)}
	uploadHandler := &handlers.UploadHandler{Storage: storage}

	paymentLimiter := middleware.NewRateLimiter(10, time.Minute)
	mergeLimiter := middleware.NewRateLimiter(20, time.Minute)
	r.limiters = append(r.limiters, paymentLimiter, mergeLimiter)

	// Public routes
	api := r.Group("/api")
	{
		api.GET("/products", productHandler.GetProducts)
		api.GET("/products/:id", productHandler.GetProduct)
	}

	// Cart routes accept a bearer token, a session id, or neither
	cart := api.Group("/cart")
	cart.Use(middleware.IdentityMiddleware())
	{
		cart.GET("", cartHandler.GetCart)
		cart.POST("", cartHandler.AddToCart)
		cart.PATCH("", cartHandler.UpdateCartItem)
		cart.DELETE("", cartHandler.DeleteCartItem)
	}

	// Protected routes (require authentication)
	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware())
	{
		protected.POST("/cart/merge", mergeLimiter.Middleware(), cartHandler.MergeCart)

		protected.POST("/orders", orderHandler.CreateOrder)
		protected.GET("/orders", orderHandler.GetOrders)
		protected.GET("/orders/:id", orderHandler.GetOrder)

		protected.POST("/payments/intent", paymentLimiter.Middleware(), paymentHandler.CreatePaymentIntent)

		protected.GET("/address", addressHandler.GetAddress)
		protected.PUT("/address", addressHandler.SaveAddress)
	}

	// Admin routes (require admin role)
	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware())
	admin.Use(middleware.AdminMiddleware())
	{
		admin.GET("/orders", orderHandler.GetAllOrders)
		admin.PATCH("/orders/:id", orderHandler.UpdateOrderStatus)

		admin.POST("/uploads", uploadHandler.UploadImage)
		admin.DELETE("/uploads", uploadHandler.DeleteImage)
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
