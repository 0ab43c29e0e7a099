package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/cache"
	"storefront/config"
	"storefront/database"
	"storefront/events"
	"storefront/firebase"
	"storefront/logging"
	"storefront/payment"
	"storefront/routes"
	"storefront/store"
	"storefront/utils"
)

func main() {
	// Load environment variables
	if err := config.LoadEnv(); err != nil {
		log.Fatal("Error loading .env file:", err)
	}

	// Validate critical environment variables
	if err := config.ValidateEnv(); err != nil {
		log.Fatal("Environment validation failed: ", err)
	}

	logger := logging.New(config.GetEnv("LOG_LEVEL", "info"))

	// Initialize database
	db, err := database.Connect()
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Run migrations
	if err := database.Migrate(db); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	if err := database.SeedCatalog(db); err != nil {
		log.Printf("Warning: Could not seed catalog: %v", err)
	}

	deps := routes.Deps{
		DB:             db,
		Sessions:       store.NewSessionHasher(os.Getenv("SESSION_HASH_KEY")),
		Mailer:         utils.NewMailer(utils.GetEmailConfig()),
		Currency:       config.GetEnv("PAYMENT_CURRENCY", "usd"),
		Logger:         logger,
		AllowedOrigins: append(config.GetEnvList("FRONTEND_URL"), config.GetEnvList("ADMIN_URL")...),
	}

	if url := os.Getenv("REDIS_URL"); url != "" {
		rc, err := cache.NewRedisCacheFromURL(url)
		if err != nil {
			log.Fatal("Invalid REDIS_URL: ", err)
		}
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := rc.Ping(pingCtx); err != nil {
			logger.Warn("redis unreachable, cart cache disabled", "error", err)
			rc.Close()
		} else {
			deps.Cache = rc
			defer rc.Close()
		}
		cancel()
	}

	if brokers := config.GetEnvList("KAFKA_BROKERS"); len(brokers) > 0 {
		deps.Events = events.NewKafkaPublisher(config.GetEnv("KAFKA_ORDER_TOPIC", events.DefaultTopic), brokers...)
	} else {
		deps.Events = events.LogPublisher{Logger: logger}
	}
	defer func() {
		if err := deps.Events.Close(); err != nil {
			log.Printf("Error closing event publisher: %v", err)
		}
	}()

	if key := os.Getenv("STRIPE_SECRET_KEY"); key != "" {
		deps.Payments = payment.NewStripeProcessor(key)
	}

	//firebase init
	if bucket := os.Getenv("FIREBASE_STORAGE_BUCKET"); bucket != "" {
		st, err := firebase.NewStorage(context.Background(), bucket, os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
		if err != nil {
			log.Fatal("Failed to initialize Firebase storage: ", err)
		}
		deps.Storage = st
	}

	router := routes.NewRouter(deps)
	defer router.Stop()

	// Start server with graceful shutdown
	port := config.GetEnv("PORT", "8080")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Run server in a goroutine
	go func() {
		logger.Info("server starting", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	// Give outstanding requests 30 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	// Close database connection
	sqlDB, err := db.DB()
	if err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("Error closing database connection: %v", err)
		} else {
			logger.Info("database connection closed")
		}
	}

	logger.Info("server exited gracefully")
}
