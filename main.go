package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"stock-support-tracker/config"
	"stock-support-tracker/metrics"
	"stock-support-tracker/routes"
	"stock-support-tracker/scheduler"
	"stock-support-tracker/services/quote"
	"stock-support-tracker/services/watchlist"
	"stock-support-tracker/store"
)

func main() {
	log.Println("==============================================")
	log.Println("  Stock Support Tracker - Starting...")
	log.Println("==============================================")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Printf("Warning: Config load issue: %v", err)
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	router.Use(requestLogger())
	setupHealthEndpoints(router)

	watchlistStore, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Store initialization failed: %v", err)
	}

	quoteSource := buildQuoteSource(cfg)
	trackerMetrics := metrics.New()
	symbolLocks := watchlist.NewSymbolLocks()
	manager := watchlist.NewService(watchlistStore, quoteSource, symbolLocks)
	routes.SetupRoutes(router, manager, trackerMetrics)

	jobScheduler := scheduler.NewScheduler(watchlistStore, quoteSource, symbolLocks,
		trackerMetrics, cfg.RefreshInterval, cfg.RefreshInitialDelay)
	jobScheduler.Start()

	server := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1 MB
	}

	go func() {
		log.Printf("Server listening on 0.0.0.0:%s (store backend: %s)", cfg.Port, cfg.StoreBackend)
		log.Println("==============================================")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	gracefulShutdown(server, jobScheduler, watchlistStore)
}

// openStore builds the configured watchlist store backend.
func openStore(cfg *config.Config) (store.WatchlistStore, error) {
	switch cfg.StoreBackend {
	case "file":
		return store.NewFileStore(cfg.StoreFile)
	case "sqlite":
		return store.NewSQLiteStore(cfg.SQLitePath)
	case "postgres":
		db, err := cfg.OpenPostgres()
		if err != nil {
			return nil, err
		}
		return store.NewGormStore(db)
	case "mongo":
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return store.NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDB)
	default:
		log.Printf("Unknown STORE_BACKEND %q, falling back to sqlite", cfg.StoreBackend)
		return store.NewSQLiteStore(cfg.SQLitePath)
	}
}

// buildQuoteSource builds the Yahoo client, wrapped in the Redis quote
// cache when one is configured.
func buildQuoteSource(cfg *config.Config) quote.Source {
	var source quote.Source = quote.NewYahooClient(cfg.QuoteBaseURL, cfg.QuoteTimeout)

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Printf("Redis not reachable at %s, quote cache disabled: %v", cfg.RedisAddr, err)
			return source
		}
		log.Printf("Quote cache enabled (redis at %s, TTL %v)", cfg.RedisAddr, cfg.QuoteCacheTTL)
		source = quote.NewCachedSource(source, rdb, cfg.QuoteCacheTTL)
	}

	return source
}

// setupHealthEndpoints sets up liveness and readiness probes.
func setupHealthEndpoints(router *gin.Engine) {
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Stock Support Tracker API",
			"version": "1.0.0",
		})
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})
}

// corsMiddleware returns a CORS middleware handler
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, X-Requested-With")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// requestLogger returns a request logging middleware
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Skip logging for health checks to reduce noise
		path := c.Request.URL.Path
		if path == "/health" || path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		duration := time.Since(start)

		if c.Writer.Status() >= 400 || duration > 1*time.Second {
			log.Printf("%s %s %d %v", c.Request.Method, path, c.Writer.Status(), duration)
		}
	}
}

// gracefulShutdown handles graceful shutdown of the server
func gracefulShutdown(server *http.Server, jobScheduler *scheduler.Scheduler, watchlistStore store.WatchlistStore) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	log.Printf("Received signal %v, shutting down gracefully...", sig)

	// Stop scheduler first so no refresh cycle writes during teardown
	jobScheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	if err := watchlistStore.Close(); err != nil {
		log.Printf("Store close error: %v", err)
	} else {
		log.Println("Store closed")
	}

	log.Println("Server shutdown completed")
}
