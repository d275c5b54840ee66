package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"stock-support-tracker/controllers"
	"stock-support-tracker/metrics"
	"stock-support-tracker/middleware"
)

// SetupRoutes wires the watchlist API onto the router.
func SetupRoutes(router *gin.Engine, manager controllers.WatchlistManager, m *metrics.Metrics) {
	watchlistController := controllers.NewWatchlistController(manager)

	// Each mutation hits the quote provider, so writes get a tighter
	// budget than reads.
	writeLimiter := middleware.NewRateLimiter(30, time.Minute)

	stocks := router.Group("/stocks")
	{
		stocks.GET("", watchlistController.GetStocks)
		stocks.POST("", writeLimiter.Handler(), watchlistController.AddStock)
		stocks.PATCH("/:symbol", writeLimiter.Handler(), watchlistController.EditStock)
		stocks.DELETE("/:symbol", writeLimiter.Handler(), watchlistController.DeleteStock)
	}

	if m != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{})))
	}
}
