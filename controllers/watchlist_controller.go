package controllers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"stock-support-tracker/models"
	"stock-support-tracker/services/quote"
	"stock-support-tracker/services/watchlist"
)

// WatchlistManager is the slice of the watchlist service the controller
// needs; tests substitute a fake.
type WatchlistManager interface {
	List(ctx context.Context) ([]models.TrackedStock, error)
	Add(ctx context.Context, symbol string, supportLevels []float64) (*models.TrackedStock, error)
	Delete(ctx context.Context, symbol string) (*models.TrackedStock, error)
	EditSupportLevels(ctx context.Context, symbol string, supportLevels []float64) (*models.TrackedStock, error)
}

// WatchlistController handles the watchlist HTTP API.
type WatchlistController struct {
	manager WatchlistManager
}

// NewWatchlistController creates a watchlist controller.
func NewWatchlistController(manager WatchlistManager) *WatchlistController {
	return &WatchlistController{manager: manager}
}

type addStockRequest struct {
	Symbol        string    `json:"symbol"`
	SupportLevels []float64 `json:"supportLevels"`
}

type editStockRequest struct {
	SupportLevels []float64 `json:"supportLevels"`
}

// GetStocks returns the watchlist ordered by proximity to support.
// GET /stocks?q=&page=&limit=
func (wc *WatchlistController) GetStocks(c *gin.Context) {
	stocks, err := wc.manager.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	if q := strings.ToUpper(strings.TrimSpace(c.Query("q"))); q != "" {
		filtered := stocks[:0:0]
		for _, s := range stocks {
			if strings.Contains(s.Symbol, q) || strings.Contains(strings.ToUpper(s.DisplayName), q) {
				filtered = append(filtered, s)
			}
		}
		stocks = filtered
	}

	total := len(stocks)
	resp := gin.H{
		"success":    true,
		"count":      total,
		"lastUpdate": time.Now().UTC().Format(time.RFC3339),
	}

	// Pagination is opt-in: without a limit the full list is returned,
	// matching what the list view expects by default.
	if limitParam := c.Query("limit"); limitParam != "" {
		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		limit, _ := strconv.Atoi(limitParam)
		if page < 1 {
			page = 1
		}
		if limit < 1 {
			limit = 50
		}
		start := (page - 1) * limit
		if start > total {
			start = total
		}
		end := start + limit
		if end > total {
			end = total
		}
		stocks = stocks[start:end]
		resp["pagination"] = gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
		}
	}

	if stocks == nil {
		stocks = []models.TrackedStock{}
	}
	resp["data"] = stocks
	c.JSON(http.StatusOK, resp)
}

// AddStock starts tracking a new symbol.
// POST /stocks  body: {"symbol": "AAPL", "supportLevels": [150, 145, 140]}
func (wc *WatchlistController) AddStock(c *gin.Context) {
	var req addStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "symbol and supportLevels (array) are required",
		})
		return
	}

	stock, err := wc.manager.Add(c.Request.Context(), req.Symbol, req.SupportLevels)
	if err != nil {
		wc.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    stock,
		"message": "Added " + stock.Symbol + " to watchlist",
	})
}

// DeleteStock stops tracking a symbol.
// DELETE /stocks/:symbol
func (wc *WatchlistController) DeleteStock(c *gin.Context) {
	stock, err := wc.manager.Delete(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		wc.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    stock,
		"message": "Removed " + stock.Symbol + " from watchlist",
	})
}

// EditStock replaces a symbol's support levels.
// PATCH /stocks/:symbol  body: {"supportLevels": [150, 145]}
func (wc *WatchlistController) EditStock(c *gin.Context) {
	var req editStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "supportLevels (array) is required",
		})
		return
	}

	stock, err := wc.manager.EditSupportLevels(c.Request.Context(), c.Param("symbol"), req.SupportLevels)
	if err != nil {
		wc.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    stock,
		"message": "Updated support levels for " + stock.Symbol,
	})
}

// writeError maps manager errors onto HTTP statuses.
func (wc *WatchlistController) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, watchlist.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, watchlist.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, watchlist.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, quote.ErrUnavailable):
		status = http.StatusBadGateway
	}
	c.JSON(status, gin.H{
		"success": false,
		"error":   err.Error(),
	})
}
