// Package watchlist orchestrates the tracked-symbol collection: adding,
// editing and removing entries and keeping their derived support fields
// consistent with every write.
package watchlist

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"stock-support-tracker/models"
	"stock-support-tracker/services/quote"
	"stock-support-tracker/services/support"
	"stock-support-tracker/store"
)

// Service is the watchlist manager. All dependencies are injected so
// the orchestration logic is testable against fakes.
type Service struct {
	store  store.WatchlistStore
	quotes quote.Source
	locks  *SymbolLocks
}

// NewService creates a watchlist manager.
func NewService(st store.WatchlistStore, quotes quote.Source, locks *SymbolLocks) *Service {
	if locks == nil {
		locks = NewSymbolLocks()
	}
	return &Service{store: st, quotes: quotes, locks: locks}
}

// List returns every tracked stock ordered by ascending absolute
// distance to the nearest support, so the entries closest to a support
// level come first. Entries without a computed distance sort last;
// within either group ties fall back to symbol order.
func (s *Service) List(ctx context.Context) ([]models.TrackedStock, error) {
	stocks, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading watchlist: %w", err)
	}

	sort.SliceStable(stocks, func(i, j int) bool {
		di, dj := stocks[i].DistanceToNearestSupport, stocks[j].DistanceToNearestSupport
		switch {
		case di == nil && dj == nil:
			return stocks[i].Symbol < stocks[j].Symbol
		case di == nil:
			return false
		case dj == nil:
			return true
		}
		ai, aj := math.Abs(*di), math.Abs(*dj)
		if ai != aj {
			return ai < aj
		}
		return stocks[i].Symbol < stocks[j].Symbol
	})

	return stocks, nil
}

// Add starts tracking a new symbol. It requires a successful initial
// quote: if the provider does not know the symbol, nothing is written
// and ErrNotFound is returned.
func (s *Service) Add(ctx context.Context, symbol string, supportLevels []float64) (*models.TrackedStock, error) {
	sym, err := normalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	levels, err := normalizeLevels(supportLevels)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(sym)
	defer unlock()

	existing, err := s.store.FindBySymbol(ctx, sym)
	if err != nil {
		return nil, fmt.Errorf("checking for %s: %w", sym, err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %s", ErrConflict, sym)
	}

	prices, err := s.quotes.GetPrices(ctx, []string{sym})
	if err != nil {
		return nil, fmt.Errorf("fetching quote for %s: %w", sym, err)
	}
	q, ok := prices[sym]
	if !ok {
		return nil, fmt.Errorf("%w: no quote for %s", ErrNotFound, sym)
	}

	now := time.Now().UTC()
	stock := &models.TrackedStock{
		Symbol:        sym,
		DisplayName:   q.DisplayName,
		SupportLevels: levels,
		LastPrice:     q.Price,
		Currency:      q.Currency,
		MarketState:   q.MarketState,
		CreatedAt:     now,
		LastUpdated:   now,
	}
	applyDerived(stock)

	if err := s.store.Insert(ctx, stock); err != nil {
		return nil, fmt.Errorf("persisting %s: %w", sym, err)
	}
	return stock, nil
}

// Delete stops tracking a symbol and returns the removed record.
func (s *Service) Delete(ctx context.Context, symbol string) (*models.TrackedStock, error) {
	sym, err := normalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(sym)
	defer unlock()

	deleted, err := s.store.DeleteBySymbol(ctx, sym)
	if err != nil {
		return nil, fmt.Errorf("deleting %s: %w", sym, err)
	}
	if deleted == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, sym)
	}
	return deleted, nil
}

// EditSupportLevels replaces a tracked symbol's support levels and
// recomputes the derived fields against the already-known price. No
// fresh quote is fetched; the next refresh cycle picks up price moves.
func (s *Service) EditSupportLevels(ctx context.Context, symbol string, supportLevels []float64) (*models.TrackedStock, error) {
	sym, err := normalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	levels, err := normalizeLevels(supportLevels)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(sym)
	defer unlock()

	stock, err := s.store.FindBySymbol(ctx, sym)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", sym, err)
	}
	if stock == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, sym)
	}

	stock.SupportLevels = levels
	stock.LastUpdated = time.Now().UTC()
	applyDerived(stock)

	if err := s.store.Update(ctx, stock); err != nil {
		return nil, fmt.Errorf("persisting %s: %w", sym, err)
	}
	return stock, nil
}

// applyDerived recomputes the derived support triple from the record's
// current price and levels.
func applyDerived(stock *models.TrackedStock) {
	res := support.Compute(stock.LastPrice, stock.SupportLevels)
	stock.NearestSupport = res.NearestSupport
	stock.DistanceToNearestSupport = res.Distance
	stock.DistancePercent = res.DistancePercent
}

func normalizeSymbol(symbol string) (string, error) {
	sym := strings.ToUpper(strings.TrimSpace(symbol))
	if sym == "" {
		return "", fmt.Errorf("%w: symbol is required", ErrValidation)
	}
	return sym, nil
}

// normalizeLevels validates the levels and returns a descending-sorted
// copy. Non-positive levels are rejected here so the percent
// computation downstream never divides by zero.
func normalizeLevels(levels []float64) ([]float64, error) {
	if len(levels) == 0 {
		return nil, fmt.Errorf("%w: at least one support level is required", ErrValidation)
	}
	sorted := make([]float64, len(levels))
	copy(sorted, levels)
	for _, l := range sorted {
		if l <= 0 {
			return nil, fmt.Errorf("%w: support levels must be positive, got %v", ErrValidation, l)
		}
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))
	return sorted, nil
}
