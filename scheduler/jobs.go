package scheduler

import (
	"context"
	"log"
	"time"

	"stock-support-tracker/models"
	"stock-support-tracker/services/support"
)

// runRefreshJob is the gocron entry point. Nothing may escape it: a
// panicking cycle would otherwise kill the timer goroutine.
func (s *Scheduler) runRefreshJob() {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Refresh cycle panicked: %v", r)
			if s.metrics != nil {
				s.metrics.RefreshCycleFailures.Inc()
			}
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), s.interval*3)
	defer cancel()
	s.RefreshAll(ctx)
}

// RefreshAll executes one refresh cycle. Every failure terminates only
// the current cycle; errors are logged, never returned, so tests can
// drive cycles directly and the timer loop stays alive regardless.
func (s *Scheduler) RefreshAll(ctx context.Context) {
	if s.metrics != nil {
		s.metrics.RefreshCycles.Inc()
	}

	stocks, err := s.store.ListAll(ctx)
	if err != nil {
		log.Printf("Refresh skipped, could not load watchlist: %v", err)
		if s.metrics != nil {
			s.metrics.RefreshCycleFailures.Inc()
		}
		return
	}
	if len(stocks) == 0 {
		log.Println("No stocks to update")
		return
	}

	symbols := make([]string, len(stocks))
	for i, stock := range stocks {
		symbols[i] = stock.Symbol
	}

	if s.metrics != nil {
		s.metrics.QuoteRequests.Inc()
	}
	prices, err := s.quotes.GetPrices(ctx, symbols)
	if err != nil {
		// Whole-batch failure: persist nothing this cycle, retry on
		// the next tick.
		log.Printf("Refresh cycle failed, will retry on next interval: %v", err)
		if s.metrics != nil {
			s.metrics.QuoteRequestFailures.Inc()
			s.metrics.RefreshCycleFailures.Inc()
		}
		return
	}

	updated := 0
	for i := range stocks {
		q, ok := prices[stocks[i].Symbol]
		if !ok {
			// Provider does not know this symbol right now; keep its
			// last known price and derived fields for this cycle.
			continue
		}
		ok, err := s.refreshStock(ctx, &stocks[i], q.Price, q.Currency, q.MarketState, q.DisplayName)
		if err != nil {
			log.Printf("Failed to persist update for %s: %v", stocks[i].Symbol, err)
			continue
		}
		if ok {
			updated++
		}
	}

	if s.metrics != nil {
		s.metrics.StocksUpdated.Add(float64(updated))
	}
	log.Printf("Updated %d/%d stocks", updated, len(stocks))
}

// refreshStock re-reads the record under its symbol lock, applies the
// fresh quote and recomputes the derived fields before persisting. The
// re-read keeps a concurrent support-level edit from being clobbered by
// a quote that was fetched moments earlier.
func (s *Scheduler) refreshStock(ctx context.Context, stock *models.TrackedStock,
	price float64, currency, marketState, displayName string) (bool, error) {
	unlock := s.locks.Lock(stock.Symbol)
	defer unlock()

	current, err := s.store.FindBySymbol(ctx, stock.Symbol)
	if err != nil {
		return false, err
	}
	if current == nil {
		// Deleted between the list and now; nothing to refresh.
		return false, nil
	}

	current.LastPrice = price
	current.Currency = currency
	current.MarketState = marketState
	if displayName != "" {
		current.DisplayName = displayName
	}
	current.LastUpdated = time.Now().UTC()

	res := support.Compute(current.LastPrice, current.SupportLevels)
	current.NearestSupport = res.NearestSupport
	current.DistanceToNearestSupport = res.Distance
	current.DistancePercent = res.DistancePercent

	if err := s.store.Update(ctx, current); err != nil {
		return false, err
	}
	*stock = *current
	return true, nil
}
