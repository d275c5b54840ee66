package watchlist

import "sync"

// SymbolLocks serializes read-compute-write sequences per symbol, so a
// manual edit and a scheduled refresh racing on the same symbol cannot
// interleave between loading a record and persisting it. Operations on
// different symbols never block each other. Locks are created lazily
// and never reclaimed; the watchlist is small by nature.
type SymbolLocks struct {
	locks sync.Map // symbol -> *sync.Mutex
}

// NewSymbolLocks creates an empty lock set.
func NewSymbolLocks() *SymbolLocks {
	return &SymbolLocks{}
}

// Lock acquires the mutex for symbol and returns the matching unlock.
func (s *SymbolLocks) Lock(symbol string) (unlock func()) {
	v, _ := s.locks.LoadOrStore(symbol, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
