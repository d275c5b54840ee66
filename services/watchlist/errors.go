package watchlist

import "errors"

// Sentinel errors for the manager's callers. The HTTP layer maps these
// to status codes with errors.Is; provider failures keep
// quote.ErrUnavailable in their chain instead.
var (
	// ErrValidation covers malformed input: empty symbol, empty or
	// non-positive support levels.
	ErrValidation = errors.New("invalid input")

	// ErrConflict is returned when adding a symbol that is already
	// tracked.
	ErrConflict = errors.New("symbol already tracked")

	// ErrNotFound is returned for symbols that are not tracked, or
	// that the quote provider does not recognize on add.
	ErrNotFound = errors.New("symbol not found")
)
