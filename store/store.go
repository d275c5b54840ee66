// Package store persists the watchlist. All backends satisfy the same
// contract so the file, SQLite, Postgres and MongoDB variants are
// interchangeable behind the STORE_BACKEND setting.
package store

import (
	"context"

	"stock-support-tracker/models"
)

// WatchlistStore holds one record per tracked symbol. Symbols are
// already normalized to uppercase by the caller; lookups are exact.
// FindBySymbol and DeleteBySymbol return (nil, nil) when the symbol is
// not tracked — absence is not an error at this layer.
type WatchlistStore interface {
	ListAll(ctx context.Context) ([]models.TrackedStock, error)
	FindBySymbol(ctx context.Context, symbol string) (*models.TrackedStock, error)
	Insert(ctx context.Context, stock *models.TrackedStock) error
	Update(ctx context.Context, stock *models.TrackedStock) error
	DeleteBySymbol(ctx context.Context, symbol string) (*models.TrackedStock, error)
	Close() error
}
