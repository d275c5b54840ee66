package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"stock-support-tracker/models"
)

// GormStore backs the watchlist with a relational database through
// gorm; production deployments point it at Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps an already-open gorm connection and runs the
// watchlist migrations.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := models.MigrateWatchlistModels(db); err != nil {
		return nil, fmt.Errorf("migrating watchlist models: %w", err)
	}
	return &GormStore{db: db}, nil
}

func (g *GormStore) ListAll(ctx context.Context) ([]models.TrackedStock, error) {
	var stocks []models.TrackedStock
	if err := g.db.WithContext(ctx).Find(&stocks).Error; err != nil {
		return nil, fmt.Errorf("listing watchlist: %w", err)
	}
	return stocks, nil
}

func (g *GormStore) FindBySymbol(ctx context.Context, symbol string) (*models.TrackedStock, error) {
	var stock models.TrackedStock
	err := g.db.WithContext(ctx).Where("symbol = ?", symbol).First(&stock).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding %s: %w", symbol, err)
	}
	return &stock, nil
}

func (g *GormStore) Insert(ctx context.Context, stock *models.TrackedStock) error {
	if err := g.db.WithContext(ctx).Create(stock).Error; err != nil {
		return fmt.Errorf("inserting %s: %w", stock.Symbol, err)
	}
	return nil
}

func (g *GormStore) Update(ctx context.Context, stock *models.TrackedStock) error {
	res := g.db.WithContext(ctx).Model(&models.TrackedStock{}).
		Where("symbol = ?", stock.Symbol).
		Select("*").Omit("symbol", "created_at").
		Updates(stock)
	if res.Error != nil {
		return fmt.Errorf("updating %s: %w", stock.Symbol, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("symbol %s not stored", stock.Symbol)
	}
	return nil
}

func (g *GormStore) DeleteBySymbol(ctx context.Context, symbol string) (*models.TrackedStock, error) {
	stock, err := g.FindBySymbol(ctx, symbol)
	if err != nil || stock == nil {
		return nil, err
	}
	if err := g.db.WithContext(ctx).Delete(&models.TrackedStock{}, "symbol = ?", symbol).Error; err != nil {
		return nil, fmt.Errorf("deleting %s: %w", symbol, err)
	}
	return stock, nil
}

func (g *GormStore) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
