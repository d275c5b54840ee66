package models

import (
	"time"

	"gorm.io/gorm"
)

// TrackedStock is one watchlist entry: a ticker symbol annotated with
// user-defined support price levels and the support-distance fields
// derived from the most recent quote.
type TrackedStock struct {
	Symbol        string    `gorm:"primaryKey" bson:"_id" json:"symbol"`
	DisplayName   string    `bson:"displayName" json:"shortName"`
	SupportLevels []float64 `gorm:"serializer:json" bson:"supportLevels" json:"supportLevels"`
	LastPrice     float64   `bson:"lastPrice" json:"lastPrice"`
	Currency      string    `bson:"currency" json:"currency"`
	MarketState   string    `bson:"marketState" json:"marketState"`

	// Derived fields, recomputed on every write of LastPrice or
	// SupportLevels. Nil when no support levels are known.
	NearestSupport           *float64 `bson:"nearestSupport" json:"nearestSupport"`
	DistanceToNearestSupport *float64 `bson:"distanceToNearestSupport" json:"distanceToNearestSupport"`
	DistancePercent          *float64 `bson:"distancePercent" json:"distancePercent"`

	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
	LastUpdated time.Time `bson:"lastUpdated" json:"lastUpdated"`
}

// TableName keeps the gorm table name aligned with the other backends'
// table/collection naming.
func (TrackedStock) TableName() string {
	return "watchlist"
}

// MigrateWatchlistModels runs database migrations for watchlist models.
func MigrateWatchlistModels(db *gorm.DB) error {
	return db.AutoMigrate(&TrackedStock{})
}
