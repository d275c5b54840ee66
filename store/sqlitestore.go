package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"stock-support-tracker/models"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS watchlist (
	symbol            TEXT PRIMARY KEY,
	display_name      TEXT NOT NULL DEFAULT '',
	support_levels    TEXT NOT NULL,
	last_price        REAL NOT NULL DEFAULT 0,
	currency          TEXT NOT NULL DEFAULT '',
	market_state      TEXT NOT NULL DEFAULT '',
	nearest_support   REAL,
	distance          REAL,
	distance_percent  REAL,
	created_at        TIMESTAMP NOT NULL,
	last_updated      TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_watchlist_distance ON watchlist(distance);
`

// SQLiteStore is the default embedded backend: a single-table SQLite
// database opened through database/sql. Support levels and the nullable
// derived fields round-trip as a JSON column and NULLable REALs.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the SQLite database at path
// and ensures the schema exists.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	// SQLite allows one writer at a time; a single connection avoids
	// SQLITE_BUSY churn between the scheduler and API handlers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) ListAll(ctx context.Context) ([]models.TrackedStock, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT symbol, display_name, support_levels, last_price, currency,
		       market_state, nearest_support, distance, distance_percent,
		       created_at, last_updated
		FROM watchlist ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("listing watchlist: %w", err)
	}
	defer rows.Close()

	var stocks []models.TrackedStock
	for rows.Next() {
		stock, err := scanStock(rows)
		if err != nil {
			return nil, err
		}
		stocks = append(stocks, *stock)
	}
	return stocks, rows.Err()
}

func (s *SQLiteStore) FindBySymbol(ctx context.Context, symbol string) (*models.TrackedStock, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT symbol, display_name, support_levels, last_price, currency,
		       market_state, nearest_support, distance, distance_percent,
		       created_at, last_updated
		FROM watchlist WHERE symbol = ?`, symbol)

	stock, err := scanStock(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return stock, nil
}

func (s *SQLiteStore) Insert(ctx context.Context, stock *models.TrackedStock) error {
	levels, err := json.Marshal(stock.SupportLevels)
	if err != nil {
		return fmt.Errorf("encoding support levels: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO watchlist (symbol, display_name, support_levels, last_price,
			currency, market_state, nearest_support, distance, distance_percent,
			created_at, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		stock.Symbol, stock.DisplayName, string(levels), stock.LastPrice,
		stock.Currency, stock.MarketState,
		nullable(stock.NearestSupport), nullable(stock.DistanceToNearestSupport),
		nullable(stock.DistancePercent), stock.CreatedAt, stock.LastUpdated)
	if err != nil {
		return fmt.Errorf("inserting %s: %w", stock.Symbol, err)
	}
	return nil
}

func (s *SQLiteStore) Update(ctx context.Context, stock *models.TrackedStock) error {
	levels, err := json.Marshal(stock.SupportLevels)
	if err != nil {
		return fmt.Errorf("encoding support levels: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE watchlist SET display_name = ?, support_levels = ?, last_price = ?,
			currency = ?, market_state = ?, nearest_support = ?, distance = ?,
			distance_percent = ?, last_updated = ?
		WHERE symbol = ?`,
		stock.DisplayName, string(levels), stock.LastPrice,
		stock.Currency, stock.MarketState,
		nullable(stock.NearestSupport), nullable(stock.DistanceToNearestSupport),
		nullable(stock.DistancePercent), stock.LastUpdated, stock.Symbol)
	if err != nil {
		return fmt.Errorf("updating %s: %w", stock.Symbol, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("symbol %s not stored", stock.Symbol)
	}
	return nil
}

func (s *SQLiteStore) DeleteBySymbol(ctx context.Context, symbol string) (*models.TrackedStock, error) {
	stock, err := s.FindBySymbol(ctx, symbol)
	if err != nil || stock == nil {
		return nil, err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM watchlist WHERE symbol = ?`, symbol); err != nil {
		return nil, fmt.Errorf("deleting %s: %w", symbol, err)
	}
	return stock, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanStock(row rowScanner) (*models.TrackedStock, error) {
	var (
		stock                      models.TrackedStock
		levels                     string
		nearest, dist, distPercent sql.NullFloat64
		createdAt, lastUpdated     time.Time
	)
	err := row.Scan(&stock.Symbol, &stock.DisplayName, &levels, &stock.LastPrice,
		&stock.Currency, &stock.MarketState, &nearest, &dist, &distPercent,
		&createdAt, &lastUpdated)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scanning watchlist row: %w", err)
	}
	if err := json.Unmarshal([]byte(levels), &stock.SupportLevels); err != nil {
		return nil, fmt.Errorf("decoding support levels for %s: %w", stock.Symbol, err)
	}
	stock.NearestSupport = fromNullable(nearest)
	stock.DistanceToNearestSupport = fromNullable(dist)
	stock.DistancePercent = fromNullable(distPercent)
	stock.CreatedAt = createdAt
	stock.LastUpdated = lastUpdated
	return &stock, nil
}

func nullable(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func fromNullable(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
