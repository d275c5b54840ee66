package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"stock-support-tracker/models"
)

// FileStore keeps the whole watchlist in one pretty-printed JSON array
// file. Suited to single-process, small-watchlist deployments; every
// write rewrites the file through a temp-file rename so a crash never
// leaves a half-written list behind.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore opens (or bootstraps) the JSON file at path.
func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}
	fs := &FileStore{path: path}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := fs.write([]models.TrackedStock{}); err != nil {
			return nil, err
		}
	}
	return fs, nil
}

func (fs *FileStore) read() ([]models.TrackedStock, error) {
	data, err := os.ReadFile(fs.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []models.TrackedStock{}, nil
		}
		return nil, fmt.Errorf("reading %s: %w", fs.path, err)
	}
	var stocks []models.TrackedStock
	if err := json.Unmarshal(data, &stocks); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", fs.path, err)
	}
	return stocks, nil
}

func (fs *FileStore) write(stocks []models.TrackedStock) error {
	data, err := json.MarshalIndent(stocks, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding watchlist: %w", err)
	}
	tmp := fs.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, fs.path); err != nil {
		return fmt.Errorf("replacing %s: %w", fs.path, err)
	}
	return nil
}

func (fs *FileStore) ListAll(_ context.Context) ([]models.TrackedStock, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.read()
}

func (fs *FileStore) FindBySymbol(_ context.Context, symbol string) (*models.TrackedStock, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	stocks, err := fs.read()
	if err != nil {
		return nil, err
	}
	for i := range stocks {
		if stocks[i].Symbol == symbol {
			return &stocks[i], nil
		}
	}
	return nil, nil
}

func (fs *FileStore) Insert(_ context.Context, stock *models.TrackedStock) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	stocks, err := fs.read()
	if err != nil {
		return err
	}
	for i := range stocks {
		if stocks[i].Symbol == stock.Symbol {
			return fmt.Errorf("symbol %s already stored", stock.Symbol)
		}
	}
	return fs.write(append(stocks, *stock))
}

func (fs *FileStore) Update(_ context.Context, stock *models.TrackedStock) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	stocks, err := fs.read()
	if err != nil {
		return err
	}
	for i := range stocks {
		if stocks[i].Symbol == stock.Symbol {
			stocks[i] = *stock
			return fs.write(stocks)
		}
	}
	return fmt.Errorf("symbol %s not stored", stock.Symbol)
}

func (fs *FileStore) DeleteBySymbol(_ context.Context, symbol string) (*models.TrackedStock, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	stocks, err := fs.read()
	if err != nil {
		return nil, err
	}
	for i := range stocks {
		if stocks[i].Symbol == symbol {
			deleted := stocks[i]
			if err := fs.write(append(stocks[:i], stocks[i+1:]...)); err != nil {
				return nil, err
			}
			return &deleted, nil
		}
	}
	return nil, nil
}

func (fs *FileStore) Close() error {
	return nil
}
