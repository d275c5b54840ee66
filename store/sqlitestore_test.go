package store_test

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"

	"stock-support-tracker/store"
)

func newTestSQLiteStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "watchlist.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStore_Roundtrip(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	want := sample("AAPL")
	if err := s.Insert(ctx, &want); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	got, err := s.FindBySymbol(ctx, "AAPL")
	if err != nil {
		t.Fatalf("FindBySymbol: %v", err)
	}
	if got == nil {
		t.Fatal("inserted record not found")
	}
	if got.Symbol != want.Symbol || got.LastPrice != want.LastPrice ||
		!reflect.DeepEqual(got.SupportLevels, want.SupportLevels) {
		t.Errorf("roundtrip mismatch:\ngot:  %+v\nwant: %+v", *got, want)
	}
	if got.NearestSupport == nil || *got.NearestSupport != *want.NearestSupport {
		t.Errorf("nearestSupport = %v, want %v", got.NearestSupport, *want.NearestSupport)
	}
	if !got.CreatedAt.Equal(want.CreatedAt) {
		t.Errorf("createdAt = %v, want %v", got.CreatedAt, want.CreatedAt)
	}

	missing, err := s.FindBySymbol(ctx, "NOPE")
	if err != nil || missing != nil {
		t.Errorf("FindBySymbol(NOPE) = %v, %v, want nil, nil", missing, err)
	}
}

func TestSQLiteStore_NullableDerivedFields(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	bare := sample("BARE")
	bare.NearestSupport = nil
	bare.DistanceToNearestSupport = nil
	bare.DistancePercent = nil
	if err := s.Insert(ctx, &bare); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	got, err := s.FindBySymbol(ctx, "BARE")
	if err != nil {
		t.Fatalf("FindBySymbol: %v", err)
	}
	if got.NearestSupport != nil || got.DistanceToNearestSupport != nil || got.DistancePercent != nil {
		t.Errorf("derived fields not NULL after roundtrip: %+v", got)
	}
}

func TestSQLiteStore_UpdateAndDelete(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	rec := sample("TSLA")
	if err := s.Insert(ctx, &rec); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	rec.LastPrice = 201.5
	rec.SupportLevels = []float64{200, 190}
	if err := s.Update(ctx, &rec); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, _ := s.FindBySymbol(ctx, "TSLA")
	if got.LastPrice != 201.5 || !reflect.DeepEqual(got.SupportLevels, []float64{200, 190}) {
		t.Errorf("update not persisted: %+v", got)
	}

	missing := sample("GONE")
	if err := s.Update(ctx, &missing); err == nil {
		t.Fatal("update of a missing symbol succeeded")
	}

	deleted, err := s.DeleteBySymbol(ctx, "TSLA")
	if err != nil || deleted == nil || deleted.Symbol != "TSLA" {
		t.Fatalf("DeleteBySymbol = %+v, %v", deleted, err)
	}
	again, err := s.DeleteBySymbol(ctx, "TSLA")
	if err != nil || again != nil {
		t.Errorf("second delete = %v, %v, want nil, nil", again, err)
	}

	list, err := s.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("ListAll after delete has %d records", len(list))
	}
}
