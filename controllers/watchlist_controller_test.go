package controllers_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"stock-support-tracker/models"
	"stock-support-tracker/routes"
	"stock-support-tracker/services/quote"
	"stock-support-tracker/services/watchlist"
)

// fakeManager returns canned results per operation.
type fakeManager struct {
	list    []models.TrackedStock
	listErr error
	stock   *models.TrackedStock
	err     error
}

func (f *fakeManager) List(context.Context) ([]models.TrackedStock, error) {
	return f.list, f.listErr
}

func (f *fakeManager) Add(context.Context, string, []float64) (*models.TrackedStock, error) {
	return f.stock, f.err
}

func (f *fakeManager) Delete(context.Context, string) (*models.TrackedStock, error) {
	return f.stock, f.err
}

func (f *fakeManager) EditSupportLevels(context.Context, string, []float64) (*models.TrackedStock, error) {
	return f.stock, f.err
}

func newRouter(m *fakeManager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	routes.SetupRoutes(router, m, nil)
	return router
}

func do(t *testing.T, router *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var envelope map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("%s %s: invalid JSON body %q: %v", method, path, w.Body.String(), err)
	}
	return w, envelope
}

func TestGetStocks(t *testing.T) {
	m := &fakeManager{list: []models.TrackedStock{
		{Symbol: "AAPL", DisplayName: "Apple Inc."},
		{Symbol: "TSLA", DisplayName: "Tesla"},
	}}

	w, envelope := do(t, newRouter(m), http.MethodGet, "/stocks", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if envelope["success"] != true {
		t.Error("success != true")
	}
	if envelope["count"] != float64(2) {
		t.Errorf("count = %v", envelope["count"])
	}
	if len(envelope["data"].([]any)) != 2 {
		t.Errorf("data = %v", envelope["data"])
	}
}

func TestGetStocks_FilterAndPagination(t *testing.T) {
	m := &fakeManager{list: []models.TrackedStock{
		{Symbol: "AAPL", DisplayName: "Apple Inc."},
		{Symbol: "AA", DisplayName: "Alcoa"},
		{Symbol: "TSLA", DisplayName: "Tesla"},
	}}
	router := newRouter(m)

	_, envelope := do(t, router, http.MethodGet, "/stocks?q=aa", "")
	if envelope["count"] != float64(2) {
		t.Errorf("filtered count = %v, want 2", envelope["count"])
	}

	_, envelope = do(t, router, http.MethodGet, "/stocks?limit=2&page=2", "")
	data := envelope["data"].([]any)
	if len(data) != 1 {
		t.Fatalf("page 2 data = %v", data)
	}
	pagination := envelope["pagination"].(map[string]any)
	if pagination["total"] != float64(3) || pagination["page"] != float64(2) {
		t.Errorf("pagination = %v", pagination)
	}
}

func TestAddStock_Statuses(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", fmt.Errorf("%w: bad levels", watchlist.ErrValidation), http.StatusBadRequest},
		{"conflict", fmt.Errorf("%w: AAPL", watchlist.ErrConflict), http.StatusConflict},
		{"not found", fmt.Errorf("%w: AAPL", watchlist.ErrNotFound), http.StatusNotFound},
		{"provider down", fmt.Errorf("quote: %w", quote.ErrUnavailable), http.StatusBadGateway},
		{"internal", fmt.Errorf("disk on fire"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		m := &fakeManager{err: tc.err}
		w, envelope := do(t, newRouter(m), http.MethodPost, "/stocks",
			`{"symbol":"AAPL","supportLevels":[150]}`)
		if w.Code != tc.status {
			t.Errorf("%s: status = %d, want %d", tc.name, w.Code, tc.status)
		}
		if envelope["success"] != false {
			t.Errorf("%s: success = %v", tc.name, envelope["success"])
		}
		if envelope["error"] == "" {
			t.Errorf("%s: missing error message", tc.name)
		}
	}
}

func TestAddStock_Created(t *testing.T) {
	m := &fakeManager{stock: &models.TrackedStock{Symbol: "AAPL", SupportLevels: []float64{150}}}

	w, envelope := do(t, newRouter(m), http.MethodPost, "/stocks",
		`{"symbol":"AAPL","supportLevels":[150]}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", w.Code)
	}
	data := envelope["data"].(map[string]any)
	if data["symbol"] != "AAPL" {
		t.Errorf("data = %v", data)
	}
	if envelope["message"] == nil {
		t.Error("missing message")
	}
}

func TestAddStock_MalformedBody(t *testing.T) {
	m := &fakeManager{}
	w, _ := do(t, newRouter(m), http.MethodPost, "/stocks", `{"symbol":42}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestDeleteStock(t *testing.T) {
	m := &fakeManager{stock: &models.TrackedStock{Symbol: "AAPL"}}
	w, envelope := do(t, newRouter(m), http.MethodDelete, "/stocks/AAPL", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if envelope["success"] != true {
		t.Error("success != true")
	}

	m = &fakeManager{err: fmt.Errorf("%w: GONE", watchlist.ErrNotFound)}
	w, _ = do(t, newRouter(m), http.MethodDelete, "/stocks/GONE", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestEditStock(t *testing.T) {
	m := &fakeManager{stock: &models.TrackedStock{Symbol: "AAPL", SupportLevels: []float64{150, 140}}}
	w, envelope := do(t, newRouter(m), http.MethodPatch, "/stocks/AAPL", `{"supportLevels":[140,150]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	data := envelope["data"].(map[string]any)
	if data["symbol"] != "AAPL" {
		t.Errorf("data = %v", data)
	}
}
