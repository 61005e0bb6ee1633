package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/basketly/backend/config"
	"github.com/basketly/backend/internal/domain"
	"github.com/basketly/backend/internal/infrastructure/cache"
	"github.com/basketly/backend/internal/infrastructure/stores"
	"github.com/basketly/backend/internal/usecase"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// fakeStore implements domain.StoreClient with a canned response.
type fakeStore struct {
	id      string
	name    string
	records []domain.ProductRecord
	err     error
	calls   int
}

func (f *fakeStore) ID() string   { return f.id }
func (f *fakeStore) Name() string { return f.name }

func (f *fakeStore) Search(ctx context.Context, query string, maxResults int) ([]domain.ProductRecord, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]domain.ProductRecord, len(f.records))
	copy(out, f.records)
	return out, nil
}

func fakeRecord(title, store string, price float64) domain.ProductRecord {
	return domain.ProductRecord{Title: title, Store: store, NumericPrice: price, InStock: true}
}

func newTestRouter(clients ...domain.StoreClient) *gin.Engine {
	registry := stores.NewRegistry(clients...)
	orchestrator := stores.NewOrchestrator(registry, 4, time.Second)
	memory := cache.NewMemoryCache(time.Minute, time.Hour)
	search := usecase.NewSearchService(memory, orchestrator)
	generator := usecase.NewGenerator(usecase.GeneratorConfig{
		NamePool: []string{"Smart Saver", "Budget Basket", "Pantry Picks", "Weekly Haul",
			"Fresh Finds", "Thrifty Trolley", "Value Cart", "Corner Cupboard"},
	}, rand.New(rand.NewSource(1)))
	lists := usecase.NewListService(search, generator)
	handler := NewHandler(search, lists, registry, 100)

	cfg := &config.Config{
		Server: config.ServerConfig{
			Environment:    "test",
			AllowedOrigins: []string{"http://localhost:5173"},
		},
		RateLimit: config.RateLimitConfig{PerIP: 100000},
	}
	return SetupRouter(cfg, handler)
}

func defaultStore() *fakeStore {
	return &fakeStore{id: "coles", name: "Coles", records: []domain.ProductRecord{
		fakeRecord("Full Cream Milk 2L", "Coles", 3.50),
		fakeRecord("Skim Milk 1L", "Coles", 2.20),
		fakeRecord("Oat Milk 1L", "Coles", 4.80),
	}}
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var decoded map[string]any
	if len(w.Body.Bytes()) > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("decode response %q: %v", w.Body.String(), err)
		}
	}
	return w, decoded
}

func TestHealthCheck(t *testing.T) {
	router := newTestRouter(defaultStore())

	w, body := doJSON(t, router, http.MethodGet, "/health", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if body["status"] != "healthy" || body["service"] != "basketly-backend" {
		t.Errorf("body = %v", body)
	}
}

func TestListStores(t *testing.T) {
	router := newTestRouter(
		&fakeStore{id: "woolworths", name: "Woolworths"},
		&fakeStore{id: "coles", name: "Coles"},
	)

	w, body := doJSON(t, router, http.MethodGet, "/api/v1/grocery/stores", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	storeList, ok := body["stores"].([]any)
	if !ok || len(storeList) != 3 {
		t.Fatalf("stores = %v, want all pseudo-store plus two retailers", body["stores"])
	}
	first := storeList[0].(map[string]any)
	if first["id"] != "all" {
		t.Errorf("first store id = %v, want all", first["id"])
	}
}

func TestSearchProducts_EmptyQuery(t *testing.T) {
	router := newTestRouter(defaultStore())

	w, body := doJSON(t, router, http.MethodPost, "/api/v1/grocery/search", map[string]any{
		"query": "   ",
	})

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if body["error"] != "Query cannot be empty" {
		t.Errorf("error = %v", body["error"])
	}
}

func TestSearchProducts_MalformedBody(t *testing.T) {
	router := newTestRouter(defaultStore())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/grocery/search", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestSearchProducts_SuccessAndCaching(t *testing.T) {
	store := defaultStore()
	router := newTestRouter(store)

	w, body := doJSON(t, router, http.MethodPost, "/api/v1/grocery/search", map[string]any{
		"query": "milk",
	})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %v", w.Code, body)
	}
	if body["cached"] != false {
		t.Error("first search reported cached = true")
	}
	products, ok := body["products"].([]any)
	if !ok || len(products) != 3 {
		t.Fatalf("products = %v, want 3", body["products"])
	}

	_, body = doJSON(t, router, http.MethodPost, "/api/v1/grocery/search", map[string]any{
		"query": "milk",
	})
	if body["cached"] != true {
		t.Error("repeat search reported cached = false")
	}
	if store.calls != 1 {
		t.Errorf("store was fetched %d times, want 1", store.calls)
	}
}

func TestSearchProducts_UnknownStore(t *testing.T) {
	router := newTestRouter(defaultStore())

	w, body := doJSON(t, router, http.MethodPost, "/api/v1/grocery/search", map[string]any{
		"query": "milk",
		"store": "spudshed",
	})

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if _, ok := body["validStores"]; !ok {
		t.Errorf("body = %v, want validStores enumeration", body)
	}
}

func TestSearchProducts_AllStoresFailed(t *testing.T) {
	router := newTestRouter(&fakeStore{id: "coles", name: "Coles", err: errors.New("scraper down")})

	w, body := doJSON(t, router, http.MethodPost, "/api/v1/grocery/search", map[string]any{
		"query": "milk",
	})

	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", w.Code)
	}
	if _, ok := body["warnings"]; !ok {
		t.Errorf("body = %v, want per-store warnings", body)
	}
}

func TestClearCache(t *testing.T) {
	router := newTestRouter(defaultStore())

	doJSON(t, router, http.MethodPost, "/api/v1/grocery/search", map[string]any{"query": "milk"})

	w, body := doJSON(t, router, http.MethodPost, "/api/v1/grocery/cache/clear", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if body["clearedCount"] != float64(1) {
		t.Errorf("clearedCount = %v, want 1", body["clearedCount"])
	}
}

func TestGenerateLists_Validation(t *testing.T) {
	router := newTestRouter(defaultStore())

	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing terms", map[string]any{"budget": 50}},
		{"blank terms", map[string]any{"searchTerms": []string{" "}, "budget": 50}},
		{"zero budget", map[string]any{"searchTerms": []string{"milk"}, "budget": 0}},
		{"negative budget", map[string]any{"searchTerms": []string{"milk"}, "budget": -5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _ := doJSON(t, router, http.MethodPost, "/api/v1/lists/generate", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
}

func TestGenerateLists_Success(t *testing.T) {
	router := newTestRouter(defaultStore())

	w, body := doJSON(t, router, http.MethodPost, "/api/v1/lists/generate", map[string]any{
		"searchTerms": []string{"milk"},
		"budget":      20,
	})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %v", w.Code, body)
	}
	if body["sessionId"] == "" || body["sessionId"] == nil {
		t.Error("sessionId missing")
	}
	lists, ok := body["lists"].([]any)
	if !ok || len(lists) != 4 {
		t.Fatalf("lists = %v, want 4", body["lists"])
	}
}

func TestGenerateMoreLists_Success(t *testing.T) {
	store := &fakeStore{id: "coles", name: "Coles"}
	for i := 0; i < 20; i++ {
		store.records = append(store.records, fakeRecord(
			string(rune('A'+i))+" Item", "Coles", 1+float64(i)*0.5))
	}
	router := newTestRouter(store)

	_, first := doJSON(t, router, http.MethodPost, "/api/v1/lists/generate", map[string]any{
		"searchTerms": []string{"pantry"},
		"budget":      10,
	})

	w, more := doJSON(t, router, http.MethodPost, "/api/v1/lists/more", map[string]any{
		"searchTerms":    []string{"pantry"},
		"budget":         10,
		"usedProductIds": first["usedProductIds"],
		"usedListNames":  first["usedListNames"],
	})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %v", w.Code, more)
	}

	used := make(map[string]bool)
	for _, id := range first["usedProductIds"].([]any) {
		used[id.(string)] = true
	}
	for _, raw := range more["lists"].([]any) {
		list := raw.(map[string]any)
		items, _ := list["items"].([]any)
		for _, rawItem := range items {
			item := rawItem.(map[string]any)
			key := domain.ProductRecord{
				Title:        item["title"].(string),
				Store:        item["store"].(string),
				NumericPrice: item["numericPrice"].(float64),
			}.IdentityKey()
			if used[key] {
				t.Errorf("more call re-selected %q", key)
			}
		}
	}
}

func TestMockSearch_Pagination(t *testing.T) {
	router := newTestRouter(defaultStore())

	w, body := doJSON(t, router, http.MethodPost, "/api/v1/grocery/search/mock", map[string]any{
		"query":   "milk",
		"page":    3,
		"perPage": 10,
	})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if body["totalResults"] != float64(25) {
		t.Errorf("totalResults = %v, want 25", body["totalResults"])
	}
	if body["currentPageResults"] != float64(5) {
		t.Errorf("currentPageResults = %v, want 5 on the final page", body["currentPageResults"])
	}
	if body["hasMore"] != false {
		t.Error("hasMore = true on final page")
	}
}

func TestMockSearch_Deterministic(t *testing.T) {
	router := newTestRouter(defaultStore())

	_, first := doJSON(t, router, http.MethodPost, "/api/v1/grocery/search/mock", map[string]any{"query": "milk"})
	_, second := doJSON(t, router, http.MethodPost, "/api/v1/grocery/search/mock", map[string]any{"query": "milk"})

	a, _ := json.Marshal(first["products"])
	b, _ := json.Marshal(second["products"])
	if !bytes.Equal(a, b) {
		t.Error("mock catalog differs between identical requests")
	}
}
