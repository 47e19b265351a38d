package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Adithya-Monish-Kumar-K/article-retrieval/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/article-retrieval/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/article-retrieval/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/article-retrieval/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/article-retrieval/internal/ingestion/source"
	"github.com/Adithya-Monish-Kumar-K/article-retrieval/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/article-retrieval/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/article-retrieval/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/article-retrieval/pkg/metrics"
)

var catDog = []ingestion.Record{
	{ID: "d0", Article: "the cat sat", Highlights: "a cat"},
	{ID: "d1", Article: "the dog ran", Highlights: "a dog"},
	{ID: "d2", Article: "cat and dog", Highlights: "both"},
}

type memStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, goredis.Nil
	}
	return v, nil
}

func (m *memStore) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memStore) FlushByPattern(_ context.Context, pattern string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for k := range m.data {
		if ok, _ := path.Match(pattern, k); ok {
			delete(m.data, k)
			n++
		}
	}
	return n, nil
}

type trackerFunc func(analytics.Event)

func (f trackerFunc) Track(e analytics.Event) { f(e) }

type fixture struct {
	engine  *indexer.Engine
	handler *Handler
	mux     *http.ServeMux
	events  []analytics.Event
}

func newFixture(t *testing.T, load bool, withCache bool) *fixture {
	t.Helper()
	f := &fixture{}
	src := &source.StaticSource{Items: catDog}
	f.engine = indexer.NewEngine(src, tokenizer.English{}, config.CorpusConfig{Limit: 500, LoadRetries: 1})
	if load {
		if _, err := f.engine.Reload(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	cfg := config.SearchConfig{MaxResults: 500, DefaultLimit: 10, DefaultOrder: "position"}
	exec := executor.New(f.engine, tokenizer.English{}, cfg, false)
	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	opts := []Option{
		WithMetrics(m),
		WithTracker(trackerFunc(func(e analytics.Event) { f.events = append(f.events, e) })),
	}
	if withCache {
		opts = append(opts, WithCache(cache.New(&memStore{data: map[string][]byte{}}, time.Minute, m)))
	}
	f.handler = New(exec, f.engine, cfg, opts...)
	f.mux = http.NewServeMux()
	f.handler.Routes(f.mux)
	return f
}

func (f *fixture) do(method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestLegacySearch(t *testing.T) {
	f := newFixture(t, true, false)
	rec := f.do(http.MethodGet, "/search?query=cat")
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d body = %s", rec.Code, rec.Body)
	}
	var got []LegacyResult
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("results = %+v", got)
	}
	if got[0].ID != "d0" || got[0].DocumentNumber != 1 || got[0].Highlights != "a cat" {
		t.Errorf("first = %+v", got[0])
	}
	if got[1].DocumentNumber != 3 {
		t.Errorf("second = %+v", got[1])
	}
	if len(f.events) != 1 {
		t.Errorf("tracked events = %d", len(f.events))
	}
}

func TestLegacySearchIgnoresMaxResults(t *testing.T) {
	f := newFixture(t, true, false)
	cfg := config.SearchConfig{MaxResults: 1, DefaultLimit: 1, DefaultOrder: "position"}
	h := New(executor.New(f.engine, tokenizer.English{}, cfg, false), f.engine, cfg)
	mux := http.NewServeMux()
	h.Routes(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/search?query=", nil))
	var legacy []LegacyResult
	if err := json.NewDecoder(rec.Body).Decode(&legacy); err != nil {
		t.Fatal(err)
	}
	if len(legacy) != 3 {
		t.Errorf("legacy results = %d, want every document", len(legacy))
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/search?q=&limit=5", nil))
	var res executor.SearchResult
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatal(err)
	}
	if len(res.Results) != 1 || res.TotalHits != 3 {
		t.Errorf("api results = %d of %d, want 1 of 3", len(res.Results), res.TotalHits)
	}
}

func TestLegacySearchEmptyAndMissingQuery(t *testing.T) {
	f := newFixture(t, true, false)
	if rec := f.do(http.MethodGet, "/search"); rec.Code != http.StatusBadRequest {
		t.Errorf("missing query code = %d", rec.Code)
	}
	rec := f.do(http.MethodGet, "/search?query=")
	var got []LegacyResult
	json.NewDecoder(rec.Body).Decode(&got)
	if rec.Code != http.StatusOK || len(got) != 3 {
		t.Fatalf("empty query: code %d, %d results", rec.Code, len(got))
	}
	for _, r := range got {
		if r.Score != 0 {
			t.Errorf("score = %v, want 0", r.Score)
		}
	}
}

func TestSearchAPI(t *testing.T) {
	f := newFixture(t, true, true)
	rec := f.do(http.MethodGet, "/api/v1/search?q=cat&order=score&limit=1")
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d body = %s", rec.Code, rec.Body)
	}
	if rec.Header().Get("X-Cache") != "MISS" {
		t.Errorf("X-Cache = %q", rec.Header().Get("X-Cache"))
	}
	var res executor.SearchResult
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatal(err)
	}
	if res.TotalHits != 2 || len(res.Results) != 1 || res.Order != executor.OrderScore {
		t.Errorf("result = %+v", res)
	}
	if res.SnapshotVersion != 1 {
		t.Errorf("version = %d", res.SnapshotVersion)
	}

	again := f.do(http.MethodGet, "/api/v1/search?q=CAT&order=score&limit=1")
	if again.Header().Get("X-Cache") != "HIT" {
		t.Errorf("second request X-Cache = %q", again.Header().Get("X-Cache"))
	}
	if hits, _ := f.handler.cache.Stats(); hits != 1 {
		t.Errorf("cache hits = %d", hits)
	}
}

func TestSearchAPIReloadBypassesStaleCache(t *testing.T) {
	f := newFixture(t, true, true)
	f.do(http.MethodGet, "/api/v1/search?q=dog")
	if rec := f.do(http.MethodPost, "/api/v1/corpus/reload"); rec.Code != http.StatusOK {
		t.Fatalf("reload code = %d", rec.Code)
	}
	rec := f.do(http.MethodGet, "/api/v1/search?q=dog")
	if rec.Header().Get("X-Cache") != "MISS" {
		t.Errorf("X-Cache after reload = %q", rec.Header().Get("X-Cache"))
	}
}

func TestSearchAPIBadParams(t *testing.T) {
	f := newFixture(t, true, false)
	for _, target := range []string{
		"/api/v1/search?q=cat&order=random",
		"/api/v1/search?q=cat&limit=0",
		"/api/v1/search?q=cat&limit=abc",
	} {
		if rec := f.do(http.MethodGet, target); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: code = %d", target, rec.Code)
		}
	}
}

func TestInvalidUTF8NeverServedFromCache(t *testing.T) {
	f := newFixture(t, true, true)
	// U+FFFD is what lower-casing turns a stray 0xff byte into.
	if rec := f.do(http.MethodGet, "/api/v1/search?q=cat%EF%BF%BD"); rec.Code != http.StatusOK {
		t.Fatalf("valid query code = %d", rec.Code)
	}
	for _, target := range []string{
		"/api/v1/search?q=cat%FF",
		"/search?query=cat%FF",
	} {
		rec := f.do(http.MethodGet, target)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: code = %d, want 400", target, rec.Code)
		}
		if got := rec.Header().Get("X-Cache"); got != "" {
			t.Errorf("%s: X-Cache = %q", target, got)
		}
	}
	if hits, _ := f.handler.cache.Stats(); hits != 0 {
		t.Errorf("cache hits = %d, want 0", hits)
	}
}

func TestSearchBeforeLoad(t *testing.T) {
	for _, withCache := range []bool{false, true} {
		f := newFixture(t, false, withCache)
		if rec := f.do(http.MethodGet, "/api/v1/search?q=cat"); rec.Code != http.StatusServiceUnavailable {
			t.Errorf("cache=%v: code = %d", withCache, rec.Code)
		}
		if rec := f.do(http.MethodGet, "/api/v1/corpus"); rec.Code != http.StatusServiceUnavailable {
			t.Errorf("corpus code = %d", rec.Code)
		}
	}
}

func TestCorpusAndReload(t *testing.T) {
	f := newFixture(t, true, false)
	rec := f.do(http.MethodGet, "/api/v1/corpus")
	var stats indexer.Stats
	if err := json.NewDecoder(rec.Body).Decode(&stats); err != nil {
		t.Fatal(err)
	}
	if stats.Documents != 3 || stats.Version != 1 {
		t.Errorf("stats = %+v", stats)
	}
	rec = f.do(http.MethodPost, "/api/v1/corpus/reload")
	json.NewDecoder(rec.Body).Decode(&stats)
	if stats.Version != 2 {
		t.Errorf("version after reload = %d", stats.Version)
	}
}

func TestReloadMalformedReturns422(t *testing.T) {
	src := &source.StaticSource{Items: []ingestion.Record{{ID: "x"}}}
	engine := indexer.NewEngine(src, tokenizer.English{}, config.CorpusConfig{LoadRetries: 1})
	h := New(executor.New(engine, tokenizer.English{}, config.SearchConfig{}, false), engine, config.SearchConfig{})
	rec := httptest.NewRecorder()
	h.Reload(rec, httptest.NewRequest(http.MethodPost, "/api/v1/corpus/reload", nil))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("code = %d", rec.Code)
	}
}

func TestCacheEndpoints(t *testing.T) {
	disabled := newFixture(t, true, false)
	if rec := disabled.do(http.MethodPost, "/api/v1/cache/invalidate"); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("invalidate without cache = %d", rec.Code)
	}

	f := newFixture(t, true, true)
	f.do(http.MethodGet, "/api/v1/search?q=cat")
	f.do(http.MethodGet, "/api/v1/search?q=cat")
	rec := f.do(http.MethodGet, "/api/v1/cache/stats")
	var stats map[string]any
	json.NewDecoder(rec.Body).Decode(&stats)
	if stats["hits"].(float64) != 1 || stats["misses"].(float64) != 1 {
		t.Errorf("stats = %v", stats)
	}
	rec = f.do(http.MethodPost, "/api/v1/cache/invalidate")
	var inv map[string]any
	json.NewDecoder(rec.Body).Decode(&inv)
	if rec.Code != http.StatusOK || inv["keys_deleted"].(float64) != 1 {
		t.Errorf("invalidate = %d %v", rec.Code, inv)
	}
}
