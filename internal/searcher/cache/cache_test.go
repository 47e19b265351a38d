package cache

import (
	"context"
	"errors"
	"path"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Adithya-Monish-Kumar-K/article-retrieval/internal/searcher/executor"
)

type memStore struct {
	mu     sync.Mutex
	data   map[string][]byte
	getErr error
}

func newMemStore() *memStore { return &memStore{data: make(map[string][]byte)} }

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
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

func TestKeyString(t *testing.T) {
	base := Key{Query: "Cat  Dog", Version: 3, Order: executor.OrderPosition}
	same := Key{Query: "cat dog", Version: 3, Order: executor.OrderPosition}
	if base.String() != same.String() {
		t.Error("case and spacing should not change the key")
	}
	if !strings.HasPrefix(base.String(), "search:v3:") {
		t.Errorf("key = %q", base.String())
	}
	variants := []Key{
		{Query: "cat dog", Version: 4, Order: executor.OrderPosition},
		{Query: "cat dog", Version: 3, Order: executor.OrderScore},
		{Query: "cat dog", Version: 3, Order: executor.OrderPosition, Limit: 5},
		{Query: "cat dog", Version: 3, Order: executor.OrderPosition, All: true},
		{Query: "cat dog", Version: 3, Order: executor.OrderPosition, Stemmed: true},
		{Query: "dog cat", Version: 3, Order: executor.OrderPosition},
	}
	for _, v := range variants {
		if v.String() == base.String() {
			t.Errorf("%+v collides with base key", v)
		}
	}
}

func TestGetOrCompute(t *testing.T) {
	c := New(newMemStore(), time.Minute, nil)
	k := Key{Query: "cat", Version: 1}
	calls := 0
	compute := func() (*executor.SearchResult, error) {
		calls++
		return &executor.SearchResult{Query: "cat", TotalHits: 2}, nil
	}

	first, hit, err := c.GetOrCompute(context.Background(), k, compute)
	if err != nil || hit || first.TotalHits != 2 {
		t.Fatalf("first = %+v, hit=%v, err=%v", first, hit, err)
	}
	second, hit, err := c.GetOrCompute(context.Background(), k, compute)
	if err != nil || !hit || second.TotalHits != 2 {
		t.Fatalf("second = %+v, hit=%v, err=%v", second, hit, err)
	}
	if calls != 1 {
		t.Errorf("compute calls = %d, want 1", calls)
	}
	hits, misses := c.Stats()
	if hits != 1 || misses != 1 {
		t.Errorf("stats = %d/%d, want 1/1", hits, misses)
	}
}

func TestGetOrComputeError(t *testing.T) {
	c := New(newMemStore(), time.Minute, nil)
	boom := errors.New("boom")
	_, _, err := c.GetOrCompute(context.Background(), Key{Query: "x"}, func() (*executor.SearchResult, error) {
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if _, ok := c.Get(context.Background(), Key{Query: "x"}); ok {
		t.Error("error result was cached")
	}
}

func TestGetOrComputeCollapsesConcurrentMisses(t *testing.T) {
	c := New(newMemStore(), time.Minute, nil)
	var calls atomic.Int32
	release := make(chan struct{})
	compute := func() (*executor.SearchResult, error) {
		calls.Add(1)
		<-release
		return &executor.SearchResult{}, nil
	}
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.GetOrCompute(context.Background(), Key{Query: "slow"}, compute)
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	if n := calls.Load(); n < 1 || n > 5 {
		t.Fatalf("calls = %d", n)
	}
}

func TestStoreErrorIsMiss(t *testing.T) {
	store := newMemStore()
	store.getErr = errors.New("connection reset")
	c := New(store, time.Minute, nil)
	if _, ok := c.Get(context.Background(), Key{Query: "cat"}); ok {
		t.Fatal("expected miss")
	}
	if _, misses := c.Stats(); misses != 1 {
		t.Errorf("misses = %d", misses)
	}
}

func TestInvalidate(t *testing.T) {
	store := newMemStore()
	store.data["other:key"] = []byte("x")
	c := New(store, time.Minute, nil)
	c.Set(context.Background(), Key{Query: "a", Version: 1}, &executor.SearchResult{})
	c.Set(context.Background(), Key{Query: "b", Version: 2}, &executor.SearchResult{})

	n, err := c.Invalidate(context.Background())
	if err != nil || n != 2 {
		t.Fatalf("Invalidate = %d, %v", n, err)
	}
	if _, ok := store.data["other:key"]; !ok {
		t.Error("unrelated key removed")
	}
}
