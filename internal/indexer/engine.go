// Package indexer owns the corpus snapshot: it reads records from a source,
// builds the document store, inverted index and TF-IDF model together, and
// publishes them as one immutable Snapshot.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/article-retrieval/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/article-retrieval/internal/indexer/store"
	"github.com/Adithya-Monish-Kumar-K/article-retrieval/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/article-retrieval/internal/indexer/vector"
	"github.com/Adithya-Monish-Kumar-K/article-retrieval/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/article-retrieval/internal/ingestion/source"
	"github.com/Adithya-Monish-Kumar-K/article-retrieval/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/article-retrieval/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/article-retrieval/pkg/resilience"
)

// Snapshot is one fully built corpus. Every field is read-only once the
// snapshot is published, and the model always matches the store it sits next
// to.
type Snapshot struct {
	Version       uint64
	Store         *store.Store
	Index         *index.Index
	Model         *vector.Model
	Source        string
	LoadedAt      time.Time
	BuildDuration time.Duration
}

// Stats summarises a snapshot for status endpoints.
type Stats struct {
	Version        uint64    `json:"version"`
	Documents      int       `json:"documents"`
	Terms          int       `json:"terms"`
	VocabularySize int       `json:"vocabulary_size"`
	Source         string    `json:"source"`
	LoadedAt       time.Time `json:"loaded_at"`
	BuildMillis    int64     `json:"build_ms"`
}

func (s *Snapshot) Stats() Stats {
	return Stats{
		Version:        s.Version,
		Documents:      s.Store.Len(),
		Terms:          s.Index.NumTerms(),
		VocabularySize: s.Model.VocabularySize(),
		Source:         s.Source,
		LoadedAt:       s.LoadedAt,
		BuildMillis:    s.BuildDuration.Milliseconds(),
	}
}

// Build constructs an unpublished snapshot from records.
func Build(records []ingestion.Record, limit int, n tokenizer.Normalizer) (*Snapshot, error) {
	start := time.Now()
	st, err := store.Load(records, limit)
	if err != nil {
		return nil, err
	}
	idx := index.Build(st, n)
	model := vector.Fit(st)
	return &Snapshot{
		Store:         st,
		Index:         idx,
		Model:         model,
		LoadedAt:      time.Now().UTC(),
		BuildDuration: time.Since(start),
	}, nil
}

// Engine publishes snapshots. Reloads are serialized; readers never block.
type Engine struct {
	src        source.Source
	normalizer tokenizer.Normalizer
	cfg        config.CorpusConfig
	logger     *slog.Logger

	current atomic.Pointer[Snapshot]
	version atomic.Uint64

	reloadMu sync.Mutex
	hooksMu  sync.RWMutex
	hooks    []func(*Snapshot)
	failures []func(error)
}

func NewEngine(src source.Source, n tokenizer.Normalizer, cfg config.CorpusConfig) *Engine {
	return &Engine{
		src:        src,
		normalizer: n,
		cfg:        cfg,
		logger:     slog.Default().With("component", "indexer", "source", src.Name()),
	}
}

// Normalizer returns the normalizer used for documents, which queries must
// share.
func (e *Engine) Normalizer() tokenizer.Normalizer { return e.normalizer }

// OnReload registers fn to run after every successful publish.
func (e *Engine) OnReload(fn func(*Snapshot)) {
	e.hooksMu.Lock()
	e.hooks = append(e.hooks, fn)
	e.hooksMu.Unlock()
}

// OnReloadFailure registers fn to run after every failed Reload.
func (e *Engine) OnReloadFailure(fn func(error)) {
	e.hooksMu.Lock()
	e.failures = append(e.failures, fn)
	e.hooksMu.Unlock()
}

// Current returns the published snapshot, or ErrCorpusNotLoaded before the
// first successful Reload.
func (e *Engine) Current() (*Snapshot, error) {
	snap := e.current.Load()
	if snap == nil {
		return nil, apperrors.ErrCorpusNotLoaded
	}
	return snap, nil
}

// Reload reads the source and publishes a new snapshot. Unavailable sources
// are retried; malformed data is not. On failure the previous snapshot stays
// in place.
func (e *Engine) Reload(ctx context.Context) (*Snapshot, error) {
	e.reloadMu.Lock()
	defer e.reloadMu.Unlock()

	var records []ingestion.Record
	err := resilience.Retry(ctx, "corpus-read", resilience.RetryConfig{
		MaxAttempts: e.cfg.LoadRetries,
		Retryable: func(err error) bool {
			return errors.Is(err, apperrors.ErrSourceUnavailable)
		},
	}, func(ctx context.Context) error {
		var err error
		records, err = e.src.Records(ctx, e.cfg.Limit)
		return err
	})
	if errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("%w: %w", apperrors.ErrTimeout, err)
	}
	if err != nil {
		e.logger.Error("corpus read failed", "error", err)
		return nil, e.fail(fmt.Errorf("reading corpus: %w", err))
	}

	snap, err := Build(records, e.cfg.Limit, e.normalizer)
	if err != nil {
		e.logger.Error("snapshot build failed", "error", err, "records", len(records))
		return nil, e.fail(fmt.Errorf("building snapshot: %w", err))
	}
	snap.Version = e.version.Add(1)
	snap.Source = e.src.Name()
	e.current.Store(snap)

	e.logger.Info("snapshot published",
		"version", snap.Version,
		"documents", snap.Store.Len(),
		"terms", snap.Index.NumTerms(),
		"vocabulary", snap.Model.VocabularySize(),
		"build_ms", snap.BuildDuration.Milliseconds(),
	)

	e.hooksMu.RLock()
	hooks := slices.Clone(e.hooks)
	e.hooksMu.RUnlock()
	for _, fn := range hooks {
		fn(snap)
	}
	return snap, nil
}

func (e *Engine) fail(err error) error {
	e.hooksMu.RLock()
	hooks := slices.Clone(e.failures)
	e.hooksMu.RUnlock()
	for _, fn := range hooks {
		fn(err)
	}
	return err
}
