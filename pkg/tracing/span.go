// Package tracing times the stages of a query as a tree of spans carried in
// the request context. Finished trees are logged through slog and can be
// flattened into per-stage timings for responses.
package tracing

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type contextKey struct{}

var spanKey contextKey

// Span represents a timed operation within a trace.
type Span struct {
	Name      string
	TraceID   string
	StartTime time.Time
	Duration  time.Duration

	mu       sync.Mutex
	children []*Span
	attrs    []slog.Attr
}

// StartSpan creates a root span and stores it in the returned context.
func StartSpan(ctx context.Context, name, traceID string) (context.Context, *Span) {
	span := &Span{Name: name, TraceID: traceID, StartTime: time.Now()}
	return context.WithValue(ctx, spanKey, span), span
}

// StartChildSpan creates a span under the one in ctx. Without a parent the
// child is still usable but belongs to no tree.
func StartChildSpan(ctx context.Context, name string) (context.Context, *Span) {
	child := &Span{Name: name, StartTime: time.Now()}
	if parent := SpanFromContext(ctx); parent != nil {
		child.TraceID = parent.TraceID
		parent.mu.Lock()
		parent.children = append(parent.children, child)
		parent.mu.Unlock()
	}
	return context.WithValue(ctx, spanKey, child), child
}

// SpanFromContext extracts the current Span from ctx, or nil if none.
func SpanFromContext(ctx context.Context) *Span {
	span, _ := ctx.Value(spanKey).(*Span)
	return span
}

// End records the span's duration.
func (s *Span) End() {
	s.mu.Lock()
	s.Duration = time.Since(s.StartTime)
	s.mu.Unlock()
}

// SetAttr attaches a key-value attribute to the span.
func (s *Span) SetAttr(key string, value any) {
	s.mu.Lock()
	s.attrs = append(s.attrs, slog.Any(key, value))
	s.mu.Unlock()
}

// Timings flattens the tree below s into child name to milliseconds. Repeated
// names accumulate.
func (s *Span) Timings() map[string]float64 {
	out := make(map[string]float64)
	s.collect(out)
	return out
}

func (s *Span) collect(out map[string]float64) {
	s.mu.Lock()
	children := append([]*Span(nil), s.children...)
	s.mu.Unlock()
	for _, c := range children {
		c.mu.Lock()
		out[c.Name] += float64(c.Duration.Microseconds()) / 1000
		c.mu.Unlock()
		c.collect(out)
	}
}

// Log writes the span tree to logger at debug level.
func (s *Span) Log(logger *slog.Logger) {
	s.log(logger, 0)
}

func (s *Span) log(logger *slog.Logger, depth int) {
	s.mu.Lock()
	args := []any{
		"trace_id", s.TraceID,
		"span", s.Name,
		"duration_ms", float64(s.Duration.Microseconds()) / 1000,
		"depth", depth,
	}
	for _, a := range s.attrs {
		args = append(args, a)
	}
	children := append([]*Span(nil), s.children...)
	s.mu.Unlock()

	logger.Debug("span", args...)
	for _, child := range children {
		child.log(logger, depth+1)
	}
}
