package analytics

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/article-retrieval/pkg/kafka"
)

// BatchPublisher is implemented by *kafka.Producer.
type BatchPublisher interface {
	PublishBatch(ctx context.Context, events []kafka.Event) error
}

// CollectorConfig tunes buffering. Zero values take defaults.
type CollectorConfig struct {
	BufferSize    int
	BatchSize     int
	FlushInterval time.Duration
}

// Collector buffers events without blocking the request path and publishes
// them in batches, flushing when a batch fills or the interval elapses.
type Collector struct {
	producer BatchPublisher
	cfg      CollectorConfig
	eventCh  chan Event
	logger   *slog.Logger
	done     chan struct{}
	once     sync.Once
}

func NewCollector(producer BatchPublisher, cfg CollectorConfig) *Collector {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 10000
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = time.Second
	}
	return &Collector{
		producer: producer,
		cfg:      cfg,
		eventCh:  make(chan Event, cfg.BufferSize),
		logger:   slog.Default().With("component", "analytics-collector"),
		done:     make(chan struct{}),
	}
}

// Start launches the publish loop. It drains and flushes the buffer when ctx
// is cancelled or Close is called.
func (c *Collector) Start(ctx context.Context) {
	go func() {
		defer close(c.done)
		ticker := time.NewTicker(c.cfg.FlushInterval)
		defer ticker.Stop()

		batch := make([]kafka.Event, 0, c.cfg.BatchSize)
		flush := func(ctx context.Context) {
			if len(batch) == 0 {
				return
			}
			if err := c.producer.PublishBatch(ctx, batch); err != nil {
				c.logger.Error("failed to publish analytics batch", "events", len(batch), "error", err)
			}
			batch = batch[:0]
		}

		for {
			select {
			case event, ok := <-c.eventCh:
				if !ok {
					flush(context.Background())
					return
				}
				batch = append(batch, toKafka(event))
				if len(batch) >= c.cfg.BatchSize {
					flush(ctx)
				}
			case <-ticker.C:
				flush(ctx)
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				c.drainInto(&batch)
				flush(shutdownCtx)
				cancel()
				return
			}
		}
	}()
	c.logger.Info("analytics collector started",
		"buffer_size", c.cfg.BufferSize,
		"batch_size", c.cfg.BatchSize,
		"flush_interval", c.cfg.FlushInterval,
	)
}

// Track enqueues an event, dropping it when the buffer is full.
func (c *Collector) Track(event Event) {
	select {
	case c.eventCh <- event:
	default:
		c.logger.Warn("analytics event dropped (buffer full)", "type", event.EventType())
	}
}

// Close stops accepting events and waits for the final flush. Start must
// have been called.
func (c *Collector) Close() {
	c.once.Do(func() { close(c.eventCh) })
	<-c.done
}

func (c *Collector) drainInto(batch *[]kafka.Event) {
	for {
		select {
		case event, ok := <-c.eventCh:
			if !ok {
				return
			}
			*batch = append(*batch, toKafka(event))
		default:
			return
		}
	}
}

func toKafka(event Event) kafka.Event {
	return kafka.Event{
		Key:   string(event.EventType()),
		Type:  string(event.EventType()),
		Value: event,
	}
}
