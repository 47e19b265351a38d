// Package consumer listens on the corpus-reload topic and rebuilds the
// local snapshot for every reload command it receives.
package consumer

import (
	"context"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/article-retrieval/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/article-retrieval/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/article-retrieval/pkg/kafka"
)

// Reloader is implemented by *indexer.Engine.
type Reloader interface {
	Reload(ctx context.Context) (*indexer.Snapshot, error)
}

// ReloadConsumer wraps a Kafka consumer to drive snapshot reloads.
type ReloadConsumer struct {
	consumer *kafka.Consumer
	logger   *slog.Logger
}

// New creates a ReloadConsumer backed by the given Kafka consumer.
func New(kafkaConsumer *kafka.Consumer) *ReloadConsumer {
	return &ReloadConsumer{
		consumer: kafkaConsumer,
		logger:   slog.Default().With("component", "reload-consumer"),
	}
}

// Start begins consuming Kafka messages. It blocks until ctx is cancelled.
func (rc *ReloadConsumer) Start(ctx context.Context) error {
	rc.logger.Info("reload consumer starting")
	return rc.consumer.Start(ctx)
}

// HandleMessage returns a MessageHandler that reloads r for each reload
// command. Undecodable or foreign messages are logged and skipped so they
// are committed rather than redelivered forever. A failed reload returns the
// error, leaving the message uncommitted.
func HandleMessage(r Reloader) kafka.MessageHandler {
	logger := slog.Default().With("component", "reload-consumer")
	return func(ctx context.Context, msg kafka.Message) error {
		if msg.Type != "" && msg.Type != ingestion.ReloadEventType {
			logger.Debug("ignoring message", "type", msg.Type)
			return nil
		}
		cmd, err := kafka.DecodeJSON[ingestion.ReloadCommand](msg.Value)
		if err != nil {
			logger.Error("failed to decode reload command",
				"error", err,
				"key", string(msg.Key),
			)
			return nil
		}
		logger.Info("reload command received",
			"reason", cmd.Reason,
			"requested_by", cmd.RequestedBy,
			"requested_at", cmd.RequestedAt,
		)
		snap, err := r.Reload(ctx)
		if err != nil {
			return err
		}
		logger.Info("reload complete", "version", snap.Version)
		return nil
	}
}
