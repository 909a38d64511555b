package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/storm-mcc-search/internal/config"
	"github.com/couchcryptid/storm-mcc-search/internal/domain"
	"github.com/couchcryptid/storm-mcc-search/internal/pipeline"
)

// Writer produces one message per feature to a Kafka topic.
// It implements pipeline.FeatureLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchFlushInterval,
	}
	return &Writer{writer: w, logger: logger}
}

// Name identifies the sink in logs and metrics.
func (w *Writer) Name() string { return "kafka" }

// LoadFeatures serializes and publishes every feature of run to the sink
// topic in a single WriteMessages call.
func (w *Writer) LoadFeatures(ctx context.Context, run *pipeline.Run) error {
	if len(run.Features) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(run.Features))
	for i := range run.Features {
		msg, err := serializeToMessage(run.Features[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write features: %w", err)
	}
	w.logger.Debug("features written", "topic", w.writer.Topic, "count", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a Feature into a Kafka message keyed by its id.
func serializeToMessage(f domain.Feature) (kafkago.Message, error) {
	data, err := json.Marshal(f)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize feature: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(f.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "kind", Value: []byte(f.Kind)},
			{Key: "run_id", Value: []byte(f.RunID)},
			{Key: "processed_at", Value: []byte(f.ProcessedAt.Format(time.RFC3339))},
		},
	}, nil
}
