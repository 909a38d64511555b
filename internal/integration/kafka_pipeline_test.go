//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/storm-mcc-search/internal/adapter/kafka"
	"github.com/couchcryptid/storm-mcc-search/internal/adapter/sqlite"
	"github.com/couchcryptid/storm-mcc-search/internal/config"
	"github.com/couchcryptid/storm-mcc-search/internal/domain"
	"github.com/couchcryptid/storm-mcc-search/internal/observability"
	"github.com/couchcryptid/storm-mcc-search/internal/pipeline"
)

const testSinkTopic = "test-mcc-features"

// publishedFeature holds a deserialized message read from the sink topic.
type publishedFeature struct {
	Feature domain.Feature
	Key     string
	Headers map[string]string
}

// readFeature reads a single message from the sink consumer and deserializes it.
func readFeature(ctx context.Context, t *testing.T, consumer *kafkago.Reader) publishedFeature {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from sink topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var f domain.Feature
	require.NoError(t, json.Unmarshal(msg.Value, &f), "unmarshal sink message")

	return publishedFeature{Feature: f, Key: string(msg.Key), Headers: headers}
}

// TestPipelinePublishesFeatures runs the search against a real broker and a
// file-backed SQLite store, then reads every feature back from both sinks.
func TestPipelinePublishesFeatures(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSinkTopic)

	cfg := &config.Config{
		KafkaBrokers:       []string{broker},
		KafkaSinkTopic:     testSinkTopic,
		BatchSize:          10,
		BatchFlushInterval: 100 * time.Millisecond,
	}
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	store, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "mcc.db"), discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	p := pipeline.New(testCriteria(), pipeline.Options{
		Loaders: []pipeline.FeatureLoader{writer, store},
	}, discardLogger(), observability.NewMetricsForTesting())

	run, err := p.Run(ctx, stormDataset(3))
	require.NoError(t, err)
	require.Len(t, run.MCC, 1)
	require.NotEmpty(t, run.Features)

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-sink-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	received := make(map[string]publishedFeature, len(run.Features))
	for len(received) < len(run.Features) {
		pf := readFeature(ctx, t, consumer)
		received[pf.Key] = pf
	}

	for _, want := range run.Features {
		got, ok := received[want.ID]
		require.True(t, ok, "feature %s not published", want.ID)
		assert.Equal(t, string(want.Kind), got.Headers["kind"])
		assert.Equal(t, run.ID, got.Headers["run_id"])
		_, err := time.Parse(time.RFC3339, got.Headers["processed_at"])
		assert.NoError(t, err, "processed_at should be valid RFC3339")
		assert.Equal(t, want.Nodes, got.Feature.Nodes)
		assert.Equal(t, want.DurationHours, got.Feature.DurationHours)
	}

	// The store holds the same run and its MCC.
	runs, err := store.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)
	assert.Equal(t, 1, runs[0].MCCCount)

	stored, err := store.Features(ctx, run.ID, domain.FeatureMCC)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, run.MCCFeatures()[0].Nodes, stored[0].Nodes)
}
