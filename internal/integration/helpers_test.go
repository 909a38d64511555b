//go:build integration

package integration_test

import (
	"context"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
	"gonum.org/v1/gonum/mat"

	"github.com/couchcryptid/storm-mcc-search/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node broker for the test and returns its address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID("mcc-search-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("terminate kafka container: %v", err)
		}
	})

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

// createTopic creates a single-partition topic through the cluster controller.
func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err, "dial broker")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err, "dial controller")
	defer ctrl.Close()

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// stormDataset holds one cold block that persists across frames, large and
// cold enough to pass both shield tests under testCriteria.
func stormDataset(frames int) domain.Dataset {
	const n = 40
	lats := make([]float64, n)
	lons := make([]float64, n)
	for i := range n {
		lats[i] = 5 + 0.1*float64(i)
		lons[i] = 0.1 * float64(i)
	}
	start := time.Date(2006, time.September, 1, 0, 0, 0, 0, time.UTC)
	ds := domain.Dataset{Grid: domain.Grid{Lats: lats, Lons: lons}}
	for f := range frames {
		m := mat.NewDense(n, n, nil)
		for i := range n {
			for j := range n {
				if i >= 5 && i <= 31 && j >= 3 && j <= 36 {
					m.Set(i, j, 200)
				} else {
					m.Set(i, j, 300)
				}
			}
		}
		ds.Frames = append(ds.Frames, m)
		ds.Times = append(ds.Times, start.Add(time.Duration(f)*time.Hour))
	}
	return ds
}

func testCriteria() domain.Criteria {
	c := domain.DefaultCriteria()
	c.XRes, c.YRes = 10, 10
	c.MinimumDuration = 3
	return c
}
