//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/couchcryptid/climate-comfort/internal/adapter/kafka"
	"github.com/couchcryptid/climate-comfort/internal/adapter/openmeteo"
	"github.com/couchcryptid/climate-comfort/internal/cache"
	"github.com/couchcryptid/climate-comfort/internal/config"
	"github.com/couchcryptid/climate-comfort/internal/domain"
	"github.com/couchcryptid/climate-comfort/internal/observability"
	"github.com/couchcryptid/climate-comfort/internal/pipeline"
	"github.com/couchcryptid/climate-comfort/internal/report"
	"github.com/couchcryptid/climate-comfort/internal/source"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

const testTopic = "test-monthly-rows"

const testLocations = `
locations:
  - location_id: malaga
    country: Spain
    resort: Malaga
    area: Costa del Sol
    lat: 36.72
    lon: -4.42
`

const testSources = `
period:
  start_year: 2021
  end_year: 2022
`

// publishedRow holds a deserialized message read from the rows topic.
type publishedRow struct {
	Row struct {
		domain.MonthlyRow
		GeneratedAt time.Time `json:"generated_at"`
	}
	Key     string
	Headers map[string]string
}

func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("test-cluster"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("terminate kafka container: %v", err)
		}
	})

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrl.Close()

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

func readRow(ctx context.Context, t *testing.T, consumer *kafkago.Reader) publishedRow {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from rows topic")

	var out publishedRow
	out.Key = string(msg.Key)
	out.Headers = make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		out.Headers[h.Key] = string(h.Value)
	}
	require.NoError(t, json.Unmarshal(msg.Value, &out.Row), "unmarshal row message")
	return out
}

func fakeOpenMeteo(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.Handle("/archive", openmeteo.SyntheticHandler(openmeteo.Archive))
	mux.Handle("/marine", openmeteo.SyntheticHandler(openmeteo.Marine))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// TestPipelinePublishesRows runs a full build against a fake Open-Meteo
// server and checks the twelve rows arrive on Kafka and on disk.
func TestPipelinePublishesRows(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)

	configDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(configDir, config.LocationsFile), []byte(testLocations), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(configDir, config.SourcesFile), []byte(testSources), 0o600))
	study, err := config.LoadStudy(configDir)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := observability.NewMetricsForTesting()
	cfg := &config.Config{
		KafkaEnabled: true,
		KafkaBrokers: []string{broker},
		KafkaTopic:   testTopic,
	}

	om := fakeOpenMeteo(t)
	client := openmeteo.NewClient(openmeteo.Options{
		ArchiveURL:       om.URL + "/archive",
		MarineURL:        om.URL + "/marine",
		Timeout:          10 * time.Second,
		MaxRetries:       1,
		RetryInterval:    10 * time.Millisecond,
		MaxRetryInterval: 50 * time.Millisecond,
	}, logger, metrics)
	diskCache, err := cache.New(t.TempDir(), study.CacheTTL, logger)
	require.NoError(t, err)
	orchestrator := source.NewOrchestrator(source.DefaultRegistry(source.NewBackend(client, diskCache, logger, metrics)), logger, metrics)
	builder := pipeline.NewBuilder(orchestrator, pipeline.Settings{
		Period:                 study.Period,
		MinCoverage:            study.MinCoverage,
		AllowEstimatedRainDays: study.AllowEstimatedRainDays,
		AllowLastResort:        study.AllowLastResort,
		MMPerRainDay:           study.MMPerRainDay,
		Providers:              study.Providers,
		Score:                  study.Score,
	}, logger, metrics)

	outDir := t.TempDir()
	files, err := report.NewFileWriter(outDir, true, logger)
	require.NoError(t, err)
	writer := kafka.NewWriter(cfg, logger, metrics)
	t.Cleanup(func() { writer.Close() })

	p := pipeline.New(builder, []pipeline.ResultLoader{files, writer}, logger, metrics)
	require.NoError(t, p.Run(ctx, study.Locations))
	require.NoError(t, p.CheckReadiness(ctx))

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:   []string{broker},
		Topic:     testTopic,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  10e6,
	})
	t.Cleanup(func() { consumer.Close() })

	for month := 1; month <= 12; month++ {
		got := readRow(ctx, t, consumer)
		assert.Equal(t, "malaga:"+strconv.Itoa(month), got.Key)
		assert.Equal(t, "malaga", got.Headers["location_id"])
		assert.Equal(t, strconv.Itoa(month), got.Headers["month"])
		assert.NotEmpty(t, got.Headers["generated_at"])
		assert.Equal(t, month, got.Row.Month)
		assert.Equal(t, "Spain", got.Row.Country)
		assert.True(t, got.Row.SeaTemp.Value.Valid, "sea temperature for month %d", month)
		assert.GreaterOrEqual(t, got.Row.Components.ComfortScore, 0.0)
		assert.LessOrEqual(t, got.Row.Components.ComfortScore, 100.0)
	}

	for _, path := range []string{
		files.CSVPath("malaga"),
		files.MarkdownPath("malaga"),
		files.ProvenancePath("malaga"),
	} {
		info, err := os.Stat(path)
		require.NoError(t, err, path)
		assert.Positive(t, info.Size(), path)
	}
}
