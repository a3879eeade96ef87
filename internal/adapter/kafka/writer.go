package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/climate-comfort/internal/config"
	"github.com/couchcryptid/climate-comfort/internal/domain"
	"github.com/couchcryptid/climate-comfort/internal/observability"
	kafkago "github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes monthly rows to a Kafka topic, one message per month.
// It implements pipeline.ResultLoader.
type Writer struct {
	writer  messageWriter
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewWriter creates a Kafka producer for the configured topic.
func NewWriter(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, logger: logger, metrics: metrics}
}

// Load publishes the twelve rows of res in a single WriteMessages call.
func (w *Writer) Load(ctx context.Context, res domain.LocationResult) error {
	msgs := make([]kafkago.Message, 0, len(res.Rows))
	for _, row := range res.Rows {
		msg, err := serializeToMessage(row, res.Provenance.GeneratedAt)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish %s rows: %w", res.Location.ID, err)
	}
	w.metrics.RowsPublished.Add(float64(len(msgs)))
	w.logger.Debug("rows published", "location_id", res.Location.ID, "count", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// rowMessage is the JSON value of a published row.
type rowMessage struct {
	domain.MonthlyRow
	GeneratedAt time.Time `json:"generated_at"`
}

// serializeToMessage keys a row as "<location_id>:<month>", so a rebuilt row
// replaces the previous one on a compacted topic.
func serializeToMessage(row domain.MonthlyRow, generatedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(rowMessage{MonthlyRow: row, GeneratedAt: generatedAt})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize monthly row: %w", err)
	}
	month := strconv.Itoa(row.Month)
	return kafkago.Message{
		Key:   []byte(row.LocationID + ":" + month),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "location_id", Value: []byte(row.LocationID)},
			{Key: "month", Value: []byte(month)},
			{Key: "generated_at", Value: []byte(generatedAt.Format(time.RFC3339))},
		},
	}, nil
}
