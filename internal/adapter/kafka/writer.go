package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/hnx-camera-etl/internal/config"
	"github.com/couchcryptid/hnx-camera-etl/internal/domain"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes enriched camera records to a Kafka topic.
// It implements pipeline.Sink.
type Writer struct {
	writer messageWriter
	clock  clockwork.Clock
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, clock: clockwork.NewRealClock(), logger: logger}
}

func (w *Writer) Name() string { return "kafka" }

// WriteArtifacts publishes every record of one source in a single
// WriteMessages call. Records are keyed by source and name so that updates
// to one camera land on the same partition.
func (w *Writer) WriteArtifacts(ctx context.Context, src domain.Source, records []domain.CameraRecord) error {
	if len(records) == 0 {
		return nil
	}
	processedAt := w.clock.Now().UTC()
	msgs := make([]kafkago.Message, len(records))
	for i := range records {
		msg, err := serializeToMessage(records[i], processedAt)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish %s records: %w", src, err)
	}
	w.logger.Debug("published camera records", "source", src, "count", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// CameraMessage is the JSON value of a published record.
type CameraMessage struct {
	domain.CameraRecord
	ProcessedAt time.Time `json:"processed_at"`
}

// serializeToMessage marshals a CameraRecord into a Kafka message.
func serializeToMessage(rec domain.CameraRecord, processedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(CameraMessage{CameraRecord: rec, ProcessedAt: processedAt})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize camera record: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(rec.Key()),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "source", Value: []byte(rec.Source)},
			{Key: "processed_at", Value: []byte(processedAt.Format(time.RFC3339))},
		},
	}, nil
}
