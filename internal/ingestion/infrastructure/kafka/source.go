package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	ingestapp "github.com/dmehra2102/Kitchen-Unit/internal/ingestion/application"
	ingestdom "github.com/dmehra2102/Kitchen-Unit/internal/ingestion/domain"
	"github.com/dmehra2102/Kitchen-Unit/pkg/tracing"
)

type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Source consumes order records from a topic. The stream is considered
// finished once no message arrives within the idle timeout.
type Source struct {
	log    *slog.Logger
	reader Reader
	idle   time.Duration
}

func NewReader(brokers []string, topic, group string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: group,
	})
}

func NewSource(log *slog.Logger, reader Reader, idle time.Duration) *Source {
	return &Source{log: log.With("component", "kafka-source"), reader: reader, idle: idle}
}

func (s *Source) Close() error { return s.reader.Close() }

func (s *Source) Next(ctx context.Context) (ingestapp.Delivery, error) {
	fctx, cancel := context.WithTimeout(ctx, s.idle)
	defer cancel()

	msg, err := s.reader.FetchMessage(fctx)
	if err != nil {
		if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
			s.log.Info("order topic idle, treating as end of stream", "idle", s.idle)
			return ingestapp.Delivery{}, io.EOF
		}
		return ingestapp.Delivery{}, fmt.Errorf("fetch order: %w", err)
	}

	d := ingestapp.Delivery{
		Carrier: tracing.KafkaCarrier(msg.Headers),
		Ack: func(ctx context.Context) error {
			return s.reader.CommitMessages(ctx, msg)
		},
	}
	if err := json.Unmarshal(msg.Value, &d.Record); err != nil {
		return d, fmt.Errorf("%w: partition %d offset %d: %v", ingestdom.ErrMalformedRecord, msg.Partition, msg.Offset, err)
	}
	return d, nil
}
