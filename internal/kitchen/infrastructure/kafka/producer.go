package kafka

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/dmehra2102/Kitchen-Unit/pkg/outbox"
)

type Producer struct {
	*kafka.Writer
}

func NewProducer(brokers []string) *Producer {
	return &Producer{
		Writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
			BatchTimeout:           50 * time.Millisecond,
		},
	}
}

func (p *Producer) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	return p.Writer.WriteMessages(ctx, msgs...)
}

// EventWriter sends kitchen events straight to kafka, bypassing the outbox
// table.
type EventWriter struct {
	dispatch *outbox.Dispatcher
}

func NewEventWriter(d *outbox.Dispatcher) *EventWriter {
	return &EventWriter{dispatch: d}
}

func (w *EventWriter) Write(ctx context.Context, m outbox.Message) error {
	return w.dispatch.Dispatch(ctx, m)
}
