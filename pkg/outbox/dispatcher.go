package outbox

import (
	"context"
	"log/slog"
	"sort"

	"github.com/segmentio/kafka-go"
)

const (
	HeaderEventType   = "event_type"
	HeaderTraceparent = "traceparent"
)

type Producer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type Dispatcher struct {
	log      *slog.Logger
	producer Producer
	topic    string
}

func NewDispatcher(log *slog.Logger, producer Producer, topic string) *Dispatcher {
	return &Dispatcher{log: log, producer: producer, topic: topic}
}

func (d *Dispatcher) Topic() string { return d.topic }

func (d *Dispatcher) Dispatch(ctx context.Context, m Message) error {
	if err := d.producer.WriteMessages(ctx, d.Encode(m)); err != nil {
		d.log.Error("outbox dispatch failed", "outbox_id", m.ID, "key", m.Key, "err", err)
		return err
	}
	d.log.Debug("outbox dispatched", "outbox_id", m.ID, "type", m.Type, "key", m.Key)
	return nil
}

// Encode builds the kafka record for m. Headers are emitted in key order.
func (d *Dispatcher) Encode(m Message) kafka.Message {
	keys := make([]string, 0, len(m.Headers))
	for k := range m.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	headers := make([]kafka.Header, 0, len(keys)+2)
	for _, k := range keys {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(m.Headers[k])})
	}
	headers = append(headers, kafka.Header{Key: HeaderEventType, Value: []byte(m.Type)})
	if m.Traceparent != "" {
		headers = append(headers, kafka.Header{Key: HeaderTraceparent, Value: []byte(m.Traceparent)})
	}

	return kafka.Message{
		Topic:   d.topic,
		Key:     []byte(m.Key),
		Value:   m.Payload,
		Headers: headers,
	}
}
