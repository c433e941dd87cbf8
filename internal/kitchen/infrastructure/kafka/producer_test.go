package kafka

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kitchendom "github.com/dmehra2102/Kitchen-Unit/internal/kitchen/domain"
	"github.com/dmehra2102/Kitchen-Unit/internal/kitchen/infrastructure/events"
	"github.com/dmehra2102/Kitchen-Unit/pkg/outbox"
)

type memProducer struct{ msgs []kafka.Message }

func (p *memProducer) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	p.msgs = append(p.msgs, msgs...)
	return nil
}

func TestEventWriterProducesKeyedRecord(t *testing.T) {
	prod := &memProducer{}
	d := outbox.NewDispatcher(slog.New(slog.NewTextHandler(io.Discard, nil)), prod, "kitchen.events")
	w := NewEventWriter(d)

	m, err := events.Encode(kitchendom.Event{ID: "e1", Type: kitchendom.EventOrderDropped, OrderID: "o-1", Reason: "expired"})
	require.NoError(t, err)
	require.NoError(t, w.Write(context.Background(), m))

	require.Len(t, prod.msgs, 1)
	got := prod.msgs[0]
	assert.Equal(t, "kitchen.events", got.Topic)
	assert.Equal(t, "o-1", string(got.Key))
	assert.Contains(t, string(got.Value), `"reason":"expired"`)
}

func TestNewProducerTargetsBrokers(t *testing.T) {
	p := NewProducer([]string{"k1:9092", "k2:9092"})
	defer p.Close()
	assert.NotNil(t, p.Addr)
	assert.Equal(t, kafka.RequireAll, p.RequiredAcks)
	assert.IsType(t, &kafka.Hash{}, p.Balancer)
}
