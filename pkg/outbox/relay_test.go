package outbox

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	testclock "k8s.io/utils/clock/testing"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type memStore struct {
	mu       sync.Mutex
	pending  []Message
	sent     []int64
	failed   map[int64]string
	extended [][]int64
}

func (s *memStore) LockBatch(_ context.Context, _ string, n int, _ time.Duration) ([]Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n > len(s.pending) {
		n = len(s.pending)
	}
	batch := s.pending[:n]
	s.pending = s.pending[n:]
	return batch, nil
}

func (s *memStore) MarkSent(_ context.Context, ids []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, ids...)
	return nil
}

func (s *memStore) MarkFailed(_ context.Context, id int64, msg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failed == nil {
		s.failed = map[int64]string{}
	}
	s.failed[id] = msg
	return nil
}

func (s *memStore) ExtendLease(_ context.Context, _ string, ids []int64, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.extended = append(s.extended, ids)
	return nil
}

func (s *memStore) sentIDs() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int64(nil), s.sent...)
}

type memProducer struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	failOn string
	onSend func()
}

func (p *memProducer) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, m := range msgs {
		if string(m.Key) == p.failOn {
			return errors.New("broker unavailable")
		}
		if p.onSend != nil {
			p.onSend()
		}
		p.msgs = append(p.msgs, m)
	}
	return nil
}

func header(m kafka.Message, key string) string {
	for _, h := range m.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestDispatcherEncodesHeaders(t *testing.T) {
	d := NewDispatcher(quiet, &memProducer{}, "kitchen.events")
	km := d.Encode(Message{
		ID:          3,
		Key:         "order-1",
		Type:        "OrderShelved",
		Payload:     []byte(`{"zone":"hot"}`),
		Headers:     map[string]string{"source": "kitchen-unit", "b": "2"},
		Traceparent: "00-abc-def-01",
	})

	assert.Equal(t, "kitchen.events", km.Topic)
	assert.Equal(t, "order-1", string(km.Key))
	assert.Equal(t, "OrderShelved", header(km, HeaderEventType))
	assert.Equal(t, "00-abc-def-01", header(km, HeaderTraceparent))
	require.Len(t, km.Headers, 4)
	assert.Equal(t, "b", km.Headers[0].Key)

	km = d.Encode(Message{Key: "order-2", Type: "OrderDropped"})
	assert.Empty(t, header(km, HeaderTraceparent))
}

func TestRelayOnceMarksSentAndFailed(t *testing.T) {
	store := &memStore{pending: []Message{
		{ID: 1, Key: "a", Type: "OrderReceived"},
		{ID: 2, Key: "b", Type: "OrderReceived"},
		{ID: 3, Key: "c", Type: "OrderReceived"},
	}}
	prod := &memProducer{failOn: "b"}
	r := NewRelay(quiet, store, NewDispatcher(quiet, prod, "t"), "relay-1", WithRelayClock(testclock.NewFakeClock(time.Now())))

	n, err := r.Once(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []int64{1, 3}, store.sentIDs())
	assert.Contains(t, store.failed[2], "broker unavailable")
}

func TestRelayExtendsLeaseOnSlowBatch(t *testing.T) {
	clk := testclock.NewFakeClock(time.Now())
	store := &memStore{pending: []Message{{ID: 1, Key: "a"}, {ID: 2, Key: "b"}, {ID: 3, Key: "c"}}}
	prod := &memProducer{onSend: func() { clk.Step(3 * time.Second) }}
	r := NewRelay(quiet, store, NewDispatcher(quiet, prod, "t"), "relay-1",
		WithRelayClock(clk), WithLease(5*time.Second))

	n, err := r.Once(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, [][]int64{{2, 3}, {3}}, store.extended)
}

func TestRelayRunPollsAndDrainsOnStop(t *testing.T) {
	clk := testclock.NewFakeClock(time.Now())
	store := &memStore{pending: []Message{{ID: 1, Key: "a"}}}
	r := NewRelay(quiet, store, NewDispatcher(quiet, &memProducer{}, "t"), "relay-1",
		WithRelayClock(clk), WithInterval(time.Second), WithBatchSize(10))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	require.Eventually(t, clk.HasWaiters, time.Second, time.Millisecond)
	clk.Step(time.Second)
	require.Eventually(t, func() bool { return len(store.sentIDs()) == 1 }, time.Second, time.Millisecond)

	store.mu.Lock()
	store.pending = append(store.pending, Message{ID: 2, Key: "b"})
	store.mu.Unlock()
	cancel()

	require.NoError(t, <-done)
	assert.Equal(t, []int64{1, 2}, store.sentIDs())
}
