package kafka

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ingestdom "github.com/dmehra2102/Kitchen-Unit/internal/ingestion/domain"
)

type fakeReader struct {
	msgs      []kafka.Message
	committed []int64
	err       error
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if r.err != nil {
		return kafka.Message{}, r.err
	}
	if len(r.msgs) == 0 {
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	m := r.msgs[0]
	r.msgs = r.msgs[1:]
	return m, nil
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error { return nil }

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestSourceDecodesAndAcks(t *testing.T) {
	r := &fakeReader{msgs: []kafka.Message{
		{Offset: 7, Value: []byte(`{"id":"a","temp":"hot","shelfLife":5,"decayRate":0.7}`), Headers: []kafka.Header{{Key: "traceparent", Value: []byte("00-1-2-01")}}},
		{Offset: 8, Value: []byte(`not json`)},
	}}
	s := NewSource(quiet, r, 20*time.Millisecond)
	ctx := context.Background()

	d, err := s.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", d.Record.ID)
	assert.Equal(t, "00-1-2-01", d.Carrier.Get("traceparent"))
	require.NoError(t, d.Ack(ctx))

	d, err = s.Next(ctx)
	assert.ErrorIs(t, err, ingestdom.ErrMalformedRecord)
	require.NotNil(t, d.Ack, "malformed records are still acknowledged")
	require.NoError(t, d.Ack(ctx))
	assert.Equal(t, []int64{7, 8}, r.committed)

	_, err = s.Next(ctx)
	assert.ErrorIs(t, err, io.EOF)
}

func TestSourceReportsBrokerFailure(t *testing.T) {
	s := NewSource(quiet, &fakeReader{err: errors.New("leader not available")}, time.Second)
	_, err := s.Next(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, io.EOF)
}

func TestSourceCancelledIsNotEndOfStream(t *testing.T) {
	s := NewSource(quiet, &fakeReader{}, time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := s.Next(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, io.EOF)
}
