package shutdown

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestWithSignalsReleasesWatcherOnCancel(t *testing.T) {
	ctx, cancel := WithSignals(context.Background(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	cancel()
	<-ctx.Done()
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}

func TestDrainJoinsErrors(t *testing.T) {
	errA := errors.New("a")
	var calls int
	err := Drain(time.Second,
		func(context.Context) error { calls++; return errA },
		func(ctx context.Context) error {
			calls++
			_, ok := ctx.Deadline()
			assert.True(t, ok)
			return nil
		},
	)
	assert.Equal(t, 2, calls)
	assert.ErrorIs(t, err, errA)
	assert.NoError(t, Drain(time.Second))
}
