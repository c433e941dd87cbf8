package actor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestMailboxPreservesOrder(t *testing.T) {
	mb := NewMailbox[int]()
	for i := 0; i < 5; i++ {
		require.True(t, mb.Send(i))
	}

	for i := 0; i < 5; i++ {
		got, err := mb.Receive(context.Background())
		require.NoError(t, err)
		assert.Equal(t, i, got)
	}
	assert.Equal(t, 0, mb.Len())
}

func TestMailboxSendAfterCloseIsDropped(t *testing.T) {
	mb := NewMailbox[string]()
	require.True(t, mb.Send("queued"))
	mb.Close()

	assert.False(t, mb.Send("late"))

	got, err := mb.Receive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "queued", got)

	_, err = mb.Receive(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}

func TestMailboxReceiveHonorsContext(t *testing.T) {
	mb := NewMailbox[int]()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := mb.Receive(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMailboxConcurrentSenders(t *testing.T) {
	mb := NewMailbox[int]()
	const senders, perSender = 8, 100

	var wg sync.WaitGroup
	for s := 0; s < senders; s++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perSender; i++ {
				mb.Send(i)
			}
		}()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := 0; i < senders*perSender; i++ {
		_, err := mb.Receive(ctx)
		require.NoError(t, err)
	}
	wg.Wait()
}
