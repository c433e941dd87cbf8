package outbox

import (
	"context"
	"log/slog"
	"time"

	"k8s.io/utils/clock"
)

type Store interface {
	LockBatch(ctx context.Context, relayID string, batchSize int, lease time.Duration) ([]Message, error)
	MarkSent(ctx context.Context, ids []int64) error
	MarkFailed(ctx context.Context, id int64, errMsg string) error
	ExtendLease(ctx context.Context, relayID string, ids []int64, lease time.Duration) error
}

type Relay struct {
	log       *slog.Logger
	store     Store
	dispatch  *Dispatcher
	clock     clock.WithTicker
	relayID   string
	batchSize int
	interval  time.Duration
	lease     time.Duration
}

type RelayOption func(*Relay)

func WithInterval(d time.Duration) RelayOption {
	return func(r *Relay) { r.interval = d }
}

func WithBatchSize(n int) RelayOption {
	return func(r *Relay) { r.batchSize = n }
}

func WithLease(d time.Duration) RelayOption {
	return func(r *Relay) { r.lease = d }
}

func WithRelayClock(c clock.WithTicker) RelayOption {
	return func(r *Relay) { r.clock = c }
}

func NewRelay(log *slog.Logger, store Store, dispatch *Dispatcher, relayID string, opts ...RelayOption) *Relay {
	r := &Relay{
		log:       log.With("relay_id", relayID),
		store:     store,
		dispatch:  dispatch,
		clock:     clock.RealClock{},
		relayID:   relayID,
		batchSize: 100,
		interval:  500 * time.Millisecond,
		lease:     5 * time.Second,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run polls the store until ctx is done. A final drain is attempted on the
// way out so events written just before shutdown still reach the broker.
func (r *Relay) Run(ctx context.Context) error {
	t := r.clock.NewTicker(r.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			r.drain()
			r.log.Info("relay stopping")
			return nil
		case <-t.C():
			if _, err := r.Once(ctx); err != nil {
				r.log.Error("relay lock batch error", "err", err)
			}
		}
	}
}

// Once forwards a single batch and reports how many messages were sent.
func (r *Relay) Once(ctx context.Context) (int, error) {
	msgs, err := r.store.LockBatch(ctx, r.relayID, r.batchSize, r.lease)
	if err != nil {
		return 0, err
	}
	if len(msgs) == 0 {
		return 0, nil
	}

	started := r.clock.Now()
	ids := make([]int64, 0, len(msgs))
	for i, m := range msgs {
		if r.clock.Since(started) > r.lease/2 {
			rest := make([]int64, 0, len(msgs)-i)
			for _, p := range msgs[i:] {
				rest = append(rest, p.ID)
			}
			if err := r.store.ExtendLease(ctx, r.relayID, rest, r.lease); err != nil {
				r.log.Warn("relay extend lease error", "err", err)
			}
			started = r.clock.Now()
		}
		if err := r.dispatch.Dispatch(ctx, m); err != nil {
			if err := r.store.MarkFailed(ctx, m.ID, err.Error()); err != nil {
				r.log.Error("relay mark failed error", "outbox_id", m.ID, "err", err)
			}
			continue
		}
		ids = append(ids, m.ID)
	}
	if len(ids) > 0 {
		if err := r.store.MarkSent(ctx, ids); err != nil {
			r.log.Error("relay mark sent error", "err", err)
			return 0, err
		}
	}
	return len(ids), nil
}

func (r *Relay) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), r.lease)
	defer cancel()
	for {
		n, err := r.Once(ctx)
		if err != nil {
			r.log.Warn("relay final drain incomplete", "err", err)
			return
		}
		if n == 0 {
			return
		}
	}
}
