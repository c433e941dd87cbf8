package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmehra2102/Kitchen-Unit/pkg/outbox"
)

const schema = `
CREATE TABLE IF NOT EXISTS kitchen_outbox (
	id          BIGSERIAL PRIMARY KEY,
	event_key   TEXT        NOT NULL,
	type        TEXT        NOT NULL,
	payload     JSONB       NOT NULL,
	headers     JSONB       NOT NULL DEFAULT '{}',
	traceparent TEXT        NOT NULL DEFAULT '',
	status      TEXT        NOT NULL DEFAULT 'pending',
	relay_id    TEXT,
	lease_until TIMESTAMPTZ,
	retry_count INT         NOT NULL DEFAULT 0,
	last_error  TEXT,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS kitchen_outbox_status_idx ON kitchen_outbox (status, id);
`

var ErrNoRows = errors.New("no rows updated")

// OutboxStore persists kitchen events and hands them to the relay in batches.
type OutboxStore struct {
	log        *slog.Logger
	pool       *pgxpool.Pool
	maxRetries int
}

func NewOutboxStore(log *slog.Logger, pool *pgxpool.Pool, maxRetries int) *OutboxStore {
	return &OutboxStore{log: log.With("component", "outbox-store"), pool: pool, maxRetries: maxRetries}
}

func (s *OutboxStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("outbox schema: %w", err)
	}
	return nil
}

// Write appends m as a pending row.
func (s *OutboxStore) Write(ctx context.Context, m outbox.Message) error {
	headers := m.Headers
	if headers == nil {
		headers = map[string]string{}
	}
	_, err := s.pool.Exec(ctx, `INSERT INTO kitchen_outbox (event_key, type, payload, headers, traceparent, status)
		VALUES ($1,$2,$3,$4,$5,'pending')`,
		m.Key, m.Type, m.Payload, headers, m.Traceparent)
	if err != nil {
		return fmt.Errorf("outbox append %s: %w", m.Type, err)
	}
	return nil
}

// LockBatch claims up to batchSize pending rows, plus in-progress rows whose
// lease has lapsed.
func (s *OutboxStore) LockBatch(ctx context.Context, relayID string, batchSize int, lease time.Duration) ([]outbox.Message, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	rows, err := tx.Query(ctx, `
		SELECT id, event_key, type, payload, headers, traceparent, retry_count, created_at
		FROM kitchen_outbox
		WHERE status = 'pending'
		   OR (status = 'in_progress' AND lease_until < now())
		ORDER BY id
		FOR UPDATE SKIP LOCKED
		LIMIT $1
	`, batchSize)
	if err != nil {
		return nil, err
	}

	var msgs []outbox.Message
	for rows.Next() {
		var m outbox.Message
		var headers map[string]string
		if err := rows.Scan(&m.ID, &m.Key, &m.Type, &m.Payload, &headers, &m.Traceparent, &m.RetryCount, &m.CreatedAt); err != nil {
			rows.Close()
			return nil, err
		}
		m.Headers = headers
		m.Status = outbox.StatusInProgress
		msgs = append(msgs, m)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return nil, tx.Commit(ctx)
	}

	ids := make([]int64, 0, len(msgs))
	for _, m := range msgs {
		ids = append(ids, m.ID)
	}

	_, err = tx.Exec(ctx, `UPDATE kitchen_outbox SET status='in_progress', relay_id=$1, lease_until=now() + make_interval(secs => $2) WHERE id = ANY($3)`,
		relayID, lease.Seconds(), ids)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return msgs, nil
}

func (s *OutboxStore) MarkSent(ctx context.Context, ids []int64) error {
	ct, err := s.pool.Exec(ctx, `UPDATE kitchen_outbox SET status='sent', lease_until=NULL WHERE id = ANY($1)`, ids)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNoRows
	}
	return nil
}

// MarkFailed puts the row back in the queue until it has failed maxRetries
// times, after which it is parked as failed.
func (s *OutboxStore) MarkFailed(ctx context.Context, id int64, errMsg string) error {
	_, err := s.pool.Exec(ctx, `UPDATE kitchen_outbox
		SET status = CASE WHEN retry_count + 1 >= $3 THEN 'failed' ELSE 'pending' END,
		    last_error = $2,
		    retry_count = retry_count + 1,
		    lease_until = NULL
		WHERE id=$1`, id, errMsg, s.maxRetries)
	if err != nil {
		return err
	}
	s.log.Warn("outbox message failed", "outbox_id", id, "err", errMsg)
	return nil
}

func (s *OutboxStore) ExtendLease(ctx context.Context, relayID string, ids []int64, lease time.Duration) error {
	_, err := s.pool.Exec(ctx, `UPDATE kitchen_outbox SET lease_until=now() + make_interval(secs => $1) WHERE id = ANY($2) AND relay_id=$3`, lease.Seconds(), ids, relayID)
	return err
}

// Counts reports the number of rows per status.
func (s *OutboxStore) Counts(ctx context.Context) (map[outbox.Status]int, error) {
	rows, err := s.pool.Query(ctx, `SELECT status, count(*) FROM kitchen_outbox GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[outbox.Status]int{}
	for rows.Next() {
		var st string
		var n int
		if err := rows.Scan(&st, &n); err != nil {
			return nil, err
		}
		out[outbox.Status(st)] = n
	}
	return out, rows.Err()
}
