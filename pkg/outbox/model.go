package outbox

import "time"

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusSent       Status = "sent"
	StatusFailed     Status = "failed"
)

// Message is one outbound record. Key is the partitioning key (the order id
// for kitchen events) and Type ends up in the event_type header.
type Message struct {
	ID          int64
	Key         string
	Type        string
	Payload     []byte
	Headers     map[string]string
	Traceparent string
	CreatedAt   time.Time
	Status      Status
	RetryCount  int
	LastError   *string
}
