package events

import (
	"encoding/json"
	"fmt"

	kitchendom "github.com/dmehra2102/Kitchen-Unit/internal/kitchen/domain"
	"github.com/dmehra2102/Kitchen-Unit/pkg/outbox"
)

const (
	Source = "kitchen-unit"

	// KitchenKey partitions events that do not belong to an order.
	KitchenKey = "kitchen"
)

// Encode turns a kitchen event into an outbox message keyed by order id.
func Encode(ev kitchendom.Event) (outbox.Message, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return outbox.Message{}, fmt.Errorf("encode %s event: %w", ev.Type, err)
	}
	key := ev.OrderID
	if key == "" {
		key = KitchenKey
	}
	return outbox.Message{
		Key:       key,
		Type:      string(ev.Type),
		Payload:   payload,
		Headers:   map[string]string{"source": Source, "event_id": ev.ID},
		CreatedAt: ev.At,
		Status:    outbox.StatusPending,
	}, nil
}

func Decode(m outbox.Message) (kitchendom.Event, error) {
	var ev kitchendom.Event
	if err := json.Unmarshal(m.Payload, &ev); err != nil {
		return kitchendom.Event{}, fmt.Errorf("decode outbox message %d: %w", m.ID, err)
	}
	return ev, nil
}
