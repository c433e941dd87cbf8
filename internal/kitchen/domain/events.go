package domain

import (
	"time"

	orderdom "github.com/dmehra2102/Kitchen-Unit/internal/order/domain"
)

type EventType string

const (
	EventOrderReceived  EventType = "OrderReceived"
	EventOrderShelved   EventType = "OrderShelved"
	EventOrderMoved     EventType = "OrderMoved"
	EventOrderPickedUp  EventType = "OrderPickedUp"
	EventOrderWasted    EventType = "OrderWasted"
	EventOrderDelivered EventType = "OrderDelivered"
	EventOrderDropped   EventType = "OrderDropped"
	EventKitchenClosed  EventType = "KitchenClosed"
)

// Event is a kitchen fact emitted for observers (metrics, outbox, logs).
// Zone is where the order is (or was) when the event happened; From is only
// set for moves.
type Event struct {
	ID      string              `json:"id"`
	Type    EventType           `json:"type"`
	OrderID string              `json:"order_id,omitempty"`
	Zone    orderdom.Zone       `json:"zone,omitempty"`
	From    orderdom.Zone       `json:"from,omitempty"`
	Reason  orderdom.DropReason `json:"reason,omitempty"`
	Value   float64             `json:"value,omitempty"`
	Report  *Report             `json:"report,omitempty"`
	At      time.Time           `json:"at"`
}

// EventPublisher receives kitchen events. Implementations must not block the caller.
type EventPublisher interface {
	Publish(ev Event)
}

type NopPublisher struct{}

func (NopPublisher) Publish(Event) {}
