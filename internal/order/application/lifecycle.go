package application

import (
	"context"
	"log/slog"

	"k8s.io/utils/clock"

	orderdom "github.com/dmehra2102/Kitchen-Unit/internal/order/domain"
	"github.com/dmehra2102/Kitchen-Unit/pkg/actor"
)

type message interface{ lifecycleMessage() }

type cookedMsg struct{ order orderdom.CookedOrder }
type courierAssignedMsg struct{ courier Courier }
type placedMsg struct{ placement orderdom.Placement }
type wastedMsg struct {
	placement orderdom.Placement
	reason    orderdom.DropReason
}
type pickupMsg struct{}
type deliveredMsg struct{}

func (cookedMsg) lifecycleMessage()          {}
func (courierAssignedMsg) lifecycleMessage() {}
func (placedMsg) lifecycleMessage()          {}
func (wastedMsg) lifecycleMessage()          {}
func (pickupMsg) lifecycleMessage()          {}
func (deliveredMsg) lifecycleMessage()       {}

// Lifecycle drives one order from cooking to delivery or waste. Its state is
// owned by the Run goroutine; the exported methods only enqueue messages.
type Lifecycle struct {
	log     *slog.Logger
	order   orderdom.Order
	shelves ShelfManager
	kitchen Kitchen
	clock   clock.PassiveClock
	inbox   *actor.Mailbox[message]

	state         State
	courier       Courier
	placement     *orderdom.Placement
	pickupPending bool
}

func NewLifecycle(log *slog.Logger, o orderdom.Order, shelves ShelfManager, kitchen Kitchen, clk clock.PassiveClock) *Lifecycle {
	return &Lifecycle{
		log:     log.With("order_id", o.ID),
		order:   o,
		shelves: shelves,
		kitchen: kitchen,
		clock:   clk,
		inbox:   actor.NewMailbox[message](),
		state:   StateCooking,
	}
}

func (l *Lifecycle) ID() string { return l.order.ID }

func (l *Lifecycle) Cooked(c orderdom.CookedOrder) bool {
	return l.inbox.Send(cookedMsg{order: c})
}

func (l *Lifecycle) AssignCourier(c Courier) bool {
	return l.inbox.Send(courierAssignedMsg{courier: c})
}

func (l *Lifecycle) OrderPlaced(p orderdom.Placement) {
	l.inbox.Send(placedMsg{placement: p})
}

func (l *Lifecycle) OrderWasted(p orderdom.Placement, reason orderdom.DropReason) {
	l.inbox.Send(wastedMsg{placement: p, reason: reason})
}

// RequestPickup reports false when the order has already terminated.
func (l *Lifecycle) RequestPickup() bool {
	return l.inbox.Send(pickupMsg{})
}

func (l *Lifecycle) ConfirmDelivery() bool {
	return l.inbox.Send(deliveredMsg{})
}

// Run processes messages until the order reaches a terminal state or ctx is
// done, and returns the last state.
func (l *Lifecycle) Run(ctx context.Context) State {
	defer l.inbox.Close()

	for !l.state.Terminal() {
		msg, err := l.inbox.Receive(ctx)
		if err != nil {
			l.log.Debug("order process interrupted", "state", l.state, "err", err)
			return l.state
		}
		l.handle(msg)
	}
	return l.state
}

func (l *Lifecycle) handle(msg message) {
	switch msg := msg.(type) {
	case cookedMsg:
		l.onCooked(msg.order)
	case courierAssignedMsg:
		l.courier = msg.courier
		l.log.Debug("courier assigned")
		l.maybePickup()
	case placedMsg:
		l.onPlaced(msg.placement)
	case wastedMsg:
		l.onWasted(msg.placement, msg.reason)
	case pickupMsg:
		l.onPickup()
	case deliveredMsg:
		l.onDelivered()
	}
}

func (l *Lifecycle) onCooked(c orderdom.CookedOrder) {
	if l.state != StateCooking {
		return
	}
	if _, err := c.PreferredZone(); err != nil {
		l.log.Warn("order cannot be shelved", "err", err)
		l.drop(orderdom.ReasonRejected)
		return
	}
	l.log.Info("order cooked, handing over to shelf manager")
	l.state = StateAwaitingPlacement
	if !l.shelves.Place(c, l) {
		l.log.Error("shelf manager is not accepting orders")
	}
}

func (l *Lifecycle) onPlaced(p orderdom.Placement) {
	switch l.state {
	case StateAwaitingPlacement:
		l.state = StateShelved
	case StateShelved:
		l.log.Info("order relocated", "zone", p.Zone)
	default:
		return
	}
	l.placement = &p
	l.log.Info("order placed on shelf", "zone", p.Zone, "value", p.Value(l.clock.Now()))
	l.maybePickup()
}

func (l *Lifecycle) onWasted(p orderdom.Placement, reason orderdom.DropReason) {
	l.log.Info("order wasted", "reason", reason, "zone", p.Zone, "state", l.state)
	l.drop(reason)
}

func (l *Lifecycle) onPickup() {
	switch l.state {
	case StateCooking, StateAwaitingPlacement, StateShelved:
		l.pickupPending = true
		l.maybePickup()
	default:
		l.log.Debug("duplicate pickup request ignored", "state", l.state)
	}
}

func (l *Lifecycle) maybePickup() {
	if !l.pickupPending || l.state != StateShelved || l.courier == nil {
		return
	}
	l.pickupPending = false
	l.state = StatePickupRequested
	l.log.Info("handing order to courier", "value", l.placement.Value(l.clock.Now()))
	l.shelves.Remove(l.order.ID)
	l.courier.OrderAvailable()
}

func (l *Lifecycle) onDelivered() {
	if l.state != StatePickupRequested {
		l.log.Debug("delivery confirmation ignored", "state", l.state)
		return
	}
	l.state = StateDelivered
	l.log.Info("order delivered")
	l.kitchen.OrderDelivered(l.order.ID)
}

func (l *Lifecycle) drop(reason orderdom.DropReason) {
	if l.courier != nil {
		l.courier.Cancel()
	} else {
		l.log.Warn("order dropped before a courier was assigned")
	}
	l.state = StateWasted
	l.kitchen.OrderDropped(l.order.ID, reason)
}
