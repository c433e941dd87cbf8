package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"k8s.io/utils/clock"

	kitchendom "github.com/dmehra2102/Kitchen-Unit/internal/kitchen/domain"
	orderdom "github.com/dmehra2102/Kitchen-Unit/internal/order/domain"
	shelfdom "github.com/dmehra2102/Kitchen-Unit/internal/shelf/domain"
	"github.com/dmehra2102/Kitchen-Unit/pkg/actor"
)

var ErrInvariantViolation = errors.New("shelf invariant violated")

type message interface{ shelfMessage() }

type placeMsg struct {
	order orderdom.CookedOrder
	owner Owner
}

type removeMsg struct{ id string }

type expireMsg struct {
	id    string
	token uint64
}

type inventoryMsg struct{ reply chan Inventory }

func (placeMsg) shelfMessage()     {}
func (removeMsg) shelfMessage()    {}
func (expireMsg) shelfMessage()    {}
func (inventoryMsg) shelfMessage() {}

// location is the authoritative record of where an order sits. token
// identifies the expiration timer armed for this particular placement.
type location struct {
	owner     Owner
	shelf     *shelfdom.Shelf
	placement orderdom.Placement
	token     uint64
	timer     clock.Timer
}

// Manager is the single owner of every shelf and of the order location table.
// All state is mutated from the Run goroutine only.
type Manager struct {
	log       *slog.Logger
	clock     clock.WithDelayedExecution
	rand      Rand
	events    kitchendom.EventPublisher
	occupancy OccupancyObserver

	shelves   map[orderdom.Zone]*shelfdom.Shelf
	locations map[string]*location
	seq       uint64
	inbox     *actor.Mailbox[message]
}

type Option func(*Manager)

func WithClock(c clock.WithDelayedExecution) Option {
	return func(m *Manager) { m.clock = c }
}

func WithRand(r Rand) Option {
	return func(m *Manager) { m.rand = r }
}

func WithEvents(p kitchendom.EventPublisher) Option {
	return func(m *Manager) { m.events = p }
}

func WithOccupancyObserver(o OccupancyObserver) Option {
	return func(m *Manager) { m.occupancy = o }
}

func NewManager(log *slog.Logger, caps Capacities, opts ...Option) *Manager {
	m := &Manager{
		log:       log.With("component", "shelf-manager"),
		clock:     clock.RealClock{},
		rand:      rand.New(rand.NewSource(time.Now().UnixNano())),
		events:    kitchendom.NopPublisher{},
		shelves:   make(map[orderdom.Zone]*shelfdom.Shelf, len(orderdom.Zones)),
		locations: make(map[string]*location),
		inbox:     actor.NewMailbox[message](),
	}
	for _, z := range orderdom.Zones {
		m.shelves[z] = shelfdom.New(z, caps.For(z))
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Place asks the manager to shelve a cooked order. The outcome is delivered
// to owner asynchronously. It reports false once the manager has stopped.
func (m *Manager) Place(c orderdom.CookedOrder, owner Owner) bool {
	return m.inbox.Send(placeMsg{order: c, owner: owner})
}

// Remove takes an order off whatever shelf currently holds it. Removing an
// absent order is a no-op.
func (m *Manager) Remove(id string) bool {
	return m.inbox.Send(removeMsg{id: id})
}

// Inventory returns the shelf contents as seen after every message sent
// before the call has been handled.
func (m *Manager) Inventory(ctx context.Context) (Inventory, error) {
	reply := make(chan Inventory, 1)
	if !m.inbox.Send(inventoryMsg{reply: reply}) {
		return Inventory{}, actor.ErrClosed
	}
	select {
	case inv := <-reply:
		return inv, nil
	case <-ctx.Done():
		return Inventory{}, ctx.Err()
	}
}

func (m *Manager) Run(ctx context.Context) error {
	defer m.stop()

	for {
		msg, err := m.inbox.Receive(ctx)
		if err != nil {
			if errors.Is(err, actor.ErrClosed) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
		if err := m.handle(msg); err != nil {
			m.log.Error("shelf manager stopping", "err", err)
			return err
		}
	}
}

func (m *Manager) stop() {
	m.inbox.Close()
	for _, loc := range m.locations {
		loc.timer.Stop()
	}
}

func (m *Manager) handle(msg message) error {
	switch msg := msg.(type) {
	case placeMsg:
		if err := m.place(msg.order, msg.owner); err != nil {
			return err
		}
	case removeMsg:
		m.remove(msg.id)
	case expireMsg:
		m.expire(msg.id, msg.token)
	case inventoryMsg:
		msg.reply <- m.inventory()
		return nil
	}
	m.logInventory()
	return nil
}

func (m *Manager) remove(id string) {
	loc, ok := m.detach(id)
	if !ok {
		m.log.Debug("remove ignored, order is not on a shelf", "order_id", id)
		return
	}
	now := m.clock.Now()
	m.log.Info("order removed from shelf", "order_id", id, "zone", loc.shelf.Zone(), "value", loc.placement.Value(now))
	m.publish(kitchendom.Event{
		Type:    kitchendom.EventOrderPickedUp,
		OrderID: id,
		Zone:    loc.shelf.Zone(),
		Value:   loc.placement.Value(now),
	})
}

func (m *Manager) expire(id string, token uint64) {
	loc, ok := m.locations[id]
	if !ok || loc.token != token {
		m.log.Debug("stale expiration ignored", "order_id", id)
		return
	}
	m.detach(id)
	m.log.Info("order expired on shelf", "order_id", id, "zone", loc.shelf.Zone())
	loc.owner.OrderWasted(loc.placement, orderdom.ReasonExpired)
	m.publish(kitchendom.Event{
		Type:    kitchendom.EventOrderWasted,
		OrderID: id,
		Zone:    loc.shelf.Zone(),
		Reason:  orderdom.ReasonExpired,
	})
}

// detach drops every trace of id: its timer, its shelf slot and its location record.
func (m *Manager) detach(id string) (*location, bool) {
	loc, ok := m.locations[id]
	if !ok {
		return nil, false
	}
	loc.timer.Stop()
	loc.shelf.Take(id)
	delete(m.locations, id)
	return loc, true
}

// put stores c on s, arms its expiration timer and notifies owner. It
// reports false when the order was already wasted at insertion time.
func (m *Manager) put(s *shelfdom.Shelf, c orderdom.CookedOrder, owner Owner) (bool, error) {
	p := orderdom.NewPlacement(c, s.Zone())
	if err := s.Put(p); err != nil {
		return false, fmt.Errorf("%w: %w", ErrInvariantViolation, err)
	}

	now := m.clock.Now()
	if p.Wasted(now) {
		s.Take(p.ID())
		m.log.Warn("order already wasted when placed", "order_id", p.ID(), "zone", s.Zone())
		owner.OrderWasted(p, orderdom.ReasonStale)
		m.publish(kitchendom.Event{
			Type:    kitchendom.EventOrderWasted,
			OrderID: p.ID(),
			Zone:    s.Zone(),
			Reason:  orderdom.ReasonStale,
		})
		return false, nil
	}

	m.seq++
	id, token := p.ID(), m.seq
	timer := m.clock.AfterFunc(p.Remaining(now), func() {
		m.inbox.Send(expireMsg{id: id, token: token})
	})
	m.locations[id] = &location{owner: owner, shelf: s, placement: p, token: token, timer: timer}

	m.log.Info("order put on shelf", "order_id", id, "zone", s.Zone(), "value", p.Value(now), "expires_in", p.Remaining(now))
	owner.OrderPlaced(p)
	return true, nil
}

func (m *Manager) inventory() Inventory {
	inv := Inventory{Shelves: make([]ShelfState, 0, len(orderdom.Zones))}
	for _, z := range orderdom.Zones {
		s := m.shelves[z]
		state := ShelfState{Zone: z, Capacity: s.Capacity(), Orders: make([]string, 0, s.Len())}
		for _, p := range s.Placements() {
			state.Orders = append(state.Orders, p.ID())
		}
		inv.Shelves = append(inv.Shelves, state)
	}
	return inv
}

func (m *Manager) logInventory() {
	m.log.Debug("shelf inventory",
		"hot", m.shelves[orderdom.ZoneHot].Len(),
		"cold", m.shelves[orderdom.ZoneCold].Len(),
		"frozen", m.shelves[orderdom.ZoneFrozen].Len(),
		"overflow", m.shelves[orderdom.ZoneOverflow].Len(),
	)
	if m.occupancy == nil {
		return
	}
	for _, z := range orderdom.Zones {
		s := m.shelves[z]
		m.occupancy.ObserveOccupancy(z, s.Len(), s.Capacity())
	}
}

func (m *Manager) publish(ev kitchendom.Event) {
	ev.At = m.clock.Now()
	m.events.Publish(ev)
}
