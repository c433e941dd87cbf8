package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"k8s.io/utils/clock"

	courierapp "github.com/dmehra2102/Kitchen-Unit/internal/courier/application"
	kitchendom "github.com/dmehra2102/Kitchen-Unit/internal/kitchen/domain"
	orderapp "github.com/dmehra2102/Kitchen-Unit/internal/order/application"
	orderdom "github.com/dmehra2102/Kitchen-Unit/internal/order/domain"
	"github.com/dmehra2102/Kitchen-Unit/pkg/actor"
)

var ErrStopped = errors.New("kitchen is not accepting orders")

type message interface{ unitMessage() }

type submitMsg struct{ order orderdom.Order }
type deliveredMsg struct{ id string }
type droppedMsg struct {
	id     string
	reason orderdom.DropReason
}
type upstreamMsg struct{ err error }

func (submitMsg) unitMessage()    {}
func (deliveredMsg) unitMessage() {}
func (droppedMsg) unitMessage()   {}
func (upstreamMsg) unitMessage()  {}

// Status is a point-in-time view of the unit for status surfaces.
type Status struct {
	Report       kitchendom.Report `json:"report"`
	InFlight     int               `json:"in_flight"`
	UpstreamDone bool              `json:"upstream_done"`
	Closed       bool              `json:"closed"`
}

// Unit is the root coordinator. It spawns one order process and one courier
// per submitted order, supervises the shelf manager and emits the final
// report once ingestion has finished and nothing is in flight.
type Unit struct {
	log     *slog.Logger
	shelves ShelfManager
	arrival courierapp.ArrivalRange
	clock   clock.WithDelayedExecution
	rand    Rand
	events  kitchendom.EventPublisher
	inbox   *actor.Mailbox[message]

	inFlight     map[string]struct{}
	report       kitchendom.Report
	upstreamDone bool
	children     sync.WaitGroup

	mu     sync.RWMutex
	status Status
}

type Option func(*Unit)

func WithClock(c clock.WithDelayedExecution) Option {
	return func(u *Unit) { u.clock = c }
}

func WithRand(r Rand) Option {
	return func(u *Unit) { u.rand = r }
}

func WithEvents(p kitchendom.EventPublisher) Option {
	return func(u *Unit) { u.events = p }
}

func NewUnit(log *slog.Logger, shelves ShelfManager, arrival courierapp.ArrivalRange, opts ...Option) *Unit {
	u := &Unit{
		log:      log.With("component", "kitchen"),
		shelves:  shelves,
		arrival:  arrival,
		clock:    clock.RealClock{},
		rand:     rand.New(rand.NewSource(time.Now().UnixNano())),
		events:   kitchendom.NopPublisher{},
		inbox:    actor.NewMailbox[message](),
		inFlight: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Submit admits an order. It returns ErrStopped once the unit has closed.
func (u *Unit) Submit(o orderdom.Order) error {
	if !u.inbox.Send(submitMsg{order: o}) {
		return ErrStopped
	}
	return nil
}

func (u *Unit) OrderDelivered(id string) {
	u.inbox.Send(deliveredMsg{id: id})
}

func (u *Unit) OrderDropped(id string, reason orderdom.DropReason) {
	u.inbox.Send(droppedMsg{id: id, reason: reason})
}

// UpstreamClosed tells the unit that no further orders will be submitted.
func (u *Unit) UpstreamClosed() {
	u.inbox.Send(upstreamMsg{})
}

// UpstreamFailed is handled like UpstreamClosed; err is only logged.
func (u *Unit) UpstreamFailed(err error) {
	if err == nil {
		err = errors.New("ingestion failed")
	}
	u.inbox.Send(upstreamMsg{err: err})
}

func (u *Unit) Status() Status {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.status
}

// Run drives the kitchen until the final report is emitted or ctx is done.
// The returned report is final only when err is nil.
func (u *Unit) Run(ctx context.Context) (kitchendom.Report, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := u.shelves.Run(gctx); err != nil {
			return fmt.Errorf("shelf manager: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		defer cancel()
		return u.loop(gctx)
	})

	err := g.Wait()
	u.inbox.Close()
	u.children.Wait()

	u.mu.Lock()
	u.status.Closed = true
	u.mu.Unlock()
	return u.report, err
}

func (u *Unit) loop(ctx context.Context) error {
	u.log.Info("kitchen open", "courier_min", u.arrival.Min, "courier_max", u.arrival.Max)
	for {
		msg, err := u.inbox.Receive(ctx)
		if err != nil {
			u.log.Warn("kitchen interrupted", "err", err, "in_flight", len(u.inFlight))
			return err
		}
		u.handle(ctx, msg)
		u.snapshot()

		if u.upstreamDone && len(u.inFlight) == 0 {
			u.flushShelves(ctx)
			u.close()
			return nil
		}
	}
}

func (u *Unit) handle(ctx context.Context, msg message) {
	switch msg := msg.(type) {
	case submitMsg:
		u.submit(ctx, msg.order)
	case deliveredMsg:
		if !u.settle(msg.id) {
			return
		}
		u.report.Delivered++
		u.log.Info("order delivered", "order_id", msg.id)
		u.publish(kitchendom.Event{Type: kitchendom.EventOrderDelivered, OrderID: msg.id})
	case droppedMsg:
		if !u.settle(msg.id) {
			return
		}
		u.report.Dropped++
		u.log.Info("order dropped", "order_id", msg.id, "reason", msg.reason)
		u.publish(kitchendom.Event{Type: kitchendom.EventOrderDropped, OrderID: msg.id, Reason: msg.reason})
	case upstreamMsg:
		if msg.err != nil {
			u.log.Error("ingestion failed", "err", msg.err)
		} else {
			u.log.Info("ingestion finished")
		}
		u.upstreamDone = true
	}
}

func (u *Unit) submit(ctx context.Context, o orderdom.Order) {
	log := u.log.With("order_id", o.ID)
	if u.upstreamDone {
		log.Warn("order submitted after ingestion finished, ignored")
		return
	}
	if _, dup := u.inFlight[o.ID]; dup {
		log.Warn("order already in flight, ignored")
		return
	}

	u.inFlight[o.ID] = struct{}{}
	u.report.Received++
	u.publish(kitchendom.Event{Type: kitchendom.EventOrderReceived, OrderID: o.ID})

	lc := orderapp.NewLifecycle(u.log, o, u.shelves, u, u.clock)
	courier := courierapp.NewSimulator(u.log, o.ID, lc, u.arrival.Draw(u.rand), u.clock)

	u.children.Add(2)
	go func() {
		defer u.children.Done()
		state := lc.Run(ctx)
		log.Debug("order process finished", "state", state)
	}()
	go func() {
		defer u.children.Done()
		outcome := courier.Run(ctx)
		log.Debug("courier finished", "outcome", outcome)
	}()

	lc.AssignCourier(courier)
	lc.Cooked(orderdom.Cook(o, u.clock.Now()))
}

// settle reports whether id was in flight and removes it.
func (u *Unit) settle(id string) bool {
	if _, ok := u.inFlight[id]; !ok {
		u.log.Warn("terminal report for unknown order ignored", "order_id", id)
		return false
	}
	delete(u.inFlight, id)
	return true
}

// flushShelves waits until the shelf manager has handled every message sent
// before the last terminal report, so its events precede KitchenClosed. A
// lifecycle enqueues Remove before the courier can confirm delivery, and the
// manager mailbox is FIFO.
func (u *Unit) flushShelves(ctx context.Context) {
	if _, err := u.shelves.Inventory(ctx); err != nil {
		u.log.Warn("shelf manager unavailable at close", "err", err)
	}
}

func (u *Unit) close() {
	report := u.report
	u.log.Info("kitchen closed",
		"received", report.Received,
		"delivered", report.Delivered,
		"dropped", report.Dropped,
	)
	u.publish(kitchendom.Event{Type: kitchendom.EventKitchenClosed, Report: &report})
}

func (u *Unit) snapshot() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.status.Report = u.report
	u.status.InFlight = u.report.InFlight()
	u.status.UpstreamDone = u.upstreamDone
}

func (u *Unit) publish(ev kitchendom.Event) {
	ev.At = u.clock.Now()
	u.events.Publish(ev)
}
