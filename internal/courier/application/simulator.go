package application

import (
	"context"
	"log/slog"
	"time"

	"k8s.io/utils/clock"

	"github.com/dmehra2102/Kitchen-Unit/pkg/actor"
)

type Outcome string

const (
	OutcomeDelivered   Outcome = "delivered"
	OutcomeCancelled   Outcome = "cancelled"
	OutcomeAbandoned   Outcome = "abandoned"
	OutcomeInterrupted Outcome = "interrupted"
)

type message int

const (
	msgArrived message = iota
	msgAvailable
	msgCancel
)

// Simulator is a one-shot courier: it arrives after a delay, asks for the
// order and delivers it once the kitchen confirms it is available.
type Simulator struct {
	log   *slog.Logger
	order Order
	inbox *actor.Mailbox[message]
	timer clock.Timer
}

// NewSimulator arms the arrival timer immediately.
func NewSimulator(log *slog.Logger, orderID string, order Order, delay time.Duration, clk clock.WithDelayedExecution) *Simulator {
	s := &Simulator{
		log:   log.With("order_id", orderID, "component", "courier"),
		order: order,
		inbox: actor.NewMailbox[message](),
	}
	s.timer = clk.AfterFunc(delay, func() { s.inbox.Send(msgArrived) })
	s.log.Info("courier dispatched", "eta", delay)
	return s
}

func (s *Simulator) OrderAvailable() bool {
	return s.inbox.Send(msgAvailable)
}

func (s *Simulator) Cancel() bool {
	return s.inbox.Send(msgCancel)
}

func (s *Simulator) Run(ctx context.Context) Outcome {
	defer s.inbox.Close()

	for {
		msg, err := s.inbox.Receive(ctx)
		if err != nil {
			s.timer.Stop()
			return OutcomeInterrupted
		}

		switch msg {
		case msgArrived:
			s.log.Info("courier arrived for pickup")
			if !s.order.RequestPickup() {
				s.log.Info("order is gone, courier leaving")
				return OutcomeAbandoned
			}
		case msgAvailable:
			s.log.Info("order delivered")
			s.order.ConfirmDelivery()
			return OutcomeDelivered
		case msgCancel:
			s.timer.Stop()
			s.log.Info("courier cancelled")
			return OutcomeCancelled
		}
	}
}
