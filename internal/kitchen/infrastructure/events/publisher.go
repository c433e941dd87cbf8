package events

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	kitchendom "github.com/dmehra2102/Kitchen-Unit/internal/kitchen/domain"
	"github.com/dmehra2102/Kitchen-Unit/pkg/actor"
	"github.com/dmehra2102/Kitchen-Unit/pkg/outbox"
	"github.com/dmehra2102/Kitchen-Unit/pkg/tracing"
)

// Writer is a sink for encoded kitchen events.
type Writer interface {
	Write(ctx context.Context, m outbox.Message) error
}

// Publisher decouples event producers from slow sinks: Publish only enqueues,
// Run encodes and writes in order.
type Publisher struct {
	log    *slog.Logger
	writer Writer
	inbox  *actor.Mailbox[kitchendom.Event]
	tracer trace.Tracer
}

func NewPublisher(log *slog.Logger, w Writer) *Publisher {
	return &Publisher{
		log:    log.With("component", "event-publisher"),
		writer: w,
		inbox:  actor.NewMailbox[kitchendom.Event](),
		tracer: otel.Tracer("kitchen-events"),
	}
}

func (p *Publisher) Publish(ev kitchendom.Event) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if !p.inbox.Send(ev) {
		p.log.Warn("event dropped, publisher closed", "type", ev.Type, "order_id", ev.OrderID)
	}
}

// Close stops accepting events. Run returns once the backlog is written.
func (p *Publisher) Close() { p.inbox.Close() }

func (p *Publisher) Run(ctx context.Context) error {
	for {
		ev, err := p.inbox.Receive(ctx)
		if errors.Is(err, actor.ErrClosed) {
			return nil
		}
		if err != nil {
			p.log.Warn("event publisher interrupted", "backlog", p.inbox.Len())
			return nil
		}

		p.write(ctx, ev)
	}
}

func (p *Publisher) write(ctx context.Context, ev kitchendom.Event) {
	ctx, span := p.tracer.Start(ctx, "PublishKitchenEvent", trace.WithAttributes(
		attribute.String("event.type", string(ev.Type)),
		attribute.String("order.id", ev.OrderID),
	))
	defer span.End()

	m, err := Encode(ev)
	if err != nil {
		p.log.Error("event encode failed", "err", err)
		span.RecordError(err)
		return
	}
	m.Traceparent = tracing.Traceparent(ctx)
	if err := p.writer.Write(ctx, m); err != nil {
		p.log.Error("event write failed", "type", ev.Type, "event_id", ev.ID, "err", err)
		span.RecordError(err)
	}
}

// Fanout publishes every event to each of its publishers in turn.
type Fanout []kitchendom.EventPublisher

func (f Fanout) Publish(ev kitchendom.Event) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	for _, p := range f {
		p.Publish(ev)
	}
}

// LogWriter writes events to the log only.
type LogWriter struct {
	Log *slog.Logger
}

func (w LogWriter) Write(_ context.Context, m outbox.Message) error {
	w.Log.Info("kitchen event", "type", m.Type, "key", m.Key, "payload", string(m.Payload))
	return nil
}

// MultiWriter writes to every writer and joins their errors.
type MultiWriter []Writer

func (mw MultiWriter) Write(ctx context.Context, m outbox.Message) error {
	var errs []error
	for _, w := range mw {
		if err := w.Write(ctx, m); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
