package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	ingestdom "github.com/dmehra2102/Kitchen-Unit/internal/ingestion/domain"
	orderdom "github.com/dmehra2102/Kitchen-Unit/internal/order/domain"
	"github.com/dmehra2102/Kitchen-Unit/pkg/idempotency"
)

// Delivery is one record pulled from a source. Carrier holds propagated
// trace headers and Ack, when set, is called once the record is handled.
type Delivery struct {
	Record  ingestdom.Record
	Carrier propagation.MapCarrier
	Ack     func(ctx context.Context) error
}

// Source yields records one at a time. Next returns io.EOF at end of stream.
// A record that cannot be decoded is returned with an error wrapping
// ErrMalformedRecord and does not end the stream.
type Source interface {
	Next(ctx context.Context) (Delivery, error)
}

// Kitchen is the downstream of the pump.
type Kitchen interface {
	Submit(o orderdom.Order) error
	UpstreamClosed()
	UpstreamFailed(err error)
}

type Stats struct {
	Submitted  int
	Duplicates int
	Malformed  int
}

// Pump admits records into the kitchen at a bounded rate.
type Pump struct {
	log     *slog.Logger
	source  Source
	kitchen Kitchen
	limiter *rate.Limiter
	dedup   idempotency.Deduper
	tracer  trace.Tracer
}

func NewPump(log *slog.Logger, source Source, kitchen Kitchen, perSecond float64, dedup idempotency.Deduper) *Pump {
	return &Pump{
		log:     log.With("component", "ingestion"),
		source:  source,
		kitchen: kitchen,
		limiter: rate.NewLimiter(rate.Limit(perSecond), 1),
		dedup:   dedup,
		tracer:  otel.Tracer("kitchen-ingestion"),
	}
}

// Run feeds the kitchen until the source ends or fails. Exactly one of
// UpstreamClosed or UpstreamFailed is signalled before it returns.
func (p *Pump) Run(ctx context.Context) (Stats, error) {
	var stats Stats
	err := p.run(ctx, &stats)

	if errors.Is(err, io.EOF) {
		p.log.Info("order stream finished", "submitted", stats.Submitted, "duplicates", stats.Duplicates, "malformed", stats.Malformed)
		p.kitchen.UpstreamClosed()
		return stats, nil
	}
	p.log.Error("order stream failed", "err", err, "submitted", stats.Submitted)
	p.kitchen.UpstreamFailed(err)
	return stats, err
}

func (p *Pump) run(ctx context.Context, stats *Stats) error {
	for {
		d, err := p.source.Next(ctx)
		if errors.Is(err, ingestdom.ErrMalformedRecord) {
			stats.Malformed++
			p.log.Warn("skipping malformed record", "err", err)
			p.ack(ctx, d)
			continue
		}
		if err != nil {
			return err
		}

		if err := p.admit(ctx, d, stats); err != nil {
			return err
		}
		p.ack(ctx, d)
	}
}

func (p *Pump) admit(ctx context.Context, d Delivery, stats *Stats) error {
	rec := d.Record
	if err := rec.Validate(); err != nil {
		stats.Malformed++
		p.log.Warn("skipping malformed record", "err", err)
		return nil
	}

	if p.dedup != nil {
		seen, err := p.dedup.Seen(ctx, rec.ID)
		if err != nil {
			p.log.Error("dedup check failed, admitting order", "order_id", rec.ID, "err", err)
		} else if seen {
			stats.Duplicates++
			p.log.Info("duplicate order skipped", "order_id", rec.ID)
			return nil
		}
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	msgCtx := ctx
	if d.Carrier != nil {
		msgCtx = otel.GetTextMapPropagator().Extract(ctx, d.Carrier)
	}
	_, span := p.tracer.Start(msgCtx, "SubmitOrder", trace.WithAttributes(
		attribute.String("order.id", rec.ID),
		attribute.String("order.temp", rec.Temp),
	))
	defer span.End()

	if err := p.kitchen.Submit(rec.Order()); err != nil {
		span.RecordError(err)
		return fmt.Errorf("submit %s: %w", rec.ID, err)
	}
	stats.Submitted++
	return nil
}

func (p *Pump) ack(ctx context.Context, d Delivery) {
	if d.Ack == nil {
		return
	}
	if err := d.Ack(ctx); err != nil {
		p.log.Warn("record ack failed", "order_id", d.Record.ID, "err", err)
	}
}
