package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	kitchendom "github.com/dmehra2102/Kitchen-Unit/internal/kitchen/domain"
	orderdom "github.com/dmehra2102/Kitchen-Unit/internal/order/domain"
)

const namespace = "kitchen"

// Recorder turns kitchen events and shelf occupancy into prometheus series.
type Recorder struct {
	registry *prometheus.Registry

	events   *prometheus.CounterVec
	dropped  *prometheus.CounterVec
	moves    *prometheus.CounterVec
	pickup   prometheus.Histogram
	occupied *prometheus.GaugeVec
	capacity *prometheus.GaugeVec
	inFlight prometheus.Gauge
	closed   prometheus.Gauge
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Kitchen events by type.",
		}, []string{"type"}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_dropped_total",
			Help:      "Orders dropped by reason.",
		}, []string{"reason"}),
		moves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_moved_total",
			Help:      "Orders relocated from overflow by destination shelf.",
		}, []string{"zone"}),
		pickup: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pickup_value",
			Help:      "Normalized order value at pickup.",
			Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
		}),
		occupied: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "shelf_occupied",
			Help:      "Orders currently on each shelf.",
		}, []string{"zone"}),
		capacity: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "shelf_capacity",
			Help:      "Configured capacity of each shelf.",
		}, []string{"zone"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "orders_in_flight",
			Help:      "Orders received and not yet delivered or dropped.",
		}),
		closed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "closed",
			Help:      "1 once the final report has been emitted.",
		}),
	}
	r.registry.MustRegister(
		r.events, r.dropped, r.moves, r.pickup, r.occupied, r.capacity, r.inFlight, r.closed,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

func (r *Recorder) Publish(ev kitchendom.Event) {
	r.events.WithLabelValues(string(ev.Type)).Inc()

	switch ev.Type {
	case kitchendom.EventOrderReceived:
		r.inFlight.Inc()
	case kitchendom.EventOrderDelivered:
		r.inFlight.Dec()
	case kitchendom.EventOrderDropped:
		r.inFlight.Dec()
		r.dropped.WithLabelValues(string(ev.Reason)).Inc()
	case kitchendom.EventOrderMoved:
		r.moves.WithLabelValues(string(ev.Zone)).Inc()
	case kitchendom.EventOrderPickedUp:
		r.pickup.Observe(ev.Value)
	case kitchendom.EventKitchenClosed:
		r.closed.Set(1)
	}
}

func (r *Recorder) ObserveOccupancy(zone orderdom.Zone, occupied, capacity int) {
	r.occupied.WithLabelValues(string(zone)).Set(float64(occupied))
	r.capacity.WithLabelValues(string(zone)).Set(float64(capacity))
}

func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
