// internal/metrics/metrics.go
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tamzrod/ezetrol-bridge/internal/decoder"
	"github.com/tamzrod/ezetrol-bridge/internal/fetcher"
	"github.com/tamzrod/ezetrol-bridge/internal/poller"
)

const namespace = "ezetrol"

// Collector records poll cycle outcomes. It implements poller.Listener.
type Collector struct {
	cycles      *prometheus.CounterVec
	errors      *prometheus.CounterVec
	duration    prometheus.Histogram
	available   prometheus.Gauge
	lastSuccess prometheus.Gauge
}

// New registers the collectors on reg, labelled with the device id.
func New(reg prometheus.Registerer, deviceID string) (*Collector, error) {
	labels := prometheus.Labels{"device": deviceID}

	c := &Collector{
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "poll_cycles_total",
			Help:        "Completed poll cycles by result.",
			ConstLabels: labels,
		}, []string{"result"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "poll_errors_total",
			Help:        "Failed poll cycles by failure kind.",
			ConstLabels: labels,
		}, []string{"kind"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "poll_duration_seconds",
			Help:        "Fetch and decode time of a poll cycle.",
			ConstLabels: labels,
			Buckets:     []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		available: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "device_available",
			Help:        "1 when the latest poll cycle succeeded.",
			ConstLabels: labels,
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "last_success_timestamp_seconds",
			Help:        "Unix time of the latest successful poll cycle.",
			ConstLabels: labels,
		}),
	}

	for _, col := range []prometheus.Collector{c.cycles, c.errors, c.duration, c.available, c.lastSuccess} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Collector) Updated(s poller.State) {
	c.cycles.WithLabelValues("success").Inc()
	c.duration.Observe(s.Duration.Seconds())
	c.available.Set(1)
	c.lastSuccess.Set(float64(s.LastSuccessAt.Unix()))
}

func (c *Collector) Unavailable(s poller.State) {
	c.cycles.WithLabelValues("failure").Inc()
	c.errors.WithLabelValues(ErrorKind(s.Err)).Inc()
	c.duration.Observe(s.Duration.Seconds())
	c.available.Set(0)
}

// ErrorKind names a cycle failure for the kind label.
func ErrorKind(err error) string {
	var fe *fetcher.Error
	if errors.As(err, &fe) {
		return fe.Kind.String()
	}
	var de *decoder.Error
	if errors.As(err, &de) {
		return de.Kind.String()
	}
	return "other"
}
