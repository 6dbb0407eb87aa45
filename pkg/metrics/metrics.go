// Package metrics provides Prometheus metrics for behaviors.
//
// Behaviors record into the default Collector. Metrics are always recorded;
// they are exported once the collector is registered with a Prometheus
// registerer or served with Handler.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultNamespace is the metric namespace used when none is configured.
const DefaultNamespace = "behaviors"

// Collector holds the behavior metrics.
type Collector struct {
	registry *prometheus.Registry

	renderDuration  *prometheus.HistogramVec
	timerTicks      *prometheus.CounterVec
	propertyChanges *prometheus.CounterVec
}

// NewCollector creates a collector whose metrics are registered with a
// private registry.
func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	c := &Collector{
		registry: prometheus.NewRegistry(),
		renderDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "render_duration_seconds",
				Help:      "Time between the before-render and after-render stages of a host",
				Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
			},
			[]string{"host"},
		),
		timerTicks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "timer_ticks_total",
				Help:      "Total number of timer ticks delivered to hosts",
			},
			[]string{"member"},
		),
		propertyChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "property_changes_total",
				Help:      "Total number of property change notifications forwarded to hosts",
			},
			[]string{"host"},
		),
	}
	c.registry.MustRegister(c.collectors()...)
	return c
}

// Register registers the collector's metrics with r, in addition to its
// private registry.
func (c *Collector) Register(r prometheus.Registerer) error {
	for _, col := range c.collectors() {
		if err := r.Register(col); err != nil {
			return err
		}
	}
	return nil
}

// Gatherer returns the collector's private registry.
func (c *Collector) Gatherer() prometheus.Gatherer {
	return c.registry
}

// Handler returns an HTTP handler serving the collector's metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveRender records one render of host.
func (c *Collector) ObserveRender(host string, d time.Duration) {
	if c == nil {
		return
	}
	c.renderDuration.WithLabelValues(host).Observe(d.Seconds())
}

// IncTimerTick counts one tick delivered for the timer held by member.
func (c *Collector) IncTimerTick(member string) {
	if c == nil {
		return
	}
	c.timerTicks.WithLabelValues(member).Inc()
}

// IncPropertyChange counts one notification forwarded to host.
func (c *Collector) IncPropertyChange(host string) {
	if c == nil {
		return
	}
	c.propertyChanges.WithLabelValues(host).Inc()
}

func (c *Collector) collectors() []prometheus.Collector {
	return []prometheus.Collector{c.renderDuration, c.timerTicks, c.propertyChanges}
}

var (
	defaultMu        sync.RWMutex
	defaultCollector = NewCollector(DefaultNamespace)
)

// Default returns the collector behaviors record into.
func Default() *Collector {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultCollector
}

// SetDefault replaces the default collector and returns the previous one.
// Passing nil installs a fresh collector with the default namespace.
func SetDefault(c *Collector) *Collector {
	if c == nil {
		c = NewCollector(DefaultNamespace)
	}
	defaultMu.Lock()
	defer defaultMu.Unlock()
	prev := defaultCollector
	defaultCollector = c
	return prev
}
