// FILE: lixenwraith/logsetup/metrics.go
package logsetup

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "logsetup"

// Collector exposes dispatcher and bridge counters to Prometheus
type Collector struct {
	d *Dispatcher
	b *Bridge

	emitted        *prometheus.Desc
	dropped        *prometheus.Desc
	sinkDeliveries *prometheus.Desc
	sinkFailures   *prometheus.Desc
	sinkLevel      *prometheus.Desc
	bridgeEvents   *prometheus.Desc
}

// NewCollector creates a collector. A nil dispatcher reads the default one
// at collection time; a nil bridge omits bridge metrics.
func NewCollector(d *Dispatcher, b *Bridge) *Collector {
	return &Collector{
		d: d,
		b: b,
		emitted: prometheus.NewDesc(
			prometheus.BuildFQName(metricsNamespace, "dispatcher", "records_emitted_total"),
			"Records that passed the global level.", nil, nil),
		dropped: prometheus.NewDesc(
			prometheus.BuildFQName(metricsNamespace, "dispatcher", "records_dropped_total"),
			"Records below the global level or emitted after shutdown.", nil, nil),
		sinkDeliveries: prometheus.NewDesc(
			prometheus.BuildFQName(metricsNamespace, "sink", "deliveries_total"),
			"Successful deliveries per sink.", []string{"sink"}, nil),
		sinkFailures: prometheus.NewDesc(
			prometheus.BuildFQName(metricsNamespace, "sink", "failures_total"),
			"Failed deliveries per sink.", []string{"sink"}, nil),
		sinkLevel: prometheus.NewDesc(
			prometheus.BuildFQName(metricsNamespace, "sink", "level"),
			"Minimum level per sink.", []string{"sink"}, nil),
		bridgeEvents: prometheus.NewDesc(
			prometheus.BuildFQName(metricsNamespace, "bridge", "events_total"),
			"Panics seen by the bridge by outcome.", []string{"outcome"}, nil),
	}
}

// Describe implements prometheus.Collector
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.emitted
	ch <- c.dropped
	ch <- c.sinkDeliveries
	ch <- c.sinkFailures
	ch <- c.sinkLevel
	if c.b != nil {
		ch <- c.bridgeEvents
	}
}

// Collect implements prometheus.Collector
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	d := c.d
	if d == nil {
		d = Default()
	}
	stats := d.Stats()

	ch <- prometheus.MustNewConstMetric(c.emitted, prometheus.CounterValue, float64(stats.Emitted))
	ch <- prometheus.MustNewConstMetric(c.dropped, prometheus.CounterValue, float64(stats.Dropped))
	for _, s := range stats.Sinks {
		ch <- prometheus.MustNewConstMetric(c.sinkDeliveries, prometheus.CounterValue, float64(s.Deliveries), s.Name)
		ch <- prometheus.MustNewConstMetric(c.sinkFailures, prometheus.CounterValue, float64(s.Failures), s.Name)
		ch <- prometheus.MustNewConstMetric(c.sinkLevel, prometheus.GaugeValue, float64(s.Level), s.Name)
	}

	if c.b == nil {
		return
	}
	bs := c.b.Stats()
	for outcome, v := range map[string]uint64{
		"main_fault":     bs.MainFaults,
		"worker_fault":   bs.WorkerFaults,
		"delegated":      bs.Delegated,
		"exit":           bs.Exits,
		"internal_error": bs.InternalErrors,
	} {
		ch <- prometheus.MustNewConstMetric(c.bridgeEvents, prometheus.CounterValue, float64(v), outcome)
	}
}
