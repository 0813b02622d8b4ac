package metric

import "github.com/prometheus/client_golang/prometheus"

// Sizer reports the number of live entries in a store.
type Sizer interface {
	Len() int
}

// Collector samples replay cache size at scrape time.
type Collector struct {
	store   Sizer
	entries *prometheus.Desc
}

// NewCollector creates a collector for the given replay store. backend is
// exported as a constant label.
func NewCollector(store Sizer, backend string) *Collector {
	return &Collector{
		store: store,
		entries: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "replay", "entries"),
			"Live entries in the replay cache.",
			nil,
			prometheus.Labels{"backend": backend},
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.entries
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.entries, prometheus.GaugeValue, float64(c.store.Len()))
}
