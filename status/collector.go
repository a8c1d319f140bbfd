package status

import (
	"strings"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector exports a Registry to Prometheus
// Metric names are the registry keys with dots turned into underscores under a namespace
type Collector struct {
	reg       *Registry
	namespace string
}

// NewCollector wraps reg; register the result with a prometheus.Registerer
func NewCollector(reg *Registry, namespace string) *Collector {
	return &Collector{reg: reg, namespace: namespace}
}

// Describe sends nothing, making the collector unchecked since keys appear at runtime
func (c *Collector) Describe(chan<- *prometheus.Desc) {}

// Collect emits every metric; cumulative particle metrics are counters, the rest gauges
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	emit := func(key string, v float64) {
		help, kind := key, prometheus.GaugeValue
		if info, ok := particleMetrics[key]; ok {
			help = info.help
			if info.counter {
				kind = prometheus.CounterValue
			}
		}
		desc := prometheus.NewDesc(c.metricName(key), help, nil, nil)
		ch <- prometheus.MustNewConstMetric(desc, kind, v)
	}
	c.reg.Bools.Range(func(k string, v *atomic.Bool) {
		if v.Load() {
			emit(k, 1)
		} else {
			emit(k, 0)
		}
	})
	c.reg.Ints.Range(func(k string, v *atomic.Int64) { emit(k, float64(v.Load())) })
	c.reg.Floats.Range(func(k string, v *AtomicFloat) { emit(k, v.Get()) })
}

func (c *Collector) metricName(key string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		}
		return '_'
	}, key)
	return prometheus.BuildFQName(c.namespace, "", name)
}

var _ prometheus.Collector = (*Collector)(nil)
