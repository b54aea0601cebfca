package summary

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus is a Sink exposing the latest value of each scalar as a
// gauge labelled by the scalar's name. The step of the latest value is
// exposed alongside it.
type Prometheus struct {
	values *prometheus.GaugeVec
	steps  *prometheus.GaugeVec
}

// NewPrometheus registers the sink's gauges with reg
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	factory := promauto.With(reg)
	return &Prometheus{
		values: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ohmyq_summary_value",
			Help: "Latest value of a summary scalar.",
		}, []string{"name"}),
		steps: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ohmyq_summary_step",
			Help: "Global step at which a summary scalar was last recorded.",
		}, []string{"name"}),
	}
}

// AddScalar sets the gauges of name
func (p *Prometheus) AddScalar(name string, value float64, step int) error {
	p.values.WithLabelValues(name).Set(value)
	p.steps.WithLabelValues(name).Set(float64(step))
	return nil
}
