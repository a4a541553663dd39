package service

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// gauges mirrors the classifier's state for scraping.
type gauges struct {
	labels   prometheus.Gauge
	training prometheus.Gauge
	whole    prometheus.Gauge
	winners  prometheus.Gauge
}

func newGauges(reg prometheus.Registerer, instance string) (*gauges, error) {
	opts := func(name, help string) prometheus.GaugeOpts {
		return prometheus.GaugeOpts{
			Namespace:   "sdr",
			Name:        name,
			Help:        help,
			ConstLabels: prometheus.Labels{"instance": instance},
		}
	}

	var err error
	g := &gauges{}
	if g.labels, err = register(reg, opts("labels", "Number of labels with recorded SDRs")); err != nil {
		return nil, err
	}
	if g.training, err = register(reg, opts("training_pool", "Samples in the spatial training pool")); err != nil {
		return nil, err
	}
	if g.whole, err = register(reg, opts("whole_pool", "Samples in the whole-object validation pool")); err != nil {
		return nil, err
	}
	if g.winners, err = register(reg, opts("winners", "Spatial winners recorded since the last reset")); err != nil {
		return nil, err
	}
	return g, nil
}

// register adds a gauge, reusing an identical one already registered.
func register(reg prometheus.Registerer, opts prometheus.GaugeOpts) (prometheus.Gauge, error) {
	g := prometheus.NewGauge(opts)
	if err := reg.Register(g); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
		}
		return nil, err
	}
	return g, nil
}

func (g *gauges) set(st Status) {
	g.labels.Set(float64(st.LabelCount))
	g.training.Set(float64(st.TrainingPool))
	g.whole.Set(float64(st.WholePool))
	g.winners.Set(float64(st.Winners))
}
