// Package processorqueue exposes prometheus indicators for the processor
// queue engine.
package processorqueue

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "valence"

type Indicators struct {
	queueLength      *prometheus.GaugeVec
	ticksTotal       prometheus.Counter
	batchesTotal     *prometheus.CounterVec
	executionSeconds prometheus.Histogram
}

func NewIndicators(processorAddr string, reg prometheus.Registerer) *Indicators {
	constLabels := prometheus.Labels{"processor": processorAddr}
	return &Indicators{
		queueLength: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace:   namespace,
				Name:        "processor_queue_length",
				Help:        "Number of batches waiting in a priority lane",
				ConstLabels: constLabels,
			},
			[]string{"priority"},
		),
		ticksTotal: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace:   namespace,
				Name:        "processor_ticks_total",
				Help:        "Total number of processor ticks",
				ConstLabels: constLabels,
			},
		),
		batchesTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   namespace,
				Name:        "processor_batches_total",
				Help:        "Batches retired, by terminal result",
				ConstLabels: constLabels,
			},
			[]string{"result"},
		),
		executionSeconds: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Namespace:   namespace,
				Name:        "processor_execution_duration_seconds",
				Help:        "Duration of one batch execution attempt",
				ConstLabels: constLabels,
			},
		),
	}
}

// SetQueueLength records the current depth of a priority lane.
func (i *Indicators) SetQueueLength(priority string, length float64) {
	i.queueLength.With(prometheus.Labels{"priority": priority}).Set(length)
}

// AddTick counts one processor tick.
func (i *Indicators) AddTick() {
	i.ticksTotal.Inc()
}

// AddBatchResult counts one retired batch by terminal result.
func (i *Indicators) AddBatchResult(result string) {
	i.batchesTotal.With(prometheus.Labels{"result": result}).Inc()
}

// ObserveExecutionDuration records one batch execution attempt.
func (i *Indicators) ObserveExecutionDuration(seconds float64) {
	i.executionSeconds.Observe(seconds)
}
