package processorqueue

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestProcessorQueueIndicators(t *testing.T) {
	reg := prometheus.NewRegistry()
	indicators := NewIndicators("valence1processor", reg)

	indicators.AddTick()
	indicators.AddTick()
	assert.Equal(t, 2.0, testutil.ToFloat64(indicators.ticksTotal))

	indicators.SetQueueLength("medium", 3)
	indicators.SetQueueLength("high", 1)
	assert.Equal(t, 3.0, testutil.ToFloat64(indicators.queueLength.WithLabelValues("medium")))
	assert.Equal(t, 1.0, testutil.ToFloat64(indicators.queueLength.WithLabelValues("high")))

	indicators.AddBatchResult("success")
	indicators.AddBatchResult("error")
	indicators.AddBatchResult("error")
	assert.Equal(t, 1.0, testutil.ToFloat64(indicators.batchesTotal.WithLabelValues("success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(indicators.batchesTotal.WithLabelValues("error")))

	indicators.ObserveExecutionDuration(0.25)
	assert.Equal(t, 1, testutil.CollectAndCount(indicators.executionSeconds))
}
