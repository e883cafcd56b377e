package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func value(t *testing.T, m prometheus.Metric) *dto.Metric {
	t.Helper()
	out := &dto.Metric{}
	require.NoError(t, m.Write(out))
	return out
}

func TestRegister_Idempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		Register()
		Register()
	})
}

func TestCounters(t *testing.T) {
	before := value(t, submissions.WithLabelValues("chained", "conflict")).GetCounter().GetValue()
	IncSubmission("chained", "conflict")
	assert.Equal(t, before+1, value(t, submissions.WithLabelValues("chained", "conflict")).GetCounter().GetValue())

	before = value(t, conflictsRecovered).GetCounter().GetValue()
	IncConflictRecovered()
	assert.Equal(t, before+1, value(t, conflictsRecovered).GetCounter().GetValue())

	SetActiveSessions(3)
	assert.Equal(t, 3.0, value(t, activeSessions).GetGauge().GetValue())

	before = float64(value(t, slotGeneration).GetHistogram().GetSampleCount())
	ObserveSlotGeneration(time.Millisecond)
	assert.Equal(t, before+1, float64(value(t, slotGeneration).GetHistogram().GetSampleCount()))
}
