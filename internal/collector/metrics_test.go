package collector

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsCollectorIsSingleton(t *testing.T) {
	assert.Same(t, GetMetricsCollector(), GetMetricsCollector())
}

func TestObserveFetch(t *testing.T) {
	mc := GetMetricsCollector()
	c := mc.fetchCount.With(prometheus.Labels{"sort": "rising", "outcome": "ok"})
	before := testutil.ToFloat64(c)

	mc.ObserveFetch("rising", "ok", 20*time.Millisecond)

	assert.Equal(t, before+1, testutil.ToFloat64(c))
}

func TestSetTimerState(t *testing.T) {
	mc := GetMetricsCollector()
	states := []string{"idle", "counting", "error-paused"}

	mc.SetTimerState("counting", states)

	assert.Equal(t, 1.0, testutil.ToFloat64(mc.timerState.With(prometheus.Labels{"state": "counting"})))
	assert.Equal(t, 0.0, testutil.ToFloat64(mc.timerState.With(prometheus.Labels{"state": "idle"})))
}

func TestAddTransitionsSkipsZero(t *testing.T) {
	mc := GetMetricsCollector()
	c := mc.transitions.With(prometheus.Labels{"kind": "ENTER"})
	before := testutil.ToFloat64(c)

	mc.AddTransitions("ENTER", 0)
	mc.AddTransitions("ENTER", 3)

	assert.Equal(t, before+3, testutil.ToFloat64(c))
}
