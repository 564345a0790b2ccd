package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetReturnsSingleton(t *testing.T) {
	first := Get()
	second := Get()
	require.NotNil(t, first)
	assert.Same(t, first, second)
	assert.NotNil(t, first.ApplicationMetrics)
}

func TestRedirectCounters(t *testing.T) {
	m := Get()

	before := testutil.ToFloat64(m.RedirectsTotal.WithLabelValues(OutcomeRedirected))
	m.RedirectsTotal.WithLabelValues(OutcomeRedirected).Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(m.RedirectsTotal.WithLabelValues(OutcomeRedirected)))

	m.AnalyticsQueueDepth.Set(7)
	assert.Equal(t, float64(7), testutil.ToFloat64(m.AnalyticsQueueDepth))
}
