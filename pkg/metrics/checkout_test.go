package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestCheckoutMetricsCountsByState(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCheckoutMetrics(reg)

	m.Observe("succeeded", 120*time.Millisecond)
	m.Observe("succeeded", 80*time.Millisecond)
	m.Observe("rejected_stock", 10*time.Millisecond)

	mfs, err := reg.Gather()
	require.NoError(t, err)

	require.Equal(t, 2.0, sampleValue(t, mfs, "literaryhaven_checkout_outcomes_total", map[string]string{"state": "succeeded"}))
	require.Equal(t, 1.0, sampleValue(t, mfs, "literaryhaven_checkout_outcomes_total", map[string]string{"state": "rejected_stock"}))
	require.InDelta(t, 0.2, sampleValue(t, mfs, "literaryhaven_checkout_duration_seconds", map[string]string{"state": "succeeded"}), 0.0001)
}

func TestCartMetricsCountsStorageFailures(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCartMetrics(reg)

	m.IncStorageFailure("write")
	m.IncStorageFailure("")

	mfs, err := reg.Gather()
	require.NoError(t, err)

	require.Equal(t, 1.0, sampleValue(t, mfs, "literaryhaven_cart_storage_failures_total", map[string]string{"op": "write"}))
	require.Equal(t, 1.0, sampleValue(t, mfs, "literaryhaven_cart_storage_failures_total", map[string]string{"op": "unknown"}))
}

func TestNilRecordersAreNoops(t *testing.T) {
	var checkout *CheckoutMetrics
	checkout.Observe("succeeded", time.Second)
	var cart *CartMetrics
	cart.IncStorageFailure("write")
}

func TestOutboxMetricsCountsResults(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewOutboxMetrics(reg)
	m.Inc("order_created", "published")
	m.Inc("order_created", "published")
	m.Inc("order_voided", "dead_lettered")

	mfs, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, mfs, 1)
	require.Equal(t, "literaryhaven_outbox_relay_results_total", mfs[0].GetName())

	counts := map[string]float64{}
	for _, metric := range mfs[0].GetMetric() {
		key := ""
		for _, label := range metric.GetLabel() {
			key += label.GetValue() + "/"
		}
		counts[key] = metric.GetCounter().GetValue()
	}
	require.Equal(t, 2.0, counts["order_created/published/"])
	require.Equal(t, 1.0, counts["order_voided/dead_lettered/"])

	var nilMetrics *OutboxMetrics
	nilMetrics.Inc("order_created", "retry")
}
