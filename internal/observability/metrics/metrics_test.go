package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestChatMetricsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewChatMetrics(reg)

	m.ConnOpened()
	m.ConnOpened()
	m.ConnClosed()
	m.ObserveFrame("chat_message", "ok")
	m.ObserveFrame("chat_message", "ok")
	m.ObserveFrame("auth", "error")
	m.ObserveDelivery(2)
	m.ObserveNotification("created")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.connections))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.framesTotal.WithLabelValues("chat_message", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.framesTotal.WithLabelValues("auth", "error")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.deliveredTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.notifyTotal.WithLabelValues("created")))
}

func TestChatMetricsNilSafe(t *testing.T) {
	var m *ChatMetrics
	m.ConnOpened()
	m.ConnClosed()
	m.ObserveFrame("auth", "ok")
	m.ObserveDelivery(1)
	m.ObserveNotification("created")
	m.ObserveHistoryReplay(3)
}
