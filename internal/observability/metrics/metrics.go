package metrics

import "github.com/prometheus/client_golang/prometheus"

// ChatMetrics exposes counters/gauges for the realtime chat layer.
type ChatMetrics struct {
	connections     prometheus.Gauge
	framesTotal     *prometheus.CounterVec
	deliveredTotal  prometheus.Counter
	notifyTotal     *prometheus.CounterVec
	historyMessages prometheus.Histogram
}

func NewChatMetrics(reg prometheus.Registerer) *ChatMetrics {
	m := &ChatMetrics{
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "medibook",
			Subsystem: "chat",
			Name:      "connections",
			Help:      "Currently open chat connections",
		}),
		framesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medibook",
			Subsystem: "chat",
			Name:      "frames_total",
			Help:      "Inbound chat frames by type and outcome",
		}, []string{"frame_type", "status"}),
		deliveredTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "medibook",
			Subsystem: "chat",
			Name:      "messages_delivered_total",
			Help:      "Chat message frames fanned out to live sessions",
		}),
		notifyTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medibook",
			Subsystem: "chat",
			Name:      "notifications_total",
			Help:      "Offline-recipient notification records by outcome",
		}, []string{"status"}),
		historyMessages: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "medibook",
			Subsystem: "chat",
			Name:      "history_replay_messages",
			Help:      "Messages replayed per join",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250},
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.connections, m.framesTotal, m.deliveredTotal, m.notifyTotal, m.historyMessages)
	return m
}

func (m *ChatMetrics) ConnOpened() {
	if m == nil {
		return
	}
	m.connections.Inc()
}

func (m *ChatMetrics) ConnClosed() {
	if m == nil {
		return
	}
	m.connections.Dec()
}

func (m *ChatMetrics) ObserveFrame(frameType, status string) {
	if m == nil {
		return
	}
	m.framesTotal.WithLabelValues(frameType, status).Inc()
}

func (m *ChatMetrics) ObserveDelivery(recipients int) {
	if m == nil {
		return
	}
	m.deliveredTotal.Add(float64(recipients))
}

func (m *ChatMetrics) ObserveNotification(status string) {
	if m == nil {
		return
	}
	m.notifyTotal.WithLabelValues(status).Inc()
}

func (m *ChatMetrics) ObserveHistoryReplay(messages int) {
	if m == nil {
		return
	}
	m.historyMessages.Observe(float64(messages))
}
