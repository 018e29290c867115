package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CallbacksReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "finenotify",
		Name:      "webhook_callbacks_total",
		Help:      "Provider webhook callbacks received, by outcome.",
	}, []string{"outcome"})

	StatusesRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "finenotify",
		Name:      "statuses_recorded_total",
		Help:      "Status store writes that changed visible state, by status.",
	}, []string{"status"})

	BroadcastsDelivered = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "finenotify",
		Name:      "broadcast_frames_delivered_total",
		Help:      "Status update frames queued to observers.",
	})

	BroadcastsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "finenotify",
		Name:      "broadcast_frames_dropped_total",
		Help:      "Status update frames dropped for slow or closed observers.",
	})

	ObserversConnected = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "finenotify",
		Name:      "observers_connected",
		Help:      "Currently connected websocket observers.",
	})
)
