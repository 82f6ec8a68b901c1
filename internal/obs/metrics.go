package obs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RemoteCallsTotal       = promauto.NewCounterVec(prometheus.CounterOpts{Name: "tygron_remote_calls_total", Help: "Remote events fired by kind, event and outcome"}, []string{"kind", "event", "outcome"})
	RemoteCallSeconds      = promauto.NewHistogramVec(prometheus.HistogramOpts{Name: "tygron_remote_call_seconds", Help: "Remote event round-trip seconds", Buckets: prometheus.ExponentialBuckets(0.005, 2, 14)}, []string{"kind", "event"})
	SlotNotificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{Name: "tygron_slot_notifications_total", Help: "Push notifications received per map link"}, []string{"link"})
	ActiveSlotConnections  = promauto.NewGauge(prometheus.GaugeOpts{Name: "tygron_active_slot_connections", Help: "Currently open slot connections"})
	InitWaitSeconds        = promauto.NewHistogram(prometheus.HistogramOpts{Name: "tygron_init_wait_seconds", Help: "Time spent waiting for project initialization confirmation", Buckets: prometheus.LinearBuckets(0.5, 1, 16)})
)

// Outcome labels for RemoteCallsTotal.
const (
	OutcomeOK          = "ok"
	OutcomeStatusError = "status_error"
	OutcomeNetError    = "net_error"
)
