package notify

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var notifications = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "feedcore_notifications_total",
	Help: "Notification dispatch outcomes.",
}, []string{"outcome"})
