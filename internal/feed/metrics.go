package feed

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var sourceFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "feedcore_source_failures_total",
	Help: "Content sources degraded to empty during feed fan-out, by type.",
}, []string{"type"})
