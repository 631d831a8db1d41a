package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	feedRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feedcore_feed_requests_total",
		Help: "Feed pages served, by type filter.",
	}, []string{"type"})

	reactionOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feedcore_reactions_total",
		Help: "Reaction engine outcomes, by action.",
	}, []string{"action"})
)
