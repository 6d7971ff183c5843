package common

import "github.com/prometheus/client_golang/prometheus"

const (
	HTTPRequestTotal           = "http_requests_total"
	HTTPRequestDurationSeconds = "http_request_duration_seconds"
	VoteTransitionTotal        = "vote_transitions_total"
	VoteRaceLostTotal          = "vote_race_lost_total"
	TallyCacheTotal            = "tally_cache_total"
)

var (
	PromCounters = map[string]*prometheus.CounterVec{
		HTTPRequestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: HTTPRequestTotal,
			Help: "Count of all HTTP requests",
		}, []string{"path", "code"}),
		VoteTransitionTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: VoteTransitionTotal,
			Help: "Count of all committed vote transitions",
		}, []string{"action", "surface"}),
		VoteRaceLostTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: VoteRaceLostTotal,
			Help: "Count of vote transitions retried after losing a race",
		}, []string{"surface"}),
		TallyCacheTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: TallyCacheTotal,
			Help: "Count of tally cache lookups",
		}, []string{"result"}),
	}

	PromHistograms = map[string]*prometheus.HistogramVec{
		HTTPRequestDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: HTTPRequestDurationSeconds,
			Help: "Duration of all HTTP requests",
		}, []string{"path", "code"}),
	}
)
