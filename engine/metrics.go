package engine

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"tally/types"
)

type metrics struct {
	compilations    *prometheus.CounterVec
	compileDuration prometheus.Histogram
	evaluations     *prometheus.CounterVec
	cacheRequests   *prometheus.CounterVec
}

// newMetrics registers on reg; a nil reg leaves the collectors unregistered
func newMetrics(reg prometheus.Registerer) *metrics {
	return &metrics{
		compilations: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "tally_compilations_total",
			Help: "Total number of expression compilations by outcome.",
		}, []string{"outcome"}),
		compileDuration: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "tally_compile_duration_seconds",
			Help:    "Time spent parsing, checking and simplifying expressions.",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
		}),
		evaluations: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "tally_evaluations_total",
			Help: "Total number of evaluations by backend and outcome.",
		}, []string{"backend", "outcome"}),
		cacheRequests: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "tally_cache_requests_total",
			Help: "Compiled expression cache lookups by result.",
		}, []string{"result"}),
	}
}

// compileOutcome labels a compile result
func compileOutcome(err error) string {
	if err == nil {
		return "ok"
	}
	var e *types.Error
	if !errors.As(err, &e) {
		return "error"
	}
	switch {
	case e.Kind == types.ERR_LEX:
		return "lex"
	case e.Kind == types.ERR_PARSE:
		var cause *types.Error
		if errors.As(e.Cause, &cause) && cause.Kind == types.ERR_LEX {
			return "lex"
		}
		return "parse"
	case e.Kind.IsSemantic():
		return "semantic"
	}
	return "error"
}

// evalOutcome labels an evaluation result
func evalOutcome(err error) string {
	if err == nil {
		return "ok"
	}
	kind, ok := types.KindOf(err)
	switch {
	case ok && kind == types.ERR_RUNTIME:
		return "runtime"
	case ok && kind == types.ERR_TRANSLATION:
		return "translation"
	}
	return "error"
}
