// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics exposes Prometheus collectors for the retrieval loop.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "topic_scout"

// Metrics holds the loop's collectors.
type Metrics struct {
	searchRequests  *prometheus.CounterVec
	backendDisabled *prometheus.CounterVec
	evaluations     *prometheus.CounterVec
	cacheLookups    *prometheus.CounterVec
	scorerDuration  *prometheus.HistogramVec
	gateIterations  *prometheus.CounterVec
	acceptedSources prometheus.Histogram
}

// MustNewMetrics builds collectors and registers them with reg. Tests pass
// a fresh prometheus.NewRegistry(). Registration errors other than an
// identical collector already being present panic.
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		searchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "requests_total",
			Help:      "Backend search calls by provider, layer, and outcome.",
		}, []string{"provider", "layer", "outcome"}),
		backendDisabled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "backend_disabled_total",
			Help:      "Backends disabled for a run or for the process.",
		}, []string{"provider", "scope"}),
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "evaluator",
			Name:      "verdicts_total",
			Help:      "Evaluation verdicts by stage and outcome.",
		}, []string{"stage", "outcome"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "evaluator",
			Name:      "cache_lookups_total",
			Help:      "Verdict cache lookups by result.",
		}, []string{"result"}),
		scorerDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "evaluator",
			Name:      "scorer_duration_seconds",
			Help:      "Latency of scoring model calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"scorer", "status"}),
		gateIterations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gate",
			Name:      "iterations_total",
			Help:      "Quality gate decisions by next action.",
		}, []string{"next_action"}),
		acceptedSources: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "gate",
			Name:      "accepted_sources",
			Help:      "Accepted sources per finished topic run.",
			Buckets:   []float64{0, 1, 3, 5, 7, 10, 15, 25},
		}),
	}

	m.searchRequests = register(reg, m.searchRequests)
	m.backendDisabled = register(reg, m.backendDisabled)
	m.evaluations = register(reg, m.evaluations)
	m.cacheLookups = register(reg, m.cacheLookups)
	m.scorerDuration = register(reg, m.scorerDuration)
	m.gateIterations = register(reg, m.gateIterations)
	m.acceptedSources = register(reg, m.acceptedSources)
	return m
}

// register adds c to reg, reusing an identical collector that is already
// registered.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(fmt.Sprintf("registering metrics collector: %v", err))
	}
	return c
}

// ObserveSearch counts one backend call.
func (m *Metrics) ObserveSearch(provider, layer, outcome string) {
	if m == nil {
		return
	}
	m.searchRequests.WithLabelValues(provider, layer, outcome).Inc()
}

// BackendDisabled counts a backend being switched off. scope is "run" or
// "process".
func (m *Metrics) BackendDisabled(provider, scope string) {
	if m == nil {
		return
	}
	m.backendDisabled.WithLabelValues(provider, scope).Inc()
}

// ObserveVerdict counts one evaluation verdict.
func (m *Metrics) ObserveVerdict(stage string, accepted bool) {
	if m == nil {
		return
	}
	outcome := "rejected"
	if accepted {
		outcome = "accepted"
	}
	m.evaluations.WithLabelValues(stage, outcome).Inc()
}

// ObserveCache counts a verdict cache lookup.
func (m *Metrics) ObserveCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// ObserveScorer records the latency of one scoring call.
func (m *Metrics) ObserveScorer(scorer string, start time.Time, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.scorerDuration.WithLabelValues(scorer, status).Observe(time.Since(start).Seconds())
}

// ObserveGate counts one gate decision.
func (m *Metrics) ObserveGate(nextAction string) {
	if m == nil {
		return
	}
	m.gateIterations.WithLabelValues(nextAction).Inc()
}

// ObserveRun records the accepted-source count of a finished run.
func (m *Metrics) ObserveRun(accepted int) {
	if m == nil {
		return
	}
	m.acceptedSources.Observe(float64(accepted))
}

// WriteTextfile writes every metric in g to path in the text exposition
// format, for node_exporter's textfile collector.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}
