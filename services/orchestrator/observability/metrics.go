// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package observability provides Prometheus metrics for the loan
// dialogue orchestrator.
//
// # Description
//
// Metrics cover the full conversation lifecycle:
//   - Turn counters by stage and outcome
//   - Stage transition counters
//   - Underwriting decision outcomes
//   - Guardrail rejections by rule
//   - Turn processing latency histograms
//   - Active session gauge
//
// # Integration
//
// Metrics are exposed via the /metrics endpoint. Use with Prometheus +
// Grafana for dashboards and alerting.
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal locking.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Metric Definitions
// =============================================================================

// Namespace for all metrics
const metricsNamespace = "loanflow"

// Subsystem for dialogue metrics
const dialogueSubsystem = "dialogue"

// DialogueMetrics holds all Prometheus metrics for loan conversation
// processing.
//
// Initialize once at startup via InitMetrics().
type DialogueMetrics struct {
	// TurnsTotal counts processed chat turns.
	// Labels: stage (stage the turn was processed in), status (success, blocked, error)
	TurnsTotal *prometheus.CounterVec

	// StageTransitionsTotal counts stage transitions taken by the machine.
	// Labels: from, to
	StageTransitionsTotal *prometheus.CounterVec

	// DecisionsTotal counts terminal underwriting outcomes.
	// Labels: outcome (approve, reject, need_docs)
	DecisionsTotal *prometheus.CounterVec

	// GuardrailBlocksTotal counts inputs rejected before dialogue processing.
	// Labels: rule (guardrail rule id, e.g. INJECTION_KEYWORDS)
	GuardrailBlocksTotal *prometheus.CounterVec

	// TurnDurationSeconds measures end-to-end turn processing latency.
	// Labels: stage
	TurnDurationSeconds *prometheus.HistogramVec

	// ActiveSessions tracks sessions that started a conversation and
	// have not yet reached a terminal stage.
	ActiveSessions prometheus.Gauge
}

// DefaultMetrics is the singleton instance of DialogueMetrics.
// Initialized by InitMetrics().
var DefaultMetrics *DialogueMetrics

// InitMetrics initializes the default metrics instance.
//
// Creates and registers all Prometheus metrics against the default
// registry. Call once at application startup.
func InitMetrics() *DialogueMetrics {
	DefaultMetrics = &DialogueMetrics{
		TurnsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: dialogueSubsystem,
				Name:      "turns_total",
				Help:      "Total chat turns processed by stage and status",
			},
			[]string{"stage", "status"},
		),
		StageTransitionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: dialogueSubsystem,
				Name:      "stage_transitions_total",
				Help:      "Total stage transitions taken by the dialogue machine",
			},
			[]string{"from", "to"},
		),
		DecisionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: dialogueSubsystem,
				Name:      "decisions_total",
				Help:      "Total underwriting decisions by outcome",
			},
			[]string{"outcome"},
		),
		GuardrailBlocksTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: dialogueSubsystem,
				Name:      "guardrail_blocks_total",
				Help:      "Total inputs rejected by the input guardrail",
			},
			[]string{"rule"},
		),
		TurnDurationSeconds: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: dialogueSubsystem,
				Name:      "turn_duration_seconds",
				Help:      "End-to-end turn processing latency",
				Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"stage"},
		),
		ActiveSessions: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: dialogueSubsystem,
				Name:      "active_sessions",
				Help:      "Sessions in flight, not yet at a terminal stage",
			},
		),
	}
	return DefaultMetrics
}

// =============================================================================
// Label Constants
// =============================================================================

// TurnStatus is a typed label value for TurnsTotal.
type TurnStatus string

const (
	// TurnSuccess marks a turn that produced a reply.
	TurnSuccess TurnStatus = "success"

	// TurnBlocked marks a turn rejected by the input guardrail.
	TurnBlocked TurnStatus = "blocked"

	// TurnError marks a turn that failed with a server-side error.
	TurnError TurnStatus = "error"
)

// =============================================================================
// Helper Methods
// =============================================================================

// RecordTurn increments the turn counter for a stage and status.
func (m *DialogueMetrics) RecordTurn(stage string, status TurnStatus) {
	if m == nil {
		return
	}
	m.TurnsTotal.WithLabelValues(stage, string(status)).Inc()
}

// RecordTransition increments the stage transition counter.
// Self-loops (from == to) are recorded too; they indicate retries.
func (m *DialogueMetrics) RecordTransition(from, to string) {
	if m == nil {
		return
	}
	m.StageTransitionsTotal.WithLabelValues(from, to).Inc()
}

// RecordDecision increments the underwriting outcome counter.
func (m *DialogueMetrics) RecordDecision(outcome string) {
	if m == nil {
		return
	}
	m.DecisionsTotal.WithLabelValues(outcome).Inc()
}

// RecordGuardrailBlock increments the guardrail rejection counter.
func (m *DialogueMetrics) RecordGuardrailBlock(rule string) {
	if m == nil {
		return
	}
	m.GuardrailBlocksTotal.WithLabelValues(rule).Inc()
}

// RecordTurnDuration observes turn processing latency for a stage.
func (m *DialogueMetrics) RecordTurnDuration(stage string, seconds float64) {
	if m == nil {
		return
	}
	m.TurnDurationSeconds.WithLabelValues(stage).Observe(seconds)
}

// SessionOpened increments the active session gauge.
func (m *DialogueMetrics) SessionOpened() {
	if m == nil {
		return
	}
	m.ActiveSessions.Inc()
}

// SessionClosed decrements the active session gauge.
func (m *DialogueMetrics) SessionClosed() {
	if m == nil {
		return
	}
	m.ActiveSessions.Dec()
}
