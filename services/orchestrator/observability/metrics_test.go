// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

// ============================================================================
// Test Helper: Create isolated metrics for testing
// ============================================================================

// newTestMetrics creates a DialogueMetrics instance with a custom registry.
// This avoids conflicts with the global Prometheus registry and allows
// parallel testing.
func newTestMetrics(t *testing.T) *DialogueMetrics {
	t.Helper()

	reg := prometheus.NewRegistry()

	m := &DialogueMetrics{
		TurnsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: dialogueSubsystem,
				Name:      "turns_total",
				Help:      "Total chat turns processed by stage and status",
			},
			[]string{"stage", "status"},
		),
		StageTransitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: dialogueSubsystem,
				Name:      "stage_transitions_total",
				Help:      "Total stage transitions taken by the dialogue machine",
			},
			[]string{"from", "to"},
		),
		DecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: dialogueSubsystem,
				Name:      "decisions_total",
				Help:      "Total underwriting decisions by outcome",
			},
			[]string{"outcome"},
		),
		GuardrailBlocksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: dialogueSubsystem,
				Name:      "guardrail_blocks_total",
				Help:      "Total inputs rejected by the input guardrail",
			},
			[]string{"rule"},
		),
		TurnDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: dialogueSubsystem,
				Name:      "turn_duration_seconds",
				Help:      "End-to-end turn processing latency",
			},
			[]string{"stage"},
		),
		ActiveSessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: dialogueSubsystem,
				Name:      "active_sessions",
				Help:      "Sessions in flight, not yet at a terminal stage",
			},
		),
	}

	reg.MustRegister(m.TurnsTotal, m.StageTransitionsTotal, m.DecisionsTotal,
		m.GuardrailBlocksTotal, m.TurnDurationSeconds, m.ActiveSessions)
	return m
}

// ============================================================================
// Tests
// ============================================================================

func TestRecordTurn(t *testing.T) {
	m := newTestMetrics(t)

	m.RecordTurn("CONSENT", TurnSuccess)
	m.RecordTurn("CONSENT", TurnSuccess)
	m.RecordTurn("CONSENT", TurnBlocked)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.TurnsTotal.WithLabelValues("CONSENT", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TurnsTotal.WithLabelValues("CONSENT", "blocked")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.TurnsTotal.WithLabelValues("CONSENT", "error")))
}

func TestRecordTransition(t *testing.T) {
	m := newTestMetrics(t)

	m.RecordTransition("GREETING", "CONSENT")
	m.RecordTransition("CONSENT", "CONSENT") // retry self-loop

	assert.Equal(t, 1.0, testutil.ToFloat64(m.StageTransitionsTotal.WithLabelValues("GREETING", "CONSENT")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StageTransitionsTotal.WithLabelValues("CONSENT", "CONSENT")))
}

func TestRecordDecisionAndGuardrail(t *testing.T) {
	m := newTestMetrics(t)

	m.RecordDecision("approve")
	m.RecordDecision("approve")
	m.RecordDecision("reject")
	m.RecordGuardrailBlock("INJECTION_KEYWORDS")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.DecisionsTotal.WithLabelValues("approve")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DecisionsTotal.WithLabelValues("reject")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GuardrailBlocksTotal.WithLabelValues("INJECTION_KEYWORDS")))
}

func TestSessionGauge(t *testing.T) {
	m := newTestMetrics(t)

	m.SessionOpened()
	m.SessionOpened()
	m.SessionClosed()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActiveSessions))
}

// Handlers run before InitMetrics in unit tests; every helper must be a
// no-op on a nil receiver.
func TestNilMetricsAreSafe(t *testing.T) {
	var m *DialogueMetrics

	assert.NotPanics(t, func() {
		m.RecordTurn("CONSENT", TurnSuccess)
		m.RecordTransition("GREETING", "CONSENT")
		m.RecordDecision("approve")
		m.RecordGuardrailBlock("INJECTION_KEYWORDS")
		m.RecordTurnDuration("CONSENT", 0.1)
		m.SessionOpened()
		m.SessionClosed()
	})
}
