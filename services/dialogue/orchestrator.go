// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package dialogue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jinterlante1206/LoanFlowLocal/services/guardrail"
)

// Result is the orchestrator's outward contract for one turn.
//
// SessionID echoes the caller's id, or the minted one on a session-
// creating turn. Guardrail-blocked turns never create a session, so a
// blocked first contact echoes the empty id back: the caller retries
// with a clean message and only then gets a session.
type Result struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
	Stage     Stage  `json:"stage"`
	Done      bool   `json:"done"`

	// The fields below are not part of the wire contract; callers use
	// them for metrics.

	// BlockedRule carries the guardrail rule id when the turn was
	// rejected before dialogue processing.
	BlockedRule string `json:"-"`

	// PrevStage is the stage the session was in before this turn.
	// Empty when no machine step ran (blocked or already-closed turns).
	PrevStage Stage `json:"-"`

	// DecisionOutcome is the underwriting outcome, set on the turn that
	// reached a terminal stage with a recorded decision.
	DecisionOutcome string `json:"-"`
}

// Orchestrator is the top-level entry point for a conversation turn:
// guardrail screening, session load, one machine step, session write-
// back. One turn per session runs at a time; different sessions run in
// parallel.
type Orchestrator struct {
	store   SessionStore
	machine *Machine
	guard   *guardrail.Engine
	locks   *lockRegistry
	logger  *slog.Logger
}

// NewOrchestrator wires the turn pipeline. guard may be nil to disable
// input screening (tests).
func NewOrchestrator(store SessionStore, machine *Machine, guard *guardrail.Engine, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		store:   store,
		machine: machine,
		guard:   guard,
		locks:   newLockRegistry(),
		logger:  logger,
	}
}

// Handle runs one conversation turn.
//
// The guardrail verdict is delivered as a normal reply without touching
// the session, so a blocked message costs nothing. Otherwise the
// session (created lazily when sessionID is empty or unknown) advances
// by exactly one worker step and is persisted only after the step
// produced a well-formed transition — a failed write leaves the stored
// session exactly as it was.
func (o *Orchestrator) Handle(ctx context.Context, sessionID, message string) (Result, error) {
	if o.guard != nil {
		if verdict := o.guard.CheckInput(message); !verdict.Allowed {
			o.logger.Info("Input blocked by guardrail",
				"session_id", sessionID, "rule_id", verdict.RuleId, "category", verdict.Category)
			stage := StageGreeting
			if existing, err := o.store.Get(ctx, sessionID); err == nil {
				stage = existing.Stage
			}
			return Result{
				SessionID:   sessionID,
				Reply:       verdict.Message,
				Stage:       stage,
				Done:        stage.Terminal(),
				BlockedRule: verdict.RuleId,
			}, nil
		}
	}

	session, err := o.loadOrCreate(ctx, sessionID)
	if err != nil {
		return Result{}, err
	}

	lock := o.locks.lock(session.ID)
	defer lock.Unlock()

	// The session may have advanced while we waited on the lock.
	if current, err := o.store.Get(ctx, session.ID); err == nil {
		session = current
	}

	if session.Stage.Terminal() {
		return Result{
			SessionID: session.ID,
			Reply:     "This application is already closed. Start a new session to apply again.",
			Stage:     session.Stage,
			Done:      true,
		}, nil
	}

	prevStage := session.Stage
	session.AppendTurn("user", message)
	transition := o.machine.Advance(ctx, session, message)
	session.AppendTurn("assistant", transition.Message)

	if err := o.store.Put(ctx, session); err != nil {
		o.logger.Error("Failed to persist session", "session_id", session.ID, "error", err)
		return Result{}, fmt.Errorf("persist session %s: %w", session.ID, err)
	}

	result := Result{
		SessionID: session.ID,
		Reply:     transition.Message,
		Stage:     session.Stage,
		Done:      session.Stage.Terminal(),
		PrevStage: prevStage,
	}
	if result.Done && session.Slots.UnderwritingResult != nil {
		result.DecisionOutcome = session.Slots.UnderwritingResult.Decision
	}
	return result, nil
}

func (o *Orchestrator) loadOrCreate(ctx context.Context, sessionID string) (*Session, error) {
	if sessionID == "" {
		session := NewSession("")
		o.logger.Info("Created session", "session_id", session.ID)
		return session, nil
	}
	session, err := o.store.Get(ctx, sessionID)
	if errors.Is(err, ErrSessionNotFound) {
		session = NewSession(sessionID)
		o.logger.Info("Created session", "session_id", session.ID)
		return session, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}
	return session, nil
}

// Session exposes a stored session for read-only use by the transport
// layer (history and state endpoints).
func (o *Orchestrator) Session(ctx context.Context, sessionID string) (*Session, error) {
	return o.store.Get(ctx, sessionID)
}

// EndSession deletes a conversation on user request. Returns
// ErrSessionNotFound when the session does not exist, so callers can
// distinguish a cleanup from a typo.
func (o *Orchestrator) EndSession(ctx context.Context, sessionID string) error {
	if _, err := o.store.Get(ctx, sessionID); err != nil {
		return err
	}
	return o.store.Delete(ctx, sessionID)
}
