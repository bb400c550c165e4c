// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package dialogue

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("loanflow.dialogue")

// escalationMessage is the fixed apology used whenever a turn cannot
// produce a normal transition.
const escalationMessage = "Something went wrong on our side; we'll escalate this to a human reviewer."

var stageWorkers = map[Stage]workerFunc{
	StageGreeting:          greetingWorker,
	StageConsent:           consentWorker,
	StageCollectCustomerID: customerIDWorker,
	StageCollectAmount:     amountWorker,
	StageCRMCheck:          crmWorker,
	StageBureauCheck:       bureauWorker,
	StageUnderwriting:      underwritingWorker,
	StageDecision:          decisionWorker,
}

// Machine dispatches a turn to the current stage's worker and applies
// the returned transition. It never inspects slot content itself.
type Machine struct {
	deps *Deps
}

// NewMachine builds the stage machine over the given dependencies.
func NewMachine(deps *Deps) *Machine {
	return &Machine{deps: deps}
}

// Advance runs exactly one worker for the session's current stage and
// returns the transition it produced. An unknown stage, an illegal
// transition, or a worker failure escalates unconditionally: the caller
// always receives a well-formed transition, never an undefined state.
func (m *Machine) Advance(ctx context.Context, session *Session, input string) Transition {
	ctx, span := tracer.Start(ctx, "dialogue.Advance")
	defer span.End()
	span.SetAttributes(
		attribute.String("session.id", session.ID),
		attribute.String("session.stage", string(session.Stage)),
	)

	worker, ok := stageWorkers[session.Stage]
	if !ok {
		m.deps.log().Error("No worker for stage", "session_id", session.ID, "stage", session.Stage)
		return m.escalate(session)
	}

	transition, err := worker(ctx, m.deps, session, input)
	if err != nil {
		m.deps.log().Error("Stage worker failed",
			"session_id", session.ID, "stage", session.Stage, "error", err)
		return m.escalate(session)
	}
	if !session.Stage.CanTransition(transition.NextStage) {
		m.deps.log().Error("Worker produced an illegal transition",
			"session_id", session.ID, "from", session.Stage, "to", transition.NextStage)
		return m.escalate(session)
	}

	span.SetAttributes(attribute.String("session.next_stage", string(transition.NextStage)))
	session.Stage = transition.NextStage
	return transition
}

func (m *Machine) escalate(session *Session) Transition {
	session.Stage = StageEscalated
	return Transition{NextStage: StageEscalated, Message: escalationMessage}
}
