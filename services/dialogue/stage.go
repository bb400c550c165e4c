// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package dialogue implements the loan application conversation core:
// the stage machine, per-stage workers, the retry ladder, session
// storage, and the orchestrator that ties them together.
package dialogue

import "fmt"

// Stage identifies where a conversation is in the loan application
// flow. The set is closed; anything else is a corrupt session.
type Stage string

const (
	StageGreeting          Stage = "GREETING"
	StageConsent           Stage = "CONSENT"
	StageCollectCustomerID Stage = "COLLECT_CUSTOMER_ID"
	StageCollectAmount     Stage = "COLLECT_AMOUNT"
	StageCRMCheck          Stage = "CRM_CHECK"
	StageBureauCheck       Stage = "BUREAU_CHECK"
	StageUnderwriting      Stage = "UNDERWRITING"
	StageDecision          Stage = "DECISION"
	StageCompleted         Stage = "COMPLETED"
	StageEscalated         Stage = "ESCALATED"
)

// stageEdges enumerates the legal forward transitions. Self-loops model
// re-prompting in place. ESCALATED is reachable from any non-terminal
// stage and is therefore not listed per edge.
var stageEdges = map[Stage][]Stage{
	StageGreeting:          {StageConsent},
	StageConsent:           {StageConsent, StageCollectCustomerID},
	StageCollectCustomerID: {StageCollectCustomerID, StageCollectAmount},
	StageCollectAmount:     {StageCollectAmount, StageCRMCheck},
	StageCRMCheck:          {StageBureauCheck},
	StageBureauCheck:       {StageUnderwriting},
	StageUnderwriting:      {StageDecision},
	StageDecision:          {StageCompleted},
	StageCompleted:         {},
	StageEscalated:         {},
}

// Valid reports whether s is one of the known stages.
func (s Stage) Valid() bool {
	_, ok := stageEdges[s]
	return ok
}

// Terminal reports whether the conversation is finished at this stage.
func (s Stage) Terminal() bool {
	return s == StageCompleted || s == StageEscalated
}

// CanTransition reports whether the edge s → next is legal. Escalation
// is always legal from a non-terminal stage.
func (s Stage) CanTransition(next Stage) bool {
	if s.Terminal() {
		return false
	}
	if next == StageEscalated {
		return true
	}
	for _, edge := range stageEdges[s] {
		if edge == next {
			return true
		}
	}
	return false
}

// ParseStage validates a stage read from storage or the wire.
func ParseStage(raw string) (Stage, error) {
	s := Stage(raw)
	if !s.Valid() {
		return "", fmt.Errorf("unknown stage %q", raw)
	}
	return s, nil
}
