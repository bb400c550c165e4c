// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package dialogue

import (
	"time"

	"github.com/google/uuid"

	"github.com/jinterlante1206/LoanFlowLocal/services/bank"
	"github.com/jinterlante1206/LoanFlowLocal/services/underwriting"
)

// Slots holds the structured facts collected over the conversation.
// The set of slots is fixed; each is written once in normal flow and
// may be overwritten on correction.
type Slots struct {
	Consent            *bool                  `json:"consent,omitempty"`
	CustomerID         string                 `json:"customer_id,omitempty"`
	RequestedAmount    int64                  `json:"requested_amount,omitempty"`
	CRMProfile         *bank.Profile          `json:"crm_profile,omitempty"`
	BureauReport       *bank.BureauReport     `json:"bureau_report,omitempty"`
	UnderwritingResult *underwriting.Decision `json:"underwriting_result,omitempty"`
	Decision           string                 `json:"decision,omitempty"`
}

// Turn is one utterance in the conversation history.
type Turn struct {
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is the full state of one conversation. It is mutated only by
// the stage workers; everything else treats it as read-only.
type Session struct {
	ID            string        `json:"id"`
	Stage         Stage         `json:"stage"`
	Slots         Slots         `json:"slots"`
	RetryCounters map[Stage]int `json:"retry_counters"`
	History       []Turn        `json:"history"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// NewSession creates a fresh session at GREETING. When id is empty a
// UUID is minted, so callers can open a conversation without choosing
// an identifier.
func NewSession(id string) *Session {
	if id == "" {
		id = uuid.NewString()
	}
	now := time.Now().UTC()
	return &Session{
		ID:            id,
		Stage:         StageGreeting,
		RetryCounters: make(map[Stage]int),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// AppendTurn appends to the conversation history and marks the session
// active, which is what the TTL cleaner measures idleness against.
// History is append-only; nothing ever rewrites or reorders it.
func (s *Session) AppendTurn(role, content string) {
	now := time.Now().UTC()
	s.History = append(s.History, Turn{
		Role:      role,
		Content:   content,
		Timestamp: now,
	})
	s.UpdatedAt = now
}

// Retries returns the attempt count for a stage.
func (s *Session) Retries(stage Stage) int {
	return s.RetryCounters[stage]
}

// IncrementRetries bumps and returns the attempt count for a stage.
// Only unresolved attempts count; meta questions and refusals do not
// burn an attempt.
func (s *Session) IncrementRetries(stage Stage) int {
	if s.RetryCounters == nil {
		s.RetryCounters = make(map[Stage]int)
	}
	s.RetryCounters[stage]++
	return s.RetryCounters[stage]
}

// ResetRetries clears the attempt count when a stage is exited
// successfully.
func (s *Session) ResetRetries(stage Stage) {
	delete(s.RetryCounters, stage)
}
