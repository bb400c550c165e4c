// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package datatypes provides request and response structures for the loan
// dialogue orchestrator's HTTP API.
package datatypes

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// MaxMessageBytes is the maximum size of a single user message.
	// Byte length (not rune count) to bound payload memory, the dialogue
	// guardrail applies its own rune-based limit afterwards.
	MaxMessageBytes = 8 * 1024 // 8KB

	// MaxSessionIDLength is the maximum accepted session id length.
	// UUIDs are 36 characters; the cap leaves room for external ids.
	MaxSessionIDLength = 64
)

// =============================================================================
// Shared Validator Instance
// =============================================================================

// chatValidate is the validator instance for chat datatypes.
var chatValidate *validator.Validate

func init() {
	chatValidate = validator.New()
	_ = chatValidate.RegisterValidation("maxbytes", validateMaxBytes)
}

// validateMaxBytes checks that a string field does not exceed
// MaxMessageBytes. Byte length is checked deliberately: multi-byte
// payloads must not bypass the cap.
func validateMaxBytes(fl validator.FieldLevel) bool {
	return len(fl.Field().String()) <= MaxMessageBytes
}

// =============================================================================
// Chat Types
// =============================================================================

// ChatRequest is a single user turn submitted to POST /v1/chat.
//
// SessionID is optional: when empty the orchestrator mints a new session
// and returns its id in the response. Subsequent turns must echo it back.
type ChatRequest struct {
	SessionID string `json:"session_id" validate:"omitempty,max=64"`
	Message   string `json:"message" validate:"required,maxbytes"`
}

// Validate checks the request against field constraints.
func (r *ChatRequest) Validate() error {
	return chatValidate.Struct(r)
}

// ChatResponse is the orchestrator's reply to a chat turn.
type ChatResponse struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
	Stage     string `json:"stage"`
	Done      bool   `json:"done"`
}

// =============================================================================
// Session Types
// =============================================================================

// HistoryEntry is one turn of a session transcript.
type HistoryEntry struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// SessionHistoryResponse is the transcript returned by
// GET /v1/sessions/:sessionId/history.
type SessionHistoryResponse struct {
	SessionID string         `json:"session_id"`
	Stage     string         `json:"stage"`
	Done      bool           `json:"done"`
	History   []HistoryEntry `json:"history"`
}

// ErrorResponse is the uniform error body for all endpoints.
type ErrorResponse struct {
	Error string `json:"error"`
}
