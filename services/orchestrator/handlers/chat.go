// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package handlers provides Gin handlers for the loan dialogue
// orchestrator's HTTP API.
package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"

	"github.com/jinterlante1206/LoanFlowLocal/services/dialogue"
	"github.com/jinterlante1206/LoanFlowLocal/services/orchestrator/datatypes"
	"github.com/jinterlante1206/LoanFlowLocal/services/orchestrator/observability"
)

var chatTracer = otel.Tracer("loanflow.orchestrator.handlers.chat")

// Default rate limit for the chat endpoint. One conversation turn per
// second sustained with a burst of twenty covers interactive use; bots
// hammering the endpoint get 429s.
const (
	defaultChatRate  = rate.Limit(10)
	defaultChatBurst = 20
)

// NewChatLimiter builds the shared limiter for the chat endpoint.
func NewChatLimiter() *rate.Limiter {
	return rate.NewLimiter(defaultChatRate, defaultChatBurst)
}

// HandleChat processes one conversation turn.
//
// # Description
//
// Binds and validates the request, applies the shared rate limiter,
// then delegates to the dialogue orchestrator. The orchestrator owns
// all conversation semantics including guardrail screening; this
// handler only translates between HTTP and the turn contract.
//
// # HTTP Status Codes
//
//   - 200: Turn processed (including guardrail-blocked turns, which
//     return a refusal reply rather than an error)
//   - 400: Malformed JSON or failed validation
//   - 429: Rate limit exceeded
//   - 500: Session persistence or internal failure
func HandleChat(orc *dialogue.Orchestrator, limiter *rate.Limiter, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := chatTracer.Start(c.Request.Context(), "HandleChat")
		defer span.End()

		if limiter != nil && !limiter.Allow() {
			c.JSON(http.StatusTooManyRequests, datatypes.ErrorResponse{Error: "rate limit exceeded, slow down"})
			return
		}

		var req datatypes.ChatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, datatypes.ErrorResponse{Error: "invalid request body: " + err.Error()})
			return
		}
		if err := req.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, datatypes.ErrorResponse{Error: "validation failed: " + err.Error()})
			return
		}

		span.SetAttributes(attribute.String("session.id", req.SessionID))

		start := time.Now()
		result, err := orc.Handle(ctx, req.SessionID, req.Message)
		if err != nil {
			logger.Error("Chat turn failed", "session_id", req.SessionID, "error", err)
			observability.DefaultMetrics.RecordTurn("unknown", observability.TurnError)
			c.JSON(http.StatusInternalServerError, datatypes.ErrorResponse{Error: "failed to process turn"})
			return
		}

		stage := string(result.Stage)
		observability.DefaultMetrics.RecordTurnDuration(stage, time.Since(start).Seconds())
		if result.BlockedRule != "" {
			observability.DefaultMetrics.RecordGuardrailBlock(result.BlockedRule)
			observability.DefaultMetrics.RecordTurn(stage, observability.TurnBlocked)
		} else {
			observability.DefaultMetrics.RecordTurn(stage, observability.TurnSuccess)
		}
		if result.PrevStage != "" {
			observability.DefaultMetrics.RecordTransition(string(result.PrevStage), stage)
			if result.PrevStage == dialogue.StageGreeting {
				observability.DefaultMetrics.SessionOpened()
			}
		}
		// PrevStage is empty when no machine step ran, so repeat turns
		// against a closed session don't double-count.
		if result.Done && result.PrevStage != "" {
			observability.DefaultMetrics.SessionClosed()
			if result.DecisionOutcome != "" {
				observability.DefaultMetrics.RecordDecision(result.DecisionOutcome)
			}
		}

		c.JSON(http.StatusOK, datatypes.ChatResponse{
			SessionID: result.SessionID,
			Reply:     result.Reply,
			Stage:     stage,
			Done:      result.Done,
		})
	}
}
