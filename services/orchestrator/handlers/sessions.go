// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/jinterlante1206/LoanFlowLocal/services/dialogue"
	"github.com/jinterlante1206/LoanFlowLocal/services/orchestrator/datatypes"
)

var sessionsTracer = otel.Tracer("loanflow.orchestrator.handlers.sessions")

// GetSessionHistory returns the full transcript of one session.
//
// Returns 404 for unknown sessions; expired sessions are
// indistinguishable from sessions that never existed.
func GetSessionHistory(orc *dialogue.Orchestrator, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := sessionsTracer.Start(c.Request.Context(), "GetSessionHistory")
		defer span.End()

		sessionID := c.Param("sessionId")
		span.SetAttributes(attribute.String("session.id", sessionID))

		session, err := orc.Session(ctx, sessionID)
		if err != nil {
			if errors.Is(err, dialogue.ErrSessionNotFound) {
				c.JSON(http.StatusNotFound, datatypes.ErrorResponse{Error: "session not found"})
				return
			}
			logger.Error("Failed to load session", "session_id", sessionID, "error", err)
			c.JSON(http.StatusInternalServerError, datatypes.ErrorResponse{Error: "failed to load session"})
			return
		}

		history := make([]datatypes.HistoryEntry, 0, len(session.History))
		for _, turn := range session.History {
			history = append(history, datatypes.HistoryEntry{
				Role:      turn.Role,
				Content:   turn.Content,
				Timestamp: turn.Timestamp,
			})
		}

		c.JSON(http.StatusOK, datatypes.SessionHistoryResponse{
			SessionID: session.ID,
			Stage:     string(session.Stage),
			Done:      session.Stage.Terminal(),
			History:   history,
		})
	}
}

// DeleteSession removes a session and its transcript.
//
// Deleting an unknown session returns 404 rather than 204 so clients
// can tell a typo from a successful cleanup.
func DeleteSession(orc *dialogue.Orchestrator, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := sessionsTracer.Start(c.Request.Context(), "DeleteSession")
		defer span.End()

		sessionID := c.Param("sessionId")
		span.SetAttributes(attribute.String("session.id", sessionID))

		if err := orc.EndSession(ctx, sessionID); err != nil {
			if errors.Is(err, dialogue.ErrSessionNotFound) {
				c.JSON(http.StatusNotFound, datatypes.ErrorResponse{Error: "session not found"})
				return
			}
			logger.Error("Failed to delete session", "session_id", sessionID, "error", err)
			c.JSON(http.StatusInternalServerError, datatypes.ErrorResponse{Error: "failed to delete session"})
			return
		}

		c.Status(http.StatusNoContent)
	}
}
