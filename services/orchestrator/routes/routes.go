// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package routes wires the orchestrator's HTTP endpoints to their
// handlers.
package routes

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jinterlante1206/LoanFlowLocal/services/dialogue"
	"github.com/jinterlante1206/LoanFlowLocal/services/orchestrator/handlers"
)

// SetupRoutes registers all orchestrator endpoints on the router.
//
// # Endpoints
//
//   - GET  /health                              Liveness probe
//   - GET  /metrics                             Prometheus metrics
//   - POST /v1/chat                             One conversation turn
//   - GET  /v1/sessions/:sessionId/history      Session transcript
//   - DELETE /v1/sessions/:sessionId            End a session
func SetupRoutes(router *gin.Engine, orc *dialogue.Orchestrator, logger *slog.Logger) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "loanflow-orchestrator"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	limiter := handlers.NewChatLimiter()

	v1 := router.Group("/v1")
	{
		v1.POST("/chat", handlers.HandleChat(orc, limiter, logger))

		sessions := v1.Group("/sessions")
		{
			sessions.GET("/:sessionId/history", handlers.GetSessionHistory(orc, logger))
			sessions.DELETE("/:sessionId", handlers.DeleteSession(orc, logger))
		}
	}
}
