// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package server assembles and runs the loan dialogue orchestrator.
// Both the service binary and the CLI `serve` command call Run.
//
// # Environment Variables
//
//   - ORCHESTRATOR_PORT: HTTP server port (default: 12310)
//   - LLM_BACKEND_TYPE: LLM provider - ollama, openai, hf (default: rules-only)
//   - SESSION_BACKEND: session store - memory, badger (default: memory)
//   - SESSION_DB_PATH: Badger directory (default: ./data/sessions)
//   - SESSION_TTL / SESSION_CLEAN_INTERVAL: Go durations for session expiry
//   - BANK_BASE_URL: remote CRM/bureau mock (default: in-process fixtures)
//   - UNDERWRITING_RULES_PATH: rules YAML override (default: embedded)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OpenTelemetry collector (default: loanflow-otel-collector:4317)
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/jinterlante1206/LoanFlowLocal/services/bank"
	"github.com/jinterlante1206/LoanFlowLocal/services/dialogue"
	"github.com/jinterlante1206/LoanFlowLocal/services/guardrail"
	"github.com/jinterlante1206/LoanFlowLocal/services/llm"
	"github.com/jinterlante1206/LoanFlowLocal/services/nlu"
	"github.com/jinterlante1206/LoanFlowLocal/services/orchestrator/observability"
	"github.com/jinterlante1206/LoanFlowLocal/services/orchestrator/routes"
	"github.com/jinterlante1206/LoanFlowLocal/services/underwriting"

	// --- OpenTelemetry imports ---
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
)

func initTracer() (func(context.Context), error) {
	ctx := context.Background()

	otelEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otelEndpoint == "" {
		otelEndpoint = "loanflow-otel-collector:4317"
	}
	conn, err := grpc.NewClient(otelEndpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("loanflow-orchestrator")))
	if err != nil {
		return nil, err
	}
	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))
	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.
		TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}, nil
}

// cleanerConfigFromEnv reads SESSION_TTL and SESSION_CLEAN_INTERVAL
// (Go duration strings). Unset or unparseable values keep the defaults.
func cleanerConfigFromEnv(logger *slog.Logger) dialogue.CleanerConfig {
	cfg := dialogue.DefaultCleanerConfig()
	if raw := os.Getenv("SESSION_TTL"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			cfg.TTL = d
		} else {
			logger.Warn("Invalid SESSION_TTL, using default", "value", raw, "default", cfg.TTL)
		}
	}
	if raw := os.Getenv("SESSION_CLEAN_INTERVAL"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			cfg.Interval = d
		} else {
			logger.Warn("Invalid SESSION_CLEAN_INTERVAL, using default", "value", raw, "default", cfg.Interval)
		}
	}
	return cfg
}

// Run wires the full stack from the environment and serves until the
// listener fails.
func Run() error {
	port := os.Getenv("ORCHESTRATOR_PORT")
	if port == "" {
		port = "12310"
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// --- Init the tracer ---
	cleanup, err := initTracer()
	if err != nil {
		return fmt.Errorf("setup OTLP tracer: %w", err)
	}
	defer cleanup(context.Background())

	observability.InitMetrics()

	store, closeStore, err := dialogue.NewStoreFromEnv(logger)
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	defer func() {
		if err := closeStore(); err != nil {
			slog.Error("Failed to close session store", "error", err)
		}
	}()

	llmClient, err := llm.NewClientFromEnv()
	if err != nil {
		return fmt.Errorf("initialize LLM client: %w", err)
	}
	oracle := nlu.NewOracle(llmClient, 0)

	rules, err := underwriting.LoadDefaultRules()
	if err != nil {
		return fmt.Errorf("load underwriting rules: %w", err)
	}

	guard, err := guardrail.NewEngine()
	if err != nil {
		return fmt.Errorf("initialize input guardrail: %w", err)
	}

	// The in-memory bank always backs the consent audit log; profile and
	// bureau lookups go remote when BANK_BASE_URL points at a live mock.
	memoryBank := bank.NewMemoryBank()
	var profiles bank.ProfileService = memoryBank
	var bureau bank.BureauService = memoryBank
	if httpBank := bank.NewHTTPBankFromEnv(); httpBank != nil {
		slog.Info("Using remote bank services", "base_url", os.Getenv("BANK_BASE_URL"))
		profiles = httpBank
		bureau = httpBank
	} else {
		slog.Info("BANK_BASE_URL not set, using fixture bank services")
	}

	deps := &dialogue.Deps{
		Oracle:   oracle,
		Profiles: profiles,
		Bureau:   bureau,
		Consents: memoryBank,
		Rules:    rules,
		Ladder:   dialogue.NewRetryLadder(oracle),
		Logger:   logger,
	}
	orc := dialogue.NewOrchestrator(store, dialogue.NewMachine(deps), guard, logger)

	cleaner := dialogue.NewCleaner(store, cleanerConfigFromEnv(logger), logger)
	cleaner.Start()
	defer cleaner.Stop()

	router := gin.Default()
	router.Use(otelgin.Middleware("loanflow-orchestrator"))

	routes.SetupRoutes(router, orc, logger)

	slog.Info("Starting the loanflow orchestrator", "port", port)
	return router.Run(":" + port)
}
