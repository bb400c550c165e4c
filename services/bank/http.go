// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package bank

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("loanflow.bank.http")

// HTTPBank talks to a remote CRM/bureau service over plain JSON. It
// implements ProfileService and BureauService against the demo mock
// endpoints (/mock/crm/{id}, /mock/bureau/{id}).
type HTTPBank struct {
	httpClient *http.Client
	baseURL    string
}

// NewHTTPBank builds a client for the given base URL.
func NewHTTPBank(baseURL string) *HTTPBank {
	return &HTTPBank{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// NewHTTPBankFromEnv reads BANK_BASE_URL. Returns nil when unset, which
// callers interpret as "use the in-memory fixtures".
func NewHTTPBankFromEnv() *HTTPBank {
	baseURL := os.Getenv("BANK_BASE_URL")
	if baseURL == "" {
		return nil
	}
	slog.Info("Using remote CRM/bureau backend", "base_url", baseURL)
	return NewHTTPBank(baseURL)
}

func (b *HTTPBank) GetProfile(ctx context.Context, customerID string) (*Profile, error) {
	var profile Profile
	if err := b.getJSON(ctx, "/mock/crm/"+customerID, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (b *HTTPBank) GetBureauReport(ctx context.Context, customerID string) (*BureauReport, error) {
	var report BureauReport
	if err := b.getJSON(ctx, "/mock/bureau/"+customerID, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

func (b *HTTPBank) getJSON(ctx context.Context, path string, out any) error {
	ctx, span := tracer.Start(ctx, "bank.getJSON")
	defer span.End()
	span.SetAttributes(attribute.String("bank.path", path))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+path, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create request")
		return fmt.Errorf("failed to create bank request: %w", err)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return fmt.Errorf("bank request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		err := fmt.Errorf("bank returned status %d: %s", resp.StatusCode, string(body))
		span.RecordError(err)
		span.SetStatus(codes.Error, "non-200 response")
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to decode response")
		return fmt.Errorf("failed to decode bank response: %w", err)
	}
	return nil
}
