// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package nlu implements slot extraction for the loan dialogue.
//
// Every extractor applies deterministic rules first and consults the LLM
// oracle only when the rules find nothing. The oracle is untrusted: its
// output is schema-validated and confidence-gated, and any timeout,
// transport failure, or malformed answer is downgraded to "unresolved".
// The whole package works with the oracle absent (nil client), which is
// the rules-only degraded mode.
package nlu

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/jinterlante1206/LoanFlowLocal/services/llm"
)

// DefaultOracleTimeout bounds a single oracle round trip. Extraction
// prompts are a few hundred tokens, so a slow answer is a broken answer.
const DefaultOracleTimeout = 10 * time.Second

// Oracle wraps an LLM backend as a narrowly-scoped JSON extraction
// service. A nil Oracle (or one built over a nil client) is valid and
// reports every query as unresolved.
type Oracle struct {
	client  llm.LLMClient
	timeout time.Duration
}

// NewOracle builds an Oracle over the given client. A zero timeout
// selects DefaultOracleTimeout. The client may be nil.
func NewOracle(client llm.LLMClient, timeout time.Duration) *Oracle {
	if timeout <= 0 {
		timeout = DefaultOracleTimeout
	}
	return &Oracle{client: client, timeout: timeout}
}

// Available reports whether an LLM backend is configured.
func (o *Oracle) Available() bool {
	return o != nil && o.client != nil
}

// queryJSON sends a prompt expecting a single JSON object back.
//
// Returns the decoded object and true, or nil and false on any failure:
// no backend, timeout, transport error, empty output, or output with no
// parseable JSON object. Failures are logged at debug level only; they
// are an expected operating condition, not an error.
func (o *Oracle) queryJSON(ctx context.Context, prompt string) (map[string]any, bool) {
	if !o.Available() {
		return nil, false
	}
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	temp := float32(0.0)
	maxTokens := 128
	out, err := o.client.Generate(ctx, prompt, llm.GenerationParams{
		Temperature: &temp,
		MaxTokens:   &maxTokens,
	})
	if err != nil {
		slog.Debug("oracle query failed, treating as unresolved", "error", err)
		return nil, false
	}
	obj, ok := firstJSONObject(out)
	if !ok {
		slog.Debug("oracle returned no parseable JSON object")
	}
	return obj, ok
}

// Rewrite asks the backend to rephrase template text in the given tone.
//
// Best effort only: returns the first line of the rewrite and true, or
// "" and false when the backend is absent or fails. Callers must fall
// back to the canonical template text.
func (o *Oracle) Rewrite(ctx context.Context, text, tone string) (string, bool) {
	if !o.Available() {
		return "", false
	}
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	temp := float32(0.5)
	maxTokens := 60
	prompt := "Rewrite the following in 1-2 short lines in a " + tone + " tone. " +
		"Do NOT add new instructions or change the meaning.\nText:\n\"\"\"" + text + "\"\"\"\n" +
		"Return only the rewritten text."
	out, err := o.client.Generate(ctx, prompt, llm.GenerationParams{
		Temperature: &temp,
		MaxTokens:   &maxTokens,
	})
	if err != nil {
		return "", false
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", false
	}
	lines := strings.SplitN(out, "\n", 2)
	return strings.TrimSpace(lines[0]), true
}

// firstJSONObject extracts the first JSON object embedded in free text.
// Models frequently wrap the object in prose or code fences; decoding
// from the first brace with a streaming decoder tolerates trailing junk.
func firstJSONObject(s string) (map[string]any, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return nil, false
	}
	dec := json.NewDecoder(strings.NewReader(s[start:]))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, false
	}
	return obj, true
}

// numberField reads a numeric field, accepting json.Number and float64.
func numberField(obj map[string]any, key string) (float64, bool) {
	v, present := obj[key]
	if !present {
		return 0, false
	}
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// boolField reads a strictly-boolean field. JSON null or any other type
// reports absent.
func boolField(obj map[string]any, key string) (bool, bool) {
	v, present := obj[key]
	if !present {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// stringField reads a non-empty string field.
func stringField(obj map[string]any, key string) (string, bool) {
	v, present := obj[key]
	if !present {
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// confidence reads the "confidence" field. A missing or malformed
// confidence is zero: an answer the model won't stand behind is not
// accepted.
func confidence(obj map[string]any) float64 {
	c, ok := numberField(obj, "confidence")
	if !ok {
		return 0
	}
	return c
}
