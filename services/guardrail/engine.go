// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package guardrail

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/jinterlante1206/LoanFlowLocal/services/guardrail/rules"
	"gopkg.in/yaml.v3"
)

// MaxInputLength is the maximum accepted length, in runes, of a single
// user message. Anything longer is rejected before pattern matching.
const MaxInputLength = 1000

// Engine screens user input before it reaches the dialogue machine.
// It holds the compiled rule set loaded from the embedded YAML.
type Engine struct {
	Categories []Category
}

// NewEngine initializes a guardrail engine from the rules embedded in
// the binary.
//
// It unmarshals the embedded YAML, compiles every regex, and sorts the
// categories from highest to lowest priority. Returns an error if the
// embedded YAML is malformed or contains an invalid regex.
func NewEngine() (*Engine, error) {
	var file RulesFile
	if err := yaml.Unmarshal(rules.InputGuardrailRules, &file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal the embedded guardrail rules: %w", err)
	}
	if err := file.compileRules(); err != nil {
		return nil, fmt.Errorf("failed to compile a guardrail regex: %w", err)
	}
	file.sortByPriority()
	return &Engine{Categories: file.Categories}, nil
}

// CheckInput screens one user message and returns a verdict.
//
// Structural checks run first: empty input and over-length input are
// rejected without touching the rule set. Then categories are walked in
// priority order and the first matching rule decides. A clean message
// yields an allowed verdict with no category.
func (e *Engine) CheckInput(text string) Verdict {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Verdict{
			Allowed:  false,
			Category: "structural",
			RuleId:   "EMPTY_INPUT",
			Severity: SeverityLow,
			Message:  "I didn't receive any message. Could you type that again?",
		}
	}
	if utf8.RuneCountInString(text) > MaxInputLength {
		return Verdict{
			Allowed:  false,
			Category: "structural",
			RuleId:   "INPUT_TOO_LONG",
			Severity: SeverityLow,
			Message:  "That message is too long for me to process. Could you shorten it?",
		}
	}

	for _, category := range e.Categories {
		for _, rule := range category.Rules {
			if rule.compiled.MatchString(text) {
				return Verdict{
					Allowed:  false,
					Category: category.Name,
					RuleId:   rule.Id,
					Severity: rule.Severity,
					Message:  rule.Message,
				}
			}
		}
	}
	return Verdict{Allowed: true}
}
