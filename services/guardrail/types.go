// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package guardrail

import (
	"fmt"
	"regexp"
	"sort"

	"gopkg.in/yaml.v3"
)

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// RulesFile is the on-disk shape of the guardrail rule set.
type RulesFile struct {
	Categories []Category `yaml:"categories"`
}

// Category groups related rules. Categories are evaluated from highest
// to lowest priority; the first matching rule decides the verdict.
type Category struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Priority    int    `yaml:"priority"`
	Rules       []Rule `yaml:"rules"`
}

// Rule is a single pattern with a user-facing refusal message.
type Rule struct {
	Id       string   `yaml:"id"`
	Regex    string   `yaml:"regex"`
	Severity Severity `yaml:"severity"`
	Message  string   `yaml:"message"`

	compiled *regexp.Regexp `yaml:"-"`
}

func (s *Severity) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	incoming := Severity(raw)
	switch incoming {
	case SeverityHigh, SeverityMedium, SeverityLow:
		*s = incoming
		return nil
	default:
		return fmt.Errorf("invalid value for severity: %q", incoming)
	}
}

func (f *RulesFile) compileRules() error {
	for i := range f.Categories {
		for j := range f.Categories[i].Rules {
			rule := &f.Categories[i].Rules[j]
			re, err := regexp.Compile(rule.Regex)
			if err != nil {
				return fmt.Errorf("failed to compile the regex %s: %w", rule.Regex, err)
			}
			rule.compiled = re
		}
	}
	return nil
}

func (f *RulesFile) sortByPriority() {
	sort.Slice(f.Categories, func(i, j int) bool {
		return f.Categories[i].Priority > f.Categories[j].Priority
	})
}

// Verdict is the outcome of screening one user message.
type Verdict struct {
	Allowed  bool     `json:"allowed"`
	Category string   `json:"category,omitempty"`
	RuleId   string   `json:"rule_id,omitempty"`
	Severity Severity `json:"severity,omitempty"`
	Message  string   `json:"message,omitempty"`
}
