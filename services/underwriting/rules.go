// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package underwriting

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// defaultRules holds the raw byte content of the 'rules.yaml' file.
// Baked into the binary so the product policy travels with the
// executable; UNDERWRITING_RULES_PATH overrides it at startup.
//
//go:embed rules.yaml
var defaultRules []byte

// Tier is one credit-score band. Tiers are matched by threshold: the
// highest MinScore that the applicant's score reaches wins.
type Tier struct {
	MinScore    int   `yaml:"min_score"`
	MaxAmount   int64 `yaml:"max_amount"`
	RequireDocs bool  `yaml:"require_docs"`
}

// Rules is the product underwriting policy. Loaded once at startup and
// immutable for the process lifetime.
type Rules struct {
	MinCreditScore         int     `yaml:"min_credit_score"`
	ScoreTiers             []Tier  `yaml:"score_tiers"`
	MaxFOIR                float64 `yaml:"max_foir"`
	IncomeMultiplierCap    int64   `yaml:"income_multiplier_cap"`
	MaxLoanAmount          int64   `yaml:"max_loan_amount"`
	DefaultRejectionReason string  `yaml:"default_rejection_reason"`
}

// LoadRules parses and validates a rule set from raw YAML. The returned
// rules have their tiers sorted descending by MinScore, ready for
// threshold matching.
func LoadRules(raw []byte) (*Rules, error) {
	var rules Rules
	if err := yaml.Unmarshal(raw, &rules); err != nil {
		return nil, fmt.Errorf("failed to unmarshal underwriting rules: %w", err)
	}
	sort.Slice(rules.ScoreTiers, func(i, j int) bool {
		return rules.ScoreTiers[i].MinScore > rules.ScoreTiers[j].MinScore
	})
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	return &rules, nil
}

// LoadDefaultRules loads the rule set embedded in the binary, or the
// file named by UNDERWRITING_RULES_PATH when set.
func LoadDefaultRules() (*Rules, error) {
	if path := os.Getenv("UNDERWRITING_RULES_PATH"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read underwriting rules from %s: %w", path, err)
		}
		return LoadRules(raw)
	}
	return LoadRules(defaultRules)
}

// Validate checks the configuration invariants that the evaluation
// algorithm depends on. In particular the lowest tier must start exactly
// at MinCreditScore: any gap would leave scores that pass the floor
// check but match no tier, turning an impossible branch into a live one.
func (r *Rules) Validate() error {
	if r.MinCreditScore <= 0 {
		return fmt.Errorf("min_credit_score must be positive, got %d", r.MinCreditScore)
	}
	if len(r.ScoreTiers) == 0 {
		return fmt.Errorf("at least one score tier is required")
	}
	if r.MaxFOIR <= 0 || r.MaxFOIR >= 1 {
		return fmt.Errorf("max_foir must be in (0, 1), got %v", r.MaxFOIR)
	}
	if r.IncomeMultiplierCap <= 0 {
		return fmt.Errorf("income_multiplier_cap must be positive, got %d", r.IncomeMultiplierCap)
	}
	if r.MaxLoanAmount <= 0 {
		return fmt.Errorf("max_loan_amount must be positive, got %d", r.MaxLoanAmount)
	}
	if r.DefaultRejectionReason == "" {
		return fmt.Errorf("default_rejection_reason must not be empty")
	}
	for i, tier := range r.ScoreTiers {
		if tier.MaxAmount <= 0 {
			return fmt.Errorf("tier %d: max_amount must be positive, got %d", i, tier.MaxAmount)
		}
		if i > 0 && r.ScoreTiers[i-1].MinScore == tier.MinScore {
			return fmt.Errorf("duplicate tier min_score %d", tier.MinScore)
		}
	}
	lowest := r.ScoreTiers[len(r.ScoreTiers)-1].MinScore
	if lowest != r.MinCreditScore {
		return fmt.Errorf("lowest tier min_score %d must equal min_credit_score %d", lowest, r.MinCreditScore)
	}
	return nil
}
