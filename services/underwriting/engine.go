// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package underwriting

import (
	"fmt"

	"github.com/jinterlante1206/LoanFlowLocal/services/bank"
)

// Outcome values for a Decision.
const (
	OutcomeApprove  = "approve"
	OutcomeReject   = "reject"
	OutcomeNeedDocs = "need_docs"
)

// Decision is the full underwriting outcome with its audit trail. Given
// the same profile, report, amount, and rules, the decision is
// reproducible byte for byte.
type Decision struct {
	Decision        string         `json:"decision"`
	ApprovedAmount  int64          `json:"approved_amount"`
	RequestedAmount int64          `json:"requested_amount"`
	Reason          string         `json:"reason"`
	Metadata        map[string]any `json:"metadata"`
}

// Approved reports whether the decision grants funds (approve or
// need_docs with a positive amount).
func (d *Decision) Approved() bool {
	return d.Decision != OutcomeReject
}

// Evaluate runs the underwriting policy over one application. Pure: no
// I/O, no clock, no randomness.
//
// The score floor is checked first, then the applicable tier is
// selected by descending min_score threshold. The approvable amount is
// capped by both the tier ceiling and the income ceiling (monthly
// income times the multiplier cap). Affordability is a FOIR check
// (fixed-obligation-to-income ratio) with the new EMI approximated as
// requested amount over the multiplier cap; breaching it demands
// documents rather than rejecting outright, as does landing in a tier
// that requires income proof.
func Evaluate(profile *bank.Profile, report *bank.BureauReport, requestedAmount int64, rules *Rules) Decision {
	if report == nil || report.CreditScore == 0 {
		return Decision{
			Decision:        OutcomeReject,
			ApprovedAmount:  0,
			RequestedAmount: requestedAmount,
			Reason:          "Missing credit score in bureau report.",
			Metadata:        map[string]any{},
		}
	}

	score := report.CreditScore
	if score < rules.MinCreditScore {
		return Decision{
			Decision:        OutcomeReject,
			ApprovedAmount:  0,
			RequestedAmount: requestedAmount,
			Reason:          rules.DefaultRejectionReason,
			Metadata: map[string]any{
				"credit_score":     score,
				"min_credit_score": rules.MinCreditScore,
			},
		}
	}

	// Tiers are pre-sorted descending; the first threshold the score
	// reaches is the highest applicable tier.
	var tier *Tier
	for i := range rules.ScoreTiers {
		if score >= rules.ScoreTiers[i].MinScore {
			tier = &rules.ScoreTiers[i]
			break
		}
	}
	if tier == nil {
		// Unreachable with validated rules; fail closed anyway.
		return Decision{
			Decision:        OutcomeReject,
			ApprovedAmount:  0,
			RequestedAmount: requestedAmount,
			Reason:          "No applicable score tier found.",
			Metadata:        map[string]any{"credit_score": score},
		}
	}

	var income, existingEMI int64
	if profile != nil {
		income = profile.MonthlyIncome
		existingEMI = profile.ExistingEMI
	}

	incomeCeiling := income * rules.IncomeMultiplierCap
	maxEligible := tier.MaxAmount
	if incomeCeiling < maxEligible {
		maxEligible = incomeCeiling
	}
	if maxEligible <= 0 {
		return Decision{
			Decision:        OutcomeReject,
			ApprovedAmount:  0,
			RequestedAmount: requestedAmount,
			Reason:          "Income-based eligibility is zero.",
			Metadata: map[string]any{
				"credit_score": score,
				"income":       income,
			},
		}
	}

	approxNewEMI := float64(requestedAmount) / float64(rules.IncomeMultiplierCap)
	foir := 1.0
	if income > 0 {
		foir = (float64(existingEMI) + approxNewEMI) / float64(income)
	}

	decision := OutcomeApprove
	reason := "Eligible as per credit score and income."
	approved := requestedAmount
	if maxEligible < approved {
		approved = maxEligible
	}

	if foir > rules.MaxFOIR {
		decision = OutcomeNeedDocs
		reason = fmt.Sprintf("FOIR %.2f exceeds max %.2f. Requires documents/manual review.", foir, rules.MaxFOIR)
	}
	if tier.RequireDocs && decision == OutcomeApprove {
		decision = OutcomeNeedDocs
		reason = fmt.Sprintf("Score tier requires income proof. Credit score %d, tier min_score %d.", score, tier.MinScore)
	}

	return Decision{
		Decision:        decision,
		ApprovedAmount:  approved,
		RequestedAmount: requestedAmount,
		Reason:          reason,
		Metadata: map[string]any{
			"credit_score":      score,
			"tier_min_score":    tier.MinScore,
			"score_ceiling":     tier.MaxAmount,
			"income":            income,
			"income_ceiling":    incomeCeiling,
			"existing_emi":      existingEMI,
			"max_foir":          rules.MaxFOIR,
			"foir":              foir,
			"require_docs":      tier.RequireDocs,
			"delinquency_flags": report.DelinquencyFlags,
		},
	}
}
