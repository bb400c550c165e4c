// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package dialogue

import "context"

// HumanHandoffAttempt is the attempt count at which the ladder starts
// offering a human handoff without auto-escalating the stage.
const HumanHandoffAttempt = 4

// Template keys for the retry ladder.
const (
	promptConsent          = "CONSENT"
	promptAmountUnclear    = "AMOUNT_UNCLEAR"
	promptAmountOutOfRange = "AMOUNT_OUT_OF_RANGE"
	promptCustomerID       = "CUSTOMER_ID"
	promptMetaShort        = "META_SHORT"
	promptOutOfScope       = "OUT_OF_SCOPE"
)

// retryTemplates maps a (stage, outcome) key to its escalation sequence.
// Index 0 is the neutral first ask; later entries get firmer, and the
// last one always names a human-handoff escape phrase.
var retryTemplates = map[string][]string{
	promptConsent: {
		"I need your consent to process basic loan checks (ID & credit bureau). Please say YES to continue or NO to stop.",
		"Before I proceed, please confirm that I can process your loan request (reply YES/NO).",
		"Quick confirm: may I proceed with checking your details for the loan? A simple YES works.",
		"I can only continue with a clear YES. If you'd like help from a human instead, say 'human'.",
	},
	promptAmountOutOfRange: {
		"That amount is outside our supported personal loan range (max ₹10,00,000). Please enter an amount up to ₹10,00,000.",
		"We generally offer personal loans up to ₹10,00,000. Could you pick a lesser amount?",
		"Too high for our product — keep it under ₹10L and I'll continue.",
		"Max personal loan is ₹10,00,000. Please choose a smaller amount, or say 'human' for help.",
	},
	promptAmountUnclear: {
		"I didn't quite catch the amount. You can say '4 lakh' or '400000'.",
		"Please state the amount clearly: e.g., '₹4 lakh' or '4,00,000'.",
		"Could you rephrase the amount? Try '1 lakh', '2.5 lakh', or '400000'.",
		"I'm still not sure about the amount. If you'd like help from a human, say 'human'.",
	},
	promptCustomerID: {
		"Please provide your Customer ID in the format CUST001.",
		"I need your Customer ID (e.g., CUST001) to fetch your profile.",
		"Tell me your Customer ID (CUSTxyz). I'll look up your profile.",
		"I still need a Customer ID like CUST001 to continue. Say 'human' if you'd rather talk to a person.",
	},
	promptMetaShort: {
		"I assist users through a conversational loan application — basic checks and eligibility.",
		"This assistant guides you through a personal loan application in chat.",
	},
	promptOutOfScope: {
		"I can only help with personal loan applications. For other topics, please contact support.",
		"Sorry, that's out of my scope — I handle loan origination matters.",
	},
}

// Rewriter optionally rephrases canonical template text for variety.
// Implementations are best-effort: a false return means "use the
// canonical text", never an error.
type Rewriter interface {
	Rewrite(ctx context.Context, text, tone string) (string, bool)
}

// RetryLadder turns an attempt count into escalating re-prompt text.
// It is stateless; the attempt count lives in the session.
type RetryLadder struct {
	rewriter Rewriter
}

// NewRetryLadder builds a ladder. rewriter may be nil; canonical
// template text is then used verbatim.
func NewRetryLadder(rewriter Rewriter) *RetryLadder {
	return &RetryLadder{rewriter: rewriter}
}

// Prompt returns the re-prompt for the given key and 1-based attempt.
// The index is clamped to the last template once attempts exceed the
// ladder, so the tone never de-escalates.
func (l *RetryLadder) Prompt(ctx context.Context, key string, attempt int) string {
	templates, ok := retryTemplates[key]
	if !ok || len(templates) == 0 {
		return ""
	}
	if attempt < 1 {
		attempt = 1
	}
	idx := attempt - 1
	if idx >= len(templates) {
		idx = len(templates) - 1
	}
	chosen := templates[idx]

	if l.rewriter != nil {
		tone := "friendly"
		if attempt >= 3 {
			tone = "direct and firm but polite"
		}
		if rewritten, ok := l.rewriter.Rewrite(ctx, chosen, tone); ok && rewritten != "" {
			return rewritten
		}
	}
	return chosen
}
