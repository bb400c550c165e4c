// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package nlu

import (
	"context"
	"regexp"
	"strings"
)

// Intent classifies what a message is doing, before any slot extraction
// runs. Workers use it to answer meta/process questions without burning
// a retry attempt on them.
type Intent string

const (
	IntentSlotValue  Intent = "SLOT_VALUE"
	IntentMeta       Intent = "META"
	IntentProcess    Intent = "PROCESS"
	IntentConfusion  Intent = "CONFUSION"
	IntentOutOfScope Intent = "OUT_OF_SCOPE"
	IntentChitchat   Intent = "CHITCHAT"
)

var validIntents = map[Intent]bool{
	IntentSlotValue:  true,
	IntentMeta:       true,
	IntentProcess:    true,
	IntentConfusion:  true,
	IntentOutOfScope: true,
	IntentChitchat:   true,
}

// IntentResult carries the classified intent and, for non-slot intents,
// a short reply the worker can surface before re-prompting.
type IntentResult struct {
	Intent Intent
	Reply  string
}

var (
	metaPattern    = regexp.MustCompile(`\b(what does|what is this|how does|how do|who are you|what are you)\b`)
	processPattern = regexp.MustCompile(`\b(why|for what|what for)\b`)
	consentTokens  = regexp.MustCompile(`\b(yes|no|agree|i do|ok|okay|sure|nope|yep)\b`)
	amountTokens   = regexp.MustCompile(`\d|\b(lakh|lakhs|thousand|million|billion|crore|cr|k|m)\b`)
	greetingTokens = regexp.MustCompile(`\b(hi|hello|hey|thanks|thank you|namaste)\b`)
	idTokens       = regexp.MustCompile(`\bcust`)
)

// ClassifyIntent decides what the message is doing in the current stage.
//
// Deterministic rules cover the common shapes; the oracle is consulted
// only when no rule fires. When the oracle is also unavailable or
// unhelpful the message is treated as out of scope with a canned reply,
// matching the conservative posture of the rest of the package.
func ClassifyIntent(ctx context.Context, oracle *Oracle, text, stage string) IntentResult {
	if result, ok := classifyIntentRules(text); ok {
		return result
	}
	if result, ok := classifyIntentOracle(ctx, oracle, text, stage); ok {
		return result
	}
	return IntentResult{
		Intent: IntentOutOfScope,
		Reply:  "I can only help with personal loan applications here.",
	}
}

// classifyIntentRules is the deterministic layer. The rule order
// matters: meta/process questions often contain digits ("why do you
// need my ID?" does not), so question shapes are checked before slot
// shapes.
func classifyIntentRules(text string) (IntentResult, bool) {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return IntentResult{
			Intent: IntentConfusion,
			Reply:  "I didn't catch that. Could you repeat briefly?",
		}, true
	}
	if metaPattern.MatchString(t) {
		return IntentResult{
			Intent: IntentMeta,
			Reply:  "I help people apply for personal loans. I can guide you through the process in chat.",
		}, true
	}
	if processPattern.MatchString(t) {
		return IntentResult{
			Intent: IntentProcess,
			Reply:  "I'm asking so I can process your loan details (basic info and credit checks).",
		}, true
	}
	if consentTokens.MatchString(t) {
		if hedgePattern.MatchString(t) {
			return IntentResult{
				Intent: IntentConfusion,
				Reply:  "Are you leaning towards yes or no?",
			}, true
		}
		return IntentResult{Intent: IntentSlotValue}, true
	}
	if amountTokens.MatchString(t) || idTokens.MatchString(t) {
		return IntentResult{Intent: IntentSlotValue}, true
	}
	if greetingTokens.MatchString(t) {
		return IntentResult{
			Intent: IntentChitchat,
			Reply:  "Hi! I can help with personal loans.",
		}, true
	}
	return IntentResult{}, false
}

func classifyIntentOracle(ctx context.Context, oracle *Oracle, text, stage string) (IntentResult, bool) {
	prompt := `You are an intent classifier for a bank loan assistant.

User utterance:
"""` + text + `"""

Current stage: ` + stage + `

Return a JSON object with keys:
- intent: one of "SLOT_VALUE", "META", "PROCESS", "CONFUSION", "OUT_OF_SCOPE", "CHITCHAT"
- reply: a single short sentence the assistant can say if the intent is not SLOT_VALUE
- confidence: your certainty between 0 and 1

Return EXACTLY the JSON and nothing else.`

	obj, ok := oracle.queryJSON(ctx, prompt)
	if !ok {
		return IntentResult{}, false
	}
	raw, ok := stringField(obj, "intent")
	if !ok {
		return IntentResult{}, false
	}
	intent := Intent(strings.ToUpper(strings.TrimSpace(raw)))
	if !validIntents[intent] {
		return IntentResult{}, false
	}
	if confidence(obj) < AmountConfidenceThreshold {
		return IntentResult{}, false
	}
	reply, _ := stringField(obj, "reply")
	return IntentResult{Intent: intent, Reply: reply}, true
}
