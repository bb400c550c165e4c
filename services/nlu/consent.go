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

// ConsentConfidenceThreshold gates oracle-sourced consent. Higher than
// the amount threshold: agreeing to bureau checks on a guess is not
// acceptable.
const ConsentConfidenceThreshold = 0.7

var (
	hedgePattern       = regexp.MustCompile(`\b(maybe|i guess|probably|might|possibly|not sure|unsure|don'?t know|dunno|no idea)\b`)
	negativePattern    = regexp.MustCompile(`\b(no|nope|nah|never|don'?t|do not|not (?:ok(?:ay)?|fine|interested|comfortable)|rather not|refuse|decline|stop|cancel)\b`)
	affirmativePattern = regexp.MustCompile(`\b(yes|yep|yeah|ok|okay|sure|agree|agreed|i do|i agree|consent|proceed|go ahead)\b`)
)

// ExtractConsent resolves an explicit yes/no from free text.
//
// Clear lexical affirmatives and negatives are authoritative and never
// overridden by the oracle. Hedging language ("maybe", "I guess") is
// unresolved by definition: consent must be explicit. The hedge check
// runs first because "not sure" would otherwise read as a negative, and
// negatives run before affirmatives so "not okay" never reads as
// consent off its trailing "okay".
//
// Returns (value, true) when resolved; (false, false) when unresolved.
func ExtractConsent(ctx context.Context, oracle *Oracle, text string) (bool, bool) {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return false, false
	}

	if hedgePattern.MatchString(t) {
		return false, false
	}
	if negativePattern.MatchString(t) {
		return false, true
	}
	if affirmativePattern.MatchString(t) {
		return true, true
	}

	return extractConsentOracle(ctx, oracle, text)
}

func extractConsentOracle(ctx context.Context, oracle *Oracle, text string) (bool, bool) {
	prompt := `Decide if the user is consenting to proceed with a loan application.

User text:
"""` + text + `"""

Return ONLY valid JSON:
{"consent": true, "confidence": number} or {"consent": false, "confidence": number} or {"consent": null, "confidence": 0}

Rules:
- confidence is your certainty between 0 and 1
- If the user hedges ("I don't know", "maybe"), return null with confidence 0. Never guess.`

	obj, ok := oracle.queryJSON(ctx, prompt)
	if !ok {
		return false, false
	}
	value, ok := boolField(obj, "consent")
	if !ok {
		return false, false
	}
	if confidence(obj) < ConsentConfidenceThreshold {
		return false, false
	}
	return value, true
}
