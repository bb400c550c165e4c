// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package nlu

import (
	"context"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// AmountConfidenceThreshold gates oracle-sourced amounts. Monetary values
// carry the lowest threshold of the three slots because a wrong amount is
// caught again at the range check.
const AmountConfidenceThreshold = 0.6

// digitWithScale matches "4 lakh", "100k", "2.5 crore", ".9 million".
var digitWithScale = regexp.MustCompile(`(\d*\.?\d+)\s*(k|m|cr|crore|crores|lakh|lakhs|lac|lacs|thousand|million|billion)\b`)

// bareInteger matches a plain amount like "400000".
var bareInteger = regexp.MustCompile(`\b\d{1,12}\b`)

// scaleWord is used to detect compound scale expressions after a match.
var scaleWord = regexp.MustCompile(`\b(k|m|cr|crore|crores|lakh|lakhs|lac|lacs|thousand|million|billion)\b`)

// ExtractAmount resolves a monetary amount from free text.
//
// Deterministic rules run first: digit-plus-scale expressions, bare
// integers, then the number-word grammar. The oracle is consulted only
// when the rules find nothing, and its answer must pass schema
// validation and the confidence gate. Returns the amount in whole
// currency units and true, or 0 and false when unresolved.
func ExtractAmount(ctx context.Context, oracle *Oracle, text string) (int64, bool) {
	if amount, ok := parseAmountRules(text); ok {
		return amount, true
	}
	return extractAmountOracle(ctx, oracle, text)
}

// parseAmountRules is the pure deterministic layer. Exposed to tests via
// the package; it has no fallback behavior of its own.
func parseAmountRules(text string) (int64, bool) {
	t := normalizeAmountText(text)
	if t == "" {
		return 0, false
	}

	// Digit + scale, e.g. "4 lakh", "100k", ".9 million".
	if m := digitWithScale.FindStringSubmatchIndex(t); m != nil {
		numStr := t[m[2]:m[3]]
		unit := t[m[4]:m[5]]
		rest := t[m[1]:]
		// A second scale word after the match ("4 million billion")
		// makes the expression ambiguous. Fail, never guess.
		if scaleWord.MatchString(rest) {
			return 0, false
		}
		num, err := strconv.ParseFloat(numStr, 64)
		if err != nil {
			return 0, false
		}
		mult := scaleMultipliers[unit]
		if mult == 0 {
			return 0, false
		}
		value := num * float64(mult)
		if value <= 0 || value > math.MaxInt64/2 {
			return 0, false
		}
		return int64(math.Round(value)), true
	}

	// Bare integer, e.g. "400000". First match wins.
	if m := bareInteger.FindString(t); m != "" {
		value, err := strconv.ParseInt(m, 10, 64)
		if err != nil || value <= 0 {
			return 0, false
		}
		return value, true
	}

	// Constrained number-word grammar, e.g. "four lakh".
	return wordsToNumber(t)
}

// normalizeAmountText lowercases and strips currency punctuation so the
// grammar sees "₹4,00,000" as "400000".
func normalizeAmountText(text string) string {
	t := strings.ToLower(strings.TrimSpace(text))
	t = strings.ReplaceAll(t, ",", "")
	t = strings.ReplaceAll(t, "₹", "")
	t = strings.ReplaceAll(t, "rs.", "")
	return strings.TrimSpace(t)
}

func extractAmountOracle(ctx context.Context, oracle *Oracle, text string) (int64, bool) {
	prompt := `Extract the loan amount in INR from the user's text.

User text:
"""` + text + `"""

Return ONLY valid JSON:
{"amount": number, "confidence": number} or {"amount": null, "confidence": 0}

Guidelines:
- Interpret 'lakh' as 100000, 'crore' as 10000000, 'million' as 1000000
- Accept short forms like '100k', '1m', '.9 million'
- confidence is your certainty between 0 and 1
- If ambiguous, return null with confidence 0`

	obj, ok := oracle.queryJSON(ctx, prompt)
	if !ok {
		return 0, false
	}
	amount, ok := numberField(obj, "amount")
	if !ok || amount <= 0 || amount > math.MaxInt64/2 {
		return 0, false
	}
	if confidence(obj) < AmountConfidenceThreshold {
		return 0, false
	}
	return int64(math.Round(amount)), true
}
