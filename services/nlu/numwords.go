// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package nlu

import (
	"regexp"
	"strings"
)

// scaleMultipliers maps scale tokens to their multiplier. Includes the
// South Asian units alongside the western short forms.
var scaleMultipliers = map[string]int64{
	"k":        1_000,
	"thousand": 1_000,
	"lakh":     100_000,
	"lakhs":    100_000,
	"lac":      100_000,
	"lacs":     100_000,
	"m":        1_000_000,
	"million":  1_000_000,
	"cr":       10_000_000,
	"crore":    10_000_000,
	"crores":   10_000_000,
	"billion":  1_000_000_000,
}

// cardinalWords covers the English cardinals up to ninety-nine, the
// upper bound of the supported number-word grammar.
var cardinalWords = map[string]int64{
	"zero": 0, "one": 1, "two": 2, "three": 3, "four": 4,
	"five": 5, "six": 6, "seven": 7, "eight": 8, "nine": 9,
	"ten": 10, "eleven": 11, "twelve": 12, "thirteen": 13,
	"fourteen": 14, "fifteen": 15, "sixteen": 16, "seventeen": 17,
	"eighteen": 18, "nineteen": 19, "twenty": 20, "thirty": 30,
	"forty": 40, "fifty": 50, "sixty": 60, "seventy": 70,
	"eighty": 80, "ninety": 90,
}

var wordSplitter = regexp.MustCompile(`[\s-]+`)

// wordsToNumber parses a constrained number-word phrase:
// an optional cardinal up to ninety-nine, an optional "hundred", and at
// most one scale word ("four lakh", "twenty five thousand",
// "hundred thousand", "two million").
//
// The grammar is intentionally conservative: any unknown token, a second
// scale word, or a second cardinal group aborts the parse. Guessing a
// monetary amount is worse than asking again.
func wordsToNumber(text string) (int64, bool) {
	tokens := wordSplitter.Split(strings.TrimSpace(strings.ToLower(text)), -1)
	if len(tokens) == 0 || tokens[0] == "" {
		return 0, false
	}

	var cardinal int64
	sawCardinal := false
	sawHundred := false
	var scale int64
	sawScale := false

	for _, tok := range tokens {
		switch {
		case tok == "hundred":
			if sawHundred || sawScale {
				return 0, false
			}
			sawHundred = true
		case scaleMultipliers[tok] != 0:
			if sawScale {
				// Two scale words ("million billion") is out of
				// grammar, never a guess.
				return 0, false
			}
			scale = scaleMultipliers[tok]
			sawScale = true
		default:
			v, known := cardinalWords[tok]
			if !known {
				return 0, false
			}
			if sawHundred || sawScale {
				// Cardinal after the scale ("lakh five") is rejected.
				return 0, false
			}
			if sawCardinal && cardinal%10 != 0 {
				// "twenty five" composes; "five five" does not.
				return 0, false
			}
			cardinal += v
			sawCardinal = true
		}
	}

	value := cardinal
	if !sawCardinal {
		if !sawHundred && !sawScale {
			return 0, false
		}
		value = 1 // "hundred thousand", "lakh"
	}
	if sawHundred {
		value *= 100
	}
	if sawScale {
		value *= scale
	}
	if value <= 0 {
		return 0, false
	}
	return value, true
}
