// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package nlu

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jinterlante1206/LoanFlowLocal/services/llm"
)

// stubLLM implements llm.LLMClient with a canned response.
type stubLLM struct {
	out string
	err error
}

func (s *stubLLM) Generate(ctx context.Context, prompt string, params llm.GenerationParams) (string, error) {
	return s.out, s.err
}

func oracleWith(out string, err error) *Oracle {
	return NewOracle(&stubLLM{out: out, err: err}, time.Second)
}

// noOracle is the rules-only degraded mode.
var noOracle = NewOracle(nil, 0)

func TestParseAmountRules(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int64
		ok   bool
	}{
		{"canonical integer", "400000", 400000, true},
		{"integer with commas", "4,00,000", 400000, true},
		{"rupee symbol", "₹400000", 400000, true},
		{"lakh", "4 lakh", 400000, true},
		{"lakh equivalence", "4 lakh", 400000, true},
		{"lakhs plural", "2 lakhs", 200000, true},
		{"crore", "1 crore", 10_000_000, true},
		{"k suffix", "100k", 100_000, true},
		{"m suffix", "1m", 1_000_000, true},
		{"decimal scale", "2.5 lakh", 250_000, true},
		{"decimal prefix scale", ".9 million", 900_000, true},
		{"compound scale fails", "4 million billion", 0, false},
		{"embedded in sentence", "i need 4 lakh please", 400000, true},
		{"number words", "four lakh", 400000, true},
		{"number words composed", "twenty five thousand", 25_000, true},
		{"hundred thousand", "hundred thousand", 100_000, true},
		{"bare scale word", "lakh", 100_000, true},
		{"word compound fails", "four million billion", 0, false},
		{"no amount", "i am not sure", 0, false},
		{"empty", "", 0, false},
		{"zero", "0", 0, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := parseAmountRules(tc.text)
			if got != tc.want || ok != tc.ok {
				t.Errorf("parseAmountRules(%q) = (%d, %v), want (%d, %v)", tc.text, got, ok, tc.want, tc.ok)
			}
		})
	}
}

func TestExtractAmount_Idempotent(t *testing.T) {
	ctx := context.Background()
	first, ok := ExtractAmount(ctx, noOracle, "400000")
	if !ok || first != 400000 {
		t.Fatalf("expected 400000, got (%d, %v)", first, ok)
	}
	second, ok := ExtractAmount(ctx, noOracle, "400000")
	if !ok || second != first {
		t.Errorf("extraction not idempotent: %d vs %d", first, second)
	}
	lakh, _ := ExtractAmount(ctx, noOracle, "4 lakh")
	if lakh != first {
		t.Errorf("unit-multiplier equivalence violated: %d vs %d", lakh, first)
	}
}

func TestExtractAmount_OracleFallback(t *testing.T) {
	ctx := context.Background()

	t.Run("accepts confident answer", func(t *testing.T) {
		o := oracleWith(`{"amount": 500000, "confidence": 0.9}`, nil)
		got, ok := ExtractAmount(ctx, o, "about half a million i think")
		if !ok || got != 500000 {
			t.Errorf("got (%d, %v), want (500000, true)", got, ok)
		}
	})

	t.Run("rejects low confidence", func(t *testing.T) {
		o := oracleWith(`{"amount": 500000, "confidence": 0.3}`, nil)
		if _, ok := ExtractAmount(ctx, o, "some money maybe"); ok {
			t.Error("low-confidence answer should be unresolved")
		}
	})

	t.Run("rejects missing confidence", func(t *testing.T) {
		o := oracleWith(`{"amount": 500000}`, nil)
		if _, ok := ExtractAmount(ctx, o, "some money"); ok {
			t.Error("answer without confidence should be unresolved")
		}
	})

	t.Run("rejects null amount", func(t *testing.T) {
		o := oracleWith(`{"amount": null, "confidence": 0}`, nil)
		if _, ok := ExtractAmount(ctx, o, "whatever you suggest"); ok {
			t.Error("null amount should be unresolved")
		}
	})

	t.Run("rejects wrong type", func(t *testing.T) {
		o := oracleWith(`{"amount": "lots", "confidence": 0.9}`, nil)
		if _, ok := ExtractAmount(ctx, o, "lots of money"); ok {
			t.Error("non-numeric amount should be unresolved")
		}
	})

	t.Run("transport failure is unresolved", func(t *testing.T) {
		o := oracleWith("", errors.New("connection refused"))
		if _, ok := ExtractAmount(ctx, o, "some money"); ok {
			t.Error("transport failure should be unresolved")
		}
	})

	t.Run("garbage output is unresolved", func(t *testing.T) {
		o := oracleWith("the amount is probably five hundred thousand", nil)
		if _, ok := ExtractAmount(ctx, o, "some money"); ok {
			t.Error("non-JSON output should be unresolved")
		}
	})

	t.Run("deterministic rules win over oracle", func(t *testing.T) {
		o := oracleWith(`{"amount": 999, "confidence": 1}`, nil)
		got, ok := ExtractAmount(ctx, o, "4 lakh")
		if !ok || got != 400000 {
			t.Errorf("rules should take precedence, got (%d, %v)", got, ok)
		}
	})

	t.Run("nil oracle", func(t *testing.T) {
		if _, ok := ExtractAmount(ctx, nil, "half a million"); ok {
			t.Error("nil oracle should be unresolved for out-of-grammar input")
		}
	})
}

func TestExtractConsent(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name  string
		text  string
		value bool
		ok    bool
	}{
		{"plain yes", "yes", true, true},
		{"plain no", "no", false, true},
		{"i agree", "I agree, go ahead", true, true},
		{"okay", "okay", true, true},
		{"refusal", "I don't want this", false, true},
		{"not okay", "that is not okay", false, true},
		{"not ok", "not ok", false, true},
		{"not interested", "I'm not interested, thanks", false, true},
		{"rather not", "I'd rather not proceed", false, true},
		{"hedge maybe", "maybe", false, false},
		{"hedge i guess", "i guess so", false, false},
		{"hedge not sure", "I'm not sure", false, false},
		{"empty", "", false, false},
		{"unrelated", "what a lovely day", false, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			value, ok := ExtractConsent(ctx, noOracle, tc.text)
			if value != tc.value || ok != tc.ok {
				t.Errorf("ExtractConsent(%q) = (%v, %v), want (%v, %v)", tc.text, value, ok, tc.value, tc.ok)
			}
		})
	}

	t.Run("oracle resolves paraphrase", func(t *testing.T) {
		o := oracleWith(`{"consent": true, "confidence": 0.95}`, nil)
		value, ok := ExtractConsent(ctx, o, "you have my blessing to run the checks")
		if !ok || !value {
			t.Errorf("got (%v, %v), want (true, true)", value, ok)
		}
	})

	t.Run("oracle null stays unresolved", func(t *testing.T) {
		o := oracleWith(`{"consent": null, "confidence": 0}`, nil)
		if _, ok := ExtractConsent(ctx, o, "hmm interesting question"); ok {
			t.Error("null consent should stay unresolved")
		}
	})

	t.Run("lexical negative beats oracle", func(t *testing.T) {
		o := oracleWith(`{"consent": true, "confidence": 1}`, nil)
		value, ok := ExtractConsent(ctx, o, "no")
		if !ok || value {
			t.Error("lexical negative must be authoritative")
		}
	})
}

func TestExtractCustomerID(t *testing.T) {
	ctx := context.Background()

	if id, ok := ExtractCustomerID(ctx, noOracle, "my id is cust001"); !ok || id != "CUST001" {
		t.Errorf("got (%q, %v), want (CUST001, true)", id, ok)
	}
	if _, ok := ExtractCustomerID(ctx, noOracle, "i forgot it"); ok {
		t.Error("absent identifier should be unresolved")
	}

	t.Run("oracle answer is validated", func(t *testing.T) {
		o := oracleWith(`{"customer_id": "CLIENT-12", "confidence": 0.99}`, nil)
		if _, ok := ExtractCustomerID(ctx, o, "client twelve"); ok {
			t.Error("syntactically invalid oracle answer must be rejected")
		}
	})

	t.Run("oracle answer accepted when valid", func(t *testing.T) {
		o := oracleWith(`{"customer_id": "cust042", "confidence": 0.9}`, nil)
		id, ok := ExtractCustomerID(ctx, o, "customer forty two")
		if !ok || id != "CUST042" {
			t.Errorf("got (%q, %v), want (CUST042, true)", id, ok)
		}
	})
}

func TestClassifyIntent(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		text string
		want Intent
	}{
		{"empty is confusion", "", IntentConfusion},
		{"meta question", "what is this service", IntentMeta},
		{"process question", "why do you need my consent", IntentProcess},
		{"consent token", "yes", IntentSlotValue},
		{"hedged consent", "maybe yes", IntentConfusion},
		{"amount", "4 lakh", IntentSlotValue},
		{"customer id", "CUST001", IntentSlotValue},
		{"greeting", "hello there", IntentChitchat},
		{"junk without oracle", "the weather is nice today", IntentOutOfScope},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ClassifyIntent(ctx, noOracle, tc.text, "CONSENT")
			if got.Intent != tc.want {
				t.Errorf("ClassifyIntent(%q) = %s, want %s", tc.text, got.Intent, tc.want)
			}
		})
	}

	t.Run("oracle classifies the leftovers", func(t *testing.T) {
		o := oracleWith(`{"intent": "PROCESS", "reply": "To run your credit checks.", "confidence": 0.8}`, nil)
		got := ClassifyIntent(ctx, o, "what happens with my data afterwards", "CONSENT")
		if got.Intent != IntentProcess {
			t.Errorf("got %s, want PROCESS", got.Intent)
		}
		if got.Reply == "" {
			t.Error("expected oracle reply to be carried through")
		}
	})

	t.Run("invalid oracle intent is discarded", func(t *testing.T) {
		o := oracleWith(`{"intent": "BANANA", "confidence": 1}`, nil)
		got := ClassifyIntent(ctx, o, "something or other entirely", "CONSENT")
		if got.Intent != IntentOutOfScope {
			t.Errorf("got %s, want OUT_OF_SCOPE fallback", got.Intent)
		}
	})
}

func TestOracle_Rewrite(t *testing.T) {
	t.Run("unavailable", func(t *testing.T) {
		if _, ok := noOracle.Rewrite(context.Background(), "hello", "friendly"); ok {
			t.Error("nil-backend rewrite should report unavailable")
		}
	})
	t.Run("first line only", func(t *testing.T) {
		o := oracleWith("Short and friendly!\nAnd some rambling.", nil)
		got, ok := o.Rewrite(context.Background(), "hello", "friendly")
		if !ok || got != "Short and friendly!" {
			t.Errorf("got (%q, %v)", got, ok)
		}
	})
}
