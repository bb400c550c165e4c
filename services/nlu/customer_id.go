// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package nlu

import (
	"context"

	"github.com/jinterlante1206/LoanFlowLocal/pkg/validation"
)

// CustomerIDConfidenceThreshold gates oracle-sourced identifiers. The
// value also passes the syntactic validator, so the gate mostly filters
// hallucinated-but-well-formed IDs.
const CustomerIDConfidenceThreshold = 0.7

// ExtractCustomerID resolves a customer identifier from free text.
//
// The deterministic scan finds CUST-prefixed identifiers anywhere in the
// input, case-insensitively. The oracle fallback handles paraphrases
// ("it's customer zero zero one... CUST001 I think"). Every candidate,
// regardless of source, must pass validation.ValidateCustomerID.
func ExtractCustomerID(ctx context.Context, oracle *Oracle, text string) (string, bool) {
	if id, ok := validation.FindCustomerID(text); ok {
		return id, true
	}

	prompt := `Extract the customer ID from the user's text. Customer IDs look like CUST001 (the prefix CUST followed by 3 digits).

User text:
"""` + text + `"""

Return ONLY valid JSON:
{"customer_id": "CUSTxxx", "confidence": number} or {"customer_id": null, "confidence": 0}

confidence is your certainty between 0 and 1. If no customer ID is present, return null.`

	obj, ok := oracle.queryJSON(ctx, prompt)
	if !ok {
		return "", false
	}
	raw, ok := stringField(obj, "customer_id")
	if !ok {
		return "", false
	}
	if confidence(obj) < CustomerIDConfidenceThreshold {
		return "", false
	}
	id, err := validation.SanitizeCustomerID(raw)
	if err != nil {
		// Syntactic validity is non-negotiable, whatever the source.
		return "", false
	}
	return id, true
}
