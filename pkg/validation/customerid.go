// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package validation provides input validation utilities for security-critical operations.
//
// This package contains validators for user-provided inputs that end up in
// CRM lookups, bureau queries, and session records. Using these validators
// prevents injection attacks and keeps malformed identifiers out of the
// downstream collaborators.
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// customerIDPattern matches a canonical customer identifier:
// the fixed "CUST" prefix followed by exactly three digits.
var customerIDPattern = regexp.MustCompile(`^CUST\d{3}$`)

// embeddedIDPattern finds a customer identifier anywhere in free text,
// so "my id is cust042 thanks" still resolves.
var embeddedIDPattern = regexp.MustCompile(`CUST\d{3}`)

// ValidateCustomerID validates a customer identifier.
//
// Valid identifiers are exactly "CUST" followed by three digits (CUST001).
// The check is independent of where the value came from: rule-based
// extraction and classifier output both pass through here before a value
// is accepted into the session.
//
// Returns an error if the identifier is invalid.
//
// Example:
//
//	if err := validation.ValidateCustomerID(id); err != nil {
//	    return "", fmt.Errorf("invalid customer id: %w", err)
//	}
func ValidateCustomerID(id string) error {
	if id == "" {
		return fmt.Errorf("customer id cannot be empty")
	}

	if !customerIDPattern.MatchString(id) {
		return fmt.Errorf("invalid customer id format: %q (expected CUST followed by 3 digits, e.g. CUST001)", id)
	}

	return nil
}

// SanitizeCustomerID normalizes and validates a customer identifier.
// Returns the uppercase identifier if valid, or an error if invalid.
func SanitizeCustomerID(id string) (string, error) {
	normalized := strings.ToUpper(strings.TrimSpace(id))
	if err := ValidateCustomerID(normalized); err != nil {
		return "", err
	}
	return normalized, nil
}

// FindCustomerID scans free text for an embedded customer identifier.
//
// The input is uppercased first, so "cust001" and "CUST001" both match.
// Returns the first match and true, or "" and false when no identifier
// is present.
func FindCustomerID(text string) (string, bool) {
	match := embeddedIDPattern.FindString(strings.ToUpper(text))
	if match == "" {
		return "", false
	}
	return match, true
}
