// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package bank

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound reports that the requested customer has no record in the
// backing system. Callers treat it as a non-fatal "absent" outcome, not
// a failure.
var ErrNotFound = errors.New("bank: customer record not found")

// Profile is a CRM snapshot of a customer. Monetary fields are monthly
// figures in INR.
type Profile struct {
	CustomerID       string `json:"customer_id"`
	Name             string `json:"name"`
	Segment          string `json:"segment"`
	MonthlyIncome    int64  `json:"monthly_income"`
	ExistingEMI      int64  `json:"existing_emi"`
	PreApprovedLimit int64  `json:"pre_approved_limit"`
	PAN              string `json:"pan"`
}

// BureauReport is a credit bureau snapshot of a customer.
type BureauReport struct {
	CustomerID       string   `json:"customer_id"`
	CreditScore      int      `json:"credit_score"`
	DelinquencyFlags []string `json:"delinquency_flags"`
}

// ProfileService fetches CRM profiles. Implementations return
// ErrNotFound for unknown customers and reserve other errors for
// transport or backend failures.
type ProfileService interface {
	GetProfile(ctx context.Context, customerID string) (*Profile, error)
}

// BureauService fetches credit bureau reports, with the same error
// contract as ProfileService.
type BureauService interface {
	GetBureauReport(ctx context.Context, customerID string) (*BureauReport, error)
}

// ConsentRecord is one entry in the consent audit trail.
type ConsentRecord struct {
	CustomerID  string    `json:"customer_id"`
	SessionID   string    `json:"session_id"`
	ConsentText string    `json:"consent_text"`
	Channel     string    `json:"channel"`
	Timestamp   time.Time `json:"timestamp"`
}

// ConsentRecorder persists consent events. Recording is best-effort
// from the dialogue's point of view: a failed write is logged by the
// caller but never blocks the application flow.
type ConsentRecorder interface {
	RecordConsent(ctx context.Context, record ConsentRecord) error
}
