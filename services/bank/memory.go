// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package bank

import (
	"context"
	"sync"
	"time"
)

// fixtureCustomers is the demo CRM data set. The three customers cover
// the interesting underwriting outcomes: a strong salaried profile, a
// mid-tier profile, and a thin self-employed profile with delinquency
// history.
var fixtureCustomers = map[string]Profile{
	"CUST001": {
		CustomerID:       "CUST001",
		Name:             "Adarsh Verma",
		Segment:          "salaried",
		MonthlyIncome:    60000,
		ExistingEMI:      5000,
		PreApprovedLimit: 500000,
		PAN:              "ABCDE1234F",
	},
	"CUST002": {
		CustomerID:       "CUST002",
		Name:             "Neha Verma",
		Segment:          "salaried",
		MonthlyIncome:    40000,
		ExistingEMI:      8000,
		PreApprovedLimit: 200000,
		PAN:              "PQRSX5678Z",
	},
	"CUST003": {
		CustomerID:       "CUST003",
		Name:             "Kas Kla",
		Segment:          "self-employed",
		MonthlyIncome:    30000,
		ExistingEMI:      10000,
		PreApprovedLimit: 100000,
		PAN:              "LMNOP9876K",
	},
}

var fixtureBureau = map[string]BureauReport{
	"CUST001": {CustomerID: "CUST001", CreditScore: 780, DelinquencyFlags: []string{}},
	"CUST002": {CustomerID: "CUST002", CreditScore: 710, DelinquencyFlags: []string{}},
	"CUST003": {CustomerID: "CUST003", CreditScore: 620, DelinquencyFlags: []string{"high_delinquency_risk"}},
}

// MemoryBank serves the fixture data set from memory. It implements
// ProfileService, BureauService, and ConsentRecorder, and is the
// default backend for tests and the demo deployment.
type MemoryBank struct {
	mu       sync.RWMutex
	profiles map[string]Profile
	bureau   map[string]BureauReport
	consents []ConsentRecord
}

// NewMemoryBank returns a MemoryBank preloaded with the demo fixtures.
func NewMemoryBank() *MemoryBank {
	profiles := make(map[string]Profile, len(fixtureCustomers))
	for id, p := range fixtureCustomers {
		profiles[id] = p
	}
	bureau := make(map[string]BureauReport, len(fixtureBureau))
	for id, r := range fixtureBureau {
		bureau[id] = r
	}
	return &MemoryBank{profiles: profiles, bureau: bureau}
}

func (b *MemoryBank) GetProfile(ctx context.Context, customerID string) (*Profile, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	p, ok := b.profiles[customerID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := p
	return &copied, nil
}

func (b *MemoryBank) GetBureauReport(ctx context.Context, customerID string) (*BureauReport, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	r, ok := b.bureau[customerID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := r
	copied.DelinquencyFlags = append([]string(nil), r.DelinquencyFlags...)
	return &copied, nil
}

func (b *MemoryBank) RecordConsent(ctx context.Context, record ConsentRecord) error {
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now().UTC()
	}
	if record.Channel == "" {
		record.Channel = "chat"
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.consents = append(b.consents, record)
	return nil
}

// ConsentLog returns a copy of the recorded consent trail, newest last.
func (b *MemoryBank) ConsentLog() []ConsentRecord {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]ConsentRecord(nil), b.consents...)
}
