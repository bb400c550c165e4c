// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package bank

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMemoryBank_Profiles(t *testing.T) {
	b := NewMemoryBank()
	ctx := context.Background()

	p, err := b.GetProfile(ctx, "CUST001")
	if err != nil {
		t.Fatalf("GetProfile(CUST001): %v", err)
	}
	if p.Name != "Adarsh Verma" || p.MonthlyIncome != 60000 || p.ExistingEMI != 5000 {
		t.Errorf("unexpected CUST001 profile: %+v", p)
	}

	if _, err := b.GetProfile(ctx, "CUST999"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown customer: got %v, want ErrNotFound", err)
	}

	// Mutating the returned copy must not affect the fixture.
	p.MonthlyIncome = 1
	again, _ := b.GetProfile(ctx, "CUST001")
	if again.MonthlyIncome != 60000 {
		t.Error("GetProfile must return a copy")
	}
}

func TestMemoryBank_Bureau(t *testing.T) {
	b := NewMemoryBank()
	ctx := context.Background()

	tests := []struct {
		customerID string
		score      int
		flags      int
	}{
		{"CUST001", 780, 0},
		{"CUST002", 710, 0},
		{"CUST003", 620, 1},
	}
	for _, tc := range tests {
		r, err := b.GetBureauReport(ctx, tc.customerID)
		if err != nil {
			t.Fatalf("GetBureauReport(%s): %v", tc.customerID, err)
		}
		if r.CreditScore != tc.score || len(r.DelinquencyFlags) != tc.flags {
			t.Errorf("%s: got score=%d flags=%v", tc.customerID, r.CreditScore, r.DelinquencyFlags)
		}
	}

	if _, err := b.GetBureauReport(ctx, "CUST999"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown customer: got %v, want ErrNotFound", err)
	}
}

func TestMemoryBank_ConsentLog(t *testing.T) {
	b := NewMemoryBank()
	err := b.RecordConsent(context.Background(), ConsentRecord{
		CustomerID:  "CUST001",
		SessionID:   "s1",
		ConsentText: "yes, go ahead",
	})
	if err != nil {
		t.Fatalf("RecordConsent: %v", err)
	}
	log := b.ConsentLog()
	if len(log) != 1 {
		t.Fatalf("consent log has %d entries, want 1", len(log))
	}
	entry := log[0]
	if entry.Channel != "chat" {
		t.Errorf("default channel = %q, want chat", entry.Channel)
	}
	if entry.Timestamp.IsZero() {
		t.Error("timestamp should be stamped on record")
	}
}

func TestHTTPBank(t *testing.T) {
	backend := NewMemoryBank()
	mux := http.NewServeMux()
	mux.HandleFunc("/mock/crm/", func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Path[len("/mock/crm/"):]
		p, err := backend.GetProfile(r.Context(), id)
		if err != nil {
			http.Error(w, "Customer not found", http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(p)
	})
	mux.HandleFunc("/mock/bureau/", func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Path[len("/mock/bureau/"):]
		rep, err := backend.GetBureauReport(r.Context(), id)
		if err != nil {
			http.Error(w, "Bureau report not found", http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(rep)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewHTTPBank(server.URL)
	ctx := context.Background()

	p, err := client.GetProfile(ctx, "CUST002")
	if err != nil {
		t.Fatalf("GetProfile over HTTP: %v", err)
	}
	if p.MonthlyIncome != 40000 || p.ExistingEMI != 8000 {
		t.Errorf("unexpected profile over HTTP: %+v", p)
	}

	r, err := client.GetBureauReport(ctx, "CUST003")
	if err != nil {
		t.Fatalf("GetBureauReport over HTTP: %v", err)
	}
	if r.CreditScore != 620 {
		t.Errorf("score = %d, want 620", r.CreditScore)
	}

	if _, err := client.GetProfile(ctx, "CUST999"); !errors.Is(err, ErrNotFound) {
		t.Errorf("404 should map to ErrNotFound, got %v", err)
	}
}
