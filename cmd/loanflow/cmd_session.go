// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/jinterlante1206/LoanFlowLocal/services/orchestrator/datatypes"
)

func runSessionHistoryCommand(cmd *cobra.Command, args []string) {
	sessionID := args[0]
	url := fmt.Sprintf("%s/v1/sessions/%s/history", getOrchestratorBaseURL(), sessionID)

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		log.Fatalf("Communication failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		log.Fatalf("Session %s not found", sessionID)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		log.Fatalf("Orchestrator Error: %s", string(body))
	}

	var history datatypes.SessionHistoryResponse
	if err := json.NewDecoder(resp.Body).Decode(&history); err != nil {
		log.Fatalf("Failed to decode history: %v", err)
	}

	fmt.Printf("Session %s (stage: %s, done: %t)\n---\n", history.SessionID, history.Stage, history.Done)
	for _, turn := range history.History {
		fmt.Printf("[%s] %s: %s\n", turn.Timestamp.Format(time.RFC3339), turn.Role, turn.Content)
	}
}

func runSessionDeleteCommand(cmd *cobra.Command, args []string) {
	sessionID := args[0]
	url := fmt.Sprintf("%s/v1/sessions/%s", getOrchestratorBaseURL(), sessionID)

	req, err := http.NewRequest(http.MethodDelete, url, nil)
	if err != nil {
		log.Fatalf("Failed to build request: %v", err)
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		log.Fatalf("Communication failed: %v", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNoContent:
		fmt.Printf("Deleted session %s\n", sessionID)
	case http.StatusNotFound:
		log.Fatalf("Session %s not found", sessionID)
	default:
		body, _ := io.ReadAll(resp.Body)
		log.Fatalf("Orchestrator Error: %s", string(body))
	}
}
