// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jinterlante1206/LoanFlowLocal/pkg/logging"
	"github.com/jinterlante1206/LoanFlowLocal/services/orchestrator/datatypes"
)

func getOrchestratorBaseURL() string {
	if serverURL != "" {
		return strings.TrimRight(serverURL, "/")
	}
	if env := os.Getenv("LOANFLOW_SERVER"); env != "" {
		return strings.TrimRight(env, "/")
	}
	return "http://localhost:12310"
}

// sendChatTurn posts one turn and decodes the reply.
func sendChatTurn(ctx context.Context, baseURL, sessionID, message string) (*datatypes.ChatResponse, error) {
	payload, err := json.Marshal(datatypes.ChatRequest{SessionID: sessionID, Message: message})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		baseURL+"/v1/chat", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 60 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("orchestrator returned %d: %s", resp.StatusCode, string(body))
	}

	var chatResp datatypes.ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, err
	}
	return &chatResp, nil
}

func runChatCommand(cmd *cobra.Command, args []string) {
	baseURL := getOrchestratorBaseURL()
	sessionID := resumeID

	// Quiet keeps stderr clean for the conversation; the file log (when
	// enabled) still records every turn.
	logger := logging.New(logging.Config{
		Service: "cli",
		LogDir:  logDir,
		Quiet:   true,
	})
	defer logger.Close()

	// Set up graceful shutdown with signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	fmt.Println("LoanFlow assistant. Type your message, or 'exit' to leave.")
	if sessionID != "" {
		fmt.Printf("Resuming session %s\n", sessionID)
	}
	fmt.Println("---")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("You: ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}

		resp, err := sendChatTurn(ctx, baseURL, sessionID, line)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			log.Fatalf("Chat error: %v", err)
		}

		sessionID = resp.SessionID
		fmt.Printf("\nAssistant: %s\n\n", resp.Reply)
		logger.Info("turn completed", "session_id", sessionID, "stage", resp.Stage, "done", resp.Done)

		if resp.Done {
			fmt.Printf("Conversation finished (%s). Session id: %s\n", resp.Stage, sessionID)
			return
		}
	}

	if sessionID != "" {
		fmt.Printf("\nSession id: %s (resume with --resume %s)\n", sessionID, sessionID)
	}
}
