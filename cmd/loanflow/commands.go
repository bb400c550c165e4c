// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"github.com/spf13/cobra"
)

var (
	serverURL string
	resumeID  string
	logDir    string

	rootCmd = &cobra.Command{
		Use:   "loanflow",
		Short: "A cli for the LoanFlow personal loan assistant",
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the orchestrator HTTP service",
		Run:   runServeCommand,
	}

	chatCmd = &cobra.Command{
		Use:   "chat",
		Short: "Starts an interactive loan application conversation",
		Run:   runChatCommand,
	}

	sessionCmd = &cobra.Command{
		Use:   "session",
		Short: "Manage loan conversation sessions",
	}

	sessionHistoryCmd = &cobra.Command{
		Use:   "history [session_id]",
		Short: "Print the transcript of a session",
		Args:  cobra.ExactArgs(1),
		Run:   runSessionHistoryCommand,
	}

	sessionDeleteCmd = &cobra.Command{
		Use:   "delete [session_id]",
		Short: "Delete a specific session",
		Args:  cobra.ExactArgs(1),
		Run:   runSessionDeleteCommand,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", "",
		"Orchestrator base URL (default $LOANFLOW_SERVER or http://localhost:12310)")
	chatCmd.Flags().StringVar(&resumeID, "resume", "", "Resume an existing session by id")
	chatCmd.Flags().StringVar(&logDir, "log-dir", "", "Write a JSON turn log to this directory")

	sessionCmd.AddCommand(sessionHistoryCmd)
	sessionCmd.AddCommand(sessionDeleteCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(sessionCmd)
}
