// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/jinterlante1206/LoanFlowLocal/services/orchestrator/server"
)

func runServeCommand(cmd *cobra.Command, args []string) {
	if err := server.Run(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
