// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Command orchestrator starts the LoanFlow dialogue orchestrator HTTP
// server. This is the entry point for the containerized service; see
// the server package for the environment variables it reads.
package main

import (
	"log"

	"github.com/jinterlante1206/LoanFlowLocal/services/orchestrator/server"
)

func main() {
	if err := server.Run(); err != nil {
		log.Fatalf("orchestrator: %v", err)
	}
}
