// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package rules

import (
	_ "embed"
)

// InputGuardrailRules holds the raw byte content of the
// 'input_guardrail_rules.yaml' file.
//
// The rules are baked into the binary at compile time so that the
// screening policy is immutable at runtime and cannot be edited on the
// host filesystem without recompiling the application.
//
//go:embed input_guardrail_rules.yaml
var InputGuardrailRules []byte
