// Package pipeline implements the capture and decomposition pipeline:
// normalize -> parse -> decompose -> classify -> clarify -> finalize, with a
// re-entrant resolve -> classify(scoped) -> finalize loop for clarifications.
//
// Every stage that calls the LLM absorbs failures at its own boundary and
// degrades to a deterministic heuristic; only input validation and an
// exhausted call budget ever surface to the caller.
package pipeline

import (
	"strings"

	"focusflow/internal/types"
)

// Normalize trims and validates raw capture text.
// Pure function: rejects empty/whitespace-only input and input longer than
// maxChars with a ValidationError.
func Normalize(raw string, maxChars int) (string, error) {
	if len(raw) > maxChars {
		return "", types.NewValidationError("text", "input exceeds maximum length of %d characters", maxChars)
	}

	text := strings.TrimSpace(raw)
	if text == "" {
		return "", types.NewValidationError("text", "input is empty")
	}

	// Collapse internal runs of whitespace so downstream prompts and keyword
	// matching see one canonical form.
	text = strings.Join(strings.Fields(text), " ")
	return text, nil
}
