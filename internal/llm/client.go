// Package llm provides LLM provider clients behind the narrow types.LLMClient
// interface, plus JSON completion helpers and a bounded call scheduler.
// Every nondeterministic call the pipeline makes goes through this package.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"

	"focusflow/internal/types"
)

// Client is the provider interface. Alias to types.LLMClient so the pipeline
// depends on types only.
type Client = types.LLMClient

// CompleteJSON issues a completion and unmarshals the first JSON object found
// in the response into out. Transport failures come back as
// *types.TransientLLMError; malformed or missing JSON as
// *types.SchemaValidationError. The stage name is carried for logging.
func CompleteJSON(ctx context.Context, c Client, stage, systemPrompt, userPrompt string, out interface{}) error {
	resp, err := c.CompleteWithSystem(ctx, systemPrompt, userPrompt)
	if err != nil {
		if errors.Is(err, types.ErrServiceBusy) {
			return err
		}
		return &types.TransientLLMError{Stage: stage, Err: err}
	}

	jsonStr := ExtractJSON(resp)
	if jsonStr == "" {
		return &types.SchemaValidationError{Stage: stage, Err: fmt.Errorf("no JSON found in response")}
	}
	if err := json.Unmarshal([]byte(jsonStr), out); err != nil {
		return &types.SchemaValidationError{Stage: stage, Err: err}
	}
	return nil
}

// ExtractJSON finds the first JSON object in a response, tolerating markdown
// fences and surrounding prose.
func ExtractJSON(response string) string {
	return extractBalanced(response, '{', '}')
}

// ExtractJSONArray finds the first JSON array in a response.
func ExtractJSONArray(response string) string {
	return extractBalanced(response, '[', ']')
}

func extractBalanced(response string, open, close byte) string {
	start := strings.IndexByte(response, open)
	if start == -1 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(response); i++ {
		ch := response[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return response[start : i+1]
			}
		}
	}
	return ""
}

// IsTransient reports whether an error from a provider is worth one retry:
// timeouts, temporary network failures, and context deadline expiry.
// Cancellation by the caller is not transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	var te *types.TransientLLMError
	return errors.As(err, &te)
}
