package config

import "time"

// LLMTimeouts centralizes timeout and budget configuration for LLM operations.
//
// In Go the shortest timeout in the chain wins: a generous HTTP client wrapped
// in a short per-call context still fails at the context deadline. All LLM
// call sites use PerCall as the canonical deadline.
type LLMTimeouts struct {
	// PerCall bounds a single LLM completion. When it fires, the stage falls
	// back to its deterministic heuristic rather than hanging the request.
	PerCall time.Duration `yaml:"per_call"`

	// MaxRetries is the retry count for transient failures. The parser is
	// further restricted to a single retry by contract.
	MaxRetries int `yaml:"max_retries"`

	// RetryBackoffBase is the base duration for exponential backoff.
	RetryBackoffBase time.Duration `yaml:"retry_backoff_base"`

	// RetryBackoffMax caps the backoff duration.
	RetryBackoffMax time.Duration `yaml:"retry_backoff_max"`

	// MaxConcurrentCalls caps in-flight completions across all requests.
	// Exceeding callers receive ErrServiceBusy instead of queueing forever.
	MaxConcurrentCalls int `yaml:"max_concurrent_calls"`

	// AcquireTimeout is how long a call waits for a concurrency slot before
	// giving up with ErrServiceBusy.
	AcquireTimeout time.Duration `yaml:"acquire_timeout"`
}

// DefaultLLMTimeouts returns the canonical timeouts.
func DefaultLLMTimeouts() LLMTimeouts {
	return LLMTimeouts{
		PerCall:            12 * time.Second,
		MaxRetries:         1,
		RetryBackoffBase:   500 * time.Millisecond,
		RetryBackoffMax:    2 * time.Second,
		MaxConcurrentCalls: 8,
		AcquireTimeout:     2 * time.Second,
	}
}
