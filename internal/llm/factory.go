package llm

import (
	"fmt"

	"focusflow/internal/config"
	"focusflow/internal/logging"
)

// NewClientFromConfig builds the configured provider client wrapped in the
// call scheduler. Returns (nil, nil) when the provider is "none" or unset;
// a nil client means every pipeline stage runs its deterministic fallback.
func NewClientFromConfig(cfg config.LLMConfig) (Client, error) {
	var inner Client

	switch cfg.Provider {
	case "", "none":
		logging.Boot("LLM provider disabled; pipeline runs in fallback mode")
		return nil, nil
	case "gemini":
		gc := DefaultGeminiConfig(cfg.APIKey)
		if cfg.Model != "" {
			gc.Model = cfg.Model
		}
		gc.Timeout = cfg.Timeouts.PerCall
		client, err := NewGeminiClient(gc)
		if err != nil {
			return nil, err
		}
		inner = client
	case "openai":
		oc := DefaultOpenAIConfig(cfg.APIKey)
		if cfg.Model != "" {
			oc.Model = cfg.Model
		}
		if cfg.BaseURL != "" {
			oc.BaseURL = cfg.BaseURL
		}
		oc.Timeout = cfg.Timeouts.PerCall
		inner = NewOpenAIClient(oc)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}

	logging.Boot("LLM provider initialized: %s", cfg.Provider)
	return NewScheduled(inner, int64(cfg.Timeouts.MaxConcurrentCalls), cfg.Timeouts.AcquireTimeout), nil
}
