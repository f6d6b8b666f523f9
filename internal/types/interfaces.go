package types

import "context"

// LLMClient defines the narrow interface every LLM provider implements.
// All nondeterminism is isolated behind this boundary so tests can substitute
// a deterministic stub.
type LLMClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
	CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// ContextProvider supplies prior entity knowledge (known contacts, accounts)
// to reduce clarification frequency. Read-only from the pipeline's perspective.
type ContextProvider interface {
	GetContext(ctx context.Context, userID string) (KnowledgeGraphContext, error)
}

// TaskStore is the persistence boundary the finalizer hands off to.
// Save mints nothing; the pipeline assigns task IDs before saving.
type TaskStore interface {
	SaveSession(ctx context.Context, s *Session) error
	UpdateSession(ctx context.Context, s *Session) error
	GetSession(ctx context.Context, taskID string) (*Session, error)
}
