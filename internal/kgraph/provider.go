// Package kgraph turns the store's learned entities into the prior-knowledge
// context the pipeline consults before asking the user anything.
package kgraph

import (
	"context"

	"focusflow/internal/logging"
	"focusflow/internal/types"
)

// EntityStore is the slice of the task store the provider needs.
type EntityStore interface {
	GetEntities(ctx context.Context, userID string) (map[string][]string, error)
	AddEntity(ctx context.Context, userID, field, value string) error
}

// Provider implements types.ContextProvider over stored entities.
// A field with exactly one recorded value resolves silently; a field with
// several becomes candidate options on the clarification question.
type Provider struct {
	store EntityStore
}

// NewProvider creates a provider backed by the given entity store.
func NewProvider(store EntityStore) *Provider {
	return &Provider{store: store}
}

// GetContext builds the knowledge context for a user.
func (p *Provider) GetContext(ctx context.Context, userID string) (types.KnowledgeGraphContext, error) {
	kg := types.KnowledgeGraphContext{UserID: userID}
	if userID == "" {
		return kg, nil
	}

	entities, err := p.store.GetEntities(ctx, userID)
	if err != nil {
		return kg, err
	}

	for field, values := range entities {
		switch len(values) {
		case 0:
		case 1:
			if kg.Known == nil {
				kg.Known = map[string]string{}
			}
			kg.Known[field] = values[0]
		default:
			if kg.Candidates == nil {
				kg.Candidates = map[string][]string{}
			}
			kg.Candidates[field] = values
		}
	}

	logging.PipelineDebug("context for %q: %d known, %d candidate fields",
		userID, len(kg.Known), len(kg.Candidates))
	return kg, nil
}

// Learn records a clarification answer as a future entity value.
func (p *Provider) Learn(ctx context.Context, userID, field, value string) error {
	return p.store.AddEntity(ctx, userID, field, value)
}
