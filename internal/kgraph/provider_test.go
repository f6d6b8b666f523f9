package kgraph

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEntityStore struct {
	entities map[string]map[string][]string
	err      error
}

func (f *fakeEntityStore) GetEntities(ctx context.Context, userID string) (map[string][]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.entities[userID], nil
}

func (f *fakeEntityStore) AddEntity(ctx context.Context, userID, field, value string) error {
	if f.err != nil {
		return f.err
	}
	if f.entities == nil {
		f.entities = map[string]map[string][]string{}
	}
	if f.entities[userID] == nil {
		f.entities[userID] = map[string][]string{}
	}
	f.entities[userID][field] = append(f.entities[userID][field], value)
	return nil
}

func TestGetContextSplitsKnownAndCandidates(t *testing.T) {
	store := &fakeEntityStore{entities: map[string]map[string][]string{
		"u1": {
			"email_recipient": {"sara@company.com"},
			"phone_number":    {"555-0100", "555-0101"},
		},
	}}
	p := NewProvider(store)

	kg, err := p.GetContext(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"email_recipient": "sara@company.com"}, kg.Known)
	assert.Equal(t, map[string][]string{"phone_number": {"555-0100", "555-0101"}}, kg.Candidates)
}

func TestGetContextAnonymousUser(t *testing.T) {
	p := NewProvider(&fakeEntityStore{err: errors.New("must not be called")})

	kg, err := p.GetContext(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, kg.Known)
	assert.Empty(t, kg.Candidates)
}

func TestGetContextPropagatesStoreError(t *testing.T) {
	p := NewProvider(&fakeEntityStore{err: errors.New("disk gone")})

	_, err := p.GetContext(context.Background(), "u1")
	assert.Error(t, err)
}

func TestLearnThenResolveSilently(t *testing.T) {
	store := &fakeEntityStore{}
	p := NewProvider(store)

	require.NoError(t, p.Learn(context.Background(), "u1", "email_recipient", "sara@company.com"))

	kg, err := p.GetContext(context.Background(), "u1")
	require.NoError(t, err)
	v, ok := kg.KnownValue("email_recipient")
	assert.True(t, ok)
	assert.Equal(t, "sara@company.com", v)
}
