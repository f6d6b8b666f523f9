package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"focusflow/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedClient replays canned responses (or errors) call by call.
type scriptedClient struct {
	responses []string
	errs      []error
	calls     int
}

func (s *scriptedClient) Complete(ctx context.Context, prompt string) (string, error) {
	return s.CompleteWithSystem(ctx, "", prompt)
}

func (s *scriptedClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return "", s.errs[i]
	}
	if i < len(s.responses) {
		return s.responses[i], nil
	}
	return "", errors.New("unexpected llm call")
}

const parserGoodResponse = `{
	"action": "send",
	"object": "email",
	"target": "Sara",
	"confidence": 0.92,
	"title": "Send email to Sara about the project",
	"description": "Send Sara an email about the project.",
	"priority": "medium",
	"estimated_hours": 0.25,
	"tags": ["email"]
}`

func TestParserLLMPath(t *testing.T) {
	client := &scriptedClient{responses: []string{parserGoodResponse}}
	p := NewParser(client, time.Millisecond)

	intent, out, err := p.Parse(context.Background(), "Send email to Sara about the project", types.KnowledgeGraphContext{})
	require.NoError(t, err)
	assert.False(t, out.Fallback)
	assert.Equal(t, "send", intent.Action)
	assert.Equal(t, "Send email to Sara about the project", intent.Title)
	assert.Equal(t, types.PriorityMedium, intent.Priority)
	assert.Equal(t, 1, client.calls)
}

func TestParserRetriesOnceOnTransient(t *testing.T) {
	client := &scriptedClient{
		errs:      []error{errors.New("connection reset")},
		responses: []string{"", parserGoodResponse},
	}
	p := NewParser(client, time.Millisecond)

	intent, out, err := p.Parse(context.Background(), "Send email to Sara", types.KnowledgeGraphContext{})
	require.NoError(t, err)
	assert.False(t, out.Fallback)
	assert.Equal(t, "send", intent.Action)
	assert.Equal(t, 2, client.calls)
}

func TestParserSchemaFailureFallsBackWithoutRetry(t *testing.T) {
	client := &scriptedClient{responses: []string{"this is not json"}}
	p := NewParser(client, time.Millisecond)

	intent, out, err := p.Parse(context.Background(), "Send email to Sara ASAP", types.KnowledgeGraphContext{})
	require.NoError(t, err)
	assert.True(t, out.Fallback)
	assert.Equal(t, 1, client.calls, "schema failures must not retry")
	assert.Equal(t, "send", intent.Action)
	assert.Equal(t, types.PriorityHigh, intent.Priority)
	assert.Equal(t, 0.4, intent.Confidence)
}

func TestParserBusyPropagates(t *testing.T) {
	client := &scriptedClient{errs: []error{types.ErrServiceBusy}}
	p := NewParser(client, time.Millisecond)

	_, _, err := p.Parse(context.Background(), "anything", types.KnowledgeGraphContext{})
	assert.ErrorIs(t, err, types.ErrServiceBusy)
}

func TestParserNilClientUsesFallback(t *testing.T) {
	p := NewParser(nil, time.Millisecond)

	intent, out, err := p.Parse(context.Background(), "clean the garage whenever", types.KnowledgeGraphContext{})
	require.NoError(t, err)
	assert.True(t, out.Fallback)
	assert.Equal(t, "clean", intent.Action)
	assert.Equal(t, types.PriorityLow, intent.Priority)
	assert.Equal(t, 0.25, intent.EstimatedHours)
	assert.Equal(t, "clean the garage whenever", intent.Description)
}

func TestFallbackParseIsDeterministic(t *testing.T) {
	p := NewParser(nil, time.Millisecond)
	a, _, _ := p.Parse(context.Background(), "buy groceries and call mom", types.KnowledgeGraphContext{})
	b, _, _ := p.Parse(context.Background(), "buy groceries and call mom", types.KnowledgeGraphContext{})
	assert.Equal(t, a, b)
}

func TestTruncateTitle(t *testing.T) {
	long := strings.Repeat("word ", 20)
	got := truncateTitle(long)
	assert.Len(t, got, 60)
	assert.True(t, strings.HasSuffix(got, "..."))

	assert.Equal(t, "Send email", truncateTitle("Send email."))
}
