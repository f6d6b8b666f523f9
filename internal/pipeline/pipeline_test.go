package pipeline

import (
	"context"
	"strings"
	"testing"
	"time"

	"focusflow/internal/config"
	"focusflow/internal/types"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory TaskStore for pipeline tests.
type memStore struct {
	sessions map[string]*types.Session
}

func newMemStore() *memStore {
	return &memStore{sessions: map[string]*types.Session{}}
}

func cloneSession(s *types.Session) *types.Session {
	c := *s
	c.Steps = make([]types.MicroStep, len(s.Steps))
	for i, st := range s.Steps {
		st.RequiredFields = append([]string(nil), st.RequiredFields...)
		c.Steps[i] = st
	}
	c.Intent.Tags = append([]string(nil), s.Intent.Tags...)
	return &c
}

func (m *memStore) SaveSession(ctx context.Context, s *types.Session) error {
	m.sessions[s.TaskID] = cloneSession(s)
	return nil
}

func (m *memStore) UpdateSession(ctx context.Context, s *types.Session) error {
	if _, ok := m.sessions[s.TaskID]; !ok {
		return types.ErrTaskNotFound
	}
	m.sessions[s.TaskID] = cloneSession(s)
	return nil
}

func (m *memStore) GetSession(ctx context.Context, taskID string) (*types.Session, error) {
	s, ok := m.sessions[taskID]
	if !ok {
		return nil, types.ErrTaskNotFound
	}
	return cloneSession(s), nil
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.LLM.Timeouts.RetryBackoffBase = time.Millisecond
	return cfg
}

func TestCaptureClarifyRoundTrip(t *testing.T) {
	client := &scriptedClient{responses: []string{parserGoodResponse, decomposerGoodResponse}}
	store := newMemStore()
	p := New(testConfig(), client, store, nil)

	capture, err := p.Capture(context.Background(), types.CaptureRequest{
		Text:          "Send email to Sara about the project",
		AskForClarity: true,
	})
	require.NoError(t, err)
	require.NotEmpty(t, capture.TaskID)

	// Keyword signal decides every step; only parse and decompose hit the LLM.
	assert.Equal(t, 2, client.calls)

	require.Len(t, capture.MicroSteps, 3)
	assert.Equal(t, types.LeafUnknown, capture.MicroSteps[0].LeafType)
	assert.Equal(t, types.LeafHuman, capture.MicroSteps[1].LeafType)
	assert.Equal(t, types.LeafUnknown, capture.MicroSteps[2].LeafType)

	assert.True(t, capture.NeedsClarification)
	assert.Equal(t, types.Breakdown{
		TotalSteps: 3, HumanCount: 1, UnknownCount: 2, TotalMinutes: 7,
	}, capture.Breakdown)

	require.Len(t, capture.Clarifications, 1)
	q := capture.Clarifications[0]
	assert.Equal(t, "email_recipient", q.Field)
	assert.Equal(t, []string{"step-1", "step-3"}, q.AffectedStepIDs)

	stored := store.sessions[capture.TaskID]
	require.NotNil(t, stored)
	assert.Equal(t, types.StateNeedsClarification, stored.State)

	clarified, err := p.Clarify(context.Background(), types.ClarifyRequest{
		TaskID:  capture.TaskID,
		Answers: map[string]string{"email_recipient": "sara@company.com"},
	})
	require.NoError(t, err)

	// Resolution runs on the keyword signal alone.
	assert.Equal(t, 2, client.calls)
	assert.Equal(t, capture.TaskID, clarified.TaskID)
	assert.False(t, clarified.NeedsClarification)
	assert.Empty(t, clarified.Clarifications)

	require.Len(t, clarified.MicroSteps, 3)
	find := clarified.MicroSteps[0]
	assert.Equal(t, "Find Sara's email address (sara@company.com)", find.Description)
	assert.Equal(t, types.LeafDigital, find.LeafType)
	assert.Equal(t, 0, find.EstimatedMinutes, "resolved lookup step costs no human time")
	assert.Empty(t, find.RequiredFields)

	send := clarified.MicroSteps[2]
	assert.Equal(t, "Send email (sara@company.com)", send.Description)
	assert.Equal(t, types.LeafDigital, send.LeafType)

	assert.Equal(t, types.Breakdown{
		TotalSteps: 3, DigitalCount: 2, HumanCount: 1, TotalMinutes: 5,
	}, clarified.Breakdown)

	assert.Equal(t, types.StateReady, store.sessions[capture.TaskID].State)
}

func TestClarifyOnlyTouchesAffectedSteps(t *testing.T) {
	client := &scriptedClient{responses: []string{parserGoodResponse, decomposerGoodResponse}}
	store := newMemStore()
	p := New(testConfig(), client, store, nil)

	capture, err := p.Capture(context.Background(), types.CaptureRequest{
		Text:          "Send email to Sara about the project",
		AskForClarity: true,
	})
	require.NoError(t, err)

	clarified, err := p.Clarify(context.Background(), types.ClarifyRequest{
		TaskID:  capture.TaskID,
		Answers: map[string]string{"email_recipient": "sara@company.com"},
	})
	require.NoError(t, err)

	// The human step between the two affected ones must be byte-identical.
	if diff := cmp.Diff(capture.MicroSteps[1], clarified.MicroSteps[1]); diff != "" {
		t.Errorf("untouched step changed (-before +after):\n%s", diff)
	}
}

func TestCaptureFallbackIsDeterministic(t *testing.T) {
	p := New(testConfig(), nil, newMemStore(), nil)

	first, err := p.Capture(context.Background(), types.CaptureRequest{Text: "buy groceries and call mom", AskForClarity: true})
	require.NoError(t, err)
	second, err := p.Capture(context.Background(), types.CaptureRequest{Text: "buy groceries and call mom", AskForClarity: true})
	require.NoError(t, err)

	// Everything except the minted IDs and timing must match exactly.
	normalize := func(r *types.CaptureResponse) *types.CaptureResponse {
		c := *r
		c.TaskID = ""
		c.Task.TaskID = ""
		c.ProcessingTimeMs = 0
		c.MicroSteps = append([]types.MicroStep(nil), r.MicroSteps...)
		for i := range c.MicroSteps {
			c.MicroSteps[i].ParentTaskID = ""
		}
		return &c
	}
	if diff := cmp.Diff(normalize(first), normalize(second)); diff != "" {
		t.Errorf("fallback output not deterministic (-first +second):\n%s", diff)
	}
}

func TestCaptureRejectsBadInput(t *testing.T) {
	p := New(testConfig(), nil, newMemStore(), nil)

	for i, text := range []string{"", "   \n\t  ", strings.Repeat("x", 5001)} {
		_, err := p.Capture(context.Background(), types.CaptureRequest{Text: text})
		assert.True(t, types.IsValidation(err), "case %d should be rejected, got %v", i, err)
	}
}

func TestCaptureSingleOpaqueWord(t *testing.T) {
	p := New(testConfig(), nil, newMemStore(), nil)

	resp, err := p.Capture(context.Background(), types.CaptureRequest{Text: "mustard", AskForClarity: true})
	require.NoError(t, err)

	require.Len(t, resp.MicroSteps, 1)
	assert.Equal(t, types.LeafUnknown, resp.MicroSteps[0].LeafType)
	assert.True(t, resp.NeedsClarification)
	// No entity slot triggered, so there is nothing concrete to ask.
	assert.Empty(t, resp.Clarifications)
	assert.Equal(t, "mustard", resp.Task.Title)
}

func TestCaptureWithoutClarityHoldsQuestions(t *testing.T) {
	p := New(testConfig(), nil, newMemStore(), nil)

	resp, err := p.Capture(context.Background(), types.CaptureRequest{
		Text:          "Send email to Sara",
		AskForClarity: false,
	})
	require.NoError(t, err)
	assert.True(t, resp.NeedsClarification, "unknown steps still surface in the breakdown")
	assert.Empty(t, resp.Clarifications)
}

func TestClarifyUnknownTask(t *testing.T) {
	p := New(testConfig(), nil, newMemStore(), nil)

	_, err := p.Clarify(context.Background(), types.ClarifyRequest{TaskID: "no-such-task"})
	assert.ErrorIs(t, err, types.ErrTaskNotFound)

	_, err = p.Clarify(context.Background(), types.ClarifyRequest{})
	assert.True(t, types.IsValidation(err))
}

func TestClarifyEmptyAnswersIsIdempotent(t *testing.T) {
	store := newMemStore()
	p := New(testConfig(), nil, store, nil)

	capture, err := p.Capture(context.Background(), types.CaptureRequest{Text: "Send email to Sara", AskForClarity: true})
	require.NoError(t, err)

	again, err := p.Clarify(context.Background(), types.ClarifyRequest{TaskID: capture.TaskID, Answers: map[string]string{}})
	require.NoError(t, err)

	assert.Equal(t, capture.MicroSteps, again.MicroSteps)
	assert.Equal(t, capture.Breakdown, again.Breakdown)
	assert.Equal(t, capture.Clarifications, again.Clarifications)
}

func TestClarifyIgnoresUnrequestedFields(t *testing.T) {
	store := newMemStore()
	p := New(testConfig(), nil, store, nil)

	capture, err := p.Capture(context.Background(), types.CaptureRequest{Text: "Send email to Sara", AskForClarity: true})
	require.NoError(t, err)

	resp, err := p.Clarify(context.Background(), types.ClarifyRequest{
		TaskID:  capture.TaskID,
		Answers: map[string]string{"favorite_color": "blue"},
	})
	require.NoError(t, err)
	assert.Equal(t, capture.MicroSteps, resp.MicroSteps, "unknown answer fields must not mutate the plan")
}

func TestCaptureBusyPropagates(t *testing.T) {
	client := &scriptedClient{errs: []error{types.ErrServiceBusy}}
	p := New(testConfig(), client, newMemStore(), nil)

	_, err := p.Capture(context.Background(), types.CaptureRequest{Text: "Send email to Sara"})
	assert.ErrorIs(t, err, types.ErrServiceBusy)
}

// fixedContextProvider returns a canned knowledge graph.
type fixedContextProvider struct {
	kg types.KnowledgeGraphContext
}

func (f *fixedContextProvider) GetContext(ctx context.Context, userID string) (types.KnowledgeGraphContext, error) {
	return f.kg, nil
}

func TestCaptureUsesPriorKnowledge(t *testing.T) {
	provider := &fixedContextProvider{kg: types.KnowledgeGraphContext{
		UserID: "u1",
		Known:  map[string]string{"email_recipient": "sara@company.com"},
	}}
	p := New(testConfig(), nil, newMemStore(), provider)

	resp, err := p.Capture(context.Background(), types.CaptureRequest{
		Text:          "Send email to Sara",
		AskForClarity: true,
		UserID:        "u1",
	})
	require.NoError(t, err)
	assert.False(t, resp.NeedsClarification)
	assert.Empty(t, resp.Clarifications)
	require.Len(t, resp.MicroSteps, 1)
	assert.Equal(t, types.LeafDigital, resp.MicroSteps[0].LeafType)
}
