package pipeline

import (
	"context"
	"errors"
	"testing"

	"focusflow/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStep(desc string, minutes int) types.MicroStep {
	return types.MicroStep{
		StepID:           "step-1",
		StepNumber:       1,
		Description:      desc,
		EstimatedMinutes: minutes,
		LeafType:         types.LeafUnknown,
	}
}

func TestClassifierRulePassSkipsLLM(t *testing.T) {
	client := &scriptedClient{} // any call would error
	c := NewClassifier(client, 0.75)

	step := newStep("Send email to sara@company.com", 1)
	require.NoError(t, c.Classify(context.Background(), &step, TaskContext{}))

	assert.Equal(t, types.LeafDigital, step.LeafType)
	assert.InDelta(t, 0.8, step.Confidence, 0.001)
	assert.Empty(t, step.RequiredFields)
	assert.Equal(t, 0, client.calls, "strong rule signal must not call the llm")
}

func TestClassifierMissingFieldForcesUnknown(t *testing.T) {
	c := NewClassifier(nil, 0.75)

	step := newStep("Send email to Sara", 1)
	require.NoError(t, c.Classify(context.Background(), &step, TaskContext{}))

	assert.Equal(t, types.LeafUnknown, step.LeafType)
	assert.Equal(t, []string{"email_recipient"}, step.RequiredFields)
	// Confidence reflects the signal even while the slot forces UNKNOWN.
	assert.InDelta(t, 0.8, step.Confidence, 0.001)
}

func TestClassifierEscalatesToLLMWhenAgreeing(t *testing.T) {
	client := &scriptedClient{responses: []string{`{"leaf_type": "HUMAN", "confidence": 0.9}`}}
	c := NewClassifier(client, 0.75)

	// "Clean the garage": rule says HUMAN at 0.7, below threshold.
	step := newStep("Clean the garage", 4)
	require.NoError(t, c.Classify(context.Background(), &step, TaskContext{}))

	assert.Equal(t, 1, client.calls)
	assert.Equal(t, types.LeafHuman, step.LeafType)
	assert.InDelta(t, 0.6*0.9+0.4*0.7, step.Confidence, 0.001)
}

func TestClassifierDisagreementPenalizesWinner(t *testing.T) {
	client := &scriptedClient{responses: []string{`{"leaf_type": "DIGITAL", "confidence": 0.95}`}}
	c := NewClassifier(client, 0.75)

	// Rule: HUMAN 0.7; LLM: DIGITAL 0.95. LLM wins but pays for the conflict:
	// 0.6*0.95 + 0.4*(1-0.7) = 0.69, below threshold, so the step stays
	// UNKNOWN.
	step := newStep("Clean the garage", 4)
	require.NoError(t, c.Classify(context.Background(), &step, TaskContext{}))

	assert.Equal(t, types.LeafUnknown, step.LeafType)
	assert.InDelta(t, 0.69, step.Confidence, 0.001)
}

func TestClassifierLLMFailureKeepsRuleSignal(t *testing.T) {
	client := &scriptedClient{errs: []error{errors.New("boom")}}
	c := NewClassifier(client, 0.75)

	step := newStep("Clean the garage", 4)
	require.NoError(t, c.Classify(context.Background(), &step, TaskContext{}))

	// Rule HUMAN 0.7 stands alone and stays under threshold.
	assert.Equal(t, types.LeafUnknown, step.LeafType)
	assert.InDelta(t, 0.7, step.Confidence, 0.001)
}

func TestClassifierBusyPropagates(t *testing.T) {
	client := &scriptedClient{errs: []error{types.ErrServiceBusy}}
	c := NewClassifier(client, 0.75)

	step := newStep("Clean the garage", 4)
	err := c.Classify(context.Background(), &step, TaskContext{})
	assert.ErrorIs(t, err, types.ErrServiceBusy)
}

func TestClassifierResolvedLookupStepCostsNothing(t *testing.T) {
	c := NewClassifier(nil, 0.75)

	step := newStep("Find Sara's email address (sara@company.com)", 2)
	require.NoError(t, c.Classify(context.Background(), &step, TaskContext{}))

	assert.Equal(t, types.LeafDigital, step.LeafType)
	assert.Equal(t, 0, step.EstimatedMinutes)
}

func TestClassifierKnownContextSuppressesSlot(t *testing.T) {
	c := NewClassifier(nil, 0.75)
	tc := TaskContext{KG: types.KnowledgeGraphContext{
		Known: map[string]string{"email_recipient": "sara@company.com"},
	}}

	step := newStep("Send email to Sara", 1)
	require.NoError(t, c.Classify(context.Background(), &step, tc))

	assert.Equal(t, types.LeafDigital, step.LeafType)
	assert.Empty(t, step.RequiredFields)
}
