package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"focusflow/internal/llm"
	"focusflow/internal/logging"
	"focusflow/internal/types"
)

// =============================================================================
// DECOMPOSER
// =============================================================================

// maxStepsHardCap bounds how many LLM-proposed steps survive validation
// regardless of configuration.
const maxStepsHardCap = 10

// Decomposer splits a task into micro-steps of at most 5 minutes each.
// Steps leave this stage untyped (UNKNOWN, confidence 0); the classifier owns
// leaf types. Fallback is a single catch-all step, never an empty plan.
type Decomposer struct {
	client   llm.Client
	minSteps int
	maxSteps int
}

// NewDecomposer creates the decomposition stage.
func NewDecomposer(client llm.Client, minSteps, maxSteps int) *Decomposer {
	if minSteps <= 0 {
		minSteps = 3
	}
	if maxSteps < minSteps {
		maxSteps = 7
	}
	return &Decomposer{client: client, minSteps: minSteps, maxSteps: maxSteps}
}

type decompositionResult struct {
	Steps []struct {
		StepNumber       int    `json:"step_number"`
		Description      string `json:"description"`
		EstimatedMinutes int    `json:"estimated_minutes"`
		Icon             string `json:"icon"`
	} `json:"steps"`
}

// Decompose produces the step plan for a parsed task. The only error it
// returns is types.ErrServiceBusy.
func (d *Decomposer) Decompose(ctx context.Context, text string, intent types.ParsedIntent) ([]types.MicroStep, Outcome, error) {
	if d.client == nil {
		return d.fallbackSteps(text, intent), Outcome{Fallback: true, Reason: "no llm client"}, nil
	}

	steps, err := d.decomposeLLM(ctx, text, intent)
	if err != nil {
		if errors.Is(err, types.ErrServiceBusy) {
			return nil, Outcome{}, err
		}
		logging.Decomposer("llm decomposition failed, using single-step fallback: %v", err)
		return d.fallbackSteps(text, intent), Outcome{Fallback: true, Reason: err.Error()}, nil
	}
	return steps, Outcome{}, nil
}

func (d *Decomposer) decomposeLLM(ctx context.Context, text string, intent types.ParsedIntent) ([]types.MicroStep, error) {
	user := fmt.Sprintf("Task: %s\nDetails: %s\nAim for %d to %d steps.",
		intent.Title, text, d.minSteps, d.maxSteps)

	var result decompositionResult
	if err := llm.CompleteJSON(ctx, d.client, "decomposer", decomposerSystemPrompt, user, &result); err != nil {
		return nil, err
	}

	steps := sanitizeSteps(result)
	if len(steps) == 0 {
		return nil, &types.SchemaValidationError{Stage: "decomposer", Err: errors.New("no usable steps in response")}
	}
	logging.Decomposer("decomposed %q into %d steps", intent.Title, len(steps))
	return steps, nil
}

// sanitizeSteps drops unusable entries, clamps estimates, and renumbers
// densely from 1 in the order received. Model-claimed step numbers are
// ignored; gaps never survive this function.
func sanitizeSteps(result decompositionResult) []types.MicroStep {
	var steps []types.MicroStep
	for _, raw := range result.Steps {
		desc := strings.TrimSpace(raw.Description)
		if desc == "" {
			continue
		}
		minutes := raw.EstimatedMinutes
		if minutes < 0 {
			minutes = 0
		} else if minutes > 5 {
			minutes = 5
		}
		n := len(steps) + 1
		steps = append(steps, types.MicroStep{
			StepID:           fmt.Sprintf("step-%d", n),
			StepNumber:       n,
			Description:      desc,
			EstimatedMinutes: minutes,
			LeafType:         types.LeafUnknown,
			Icon:             strings.TrimSpace(raw.Icon),
		})
		if len(steps) == maxStepsHardCap {
			break
		}
	}
	return steps
}

// fallbackSteps is the degraded plan: one 5-minute step carrying the whole
// task, typed UNKNOWN so the classifier and clarifier still get a pass at it.
func (d *Decomposer) fallbackSteps(text string, intent types.ParsedIntent) []types.MicroStep {
	desc := intent.Description
	if desc == "" {
		desc = text
	}
	return []types.MicroStep{{
		StepID:           "step-1",
		StepNumber:       1,
		Description:      desc,
		EstimatedMinutes: 5,
		LeafType:         types.LeafUnknown,
		Icon:             "📝",
	}}
}
