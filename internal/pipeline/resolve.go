package pipeline

import (
	"context"
	"fmt"

	"focusflow/internal/logging"
	"focusflow/internal/types"
)

// =============================================================================
// RESOLUTION ENGINE
// =============================================================================

// Resolver applies clarification answers back onto the step plan. Answers
// annotate step descriptions in place and clear the matching required fields;
// only the steps actually touched are re-classified. Untouched steps keep
// their bytes, type, and confidence exactly as they were.
type Resolver struct {
	classifier *Classifier
}

// NewResolver creates the resolution stage.
func NewResolver(classifier *Classifier) *Resolver {
	return &Resolver{classifier: classifier}
}

// Resolve merges answers into the plan and re-classifies mutated steps.
// Answer fields no step requires are ignored silently. Returns the indices of
// mutated steps; the only error is types.ErrServiceBusy.
func (r *Resolver) Resolve(ctx context.Context, steps []types.MicroStep, answers map[string]string, tc TaskContext) ([]int, error) {
	if len(answers) == 0 {
		return nil, nil
	}

	var mutated []int
	for i := range steps {
		step := &steps[i]
		touched := false
		// Registry order keeps multi-answer annotation order deterministic.
		for _, slot := range slotRegistry {
			answer, ok := answers[slot.Field]
			if !ok || answer == "" || !step.NeedsField(slot.Field) {
				continue
			}
			step.Description = annotate(step.Description, answer)
			step.RemoveField(slot.Field)
			touched = true
		}
		if touched {
			mutated = append(mutated, i)
		}
	}

	for _, i := range mutated {
		if err := r.classifier.Classify(ctx, &steps[i], tc); err != nil {
			return mutated, err
		}
	}
	if len(mutated) > 0 {
		logging.Clarify("resolved answers into %d of %d steps", len(mutated), len(steps))
	}
	return mutated, nil
}

// annotate appends the supplied value to the step description so the step
// remains readable and the value is visible to re-classification.
func annotate(description, answer string) string {
	return fmt.Sprintf("%s (%s)", description, answer)
}
