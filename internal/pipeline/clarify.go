package pipeline

import (
	"focusflow/internal/types"
)

// =============================================================================
// CLARIFIER
// =============================================================================

// minChoiceOptions and maxChoiceOptions bound when a candidate set from prior
// knowledge turns a question into multiple choice. One candidate would have
// been resolved silently; more than six defeats the point of a quick pick.
const (
	minChoiceOptions = 2
	maxChoiceOptions = 6
)

// Clarifier turns unfilled entity slots on UNKNOWN steps into user-facing
// questions. Questions are deduplicated per field across steps; one answer
// resolves the field everywhere it appears.
type Clarifier struct{}

// NewClarifier creates the clarification stage.
func NewClarifier() *Clarifier {
	return &Clarifier{}
}

// Generate builds the question list for the current step plan, ordered by the
// first step that needs each field. Pure function of its inputs.
func (c *Clarifier) Generate(steps []types.MicroStep, kg types.KnowledgeGraphContext) []types.ClarificationQuestion {
	byField := map[string]int{}
	var questions []types.ClarificationQuestion

	for _, step := range steps {
		if step.LeafType != types.LeafUnknown {
			continue
		}
		for _, field := range step.RequiredFields {
			if idx, ok := byField[field]; ok {
				questions[idx].AffectedStepIDs = append(questions[idx].AffectedStepIDs, step.StepID)
				continue
			}
			q := types.ClarificationQuestion{
				Field:           field,
				Question:        slotQuestion(field),
				Required:        true,
				AffectedStepIDs: []string{step.StepID},
			}
			if cands := kg.Candidates[field]; len(cands) >= minChoiceOptions && len(cands) <= maxChoiceOptions {
				q.Options = append([]string(nil), cands...)
			}
			byField[field] = len(questions)
			questions = append(questions, q)
		}
	}
	return questions
}
