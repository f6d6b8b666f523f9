package pipeline

import (
	"context"
	"errors"
	"fmt"

	"focusflow/internal/llm"
	"focusflow/internal/logging"
	"focusflow/internal/types"
)

// =============================================================================
// HYBRID CLASSIFIER
// =============================================================================

// TaskContext carries the shared task-level inputs every per-step stage needs.
type TaskContext struct {
	Intent types.ParsedIntent
	KG     types.KnowledgeGraphContext
}

// Classifier assigns a leaf type to each micro-step using a two-layer hybrid:
// a deterministic keyword rule pass, escalating to the LLM only when the rule
// signal is below threshold. Scores from both layers merge 60/40 in the LLM's
// favor. A step ends UNKNOWN when confidence stays under threshold or any
// required entity slot is unfilled.
type Classifier struct {
	client    llm.Client
	threshold float64
}

// NewClassifier creates the classification stage.
func NewClassifier(client llm.Client, threshold float64) *Classifier {
	if threshold <= 0 || threshold > 1 {
		threshold = 0.75
	}
	return &Classifier{client: client, threshold: threshold}
}

type classificationResult struct {
	LeafType   string  `json:"leaf_type"`
	Confidence float64 `json:"confidence"`
}

// Classify types one step in place. The only error it returns is
// types.ErrServiceBusy; LLM failures fall back to the rule signal alone.
func (c *Classifier) Classify(ctx context.Context, step *types.MicroStep, tc TaskContext) error {
	ruleType, ruleConf := ruleScore(step.Description)

	leaf, conf := ruleType, ruleConf
	if ruleConf < c.threshold && c.client != nil {
		llmType, llmConf, err := c.classifyLLM(ctx, step, tc)
		switch {
		case errors.Is(err, types.ErrServiceBusy):
			return err
		case err != nil:
			logging.Classifier("llm classify failed for %s, keeping rule signal: %v", step.StepID, err)
		case llmType == ruleType:
			leaf, conf = llmType, 0.6*llmConf+0.4*ruleConf
		case llmConf >= ruleConf:
			// Disagreement: the weaker signal counts against the winner.
			leaf, conf = llmType, 0.6*llmConf+0.4*(1-ruleConf)
		default:
			leaf, conf = ruleType, 0.6*(1-llmConf)+0.4*ruleConf
		}
	}

	step.Confidence = clamp01(conf)
	step.RequiredFields = detectRequiredFields(step.Description, tc.KG)

	if len(step.RequiredFields) > 0 || step.Confidence < c.threshold {
		step.LeafType = types.LeafUnknown
	} else {
		step.LeafType = leaf
	}

	// A satisfied lookup step is pure machine work: zero human minutes.
	if step.LeafType == types.LeafDigital && isLookupStep(step.Description) && len(step.RequiredFields) == 0 {
		step.EstimatedMinutes = 0
	}

	logging.ClassifierDebug("%s -> %s (conf=%.2f, required=%v)",
		step.StepID, step.LeafType, step.Confidence, step.RequiredFields)
	return nil
}

func (c *Classifier) classifyLLM(ctx context.Context, step *types.MicroStep, tc TaskContext) (types.LeafType, float64, error) {
	user := fmt.Sprintf("Task: %s\nStep: %s", tc.Intent.Title, step.Description)

	var result classificationResult
	if err := llm.CompleteJSON(ctx, c.client, "classifier", classifierSystemPrompt, user, &result); err != nil {
		return types.LeafUnknown, 0, err
	}
	return types.ParseLeafType(result.LeafType), clamp01(result.Confidence), nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
