package pipeline

import (
	"context"
	"time"

	"focusflow/internal/config"
	"focusflow/internal/llm"
	"focusflow/internal/logging"
	"focusflow/internal/types"
)

// =============================================================================
// PIPELINE ORCHESTRATOR
// =============================================================================

// Pipeline wires the capture stages together. One Pipeline serves all
// sessions; all per-task state lives in the explicit Session object, so
// concurrent captures and clarifies for different tasks never interact.
type Pipeline struct {
	cfg        *config.Config
	parser     *Parser
	decomposer *Decomposer
	classifier *Classifier
	clarifier  *Clarifier
	resolver   *Resolver
	finalizer  *Finalizer
	store      types.TaskStore
	contexts   types.ContextProvider
}

// New assembles a pipeline from its dependencies. client may be nil (pure
// fallback mode); store and contexts may be nil (no persistence, no prior
// knowledge).
func New(cfg *config.Config, client llm.Client, store types.TaskStore, contexts types.ContextProvider) *Pipeline {
	classifier := NewClassifier(client, cfg.Pipeline.RuleThreshold)
	return &Pipeline{
		cfg:        cfg,
		parser:     NewParser(client, cfg.LLM.Timeouts.RetryBackoffBase),
		decomposer: NewDecomposer(client, cfg.Pipeline.MinSteps, cfg.Pipeline.MaxSteps),
		classifier: classifier,
		clarifier:  NewClarifier(),
		resolver:   NewResolver(classifier),
		finalizer:  NewFinalizer(store),
		store:      store,
		contexts:   contexts,
	}
}

// Capture runs the full pipeline on one free-text note.
// Returns *types.ValidationError for unusable input and types.ErrServiceBusy
// when the LLM call budget is exhausted; LLM failures degrade internally.
func (p *Pipeline) Capture(ctx context.Context, req types.CaptureRequest) (*types.CaptureResponse, error) {
	start := time.Now()

	text, err := Normalize(req.Text, p.cfg.Pipeline.MaxInputChars)
	if err != nil {
		return nil, err
	}
	logging.Pipeline("capture started: %d chars, user=%q", len(text), req.UserID)

	kg := p.lookupContext(ctx, req.UserID)

	intent, parseOut, err := p.parser.Parse(ctx, text, kg)
	if err != nil {
		return nil, err
	}
	if parseOut.Fallback {
		logging.Pipeline("parser degraded: %s", parseOut.Reason)
	}

	steps, decompOut, err := p.decomposer.Decompose(ctx, text, intent)
	if err != nil {
		return nil, err
	}
	if decompOut.Fallback {
		logging.Pipeline("decomposer degraded: %s", decompOut.Reason)
	}

	tc := TaskContext{Intent: intent, KG: kg}
	for i := range steps {
		if err := p.classifier.Classify(ctx, &steps[i], tc); err != nil {
			return nil, err
		}
	}

	session := &types.Session{
		UserID:        req.UserID,
		Intent:        intent,
		Steps:         steps,
		AskForClarity: req.AskForClarity,
		AutoMode:      req.AutoMode,
		State:         types.StateAnalyzing,
	}

	var questions []types.ClarificationQuestion
	if req.AskForClarity {
		questions = p.clarifier.Generate(steps, kg)
	}
	return p.finalizer.Finalize(ctx, session, questions, start)
}

// Clarify folds user answers into a stored session and re-finalizes it.
// Unknown task IDs return types.ErrTaskNotFound; answer fields no step
// requires are ignored.
func (p *Pipeline) Clarify(ctx context.Context, req types.ClarifyRequest) (*types.CaptureResponse, error) {
	start := time.Now()

	if req.TaskID == "" {
		return nil, types.NewValidationError("task_id", "task_id is required")
	}
	if p.store == nil {
		return nil, types.ErrTaskNotFound
	}
	session, err := p.store.GetSession(ctx, req.TaskID)
	if err != nil {
		return nil, err
	}
	logging.Pipeline("clarify started: task=%s answers=%d", req.TaskID, len(req.Answers))

	kg := p.lookupContext(ctx, session.UserID)
	// Answers become known context for this run so re-classification does not
	// re-flag the fields it just resolved.
	if len(req.Answers) > 0 {
		merged := types.KnowledgeGraphContext{
			UserID:     kg.UserID,
			Known:      map[string]string{},
			Candidates: kg.Candidates,
		}
		for f, v := range kg.Known {
			merged.Known[f] = v
		}
		for f, v := range req.Answers {
			if v != "" {
				merged.Known[f] = v
			}
		}
		kg = merged
	}

	tc := TaskContext{Intent: session.Intent, KG: kg}
	if _, err := p.resolver.Resolve(ctx, session.Steps, req.Answers, tc); err != nil {
		return nil, err
	}
	p.learnAnswers(ctx, session.UserID, req.Answers)

	var questions []types.ClarificationQuestion
	if session.AskForClarity {
		questions = p.clarifier.Generate(session.Steps, kg)
	}
	return p.finalizer.Finalize(ctx, session, questions, start)
}

// contextLearner is the optional write side of a context provider.
type contextLearner interface {
	Learn(ctx context.Context, userID, field, value string) error
}

// learnAnswers records registry-field answers as entities so the same
// question is not asked on the user's next capture. Best effort.
func (p *Pipeline) learnAnswers(ctx context.Context, userID string, answers map[string]string) {
	learner, ok := p.contexts.(contextLearner)
	if !ok || userID == "" {
		return
	}
	for _, slot := range slotRegistry {
		if v := answers[slot.Field]; v != "" {
			if err := learner.Learn(ctx, userID, slot.Field, v); err != nil {
				logging.Pipeline("failed to record %s for %q: %v", slot.Field, userID, err)
			}
		}
	}
}

// lookupContext fetches prior knowledge for a user. Failures degrade to an
// empty context; missing knowledge means more questions, never an error.
func (p *Pipeline) lookupContext(ctx context.Context, userID string) types.KnowledgeGraphContext {
	if p.contexts == nil || userID == "" {
		return types.KnowledgeGraphContext{UserID: userID}
	}
	kg, err := p.contexts.GetContext(ctx, userID)
	if err != nil {
		logging.Pipeline("context lookup failed for %q, continuing without: %v", userID, err)
		return types.KnowledgeGraphContext{UserID: userID}
	}
	return kg
}
