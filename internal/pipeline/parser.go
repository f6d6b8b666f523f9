package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"focusflow/internal/llm"
	"focusflow/internal/logging"
	"focusflow/internal/types"
)

// =============================================================================
// INTENT PARSER
// =============================================================================

// Outcome records which path a degradable stage took, for logging and tests.
type Outcome struct {
	Fallback bool
	Reason   string
}

// Parser turns normalized free text into a ParsedIntent. The LLM path gets one
// retry on transient failure; every other failure drops straight to the
// deterministic keyword fallback. A nil client skips the LLM path entirely.
type Parser struct {
	client       llm.Client
	retryBackoff time.Duration
}

// NewParser creates the parser stage.
func NewParser(client llm.Client, retryBackoff time.Duration) *Parser {
	if retryBackoff <= 0 {
		retryBackoff = 500 * time.Millisecond
	}
	return &Parser{client: client, retryBackoff: retryBackoff}
}

// Parse extracts structured intent from text. The only error it returns is
// types.ErrServiceBusy; everything else degrades to the fallback parse.
func (p *Parser) Parse(ctx context.Context, text string, kg types.KnowledgeGraphContext) (types.ParsedIntent, Outcome, error) {
	if p.client == nil {
		return p.fallbackParse(text), Outcome{Fallback: true, Reason: "no llm client"}, nil
	}

	intent, err := p.parseLLM(ctx, text, kg)
	if err != nil && llm.IsTransient(err) && ctx.Err() == nil {
		logging.Parser("transient parse failure, retrying once: %v", err)
		select {
		case <-time.After(p.retryBackoff):
		case <-ctx.Done():
			return p.fallbackParse(text), Outcome{Fallback: true, Reason: "context cancelled"}, nil
		}
		intent, err = p.parseLLM(ctx, text, kg)
	}
	if err != nil {
		if errors.Is(err, types.ErrServiceBusy) {
			return types.ParsedIntent{}, Outcome{}, err
		}
		logging.Parser("llm parse failed, using keyword fallback: %v", err)
		return p.fallbackParse(text), Outcome{Fallback: true, Reason: err.Error()}, nil
	}
	return intent, Outcome{}, nil
}

func (p *Parser) parseLLM(ctx context.Context, text string, kg types.KnowledgeGraphContext) (types.ParsedIntent, error) {
	user := fmt.Sprintf("Task note:\n%s", text)
	if len(kg.Known) > 0 {
		var known []string
		for _, s := range slotRegistry {
			if v, ok := kg.KnownValue(s.Field); ok {
				known = append(known, s.Field+"="+v)
			}
		}
		if len(known) > 0 {
			user += "\n\nKnown user context: " + strings.Join(known, ", ")
		}
	}

	var intent types.ParsedIntent
	if err := llm.CompleteJSON(ctx, p.client, "parser", parserSystemPrompt, user, &intent); err != nil {
		return types.ParsedIntent{}, err
	}
	if err := validateIntent(&intent, text); err != nil {
		return types.ParsedIntent{}, &types.SchemaValidationError{Stage: "parser", Err: err}
	}
	return intent, nil
}

// validateIntent repairs tolerable gaps and rejects unusable extractions.
func validateIntent(intent *types.ParsedIntent, text string) error {
	intent.Title = strings.TrimSpace(intent.Title)
	if intent.Title == "" {
		return errors.New("missing title")
	}
	if intent.Action == "" {
		return errors.New("missing action")
	}
	intent.Title = truncateTitle(intent.Title)
	if intent.Description == "" {
		intent.Description = text
	}
	intent.Priority = types.ParsePriority(string(intent.Priority))
	if intent.Confidence < 0 {
		intent.Confidence = 0
	} else if intent.Confidence > 1 {
		intent.Confidence = 1
	}
	if intent.EstimatedHours < 0 {
		intent.EstimatedHours = 0
	}
	return nil
}

// fallbackParse is the deterministic keyword extraction used when the LLM is
// unavailable. Identical input always yields an identical intent.
func (p *Parser) fallbackParse(text string) types.ParsedIntent {
	return types.ParsedIntent{
		Action:         findActionVerb(text),
		Confidence:     0.4,
		Title:          truncateTitle(text),
		Description:    text,
		Priority:       detectPriority(text),
		EstimatedHours: 0.25,
		Tags:           detectTags(text),
	}
}

func truncateTitle(s string) string {
	s = strings.TrimRight(strings.TrimSpace(s), ".!?,;")
	if len(s) <= 60 {
		return s
	}
	return s[:57] + "..."
}
