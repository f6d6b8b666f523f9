package pipeline

import (
	"regexp"

	"focusflow/internal/types"
)

// =============================================================================
// ENTITY SLOT REGISTRY
// =============================================================================

// slotSpec describes one entity slot the classifier can flag as missing.
// trigger matches descriptions that depend on the slot; satisfied matches
// descriptions that already carry a concrete value for it.
type slotSpec struct {
	Field     string
	Question  string
	trigger   *regexp.Regexp
	satisfied *regexp.Regexp
}

// slotRegistry is the closed set of recognized entity slots. Order matters:
// required_fields on a step follow registry order, and so does the first
// clarification question generated for it.
var slotRegistry = []slotSpec{
	{
		Field:     "email_recipient",
		Question:  "What email address should this go to?",
		trigger:   regexp.MustCompile(`(?i)(\bsend\b.*\be-?mail\b|\be-?mail\b.*\b(address|recipient)\b|\be-?mail\s+to\b|\breply\b.*\be-?mail\b)`),
		satisfied: regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`),
	},
	{
		Field:     "phone_number",
		Question:  "What phone number should be used?",
		trigger:   regexp.MustCompile(`(?i)\b(call|dial|text)\b`),
		satisfied: regexp.MustCompile(`\+?\d[\d\s().\-]{6,}\d`),
	},
	{
		Field:     "location",
		Question:  "Where should this happen?",
		trigger: regexp.MustCompile(`(?i)\b(go to|drive to|drop off|pick up|meet|deliver|return)\b`),
		// Case matters here: a capitalized word after a preposition reads as a
		// concrete place name.
		satisfied: regexp.MustCompile(`\b(at|At|to|To|in|In)\s+(the\s+)?[A-Z0-9][\w'&]*`),
	},
	{
		Field:     "account",
		Question:  "Which account or login should be used?",
		trigger:   regexp.MustCompile(`(?i)\b(log\s?in|sign\s?in|account|portal|dashboard)\b`),
		satisfied: regexp.MustCompile(`(?i)\b(using|with|via)\s+\S+\s+(account|login|credentials)\b`),
	},
	{
		Field:     "due_date",
		Question:  "When does this need to be done by?",
		trigger:   regexp.MustCompile(`(?i)\b(deadline|due\s+date|due\s+by)\b`),
		satisfied: regexp.MustCompile(`(?i)\b(today|tomorrow|tonight|mon(day)?|tue(sday)?|wed(nesday)?|thu(rsday)?|fri(day)?|sat(urday)?|sun(day)?|\d{4}-\d{2}-\d{2}|\d{1,2}(:\d{2})?\s?(am|pm))\b`),
	},
}

// slotQuestion returns the canned question text for a field, or a generic
// fallback for fields outside the registry.
func slotQuestion(field string) string {
	for _, s := range slotRegistry {
		if s.Field == field {
			return s.Question
		}
	}
	return "What is the " + field + " for this step?"
}

// detectRequiredFields returns the registry fields a step description depends
// on but neither the text nor the user's prior knowledge can satisfy.
func detectRequiredFields(description string, kg types.KnowledgeGraphContext) []string {
	var fields []string
	for _, s := range slotRegistry {
		if !s.trigger.MatchString(description) {
			continue
		}
		if s.satisfied.MatchString(description) {
			continue
		}
		if _, ok := kg.KnownValue(s.Field); ok {
			continue
		}
		fields = append(fields, s.Field)
	}
	return fields
}
