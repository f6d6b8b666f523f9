package pipeline

import (
	"regexp"
	"strings"

	"focusflow/internal/types"
)

// =============================================================================
// KEYWORD HEURISTICS
// =============================================================================
// The deterministic signal layer under both the parser fallback and the
// classifier rule pass. Keyword tables are fixed at compile time so the
// degraded pipeline gives byte-identical output for identical input.

// digitalKeywords suggest a step executes through software.
var digitalKeywords = []string{
	"email", "e-mail", "send", "search", "browse", "download", "upload",
	"install", "book", "order", "pay", "schedule", "submit", "post",
	"look up", "find", "online", "app", "website",
	"log in", "login", "sign in", "scan", "export",
}

// humanKeywords suggest manual, physical, or creative effort.
var humanKeywords = []string{
	"draft", "write", "compose", "review", "read", "decide", "choose",
	"clean", "organize", "gather", "pack", "buy", "call", "walk",
	"wash", "print", "sign", "fold", "carry", "bring", "cook",
	"practice", "exercise", "water", "fix", "measure",
}

// actionVerbs the fallback parser recognizes as a leading intent verb.
var actionVerbs = []string{
	"send", "email", "call", "text", "buy", "order", "clean", "wash",
	"write", "draft", "schedule", "book", "find", "pay", "fix",
	"review", "plan", "read", "finish", "submit", "organize", "return",
	"cancel", "renew", "print", "pack", "water",
}

// tagLexicon maps trigger keywords to task tags for the fallback parser.
var tagLexicon = map[string]string{
	"email":    "email",
	"e-mail":   "email",
	"call":     "phone",
	"text":     "phone",
	"buy":      "shopping",
	"order":    "shopping",
	"clean":    "chores",
	"wash":     "chores",
	"write":    "writing",
	"draft":    "writing",
	"meet":     "meeting",
	"meeting":  "meeting",
	"doctor":   "health",
	"dentist":  "health",
	"pay":      "finance",
	"invoice":  "finance",
	"schedule": "planning",
	"plan":     "planning",
}

var highPriorityRe = regexp.MustCompile(`(?i)\b(urgent|asap|immediately|right away|today|now)\b`)
var lowPriorityRe = regexp.MustCompile(`(?i)\b(someday|eventually|maybe|whenever|no rush|low priority)\b`)

var wordBoundaryCache = map[string]*regexp.Regexp{}

func init() {
	for _, kw := range append(append([]string{}, digitalKeywords...), humanKeywords...) {
		if _, ok := wordBoundaryCache[kw]; !ok {
			wordBoundaryCache[kw] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(kw) + `\b`)
		}
	}
}

func countKeywordHits(text string, keywords []string) int {
	hits := 0
	for _, kw := range keywords {
		if wordBoundaryCache[kw].MatchString(text) {
			hits++
		}
	}
	return hits
}

// ruleScore computes the keyword-only classification signal for a step.
// Scores cap at 0.9; keyword evidence alone is never treated as certainty.
func ruleScore(description string) (types.LeafType, float64) {
	d := countKeywordHits(description, digitalKeywords)
	h := countKeywordHits(description, humanKeywords)

	switch {
	case d == 0 && h == 0:
		return types.LeafUnknown, 0.3
	case d > h:
		return types.LeafDigital, capScore(0.6 + 0.1*float64(d))
	case h > d:
		return types.LeafHuman, capScore(0.6 + 0.1*float64(h))
	default:
		// Mixed verbs: the manual part of the step gates its completion.
		return types.LeafHuman, 0.75
	}
}

func capScore(s float64) float64 {
	if s > 0.9 {
		return 0.9
	}
	return s
}

// detectPriority derives task priority from urgency keywords.
func detectPriority(text string) types.Priority {
	if highPriorityRe.MatchString(text) {
		return types.PriorityHigh
	}
	if lowPriorityRe.MatchString(text) {
		return types.PriorityLow
	}
	return types.PriorityMedium
}

// detectTags collects lexicon tags present in the text, deduplicated and in
// lexicon scan order over the text's words.
func detectTags(text string) []string {
	lower := strings.ToLower(text)
	seen := map[string]bool{}
	var tags []string
	for _, word := range strings.Fields(lower) {
		word = strings.Trim(word, ".,!?;:'\"()")
		if tag, ok := tagLexicon[word]; ok && !seen[tag] {
			seen[tag] = true
			tags = append(tags, tag)
		}
	}
	return tags
}

// findActionVerb returns the first recognized action verb in the text, or the
// first word lowercased when none matches.
func findActionVerb(text string) string {
	words := strings.Fields(strings.ToLower(text))
	for _, w := range words {
		w = strings.Trim(w, ".,!?;:'\"()")
		for _, v := range actionVerbs {
			if w == v {
				return v
			}
		}
	}
	if len(words) > 0 {
		return strings.Trim(words[0], ".,!?;:'\"()")
	}
	return ""
}

// lookupStepRe matches steps whose whole purpose is retrieving a value.
var lookupStepRe = regexp.MustCompile(`(?i)^\s*(find|look up|locate|check|get)\b`)

// isLookupStep reports whether a step is an information-retrieval step. Once
// its value is supplied by clarification, such a step costs zero minutes.
func isLookupStep(description string) bool {
	return lookupStepRe.MatchString(description)
}
