// Package types provides shared type definitions used across focusflow packages.
// This package exists to break import cycles between pipeline, store, and server.
// Types in this package should be foundational data structures with no complex dependencies.
package types

import (
	"strings"
	"time"
)

// =============================================================================
// LEAF TYPES AND PRIORITIES
// =============================================================================

// LeafType classifies a micro-step by who (or what) can execute it.
type LeafType string

const (
	// LeafDigital marks a step automatable by software/agent action.
	LeafDigital LeafType = "DIGITAL"
	// LeafHuman marks a step requiring manual human action.
	LeafHuman LeafType = "HUMAN"
	// LeafUnknown marks a step whose classification cannot yet be determined.
	LeafUnknown LeafType = "UNKNOWN"
)

// Valid reports whether lt is one of the three known leaf types.
func (lt LeafType) Valid() bool {
	switch lt {
	case LeafDigital, LeafHuman, LeafUnknown:
		return true
	}
	return false
}

// ParseLeafType normalizes an LLM-provided leaf type string.
// Unrecognized values map to LeafUnknown rather than failing.
func ParseLeafType(s string) LeafType {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DIGITAL":
		return LeafDigital
	case "HUMAN":
		return LeafHuman
	default:
		return LeafUnknown
	}
}

// Priority is the user-facing task priority.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ParsePriority normalizes a priority string, defaulting to medium.
func ParsePriority(s string) Priority {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return PriorityLow
	case "high":
		return PriorityHigh
	default:
		return PriorityMedium
	}
}

// =============================================================================
// CORE ENTITIES
// =============================================================================

// Task represents one user-captured unit of work.
// Created by the finalizer once decomposition completes; mutated only through
// re-finalization after clarification.
type Task struct {
	TaskID         string   `json:"task_id,omitempty"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Priority       Priority `json:"priority"`
	EstimatedHours float64  `json:"estimated_hours"`
	Tags           []string `json:"tags"`
}

// MicroStep is one atomic 2-5 minute unit inside a task's execution plan.
// Steps are created UNKNOWN by the decomposer, typed by the classifier, and
// re-typed (never deleted) by the resolution engine.
type MicroStep struct {
	StepID           string   `json:"step_id"`
	ParentTaskID     string   `json:"parent_task_id,omitempty"`
	StepNumber       int      `json:"step_number"`
	Description      string   `json:"description"`
	EstimatedMinutes int      `json:"estimated_minutes"`
	LeafType         LeafType `json:"leaf_type"`
	Confidence       float64  `json:"confidence"`
	RequiredFields   []string `json:"required_fields"`
	// Icon is an opaque emoji suggestion from the decomposer. Cosmetic only.
	Icon string `json:"icon,omitempty"`
}

// NeedsField reports whether the step still requires the given field.
func (m *MicroStep) NeedsField(field string) bool {
	for _, f := range m.RequiredFields {
		if f == field {
			return true
		}
	}
	return false
}

// RemoveField deletes a satisfied field from RequiredFields, preserving order.
func (m *MicroStep) RemoveField(field string) {
	out := m.RequiredFields[:0]
	for _, f := range m.RequiredFields {
		if f != field {
			out = append(out, f)
		}
	}
	m.RequiredFields = out
}

// ClarificationQuestion is a single question surfaced to the user to resolve
// missing information. Questions are regenerated on every pipeline run and are
// never persisted; the caller echoes field -> answer back on the clarify call.
type ClarificationQuestion struct {
	Field           string   `json:"field"`
	Question        string   `json:"question"`
	Options         []string `json:"options,omitempty"`
	Required        bool     `json:"required"`
	AffectedStepIDs []string `json:"affected_step_ids"`
}

// Breakdown summarizes the current micro-step list. It is always recomputed
// from the steps, never stored or independently mutated.
type Breakdown struct {
	TotalSteps   int `json:"total_steps"`
	DigitalCount int `json:"digital_count"`
	HumanCount   int `json:"human_count"`
	UnknownCount int `json:"unknown_count"`
	TotalMinutes int `json:"total_minutes"`
}

// ComputeBreakdown derives the breakdown from the current step list.
func ComputeBreakdown(steps []MicroStep) Breakdown {
	var b Breakdown
	b.TotalSteps = len(steps)
	for _, s := range steps {
		switch s.LeafType {
		case LeafDigital:
			b.DigitalCount++
		case LeafHuman:
			b.HumanCount++
		default:
			b.UnknownCount++
		}
		b.TotalMinutes += s.EstimatedMinutes
	}
	return b
}

// =============================================================================
// PARSED INTENT
// =============================================================================

// ParsedIntent is the structured extraction of a free-text capture.
// Produced by the parser (LLM path or deterministic fallback).
type ParsedIntent struct {
	Action         string   `json:"action"`
	Object         string   `json:"object,omitempty"`
	Target         string   `json:"target,omitempty"`
	When           string   `json:"when,omitempty"`
	Where          string   `json:"where,omitempty"`
	Context        string   `json:"context,omitempty"`
	Confidence     float64  `json:"confidence"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Priority       Priority `json:"priority"`
	EstimatedHours float64  `json:"estimated_hours"`
	Tags           []string `json:"tags,omitempty"`
}

// =============================================================================
// SESSION
// =============================================================================

// SessionState is the pipeline state as observed by the external caller.
type SessionState string

const (
	StateAwaitingInput      SessionState = "AWAITING_INPUT"
	StateAnalyzing          SessionState = "ANALYZING"
	StateReady              SessionState = "READY"
	StateNeedsClarification SessionState = "NEEDS_CLARIFICATION"
	StateFailed             SessionState = "FAILED"
)

// Session is the explicit capture-session object passed between calls and
// persisted by the task store. There is deliberately no in-process ambient
// "current task"; concurrency safety across sessions follows from this.
type Session struct {
	TaskID        string       `json:"task_id"`
	UserID        string       `json:"user_id,omitempty"`
	Intent        ParsedIntent `json:"intent"`
	Steps         []MicroStep  `json:"steps"`
	AskForClarity bool         `json:"ask_for_clarity"`
	AutoMode      bool         `json:"auto_mode"`
	State         SessionState `json:"state"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// Task builds the Task view of the session for responses.
func (s *Session) Task() Task {
	return Task{
		TaskID:         s.TaskID,
		Title:          s.Intent.Title,
		Description:    s.Intent.Description,
		Priority:       s.Intent.Priority,
		EstimatedHours: s.Intent.EstimatedHours,
		Tags:           s.Intent.Tags,
	}
}

// =============================================================================
// WIRE CONTRACTS
// =============================================================================

// CaptureRequest is the capture operation input.
type CaptureRequest struct {
	Text          string `json:"text"`
	AutoMode      bool   `json:"auto_mode"`
	AskForClarity bool   `json:"ask_for_clarity"`
	UserID        string `json:"user_id,omitempty"`
}

// ClarifyRequest carries clarification answers back into the pipeline.
type ClarifyRequest struct {
	TaskID  string            `json:"task_id"`
	Answers map[string]string `json:"answers"`
}

// CaptureResponse is the shared response contract for capture and clarify.
type CaptureResponse struct {
	TaskID             string                  `json:"task_id"`
	Task               Task                    `json:"task"`
	MicroSteps         []MicroStep             `json:"micro_steps"`
	Breakdown          Breakdown               `json:"breakdown"`
	NeedsClarification bool                    `json:"needs_clarification"`
	Clarifications     []ClarificationQuestion `json:"clarifications"`
	ProcessingTimeMs   int64                   `json:"processing_time_ms"`
}

// KnowledgeGraphContext supplies prior entity knowledge for a user, used to
// resolve entity slots without asking the user. Read-only for the pipeline.
type KnowledgeGraphContext struct {
	UserID string
	// Known maps a field name to a single resolved value (e.g. the user's only
	// known email account). Fields present here never produce clarifications.
	Known map[string]string
	// Candidates maps a field name to a small closed set of plausible values,
	// used to turn the matching clarification question into multiple choice.
	Candidates map[string][]string
}

// KnownValue returns the resolved value for a field, if any.
func (k KnowledgeGraphContext) KnownValue(field string) (string, bool) {
	if k.Known == nil {
		return "", false
	}
	v, ok := k.Known[field]
	return v, ok
}
