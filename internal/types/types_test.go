package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLeafType(t *testing.T) {
	tests := []struct {
		in   string
		want LeafType
	}{
		{"DIGITAL", LeafDigital},
		{"digital", LeafDigital},
		{" Human ", LeafHuman},
		{"UNKNOWN", LeafUnknown},
		{"robot", LeafUnknown},
		{"", LeafUnknown},
	}
	for _, tt := range tests {
		if got := ParseLeafType(tt.in); got != tt.want {
			t.Errorf("ParseLeafType(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParsePriority(t *testing.T) {
	assert.Equal(t, PriorityHigh, ParsePriority("HIGH"))
	assert.Equal(t, PriorityLow, ParsePriority("low"))
	assert.Equal(t, PriorityMedium, ParsePriority("whenever"))
	assert.Equal(t, PriorityMedium, ParsePriority(""))
}

func TestComputeBreakdown(t *testing.T) {
	steps := []MicroStep{
		{LeafType: LeafDigital, EstimatedMinutes: 0},
		{LeafType: LeafHuman, EstimatedMinutes: 4},
		{LeafType: LeafUnknown, EstimatedMinutes: 3},
		{LeafType: LeafHuman, EstimatedMinutes: 2},
	}
	b := ComputeBreakdown(steps)

	assert.Equal(t, 4, b.TotalSteps)
	assert.Equal(t, 1, b.DigitalCount)
	assert.Equal(t, 2, b.HumanCount)
	assert.Equal(t, 1, b.UnknownCount)
	assert.Equal(t, 9, b.TotalMinutes)
	assert.Equal(t, b.TotalSteps, b.DigitalCount+b.HumanCount+b.UnknownCount)
}

func TestComputeBreakdownEmpty(t *testing.T) {
	b := ComputeBreakdown(nil)
	assert.Equal(t, Breakdown{}, b)
}

func TestMicroStepFieldOps(t *testing.T) {
	s := MicroStep{RequiredFields: []string{"email_recipient", "due_date"}}

	assert.True(t, s.NeedsField("email_recipient"))
	assert.False(t, s.NeedsField("location"))

	s.RemoveField("email_recipient")
	assert.Equal(t, []string{"due_date"}, s.RequiredFields)

	s.RemoveField("not_there")
	assert.Equal(t, []string{"due_date"}, s.RequiredFields)
}

func TestSessionTaskView(t *testing.T) {
	s := &Session{
		TaskID: "task-1",
		Intent: ParsedIntent{
			Title:          "Send email to Sara",
			Description:    "Send email to Sara about project",
			Priority:       PriorityMedium,
			EstimatedHours: 0.25,
			Tags:           []string{"email"},
		},
	}
	task := s.Task()
	assert.Equal(t, "task-1", task.TaskID)
	assert.Equal(t, "Send email to Sara", task.Title)
	assert.Equal(t, PriorityMedium, task.Priority)
}
