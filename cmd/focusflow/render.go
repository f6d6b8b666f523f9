package main

import (
	"fmt"
	"strings"

	"focusflow/internal/types"

	"github.com/charmbracelet/lipgloss"
)

// Terminal styles for plan output.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#8BC34A"))

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))

	digitalStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#2196F3"))

	humanStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#8BC34A"))

	unknownStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFC107"))

	questionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFC107"))

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#2a3850")).
			Padding(0, 1)
)

func leafBadge(lt types.LeafType) string {
	switch lt {
	case types.LeafDigital:
		return digitalStyle.Render("DIGITAL")
	case types.LeafHuman:
		return humanStyle.Render("HUMAN  ")
	default:
		return unknownStyle.Render("UNKNOWN")
	}
}

// renderResponse formats a capture or clarify result for the terminal.
func renderResponse(resp *types.CaptureResponse) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(resp.Task.Title))
	b.WriteString("\n")
	b.WriteString(metaStyle.Render(fmt.Sprintf("task %s · priority %s · %.2fh estimated · processed in %dms",
		resp.TaskID, resp.Task.Priority, resp.Task.EstimatedHours, resp.ProcessingTimeMs)))
	b.WriteString("\n\n")

	var steps strings.Builder
	for i, step := range resp.MicroSteps {
		if i > 0 {
			steps.WriteString("\n")
		}
		icon := step.Icon
		if icon == "" {
			icon = "•"
		}
		minutes := fmt.Sprintf("%d min", step.EstimatedMinutes)
		if step.EstimatedMinutes == 0 {
			minutes = "auto"
		}
		steps.WriteString(fmt.Sprintf("%d. %s %s  %s  %s",
			step.StepNumber, icon, leafBadge(step.LeafType), step.Description, metaStyle.Render(minutes)))
	}
	b.WriteString(panelStyle.Render(steps.String()))
	b.WriteString("\n\n")

	bd := resp.Breakdown
	b.WriteString(metaStyle.Render(fmt.Sprintf("%d steps · %d digital · %d human · %d unknown · ~%d min total",
		bd.TotalSteps, bd.DigitalCount, bd.HumanCount, bd.UnknownCount, bd.TotalMinutes)))
	b.WriteString("\n")

	if resp.NeedsClarification && len(resp.Clarifications) > 0 {
		b.WriteString("\n")
		b.WriteString(questionStyle.Render("Needs clarification:"))
		b.WriteString("\n")
		for _, q := range resp.Clarifications {
			b.WriteString(fmt.Sprintf("  %s  (%s)\n", q.Question, q.Field))
			if len(q.Options) > 0 {
				b.WriteString(metaStyle.Render("    options: " + strings.Join(q.Options, ", ")))
				b.WriteString("\n")
			}
		}
		b.WriteString(metaStyle.Render(fmt.Sprintf("\nAnswer with: focusflow clarify %s field=value\n", resp.TaskID)))
	}
	return b.String()
}
