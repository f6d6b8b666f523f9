package main

import (
	"fmt"
	"strings"

	"focusflow/internal/types"

	"github.com/spf13/cobra"
)

var (
	captureUser        string
	captureAuto        bool
	captureNoQuestions bool
)

// captureCmd runs one capture end to end and prints the plan.
var captureCmd = &cobra.Command{
	Use:   "capture [task text]",
	Short: "Turn a free-text task note into a micro-step plan",
	Long: `Runs the capture pipeline on the given text and prints the resulting
plan. If details are missing, the printed questions can be answered with:

  focusflow clarify <task-id> field=value`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCapture,
}

func init() {
	captureCmd.Flags().StringVarP(&captureUser, "user", "u", "", "user id for prior-knowledge lookup")
	captureCmd.Flags().BoolVar(&captureAuto, "auto", false, "mark digital steps for automatic execution")
	captureCmd.Flags().BoolVar(&captureNoQuestions, "no-questions", false, "suppress clarification questions")
}

func runCapture(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	p, cleanup, err := buildPipeline(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	resp, err := p.Capture(cmd.Context(), types.CaptureRequest{
		Text:          strings.Join(args, " "),
		UserID:        captureUser,
		AutoMode:      captureAuto,
		AskForClarity: !captureNoQuestions,
	})
	if err != nil {
		return err
	}

	fmt.Print(renderResponse(resp))
	return nil
}

// clarifyCmd feeds answers back into a stored task.
var clarifyCmd = &cobra.Command{
	Use:   "clarify [task-id] [field=value ...]",
	Short: "Answer clarification questions for a captured task",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runClarify,
}

func runClarify(cmd *cobra.Command, args []string) error {
	answers := make(map[string]string)
	for _, pair := range args[1:] {
		field, value, ok := strings.Cut(pair, "=")
		if !ok || field == "" {
			return fmt.Errorf("invalid answer %q, expected field=value", pair)
		}
		answers[field] = value
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	p, cleanup, err := buildPipeline(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	resp, err := p.Clarify(cmd.Context(), types.ClarifyRequest{
		TaskID:  args[0],
		Answers: answers,
	})
	if err != nil {
		return err
	}

	fmt.Print(renderResponse(resp))
	return nil
}
