// focusflow is a task-capture CLI and server for people who struggle to start
// large tasks. Free text goes in; a plan of 2-5 minute micro-steps comes out,
// with clarification questions for anything the plan cannot execute yet.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"focusflow/internal/config"
	"focusflow/internal/kgraph"
	"focusflow/internal/llm"
	"focusflow/internal/logging"
	"focusflow/internal/pipeline"
	"focusflow/internal/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	verbose    bool
	configPath string
	workspace  string

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command.
var rootCmd = &cobra.Command{
	Use:   "focusflow",
	Short: "focusflow - capture tasks as executable micro-step plans",
	Long: `focusflow turns a free-text task note into a structured plan of
2-5 minute micro-steps, each labeled DIGITAL (software can do it),
HUMAN (you have to do it), or UNKNOWN (something is missing).

Missing details become clarification questions; answer them with the
clarify command and the affected steps resolve in place.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zc := zap.NewProductionConfig()
		if verbose {
			zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zc.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		if err := logging.Initialize(workspace); err != nil {
			return fmt.Errorf("failed to initialize log files: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.CloseAll()
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file (default <workspace>/.focusflow/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", ".", "workspace directory")

	rootCmd.AddCommand(captureCmd)
	rootCmd.AddCommand(clarifyCmd)
	rootCmd.AddCommand(serveCmd)
}

// loadConfig reads the config file and applies logging settings from it.
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = filepath.Join(workspace, ".focusflow", "config.yaml")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Logging.DebugMode = true
	}
	logging.SetConfig(logging.Settings{
		DebugMode:  cfg.Logging.DebugMode,
		Level:      cfg.Logging.Level,
		JSONFormat: cfg.Logging.JSONFormat,
		Categories: cfg.Logging.Categories,
	})
	return cfg, nil
}

// buildPipeline assembles the pipeline and its store from config.
// The returned cleanup closes the store.
func buildPipeline(cfg *config.Config) (*pipeline.Pipeline, func(), error) {
	client, err := llm.NewClientFromConfig(cfg.LLM)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build llm client: %w", err)
	}

	dbPath := cfg.Storage.DatabasePath
	if !filepath.IsAbs(dbPath) {
		dbPath = filepath.Join(workspace, dbPath)
	}
	taskStore, err := store.NewLocalStore(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open store: %w", err)
	}

	contexts := kgraph.NewProvider(taskStore)
	p := pipeline.New(cfg, client, taskStore, contexts)
	cleanup := func() { taskStore.Close() }
	return p, cleanup, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
