package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/abhisek/examforge/internal/ledger"
)

var rootCmd = &cobra.Command{
	Use:   "examforge",
	Short: "Synthesize exam Q&A datasets with an LLM pipeline",
	Long: "ExamForge — plan, write and review CPA exam question/answer pairs with a\n" +
		"multi-stage LLM pipeline, keeping only the samples that pass review.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Opportunistic: a missing .env is fine.
		_ = godotenv.Load()
		return setupLogger(cmd)
	},
}

// logger is configured once in the root PersistentPreRunE.
var logger = zap.NewNop()

func Execute() error {
	defer func() { _ = logger.Sync() }()
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite ledger file (overrides EXAMFORGE_DB env var)")
	rootCmd.PersistentFlags().String("config", "", "Path to YAML config file (overrides EXAMFORGE_CONFIG env var)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(splitCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(versionCmd)
}

func setupLogger(cmd *cobra.Command) error {
	verbose, _ := cmd.Flags().GetBool("verbose")

	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	l, err := cfg.Build()
	if err != nil {
		return err
	}
	logger = l
	return nil
}

// resolveDBPath returns the ledger path using --db flag (highest
// priority), then EXAMFORGE_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, ledger.EnsureDir(p)
	}
	return ledger.DefaultDBPath()
}
