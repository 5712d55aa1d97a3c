package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/examforge/internal/config"
	"github.com/abhisek/examforge/internal/dataset"
	"github.com/abhisek/examforge/internal/ledger"
	"github.com/abhisek/examforge/internal/llm"
	"github.com/abhisek/examforge/internal/report"
	"github.com/abhisek/examforge/internal/synth"
)

const defaultOutputDir = "data/generated"

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a reviewed Q&A dataset for one exam topic",
	Example: `  examforge generate --topic 会计 --num-questions 200 --min-score 7
  examforge generate --topic 税法 -n 50 --min-score 7.5 --jsonl --output tax.jsonl
  examforge generate --topic 审计 -n 100 --min-score 7 --jsonl --append --output audit.jsonl`,
	RunE: runGenerate,
}

func init() {
	f := generateCmd.Flags()
	f.StringP("topic", "t", "", "Exam subject to generate questions for (required)")
	f.IntP("num-questions", "n", 200, "Number of questions to attempt")
	f.Float64("min-score", 0, "Reviewer-score acceptance threshold, 0-10 (required unless set in config)")
	f.Bool("jsonl", false, "Write line-delimited JSON instead of a JSON array")
	f.StringP("output", "o", "", "Destination file (default <output-dir>/<topic>_teacher_<n>.<ext>)")
	f.String("output-dir", defaultOutputDir, "Directory for default-named outputs")
	f.Bool("append", false, "Append to an existing JSONL dataset, continuing its sample IDs")
	f.Bool("overwrite", false, "Replace the destination if it exists")
	f.Bool("notes", false, "Generate a short teaching note per accepted sample")
	f.IntP("concurrency", "c", 0, "Samples to process in parallel (default 1)")
	f.Int("start-id", 0, "First sample ID (default 1, or continues the file with --append)")
	f.Int("flush-every", 0, "Accepted JSONL samples between disk flushes (default 50)")
	f.Int("progress-every", 1, "Completed samples between progress lines")
	f.Bool("offline", false, "Generate placeholder output without calling any API")
	f.String("provider", "", "LLM backend: deepseek, openai, anthropic, gemini, offline")
	f.String("model", "", "Model ID override for the selected backend")

	_ = generateCmd.MarkFlagRequired("topic")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	topic, _ := cmd.Flags().GetString("topic")
	count, _ := cmd.Flags().GetInt("num-questions")

	fileCfg, err := loadConfigFile(cmd)
	if err != nil {
		return err
	}

	pipeCfg, err := buildPipelineConfig(cmd, fileCfg)
	if err != nil {
		return err
	}

	format := dataset.FormatJSON
	if jsonl, _ := cmd.Flags().GetBool("jsonl"); jsonl {
		format = dataset.FormatJSONL
	}

	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		outputDir, _ := cmd.Flags().GetString("output-dir")
		if outputDir == defaultOutputDir && fileCfg.OutputDir != "" {
			outputDir = fileCfg.OutputDir
		}
		output = dataset.DefaultPath(outputDir, topic, count, format)
	} else if !cmd.Flags().Changed("jsonl") {
		format = dataset.FormatForPath(output)
	}

	appendMode, _ := cmd.Flags().GetBool("append")
	overwrite, _ := cmd.Flags().GetBool("overwrite")

	if appendMode && !cmd.Flags().Changed("start-id") {
		next, err := dataset.NextID(output)
		if err != nil {
			return fmt.Errorf("resume from %s: %w", output, err)
		}
		pipeCfg.StartID = next
	}

	flushEvery := 0
	if cmd.Flags().Changed("flush-every") {
		flushEvery, _ = cmd.Flags().GetInt("flush-every")
	} else if fileCfg.FlushEvery != nil {
		flushEvery = *fileCfg.FlushEvery
	}
	sink, err := dataset.NewWriter(output, dataset.Options{
		Format:     format,
		Append:     appendMode,
		Overwrite:  overwrite,
		FlushEvery: flushEvery,
	})
	if err != nil {
		if errors.Is(err, dataset.ErrDestinationExists) {
			return fmt.Errorf("%w (use --append or --overwrite)", err)
		}
		return err
	}

	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return fmt.Errorf("resolve ledger path: %w", err)
	}
	led, err := ledger.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer led.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider, offline, err := buildProvider(ctx, cmd, fileCfg, led)
	if err != nil {
		return err
	}
	if offline {
		fmt.Fprintln(os.Stderr, report.OfflineBanner())
	}

	orch := synth.NewOrchestrator(provider, pipeCfg, sink, logger, func(st synth.RunStats) {
		fmt.Println(report.ProgressLine(st))
	})

	startedAt := time.Now()
	stats, runErr := orch.Run(ctx, topic, count)

	if closeErr := sink.Close(); closeErr != nil && runErr == nil {
		runErr = &synth.ErrIO{Op: "close", Err: closeErr}
	}

	recordRun(led, stats, pipeCfg, output, startedAt, runErr)

	if stats.RunID != "" {
		fmt.Println()
		fmt.Println(report.RunSummary(stats, output))
	}

	if runErr != nil {
		return runErr
	}
	if ctx.Err() != nil {
		fmt.Fprintln(os.Stderr, "Interrupted; accepted samples were flushed.")
	}
	return nil
}

// buildProvider resolves the LLM backend. Flags beat environment
// discovery; the YAML file supplies retry and timeout tuning.
func buildProvider(ctx context.Context, cmd *cobra.Command, fileCfg *config.File, rec llm.Recorder) (llm.Provider, bool, error) {
	cfg, found := llm.DiscoverConfig()
	if !found {
		cfg = llm.DefaultConfig()
		cfg.Provider = "offline"
	}

	if p, _ := cmd.Flags().GetString("provider"); p != "" {
		cfg.Provider = p
	}
	if off, _ := cmd.Flags().GetBool("offline"); off {
		cfg.Provider = "offline"
	}
	if m, _ := cmd.Flags().GetString("model"); m != "" {
		cfg.SetModel(m)
	}
	fileCfg.ApplyLLM(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, false, err
	}
	provider, err := llm.NewProvider(ctx, cfg, rec)
	if err != nil {
		return nil, false, err
	}
	return provider, cfg.Provider == "offline", nil
}

// loadConfigFile reads the --config path or the default location.
func loadConfigFile(cmd *cobra.Command) (*config.File, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	return config.Load(path)
}

// buildPipelineConfig merges defaults, the config file and flags, in
// ascending priority.
func buildPipelineConfig(cmd *cobra.Command, fileCfg *config.File) (synth.Config, error) {
	cfg := synth.DefaultConfig()

	switch {
	case cmd.Flags().Changed("min-score"):
		cfg.MinScore, _ = cmd.Flags().GetFloat64("min-score")
	case fileCfg.MinScore != nil:
		cfg.MinScore = *fileCfg.MinScore
	default:
		return cfg, errors.New("--min-score is required (or set min_score in the config file)")
	}
	if cfg.MinScore < 0 || cfg.MinScore > 10 {
		return cfg, fmt.Errorf("min score %.1f out of range [0, 10]", cfg.MinScore)
	}

	if len(fileCfg.Difficulties) > 0 {
		var cycle []synth.Difficulty
		for _, d := range fileCfg.Difficulties {
			parsed, ok := synth.ParseDifficulty(strings.ToLower(d))
			if !ok {
				return cfg, fmt.Errorf("unknown difficulty %q in config", d)
			}
			cycle = append(cycle, parsed)
		}
		cfg.Difficulties = cycle
	}

	if notes, _ := cmd.Flags().GetBool("notes"); notes {
		cfg.Notes = true
	} else if fileCfg.Notes != nil {
		cfg.Notes = *fileCfg.Notes
	}

	if c, _ := cmd.Flags().GetInt("concurrency"); c > 0 {
		cfg.Concurrency = c
	} else if fileCfg.Concurrency != nil && *fileCfg.Concurrency > 0 {
		cfg.Concurrency = *fileCfg.Concurrency
	}

	if fileCfg.BreakerThreshold != nil && *fileCfg.BreakerThreshold > 0 {
		cfg.BreakerThreshold = *fileCfg.BreakerThreshold
	}

	if startID, _ := cmd.Flags().GetInt("start-id"); startID > 0 {
		cfg.StartID = startID
	}

	if pe, _ := cmd.Flags().GetInt("progress-every"); pe > 0 {
		cfg.ProgressEvery = pe
	}

	return cfg, nil
}

func recordRun(led *ledger.Ledger, st synth.RunStats, cfg synth.Config, output string, startedAt time.Time, runErr error) {
	if st.RunID == "" {
		// The run never started (configuration rejected up front).
		return
	}

	status := "completed"
	errMsg := ""
	if runErr != nil {
		status = "aborted"
		errMsg = runErr.Error()
	} else if st.Completed < st.Requested {
		status = "interrupted"
	}

	rec := ledger.Run{
		ID:         st.RunID,
		Topic:      st.Topic,
		Requested:  st.Requested,
		Completed:  st.Completed,
		Accepted:   st.Accepted,
		Rejected:   st.Rejected,
		Fallback:   st.Fallback,
		MinScore:   cfg.MinScore,
		StartedAt:  startedAt,
		DurationMs: time.Since(startedAt).Milliseconds(),
		OutputPath: output,
		Status:     status,
		Error:      errMsg,
	}
	if err := led.AppendRun(context.Background(), rec); err != nil {
		logger.Warn("failed to record run", zap.Error(err))
	}
}
