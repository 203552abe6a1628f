package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/corvidlabs/noctua/pkg/events"
	"github.com/corvidlabs/noctua/pkg/llm"
	"github.com/corvidlabs/noctua/pkg/pipeline"
	"github.com/corvidlabs/noctua/pkg/state"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"

	cfgFile           string
	targetURL         string
	userIntent        string
	baseDir           string
	model             string
	maxRepairAttempts int

	rootCmd = &cobra.Command{
		Use:   "noctua",
		Short: "Noctua builds a working web scraper from a URL and an intent",
		Long: `Noctua drives an LLM through reconnaissance, schema design, code
generation, testing, and repair until it produces a working scraper for a
target site, or exhausts its repair budget trying.`,
	}

	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Run the scraper-development pipeline against a target URL",
		RunE:  runPipeline,
	}
)

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .noctua/config.yaml)")

	runCmd.Flags().StringVar(&targetURL, "url", "", "target URL to scrape (required)")
	runCmd.Flags().StringVar(&userIntent, "intent", "", "plain-language description of the data to extract (required)")
	runCmd.Flags().StringVar(&baseDir, "base-dir", ".noctua/runs", "directory under which run workspaces are created")
	runCmd.Flags().StringVar(&model, "model", "", "model name (defaults to the Gemini client's built-in default)")
	runCmd.Flags().IntVar(&maxRepairAttempts, "max-repair-attempts", 3, "number of REPAIR attempts allowed before the run fails")
	_ = runCmd.MarkFlagRequired("url")
	_ = runCmd.MarkFlagRequired("intent")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("noctua %s\n", version)
			fmt.Printf("  commit: %s\n", commit)
			fmt.Printf("  built:  %s\n", date)
		},
	})
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".noctua")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.AutomaticEnv()
	_ = viper.ReadInConfig()
}

func runPipeline(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: failed to load .env file: %v\n", err)
	}

	apiKey := viper.GetString("gemini_api_key")
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return fmt.Errorf("no Gemini API key: set GEMINI_API_KEY or gemini_api_key in .noctua/config.yaml")
	}

	resolvedModel := model
	if resolvedModel == "" {
		resolvedModel = viper.GetString("model")
	}

	client, err := llm.NewGeminiClient(apiKey, resolvedModel)
	if err != nil {
		return fmt.Errorf("create Gemini client: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := pipeline.Options{
		BaseDir:           baseDir,
		Client:            client,
		Model:             client.ModelName(),
		MaxRepairAttempts: maxRepairAttempts,
		Observer:          printEvent,
		Budgets:           pipeline.DefaultBudgets(),
	}

	st, err := pipeline.Run(ctx, targetURL, userIntent, opts)
	if err != nil {
		return fmt.Errorf("pipeline setup failed: %w", err)
	}

	switch st.CurrentStage {
	case state.StageDone:
		fmt.Printf("\nscraper ready: %s\n", st.ScraperDir)
		return nil
	case state.StageFailed:
		fmt.Fprintf(os.Stderr, "\nrun failed: %s\n", st.Error)
		os.Exit(1)
	default:
		fmt.Fprintf(os.Stderr, "\nrun did not finish (stopped mid-%s)\n", st.CurrentStage)
		os.Exit(1)
	}
	return nil
}

// printEvent renders a pipeline event as a single console line. It is the
// default Observer for CLI runs; a future machine-readable mode can swap
// this for a JSON encoder without touching the pipeline.
func printEvent(e events.Event) {
	switch e.Kind {
	case events.KindStageStart:
		fmt.Printf("[%s] starting\n", e.Stage)
	case events.KindStageComplete:
		fmt.Printf("[%s] done (%dms): %s\n", e.Stage, e.DurationMs, e.Summary)
	case events.KindStageError:
		fmt.Printf("[%s] error: %s\n", e.Stage, e.Error)
	case events.KindStageToolStart:
		fmt.Printf("[%s]   tool %s...\n", e.Stage, e.Tool)
	case events.KindStageToolEnd:
		fmt.Printf("[%s]   tool %s (%dms)\n", e.Stage, e.Tool, e.DurationMs)
	case events.KindTestResult:
		status := "fail"
		records := 0
		if e.Report != nil {
			if e.Report.Success {
				status = "pass"
			}
			records = e.Report.RecordCount
		}
		fmt.Printf("[test] attempt %d: %s (%d records)\n", e.Attempt, status, records)
	case events.KindRepairAttempt:
		fmt.Printf("[repair] attempt %d/%d\n", e.Attempt, e.MaxAttempts)
	case events.KindPipelineComplete:
		fmt.Printf("pipeline complete: %s (%d records)\n", e.ScraperDir, e.RecordCount)
	case events.KindPipelineFailed:
		fmt.Printf("pipeline failed at %s: %s\n", e.Stage, e.Error)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
