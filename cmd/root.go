// Package cmd implements the nestegg CLI commands.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/nestegg/internal/bank"
	"github.com/theirongolddev/nestegg/internal/config"
	"github.com/theirongolddev/nestegg/internal/forecast"
	"github.com/theirongolddev/nestegg/internal/pipeline"
	"github.com/theirongolddev/nestegg/internal/purchase"
	"github.com/theirongolddev/nestegg/internal/store"
)

var (
	flagDataDir string
	flagUser    int
	flagHorizon int
	flagGoal    float64
	flagInput   string
	flagQuiet   bool
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "nestegg",
	Short: "Savings trajectory forecaster",
	Long: "Merge purchase history, forecast spending and compare the projected\n" +
		"savings trajectory against an ideal plan toward a goal.",
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		setupLogging(loadConfigOrDefault())
	},
	RunE:          runPlan,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the main entry point called from main.go.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "  Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagDataDir, "data-dir", "d", "", "Data directory (default from config)")
	rootCmd.PersistentFlags().IntVarP(&flagUser, "user", "u", 1, "User id")
	rootCmd.PersistentFlags().IntVarP(&flagHorizon, "horizon", "n", 0, "Planning horizon in days (default from dashboard or config)")
	rootCmd.PersistentFlags().Float64Var(&flagGoal, "goal", 0, "Savings goal (default from dashboard or config)")
	rootCmd.PersistentFlags().StringVar(&flagInput, "input", "", "Read the dashboard from a JSON file instead of the source API")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Only log errors")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Debug logging")
}

// loadConfigOrDefault loads config, returning defaults on error, and applies
// the --data-dir override.
func loadConfigOrDefault() config.Config {
	cfg, err := config.Load()
	if err != nil {
		slog.Warn("config unreadable, using defaults", "path", config.ConfigPath(), "error", err)
		cfg = config.DefaultConfig()
	}
	if flagDataDir != "" {
		cfg.General.DataDir = flagDataDir
	}
	return cfg
}

func setupLogging(cfg config.Config) {
	var level slog.Level
	switch {
	case flagVerbose:
		level = slog.LevelDebug
	case flagQuiet:
		level = slog.LevelError
	default:
		if err := level.UnmarshalText([]byte(cfg.General.LogLevel)); err != nil {
			level = slog.LevelInfo
		}
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// runtime holds the wired engine and the resources it owns.
type runtime struct {
	cfg     config.Config
	engine  *pipeline.Engine
	bundles *store.BundleStore
}

func (r *runtime) Close() {
	if r.bundles != nil {
		_ = r.bundles.Close()
	}
}

// openRuntime builds the engine shared by all commands. A model database
// that cannot be opened degrades to in-memory models.
func openRuntime() *runtime {
	cfg := loadConfigOrDefault()
	rt := &runtime{cfg: cfg}

	var (
		fst forecast.BundleStore
		pst purchase.BundleStore
	)
	bundles, err := store.OpenBundles(cfg.ModelsPath())
	if err != nil {
		slog.Warn("model store unavailable, models will not persist", "path", cfg.ModelsPath(), "error", err)
	} else {
		rt.bundles = bundles
		fst, pst = bundles, bundles
	}

	var jitter pipeline.Jitter = pipeline.NoJitter{}
	if cfg.Forecast.JitterScale > 0 {
		jitter = pipeline.SeededJitter{Seed: cfg.Forecast.JitterSeed, Scale: cfg.Forecast.JitterScale}
	}

	rt.engine = pipeline.NewEngine(pipeline.Config{
		Source:  dashboardSource(cfg),
		History: store.NewHistoryStore(cfg.HistoryDir()),
		Scorer: purchase.New(pst, purchase.Options{
			BufferCap:    cfg.Scorer.BufferCap,
			DefaultScore: cfg.Scorer.DefaultScore,
			GBM: purchase.GBMParams{
				Trees:        cfg.Scorer.Trees,
				MaxDepth:     cfg.Scorer.MaxDepth,
				LearningRate: cfg.Scorer.LearningRate,
			},
		}),
		Forecasters: forecast.NewRegistry(fst, forecast.Options{
			MinTrainPoints: cfg.Forecast.MinTrainPoints,
			MaxTrainPoints: cfg.Forecast.MaxTrainPoints,
			Iterations:     cfg.Forecast.Iterations,
			LearningRate:   cfg.Forecast.LearningRate,
		}),
		WindowDays:     cfg.General.WindowDays,
		DefaultHorizon: cfg.General.DefaultHorizon,
		DefaultGoal:    cfg.General.DefaultGoal,
		Jitter:         jitter,
	})
	return rt
}

// dashboardSource picks --input over the configured API. It returns a nil
// interface when neither is set.
func dashboardSource(cfg config.Config) pipeline.Source {
	if flagInput != "" {
		return bank.FileSource{Path: flagInput}
	}
	if c := bank.NewClient(cfg.Source.BaseURL, cfg.Source.APIKey, cfg.Timeout()); c != nil {
		return c
	}
	return nil
}

// planRequest turns the shared flags into engine overrides.
func planRequest() pipeline.Request {
	req := pipeline.Request{Horizon: flagHorizon}
	if flagGoal > 0 {
		goal := flagGoal
		req.GoalAmount = &goal
	}
	return req
}

// commandContext bounds a one-shot command run.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, 2*time.Minute)
}
