package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/nestegg/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if flagDataDir != "" {
		cfg.General.DataDir = flagDataDir
	}

	fmt.Printf("  Config file: %s\n", config.ConfigPath())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Data directory:  %s\n", cfg.DataDir())
	fmt.Printf("    Window days:     %d\n", cfg.General.WindowDays)
	fmt.Printf("    Default horizon: %d days\n", cfg.General.DefaultHorizon)
	fmt.Printf("    Default goal:    $%.0f\n", cfg.General.DefaultGoal)
	fmt.Printf("    Log level:       %s\n", cfg.General.LogLevel)
	fmt.Println()

	fmt.Println("  [Source]")
	if cfg.Source.BaseURL != "" {
		fmt.Printf("    Base URL: %s\n", cfg.Source.BaseURL)
	} else {
		fmt.Println("    Base URL: not configured")
	}
	if cfg.Source.APIKey != "" {
		fmt.Printf("    API key:  %s\n", config.MaskKey(cfg.Source.APIKey))
	} else {
		fmt.Println("    API key:  not configured")
	}
	fmt.Printf("    Timeout:  %s\n", cfg.Timeout())
	fmt.Println()

	fmt.Println("  [Forecast]")
	fmt.Printf("    Train points: %d-%d\n", cfg.Forecast.MinTrainPoints, cfg.Forecast.MaxTrainPoints)
	fmt.Printf("    Iterations:   %d @ %g\n", cfg.Forecast.Iterations, cfg.Forecast.LearningRate)
	if cfg.Forecast.JitterScale > 0 {
		fmt.Printf("    Jitter:       %g (seed %d)\n", cfg.Forecast.JitterScale, cfg.Forecast.JitterSeed)
	} else {
		fmt.Println("    Jitter:       off")
	}
	fmt.Println()

	fmt.Println("  [Scorer]")
	fmt.Printf("    Buffer:        %d samples\n", cfg.Scorer.BufferCap)
	fmt.Printf("    Trees:         %d (depth %d, rate %g)\n", cfg.Scorer.Trees, cfg.Scorer.MaxDepth, cfg.Scorer.LearningRate)
	fmt.Printf("    Default score: %.0f\n", cfg.Scorer.DefaultScore)
	fmt.Println()

	fmt.Println("  [Daemon]")
	fmt.Printf("    Address:  %s\n", cfg.Daemon.Addr)
	fmt.Printf("    Interval: %s\n", cfg.Interval())
	if len(cfg.Daemon.WatchUsers) > 0 {
		fmt.Printf("    Watching: %v\n", cfg.Daemon.WatchUsers)
	} else {
		fmt.Println("    Watching: none")
	}
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  Run `nestegg setup` to reconfigure.")
	return nil
}
