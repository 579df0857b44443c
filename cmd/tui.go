package cmd

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/nestegg/internal/bank"
	"github.com/theirongolddev/nestegg/internal/model"
	"github.com/theirongolddev/nestegg/internal/tui"
	"github.com/theirongolddev/nestegg/internal/tui/theme"
)

var flagTUIRefresh bool

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive trajectory dashboard",
	RunE:  runTUI,
}

func init() {
	tuiCmd.Flags().BoolVar(&flagTUIRefresh, "watch", false, "Reload at the daemon polling interval")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(_ *cobra.Command, _ []string) error {
	rt := openRuntime()
	defer rt.Close()

	theme.SetActive(rt.cfg.Appearance.Theme)

	// Force TrueColor profile so all background styling produces ANSI codes
	// Without this, lipgloss may default to Ascii profile (no colors)
	lipgloss.SetColorProfile(termenv.TrueColor)

	req := planRequest()
	load := func(ctx context.Context) (*model.GraphData, error) {
		if flagInput == "" && rt.cfg.Source.BaseURL == "" {
			// Without a source, replay the stored history alone.
			return rt.engine.ProcessDashboard(ctx, bank.Dashboard{UserID: flagUser}, req)
		}
		return rt.engine.Process(ctx, flagUser, req)
	}

	opts := tui.Options{UserID: flagUser}
	if flagTUIRefresh {
		opts.AutoRefresh = rt.cfg.Interval()
	}

	p := tea.NewProgram(tui.NewApp(load, opts), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
