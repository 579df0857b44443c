package cmd

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/nestegg/internal/config"
	"github.com/theirongolddev/nestegg/internal/tui/theme"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	cfg, _ := config.Load()

	baseURL := cfg.Source.BaseURL
	apiKey := ""
	horizon := strconv.Itoa(cfg.General.DefaultHorizon)
	goal := strconv.FormatFloat(cfg.General.DefaultGoal, 'f', -1, 64)
	themeName := cfg.Appearance.Theme

	keyDesc := "Sent as a bearer token. Leave empty for none."
	if cfg.Source.APIKey != "" {
		keyDesc = fmt.Sprintf("Current: %s. Leave empty to keep it.", config.MaskKey(cfg.Source.APIKey))
	}

	themeOpts := make([]huh.Option[string], 0, len(theme.All))
	for _, name := range theme.Names() {
		themeOpts = append(themeOpts, huh.NewOption(name, name))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to nestegg").
				Description("Point nestegg at your banking dashboard service and pick plan defaults."),
			huh.NewInput().
				Title("Dashboard service URL").
				Description("GET {url}/dashboard/{user} must return the account dashboard.").
				Placeholder("https://bank.example.com/api").
				Value(&baseURL).
				Validate(validateURL),
			huh.NewInput().
				Title("API key").
				Description(keyDesc).
				EchoMode(huh.EchoModePassword).
				Value(&apiKey),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Default planning horizon").
				Options(
					huh.NewOption("30 days", "30"),
					huh.NewOption("60 days", "60"),
					huh.NewOption("90 days", "90"),
					huh.NewOption("180 days", "180"),
					huh.NewOption("365 days", "365"),
				).
				Value(&horizon),
			huh.NewInput().
				Title("Default savings goal").
				Value(&goal).
				Validate(validateGoal),
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themeOpts...).
				Value(&themeName),
		),
	)
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println("  Setup cancelled.")
			return nil
		}
		return fmt.Errorf("setup form: %w", err)
	}

	cfg.Source.BaseURL = strings.TrimSpace(baseURL)
	if k := strings.TrimSpace(apiKey); k != "" {
		cfg.Source.APIKey = k
	}
	if h, err := strconv.Atoi(horizon); err == nil {
		cfg.General.DefaultHorizon = h
	}
	if g, err := strconv.ParseFloat(strings.TrimSpace(goal), 64); err == nil {
		cfg.General.DefaultGoal = g
	}
	cfg.Appearance.Theme = themeName

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.ConfigPath())
	fmt.Println("  Run `nestegg setup` anytime to reconfigure.")
	fmt.Println()
	return nil
}

func validateURL(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return errors.New("enter an http(s) URL")
	}
	return nil
}

func validateGoal(s string) error {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v <= 0 {
		return errors.New("enter a positive amount")
	}
	return nil
}
