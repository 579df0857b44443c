package cmd

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var flagClearYes bool

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete a user's stored history and forecaster",
	RunE:  runClear,
}

func init() {
	clearCmd.Flags().BoolVarP(&flagClearYes, "yes", "y", false, "Skip the confirmation prompt")
	rootCmd.AddCommand(clearCmd)
}

func runClear(_ *cobra.Command, _ []string) error {
	rt := openRuntime()
	defer rt.Close()

	if !flagClearYes {
		confirmed := false
		err := huh.NewConfirm().
			Title(fmt.Sprintf("Delete all stored purchases for user %d?", flagUser)).
			Description("The shared purchase scorer keeps what it has learned.").
			Affirmative("Delete").
			Negative("Cancel").
			Value(&confirmed).
			Run()
		if err != nil {
			return fmt.Errorf("confirmation: %w", err)
		}
		if !confirmed {
			fmt.Println("  Cancelled.")
			return nil
		}
	}

	if err := rt.engine.ClearUser(flagUser); err != nil {
		return err
	}

	fmt.Printf("  Cleared history and forecaster for user %d.\n", flagUser)
	return nil
}
