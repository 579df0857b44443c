package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/nestegg/internal/cli"
	"github.com/theirongolddev/nestegg/internal/pipeline"
)

var retrainCmd = &cobra.Command{
	Use:   "retrain",
	Short: "Refit the purchase scorer and the user's forecaster from stored history",
	RunE:  runRetrain,
}

func init() {
	retrainCmd.Flags().Float64Var(&flagIncome, "income", 0, "Monthly income (default from the dashboard)")
	rootCmd.AddCommand(retrainCmd)
}

func runRetrain(cmd *cobra.Command, _ []string) error {
	rt := openRuntime()
	defer rt.Close()

	ctx, cancel := commandContext(cmd)
	defer cancel()

	h := rt.engine.History().Load(flagUser)
	if h.Len() == 0 {
		fmt.Printf("\n  No purchases stored for user %d.\n", flagUser)
		return nil
	}
	income := resolveIncome(ctx, rt, flagIncome)

	start := time.Now()
	scorer := rt.engine.Scorer()
	if !scorer.Retrain(h.Records, income) {
		return fmt.Errorf("scorer retrain failed: %s", scorer.LastError())
	}
	st := scorer.Status()
	fmt.Printf("\n  Scorer refit on %s samples (%s)\n",
		cli.FormatNumber(int64(st.Samples)), time.Since(start).Round(time.Millisecond))

	series := pipeline.SpendSeries(h, rt.cfg.General.WindowDays, income, time.Now())
	fc := rt.engine.Forecasters().Get(flagUser)
	trained, err := fc.Train(series)
	switch {
	case !trained && err != nil:
		fmt.Printf("  Forecaster not trained: %v\n\n", err)
	case !trained:
		fmt.Printf("  Forecaster not trained: only %d days of spend\n\n", len(series))
	case err != nil:
		fmt.Printf("  Forecaster trained but not saved: %v\n\n", err)
	default:
		fmt.Printf("  Forecaster trained on %d days of spend\n\n", len(series))
	}
	return nil
}
