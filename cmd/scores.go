package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/nestegg/internal/cli"
	"github.com/theirongolddev/nestegg/internal/features"
	"github.com/theirongolddev/nestegg/internal/purchase"
)

var (
	flagIncome      float64
	flagScoresLimit int
)

var scoresCmd = &cobra.Command{
	Use:   "scores",
	Short: "Score a user's stored purchases with the purchase model",
	RunE:  runScores,
}

func init() {
	scoresCmd.Flags().Float64Var(&flagIncome, "income", 0, "Monthly income (default from the dashboard)")
	scoresCmd.Flags().IntVar(&flagScoresLimit, "limit", 20, "Show only the most recent N purchases (0 for all)")
	rootCmd.AddCommand(scoresCmd)
}

func runScores(cmd *cobra.Command, _ []string) error {
	rt := openRuntime()
	defer rt.Close()

	ctx, cancel := commandContext(cmd)
	defer cancel()

	h := rt.engine.History().Load(flagUser)
	if h.Len() == 0 {
		fmt.Printf("\n  No purchases stored for user %d.\n", flagUser)
		return nil
	}
	records := h.Records
	if flagScoresLimit > 0 && len(records) > flagScoresLimit {
		records = records[len(records)-flagScoresLimit:]
	}

	income := resolveIncome(ctx, rt, flagIncome)
	scorer := rt.engine.Scorer()
	scores, err := scorer.PredictErr(features.Encode(records, income))
	if err != nil {
		slog.Warn("scorer failed, showing default scores", "error", err)
	}

	rows := make([][]any, 0, len(records))
	for i, r := range records {
		rows = append(rows, []any{
			r.Timestamp,
			r.Merchant,
			features.Canonical(r.Category, r.Merchant),
			r.Amount,
			purchase.Target(r, income),
			scores[i],
		})
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("PURCHASE SCORES", fmt.Sprintf("User %d", flagUser)))
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Columns: []cli.Column{
			{Header: "Time"},
			{Header: "Merchant"},
			{Header: "Category"},
			{Header: "Amount", Kind: cli.Money},
			{Header: "Target", Kind: cli.Score},
			{Header: "Score", Kind: cli.Score},
		},
		Rows: rows,
	}))

	st := scorer.Status()
	if st.Fitted {
		fmt.Printf("\n  Model fitted %s on %s samples\n\n", cli.FormatAgo(st.FittedAt), cli.FormatNumber(int64(st.Samples)))
	} else {
		fmt.Printf("\n  No fitted model yet; scores are the default. Run `nestegg retrain`.\n\n")
	}
	return nil
}

// resolveIncome prefers an explicit value, then the user's dashboard. It
// returns 0 when neither is available.
func resolveIncome(ctx context.Context, rt *runtime, explicit float64) float64 {
	if explicit > 0 {
		return explicit
	}
	src := dashboardSource(rt.cfg)
	if src == nil {
		return 0
	}
	dash, err := src.FetchDashboard(ctx, flagUser)
	if err != nil {
		slog.Warn("dashboard unavailable, assuming zero income", "user", flagUser, "error", err)
		return 0
	}
	return dash.Income
}
