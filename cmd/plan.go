package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/nestegg/internal/cli"
	"github.com/theirongolddev/nestegg/internal/model"
)

var flagPlanJSON bool

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Fetch the dashboard and print the savings trajectory",
	RunE:  runPlan,
}

func init() {
	planCmd.Flags().BoolVar(&flagPlanJSON, "json", false, "Print the full graph data as JSON")
	rootCmd.Flags().BoolVar(&flagPlanJSON, "json", false, "Print the full graph data as JSON")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, _ []string) error {
	rt := openRuntime()
	defer rt.Close()

	if flagInput == "" && rt.cfg.Source.BaseURL == "" {
		return errors.New("no dashboard source: set source.base_url (nestegg setup) or pass --input")
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	g, err := rt.engine.Process(ctx, flagUser, planRequest())
	if err != nil {
		return err
	}

	if flagPlanJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(g)
	}
	printPlan(g)
	return nil
}

func printPlan(g *model.GraphData) {
	m := g.Metadata
	full := g.Views.FullHorizon

	fmt.Println()
	fmt.Println(cli.RenderTitle("SAVINGS PLAN", fmt.Sprintf("User %d", m.UserID), fmt.Sprintf("%d days", m.DaysHorizon)))
	fmt.Println()

	updated := "no"
	if m.ModelUpdated {
		updated = "yes"
	}
	fmt.Print(cli.RenderFields("", []cli.Field{
		{Label: "Current savings", Kind: cli.Money, Value: m.CurrentSavings},
		{Label: "Goal", Kind: cli.Money, Value: m.GoalAmount},
		{Label: "Monthly income", Kind: cli.Money, Value: m.IncomeMonthly},
		{Label: "Projected at end", Kind: cli.Money, Value: full.ProjectedSavings.Final()},
		{Label: "Ideal at end", Kind: cli.Money, Value: full.IdealPlan.Final()},
		{Label: "Alignment score", Kind: cli.Score, Value: m.MoneyScore},
		{Label: "Overall score", Kind: cli.Score, Value: m.OverallScore},
		{Label: "Purchases", Kind: cli.Count, Value: m.HistoryLength},
		{Label: "Forecast", Value: m.ForecastMode},
		{Label: "Scorer updated", Value: updated},
	}))

	fmt.Println()
	fmt.Printf("  Goal      %s\n", cli.RenderProgressBar(full.ProjectedSavings.Final(), m.GoalAmount, 30))
	fmt.Printf("  Projected %s\n", cli.RenderSparkline(full.ProjectedSavings))
	fmt.Printf("  Ideal     %s\n", cli.RenderSparkline(full.IdealPlan))
	fmt.Println()

	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Milestones",
		Columns: []cli.Column{
			{Header: "Day", Kind: cli.Count},
			{Header: "Ideal", Kind: cli.MoneyShort},
			{Header: "Projected", Kind: cli.MoneyShort},
			{Header: "Gap", Kind: cli.Delta},
		},
		Rows: milestoneRows(full),
	}))

	if m.ModelError != nil {
		fmt.Printf("\n  Note: %s\n", *m.ModelError)
	}
	fmt.Println()
}

// milestoneRows samples the curves weekly plus the final day.
func milestoneRows(c model.CurveSet) [][]any {
	var rows [][]any
	n := len(c.Days)
	for i := 0; i < n; i += 7 {
		rows = append(rows, milestoneRow(c, i))
	}
	if n > 0 && (n-1)%7 != 0 {
		rows = append(rows, milestoneRow(c, n-1))
	}
	return rows
}

func milestoneRow(c model.CurveSet, i int) []any {
	return []any{
		c.Days[i],
		c.IdealPlan[i],
		c.ProjectedSavings[i],
		c.ProjectedSavings[i] - c.IdealPlan[i],
	}
}
