package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/nestegg/internal/cli"
	"github.com/theirongolddev/nestegg/internal/pipeline"
)

var flagDailyWindow int

var dailyCmd = &cobra.Command{
	Use:   "daily",
	Short: "Daily spend over the aggregation window",
	RunE:  runDaily,
}

func init() {
	dailyCmd.Flags().IntVar(&flagDailyWindow, "window", 0, "Window in days (default from config)")
	rootCmd.AddCommand(dailyCmd)
}

func runDaily(_ *cobra.Command, _ []string) error {
	rt := openRuntime()
	defer rt.Close()

	window := flagDailyWindow
	if window < 1 {
		window = rt.cfg.General.WindowDays
	}

	h := rt.engine.History().Load(flagUser)
	if h.Len() == 0 {
		fmt.Printf("\n  No purchases stored for user %d.\n", flagUser)
		return nil
	}
	days := pipeline.AggregateDays(h, window, time.Now())

	fmt.Println()
	fmt.Println(cli.RenderTitle("DAILY SPEND", fmt.Sprintf("User %d", flagUser), fmt.Sprintf("last %d days", window)))
	fmt.Println()

	rows := make([][]any, 0, len(days))
	for _, d := range days {
		rows = append(rows, []any{
			d.Date.Format("2006-01-02"),
			cli.FormatDayOfWeek(int(d.Date.Weekday())),
			d.Amount,
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Columns: []cli.Column{
			{Header: "Date"},
			{Header: "Day"},
			{Header: "Spend", Kind: cli.Bar},
		},
		Rows: rows,
	}))

	total := days.Total()
	fmt.Printf("\n  Total %s · average %s/day\n\n",
		cli.FormatMoney(total), cli.FormatMoney(total/float64(max(len(days), 1))))
	return nil
}
