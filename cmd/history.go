package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/nestegg/internal/cli"
)

var (
	flagHistoryLimit int
	flagHistoryJSON  bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List a user's stored purchases",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&flagHistoryLimit, "limit", 50, "Show only the most recent N purchases (0 for all)")
	historyCmd.Flags().BoolVar(&flagHistoryJSON, "json", false, "Print the history as JSON")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(_ *cobra.Command, _ []string) error {
	rt := openRuntime()
	defer rt.Close()

	h := rt.engine.History().Load(flagUser)
	if flagHistoryJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(h)
	}
	if h.Len() == 0 {
		fmt.Printf("\n  No purchases stored for user %d.\n", flagUser)
		return nil
	}

	records := h.Records
	if flagHistoryLimit > 0 && len(records) > flagHistoryLimit {
		records = records[len(records)-flagHistoryLimit:]
	}

	var total float64
	rows := make([][]any, 0, len(records))
	for _, r := range records {
		recurring := ""
		if r.IsRecurring {
			recurring = "yes"
		}
		total += r.Amount
		rows = append(rows, []any{r.Timestamp, r.Merchant, r.Category, r.Amount, recurring})
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("PURCHASES", fmt.Sprintf("User %d", flagUser)))
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Columns: []cli.Column{
			{Header: "Time"},
			{Header: "Merchant"},
			{Header: "Category"},
			{Header: "Amount", Kind: cli.Money},
			{Header: "Recurring"},
		},
		Rows:   rows,
		Totals: []any{"Total", "", "", total, ""},
	}))
	fmt.Printf("\n  Showing %d of %s purchases\n\n", len(records), cli.FormatNumber(int64(h.Len())))
	return nil
}
