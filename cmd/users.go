package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/nestegg/internal/cli"
	"github.com/theirongolddev/nestegg/internal/forecast"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "List users with stored history",
	RunE:  runUsers,
}

func init() {
	rootCmd.AddCommand(usersCmd)
}

func runUsers(_ *cobra.Command, _ []string) error {
	rt := openRuntime()
	defer rt.Close()

	hist := rt.engine.History()
	ids, err := hist.Users()
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		fmt.Printf("\n  No histories in %s.\n", hist.Dir())
		return nil
	}

	progressFn := func(current, total int) {
		if flagQuiet {
			return
		}
		if current%50 == 0 || current == total {
			fmt.Fprintf(os.Stderr, "\r  Loading [%d/%d]", current, total)
		}
	}
	res := hist.Warm(ids, progressFn)
	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "\r  Loaded %s purchases for %d users    \n", cli.FormatNumber(int64(res.Records)), res.Users)
	}

	trained := make(map[string]bool)
	if rt.bundles != nil {
		if infos, err := rt.bundles.ListBundles(); err == nil {
			for _, bi := range infos {
				trained[bi.Name] = true
			}
		}
	}

	rows := make([][]any, 0, len(ids))
	for _, id := range ids {
		h := hist.Load(id)
		last := "-"
		if r, ok := h.Last(); ok {
			last = r.Timestamp
		}
		fc := "no"
		if trained[forecast.BundleName(id)] {
			fc = "yes"
		}
		rows = append(rows, []any{id, h.Len(), last, fc})
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Users",
		Columns: []cli.Column{
			{Header: "User", Kind: cli.Count},
			{Header: "Purchases", Kind: cli.Count},
			{Header: "Latest"},
			{Header: "Forecaster"},
		},
		Rows: rows,
	}))
	if res.ParseErrors > 0 {
		fmt.Printf("\n  Skipped %d malformed lines\n", res.ParseErrors)
	}
	fmt.Println()
	return nil
}
