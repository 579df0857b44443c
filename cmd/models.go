package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/nestegg/internal/cli"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List stored model bundles",
	RunE:  runModels,
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}

func runModels(_ *cobra.Command, _ []string) error {
	rt := openRuntime()
	defer rt.Close()

	if rt.bundles == nil {
		return errors.New("model store unavailable")
	}
	infos, err := rt.bundles.ListBundles()
	if err != nil {
		return fmt.Errorf("listing bundles: %w", err)
	}
	if len(infos) == 0 {
		fmt.Println("\n  No models stored yet.")
		return nil
	}

	rows := make([][]any, 0, len(infos))
	for _, bi := range infos {
		rows = append(rows, []any{
			bi.Name,
			bi.Kind,
			cli.FormatBytes(int64(bi.Size)),
			bi.Samples,
			cli.FormatAgo(bi.UpdatedAt),
		})
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("MODELS", rt.cfg.ModelsPath()))
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Columns: []cli.Column{
			{Header: "Name"},
			{Header: "Kind"},
			{Header: "Size", Kind: cli.Count},
			{Header: "Samples", Kind: cli.Count},
			{Header: "Updated"},
		},
		Rows: rows,
	}))

	st := rt.engine.Scorer().Status()
	if st.LastError != "" {
		fmt.Printf("\n  Scorer: %s\n", st.LastError)
	}
	fmt.Println()
	return nil
}
