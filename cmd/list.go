package cmd

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var (
	listMarkets bool
	listAssets  bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List markets or assets present in the prepared dataset",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if listMarkets == listAssets { // either both true or both false
			return eris.New("specify exactly one of --markets or --assets")
		}
		ds, err := loadDataset()
		if err != nil {
			return err
		}
		names := ds.Assets()
		if listMarkets {
			names = ds.Markets()
		}
		if len(names) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "(none)")
			return nil
		}
		for _, n := range names {
			fmt.Fprintf(cmd.OutOrStdout(), "- %s\n", n)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listMarkets, "markets", false, "list markets")
	listCmd.Flags().BoolVar(&listAssets, "assets", false, "list assets")
}
