package cmd

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/rentlens-cli/internal/chart"
)

var (
	chartAsset  string
	chartMarket string
	chartMode   string
)

var chartCmd = &cobra.Command{
	Use:   "chart",
	Short: "Render the adjustment-over-time chart for one asset or market",
	Example: `  rentlens chart --asset "Cortland Northlake" --mode detailed
  rentlens chart --market "Denver-Aurora-Lakewood, CO"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := chart.ParseMode(chartMode)
		if err != nil {
			return err
		}
		sel := chart.Selection{Asset: chartAsset, Market: chartMarket}
		if (sel.Asset == "") == (sel.Market == "") {
			return eris.Wrap(chart.ErrInvalidSelection, "specify exactly one of --asset or --market")
		}
		ds, err := loadDataset()
		if err != nil {
			return err
		}
		path, err := newRenderer(mode).RenderAdjustments(ds.Records, sel)
		if err != nil {
			return err
		}
		fmt.Printf("✓ Wrote %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(chartCmd)
	chartCmd.Flags().StringVar(&chartAsset, "asset", "", "asset name")
	chartCmd.Flags().StringVar(&chartMarket, "market", "", "market name")
	chartCmd.Flags().StringVar(&chartMode, "mode", "detailed", "simple | detailed (detailed colors asset charts by floor plan)")
}
