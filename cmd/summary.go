package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/rentlens-cli/internal/analysis"
	"github.com/KaramelBytes/rentlens-cli/internal/table"
	"github.com/KaramelBytes/rentlens-cli/internal/utils"
)

var (
	sumFormat string
	sumOutput string
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print acceptance by unit group, market and property",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format := strings.ToLower(strings.TrimSpace(sumFormat))
		if format != "terminal" && format != "markdown" {
			return eris.Errorf("unsupported --format: %s (use terminal|markdown)", sumFormat)
		}
		ds, err := loadDataset()
		if err != nil {
			return err
		}
		rep := analysis.Summarize(ds, analysisOptions())
		tables := []*table.Table{
			table.FloorPlanTable(rep.FloorPlans),
			table.MarketTable(rep.Markets),
			table.PropertyTable(rep.LowProperties),
		}

		var b strings.Builder
		if format == "markdown" {
			b.WriteString(rep.Markdown())
			for _, t := range tables {
				b.WriteString("\n")
				b.WriteString(t.Markdown())
			}
		} else {
			for i, t := range tables {
				if i > 0 {
					b.WriteString("\n")
				}
				b.WriteString(t.Terminal())
			}
			for _, w := range rep.Warnings {
				b.WriteString("⚠ " + w + "\n")
			}
		}

		if sumOutput != "" {
			if err := utils.SafeWriteFile(sumOutput, []byte(b.String())); err != nil {
				return err
			}
			fmt.Printf("✓ Wrote %s\n", sumOutput)
			return nil
		}
		_, err = os.Stdout.WriteString(b.String())
		return err
	},
}

func init() {
	rootCmd.AddCommand(summaryCmd)
	summaryCmd.Flags().StringVar(&sumFormat, "format", "terminal", "output format: terminal | markdown")
	summaryCmd.Flags().StringVarP(&sumOutput, "output", "o", "", "write to file instead of stdout")
}
