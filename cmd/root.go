package cmd

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	cfgpkg "github.com/KaramelBytes/rentlens-cli/internal/config"
)

var (
	cfgFile string
	debug   bool
	// Input/output overrides (take precedence over config when set)
	flagBaselineDir string
	flagAssetFile   string
	flagFiguresDir  string

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "rentlens",
	Short: "Rent recommendation acceptance metrics, charts and dashboard",
	Long: `rentlens reads baseline exports of rent recommendations, joins them with the
active asset registry and reports how often rate managers accept the
recommended rent: a rolling acceptance trend, tables by unit group, market and
property, and adjustment-over-time charts per asset or market.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := cfgpkg.Load(cfgFile)
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		cfg = c
		applyOverrides(cmd)
		if err := cfgpkg.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "init logger")
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.rentlens/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagBaselineDir, "baseline-dir", "", "directory of baseline export fragments (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagAssetFile, "asset-file", "", "active asset registry CSV (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagFiguresDir, "figures-dir", "", "output directory for figures (overrides config)")
}

// applyOverrides copies explicitly set persistent flags onto cfg.
func applyOverrides(cmd *cobra.Command) {
	f := cmd.Flags()
	if f.Changed("baseline-dir") {
		cfg.BaselineDir = flagBaselineDir
	}
	if f.Changed("asset-file") {
		cfg.AssetFile = flagAssetFile
	}
	if f.Changed("figures-dir") {
		cfg.FiguresDir = flagFiguresDir
	}
	if debug {
		cfg.Log.Level = "debug"
	}
}
