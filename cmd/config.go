package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/rentlens-cli/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set rentlens configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "No config loaded")
			return nil
		}
		printConfig(cmd.OutOrStdout(), cfg)
		return nil
	},
}

func printConfig(w io.Writer, c *cfgpkg.Global) {
	fmt.Fprintf(w, "baseline_dir: %s\n", c.BaselineDir)
	fmt.Fprintf(w, "asset_file: %s\n", c.AssetFile)
	if c.XLSXSheet != "" {
		fmt.Fprintf(w, "xlsx_sheet: %s\n", c.XLSXSheet)
	}
	fmt.Fprintf(w, "excluded_users: %d configured\n", len(c.ExcludedUsers))
	fmt.Fprintf(w, "acceptance_tolerance: %.2f\n", c.AcceptanceTolerance)
	fmt.Fprintf(w, "unit_group_min_count: %d\n", c.UnitGroupMinCount)
	fmt.Fprintf(w, "property_min_count: %d\n", c.PropertyMinCount)
	fmt.Fprintf(w, "significance_level: %.3f\n", c.SignificanceLevel)
	fmt.Fprintf(w, "low_acceptance_limit: %d\n", c.LowAcceptanceLimit)
	fmt.Fprintf(w, "rolling_window: %d\n", c.RollingWindow)
	fmt.Fprintf(w, "figures_dir: %s\n", c.FiguresDir)
	fmt.Fprintf(w, "export_xlsx: %t\n", c.ExportXLSX)
	fmt.Fprintf(w, "chart_width_in: %.1f\n", c.ChartWidthIn)
	fmt.Fprintf(w, "chart_height_in: %.1f\n", c.ChartHeightIn)
	fmt.Fprintf(w, "trend_start: %s\n", c.TrendStart)
	fmt.Fprintf(w, "trend_y_min: %.2f\n", c.TrendYMin)
	fmt.Fprintf(w, "trend_y_max: %.2f\n", c.TrendYMax)
	fmt.Fprintf(w, "batch_assets: %s\n", strings.Join(c.BatchAssets, "; "))
	fmt.Fprintf(w, "batch_markets: %s\n", strings.Join(c.BatchMarkets, "; "))
	fmt.Fprintf(w, "featured_markets: %s\n", strings.Join(c.FeaturedMarkets, "; "))
	fmt.Fprintf(w, "annotated_markets: %s\n", strings.Join(c.AnnotatedMarkets, "; "))
	fmt.Fprintf(w, "dashboard_addr: %s\n", c.DashboardAddr)
	fmt.Fprintf(w, "log.level: %s\n", c.Log.Level)
	fmt.Fprintf(w, "log.format: %s\n", c.Log.Format)
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value> [value...]",
	Short: "Set a config value and save to disk",
	Long: `Set a config value and save to disk. List keys (excluded_users, batch_assets,
batch_markets, featured_markets, annotated_markets) take one argument per item.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		if err := setConfigValue(cfg, args[0], args[1:]); err != nil {
			return err
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func setConfigValue(c *cfgpkg.Global, key string, vals []string) error {
	val := vals[0]
	scalar := func() error {
		if len(vals) != 1 {
			return eris.Errorf("%s takes exactly one value", key)
		}
		return nil
	}
	setInt := func(dst *int) error {
		if err := scalar(); err != nil {
			return err
		}
		i, err := strconv.Atoi(val)
		if err != nil || i < 0 {
			return eris.Errorf("invalid int for %s: %v", key, val)
		}
		*dst = i
		return nil
	}
	setFloat := func(dst *float64) error {
		if err := scalar(); err != nil {
			return err
		}
		f, err := strconv.ParseFloat(val, 64)
		if err != nil || f < 0 {
			return eris.Errorf("invalid float for %s: %v", key, val)
		}
		*dst = f
		return nil
	}
	setString := func(dst *string) error {
		if err := scalar(); err != nil {
			return err
		}
		*dst = val
		return nil
	}

	switch key {
	case "baseline_dir":
		return setString(&c.BaselineDir)
	case "asset_file":
		return setString(&c.AssetFile)
	case "xlsx_sheet":
		return setString(&c.XLSXSheet)
	case "figures_dir":
		return setString(&c.FiguresDir)
	case "dashboard_addr":
		return setString(&c.DashboardAddr)
	case "trend_start":
		if err := scalar(); err != nil {
			return err
		}
		if _, err := time.Parse("2006-01-02", val); err != nil {
			return eris.Errorf("invalid date for trend_start: %s (want YYYY-MM-DD)", val)
		}
		c.TrendStart = val
		return nil
	case "acceptance_tolerance":
		return setFloat(&c.AcceptanceTolerance)
	case "significance_level":
		if err := setFloat(&c.SignificanceLevel); err != nil {
			return err
		}
		if c.SignificanceLevel <= 0 || c.SignificanceLevel >= 1 {
			return eris.Errorf("significance_level must be in (0, 1): %v", val)
		}
		return nil
	case "trend_y_min":
		return setFloat(&c.TrendYMin)
	case "trend_y_max":
		return setFloat(&c.TrendYMax)
	case "chart_width_in":
		return setFloat(&c.ChartWidthIn)
	case "chart_height_in":
		return setFloat(&c.ChartHeightIn)
	case "unit_group_min_count":
		return setInt(&c.UnitGroupMinCount)
	case "property_min_count":
		return setInt(&c.PropertyMinCount)
	case "low_acceptance_limit":
		return setInt(&c.LowAcceptanceLimit)
	case "rolling_window":
		return setInt(&c.RollingWindow)
	case "export_xlsx":
		if err := scalar(); err != nil {
			return err
		}
		b, err := strconv.ParseBool(val)
		if err != nil {
			return eris.Errorf("invalid bool for export_xlsx: %v", val)
		}
		c.ExportXLSX = b
		return nil
	case "excluded_users":
		c.ExcludedUsers = vals
	case "batch_assets":
		c.BatchAssets = vals
	case "batch_markets":
		c.BatchMarkets = vals
	case "featured_markets":
		c.FeaturedMarkets = vals
	case "annotated_markets":
		c.AnnotatedMarkets = vals
	case "log.level":
		switch strings.ToLower(val) {
		case "debug", "info", "warn", "error":
			c.Log.Level = strings.ToLower(val)
		default:
			return eris.Errorf("invalid log.level: %s (use debug|info|warn|error)", val)
		}
	case "log.format":
		switch strings.ToLower(val) {
		case "json", "console":
			c.Log.Format = strings.ToLower(val)
		default:
			return eris.Errorf("invalid log.format: %s (use json or console)", val)
		}
	default:
		return eris.Errorf("unknown key: %s", key)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
