package cmd

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KaramelBytes/rentlens-cli/internal/analysis"
	"github.com/KaramelBytes/rentlens-cli/internal/chart"
	"github.com/KaramelBytes/rentlens-cli/internal/manifest"
	"github.com/KaramelBytes/rentlens-cli/internal/table"
)

var (
	figMode    string
	figAssets  []string
	figMarkets []string
	figXLSX    bool
	figQuiet   bool
)

var figuresCmd = &cobra.Command{
	Use:   "figures",
	Short: "Render the acceptance trend, summary tables and batch adjustment charts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := chart.ParseMode(figMode)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("xlsx") {
			cfg.ExportXLSX = figXLSX
		}
		assets := cfg.BatchAssets
		if cmd.Flags().Changed("asset") {
			assets = figAssets
		}
		markets := mergeNames(cfg.BatchMarkets, cfg.FeaturedMarkets)
		if cmd.Flags().Changed("market") {
			markets = figMarkets
		}

		ds, err := loadDataset()
		if err != nil {
			return err
		}
		aopt := analysisOptions()
		topt, err := trendOptions(aopt.RollingWindow)
		if err != nil {
			return err
		}
		r := newRenderer(mode)
		m := manifest.New(cfg.FiguresDir, manifest.Inputs{
			BaselineDir:   cfg.BaselineDir,
			AssetFile:     cfg.AssetFile,
			ExcludedUsers: len(cfg.ExcludedUsers),
			Tolerance:     cfg.AcceptanceTolerance,
			Mode:          mode.String(),
			Entities:      mergeNames(assets, markets),
		})
		m.Stats = ds.Stats
		log := zap.L().With(zap.String("run_id", m.ID))

		progress := func(format string, a ...interface{}) {
			if !figQuiet {
				fmt.Printf(format, a...)
			}
		}

		trend := analysis.RollingAcceptance(ds.Records, aopt.RollingWindow)
		path, err := r.RenderTrend(trend, topt)
		switch {
		case errors.Is(err, chart.ErrNoRecords):
			log.Warn("acceptance trend skipped", zap.Error(err))
			m.AddFailure("acc_over_time", err)
		case err != nil:
			return err
		default:
			m.AddArtifact(manifest.KindTrend, "acc_over_time", path)
			progress("✓ %s\n", path)
		}

		tables := []*table.Table{
			table.FloorPlanTable(analysis.ByFloorPlan(ds.Records, aopt)),
			table.MarketTable(analysis.ByMarket(ds.Records)),
			table.PropertyTable(analysis.LowAcceptanceProperties(ds.Records, aopt)),
		}
		for _, t := range tables {
			png := filepath.Join(cfg.FiguresDir, t.Name+".png")
			if err := t.WritePNG(png); err != nil {
				return err
			}
			m.AddArtifact(manifest.KindTable, t.Name, png)
			progress("✓ %s (%d rows)\n", png, len(t.Rows))
			if cfg.ExportXLSX {
				xlsx := filepath.Join(cfg.FiguresDir, t.Name+".xlsx")
				if err := t.WriteXLSX(xlsx); err != nil {
					return err
				}
				m.AddArtifact(manifest.KindWorkbook, t.Name, xlsx)
				progress("✓ %s\n", xlsx)
			}
		}

		sels := make([]chart.Selection, 0, len(assets)+len(markets))
		for _, a := range assets {
			sels = append(sels, chart.Selection{Asset: a})
		}
		for _, mk := range markets {
			sels = append(sels, chart.Selection{Market: mk})
		}
		for i, sel := range sels {
			name := sel.Asset + sel.Market
			progress("[%d/%d] Rendering %s...\n", i+1, len(sels), name)
			path, err := r.RenderAdjustments(ds.Records, sel)
			if err != nil {
				if errors.Is(err, chart.ErrNoRecords) || errors.Is(err, chart.ErrMalformedFloorPlan) {
					log.Warn("adjustment chart skipped", zap.String("entity", name), zap.Error(err))
					m.AddFailure(name, err)
					continue
				}
				return eris.Wrapf(err, "render %s", name)
			}
			m.AddArtifact(manifest.KindChart, name, path)
		}

		if err := m.Save(); err != nil {
			return err
		}
		log.Info("figures written",
			zap.String("dir", cfg.FiguresDir),
			zap.Int("artifacts", len(m.Artifacts)),
			zap.Int("failures", len(m.Failures)),
		)
		progress("✓ Wrote %d artifacts to %s (run %s)\n", len(m.Artifacts), cfg.FiguresDir, m.ID)
		if len(m.Failures) > 0 {
			progress("⚠ %d skipped; see manifest.json\n", len(m.Failures))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(figuresCmd)
	figuresCmd.Flags().StringVar(&figMode, "mode", "simple", "adjustment chart mode: simple | detailed")
	figuresCmd.Flags().StringArrayVar(&figAssets, "asset", nil, "asset to chart (repeatable; overrides batch_assets)")
	figuresCmd.Flags().StringArrayVar(&figMarkets, "market", nil, "market to chart (repeatable; overrides batch_markets and featured_markets)")
	figuresCmd.Flags().BoolVar(&figXLSX, "xlsx", false, "also export tables as .xlsx (overrides export_xlsx)")
	figuresCmd.Flags().BoolVar(&figQuiet, "quiet", false, "suppress progress output")
}
