package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/rentlens-cli/internal/chart"
	"github.com/KaramelBytes/rentlens-cli/internal/dashboard"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the interactive acceptance dashboard",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("addr") {
			cfg.DashboardAddr = serveAddr
		}
		ds, err := loadDataset()
		if err != nil {
			return err
		}
		srv, err := dashboard.New(ds, dashboard.Options{
			Addr:       cfg.DashboardAddr,
			FiguresDir: cfg.FiguresDir,
			Featured:   cfg.FeaturedMarkets,
			Renderer:   newRenderer(chart.Detailed),
		})
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return srv.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides dashboard_addr)")
}
