package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/malinka/malinka/internal/chart"
	"github.com/malinka/malinka/internal/config"
	"github.com/malinka/malinka/internal/dashboard"
	"github.com/malinka/malinka/internal/export"
	"github.com/malinka/malinka/internal/filter"
	"github.com/malinka/malinka/internal/report"
	"github.com/malinka/malinka/internal/store"
)

const (
	defaultConfigPath = "configs/malinka.yaml"
	loadTimeout       = 2 * time.Minute
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "malinka",
		Short: "Business analytics dashboard over CSV or PostgreSQL tables",
		Long: `Malinka serves a five-tab business dashboard (overview, customers, sales,
marketing, operations) computed from ten source tables. The same pages can be
printed to the terminal, exported to XLSX or rendered as PNG charts.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().String("config", defaultConfigPath, "path to configuration file")
	rootCmd.PersistentFlags().String("env-file", ".env", "optional .env file loaded before the config")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard HTTP server",
		RunE:  runServe,
	}

	reportCmd := &cobra.Command{
		Use:   "report [tab]",
		Short: "Print a tab's KPIs and tables to the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runReport,
	}
	reportCmd.Flags().Bool("charts", false, "Include chart data")
	reportCmd.Flags().Int("limit", 0, "Max rows per chart or table (0 = all)")

	exportCmd := &cobra.Command{
		Use:   "export [tab]",
		Short: "Write a tab to an XLSX workbook",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runExport,
	}
	exportCmd.Flags().StringP("out", "o", "", "Output file (default malinka-<tab>.xlsx)")

	renderCmd := &cobra.Command{
		Use:   "render <tab> <chart>",
		Short: "Render one chart of a tab as PNG",
		Args:  cobra.ExactArgs(2),
		RunE:  runRender,
	}
	renderCmd.Flags().StringP("out", "o", "", "Output file (default <chart>.png)")
	renderCmd.Flags().Int("width", chart.DefaultWidth, "Image width in pixels")
	renderCmd.Flags().Int("height", chart.DefaultHeight, "Image height in pixels")

	for _, c := range []*cobra.Command{reportCmd, exportCmd, renderCmd} {
		c.Flags().String("filter", "", "Filter query, e.g. start=2025-01-01&end=2025-03-31&region=Москва")
	}

	rootCmd.AddCommand(serveCmd, reportCmd, exportCmd, renderCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads the env file and configuration and installs the logger.
func setup(cmd *cobra.Command) (*config.Config, string, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	if err := config.LoadEnv(envFile); err != nil {
		return nil, "", err
	}

	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, "", err
	}
	slog.SetDefault(cfg.Log.NewLogger())
	return cfg, path, nil
}

// openSource builds the configured table source. The returned close func
// is never nil.
func openSource(ctx context.Context, dc config.DataConfig) (store.Source, func(), error) {
	switch dc.Source {
	case config.SourcePostgres:
		src, err := store.OpenPostgres(ctx, dc.DSN)
		if err != nil {
			return nil, func() {}, err
		}
		return src, func() { src.Close() }, nil
	default:
		return store.NewCSVSource(dc.Dir), func() {}, nil
	}
}

// loadPage loads the data once and renders the requested tab.
func loadPage(cmd *cobra.Command, args []string) (dashboard.Page, error) {
	cfg, _, err := setup(cmd)
	if err != nil {
		return dashboard.Page{}, err
	}

	slug := dashboard.SlugOverview
	if len(args) > 0 {
		slug = args[0]
	}
	tab, err := dashboard.NewRegistry(dashboard.SettingsFrom(cfg)).Resolve(slug)
	if err != nil {
		return dashboard.Page{}, err
	}

	raw, _ := cmd.Flags().GetString("filter")
	q, err := url.ParseQuery(raw)
	if err != nil {
		return dashboard.Page{}, fmt.Errorf("parsing --filter: %w", err)
	}
	f, err := filter.Parse(q)
	if err != nil {
		return dashboard.Page{}, err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), loadTimeout)
	defer cancel()
	src, closeSrc, err := openSource(ctx, cfg.Data)
	if err != nil {
		return dashboard.Page{}, err
	}
	defer closeSrc()

	st := store.New(src)
	st.Load(ctx)
	return tab.Render(st.Snapshot(), f), nil
}

func runReport(cmd *cobra.Command, args []string) error {
	p, err := loadPage(cmd, args)
	if err != nil {
		return err
	}
	charts, _ := cmd.Flags().GetBool("charts")
	limit, _ := cmd.Flags().GetInt("limit")
	return report.Write(cmd.OutOrStdout(), p, report.Options{Charts: charts, Limit: limit})
}

func runExport(cmd *cobra.Command, args []string) error {
	p, err := loadPage(cmd, args)
	if err != nil {
		return err
	}
	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		out = "malinka-" + p.Tab + ".xlsx"
	}
	if err := export.SaveAs(p, out); err != nil {
		return err
	}
	slog.Info("workbook written", "tab", p.Tab, "path", out, "sheets", 1+len(p.Charts)+len(p.Tables))
	return nil
}

func runRender(cmd *cobra.Command, args []string) error {
	p, err := loadPage(cmd, args[:1])
	if err != nil {
		return err
	}
	cfg, ok := p.Chart(args[1])
	if !ok {
		return fmt.Errorf("tab %s has no chart %q", p.Tab, args[1])
	}

	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		out = cfg.ID + ".png"
	}
	width, _ := cmd.Flags().GetInt("width")
	height, _ := cmd.Flags().GetInt("height")

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := chart.RenderPNG(cfg, width, height, f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	slog.Info("chart written", "tab", p.Tab, "chart", cfg.ID, "path", out)
	return nil
}
