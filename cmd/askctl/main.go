// Command askctl builds and inspects the Aadhaar fact store from the shell.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/warp/seva-insights/config"
)

type globalFlags struct {
	configPath string
	dbPath     string
}

// load resolves configuration the same way the server does, with --db last.
func (g *globalFlags) load() (config.Config, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return cfg, err
	}
	if g.dbPath != "" {
		cfg.Database.Path = g.dbPath
	}
	return cfg, nil
}

func main() {
	var g globalFlags

	rootCmd := &cobra.Command{
		Use:          "askctl",
		Short:        "Aadhaar Seva Kendra fact store and report tool",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&g.configPath, "config", "", "YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&g.dbPath, "db", "", "SQLite fact store path (overrides config)")

	rootCmd.AddCommand(importCmd(&g))
	rootCmd.AddCommand(regionsCmd(&g))
	rootCmd.AddCommand(summaryCmd(&g))
	rootCmd.AddCommand(reportCmd(&g))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func importCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "import [csv-file...]",
		Short: "Create or extend the fact store from CSV extracts",
		Long: `Create or extend the fact store from CSV extracts.

Rows of one file sharing (state, district, date) are summed. A key that is
already stored is replaced by the file's total, so importing the same
extract twice leaves the store unchanged.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			return runImport(cmd.Context(), cfg.Database.Path, args)
		},
	}
}

func regionsCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "regions",
		Short: "List regions with their total update demand",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			return runRegions(cmd.Context(), cfg)
		},
	}
}

func summaryCmd(g *globalFlags) *cobra.Command {
	var (
		top int
		day string
	)

	cmd := &cobra.Command{
		Use:   "summary [region]",
		Short: "Print headline figures, van priority and weekday forecast",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			if top > 0 {
				cfg.Dashboard.PriorityTopN = top
				cfg.Dashboard.ForecastTopN = top
			}
			return runSummary(cmd.Context(), cfg, regionArg(args), day)
		},
	}

	cmd.Flags().IntVarP(&top, "top", "n", 0, "rows per ranking (default from config)")
	cmd.Flags().StringVar(&day, "day", "", "forecast weekday (default today)")
	return cmd
}

func reportCmd(g *globalFlags) *cobra.Command {
	var (
		outDir string
		xlsx   bool
	)

	cmd := &cobra.Command{
		Use:   "report [region]",
		Short: "Write the PDF summary report for a region",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			return runReport(cmd.Context(), cfg, regionArg(args), outDir, xlsx)
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "output directory")
	cmd.Flags().BoolVar(&xlsx, "xlsx", false, "also export the raw records workbook")
	return cmd
}

func regionArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
