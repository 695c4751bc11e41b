package cli

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/stocktide/stockwatch/pkg/pipeline"
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Show the alert report without emailing or archiving",
	RunE:  runPreview,
}

func init() {
	rootCmd.AddCommand(previewCmd)
	previewCmd.Flags().StringP("site", "s", "", "Site to report on (default from config)")
}

func runPreview(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if err := requireAPI(cfg); err != nil {
		return err
	}

	site, _ := cmd.Flags().GetString("site")
	if site == "" {
		site = cfg.Report.Site
	}
	if site == "" {
		return fmt.Errorf("no site selected: set report.site or pass --site")
	}

	logger := newLogger(cfg)
	client := initFetcher(cfg, logger, nil)

	runner := pipeline.NewRunner(client, nil, nil, logger)
	summary, err := runner.Run(cmd.Context(), pipeline.Options{
		Site:         site,
		ExcludeTypes: cfg.Report.ExcludeTypes,
		DryRun:       true,
	})
	if err != nil {
		return err
	}

	if summary.Report == nil {
		fmt.Printf("No actionable stock alerts for %s.\n", site)
		return nil
	}

	fmt.Printf("Stock alerts for %s (%d rows):\n\n", site, len(summary.Report.Rows))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "PART\tTYPE\tQUANTITY\tPAR\tCRITICAL\tALERT\n")
	for _, row := range summary.Report.Rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			row.Title, row.Type,
			formatQty(row.Quantity), formatQty(row.ParLevel), formatQty(row.CriticalLevel),
			row.Alert,
		)
	}
	w.Flush()

	if summary.Run.AlertSites != "" {
		fmt.Printf("\nSites with alerts: %s\n", summary.Run.AlertSites)
	}

	return nil
}

func formatQty(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
