package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/stocktide/stockwatch/pkg/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch inventory and send stock alerts",
	Long: `Fetch the full inventory feed, classify every part against its par and
critical thresholds, and email the alert report for the target site.
The raw feed, the rendered CSV, and the run outcome are archived.`,
	RunE: runPipeline,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringP("site", "s", "", "Site to report on (default from config)")
	runCmd.Flags().String("subject", "", "Override the email subject")
}

func runPipeline(cmd *cobra.Command, _ []string) error {
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

	store, err := initStore(cfg)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer store.Close()

	profiles, err := initProfiles(cfg)
	if err != nil {
		return fmt.Errorf("load site profiles: %w", err)
	}

	recipients, subject := resolveDelivery(cfg, profiles, site)
	if override, _ := cmd.Flags().GetString("subject"); override != "" {
		subject = override
	}

	client := initFetcher(cfg, logger, func(data []byte) error {
		_, err := store.SaveSnapshot(data)
		return err
	})

	runner := pipeline.NewRunner(client, store, initNotifiers(cfg), logger)
	summary, err := runner.Run(cmd.Context(), pipeline.Options{
		Site:         site,
		Subject:      subject,
		Recipients:   recipients,
		ExcludeTypes: cfg.Report.ExcludeTypes,
	})
	if err != nil {
		return err
	}

	run := summary.Run
	fmt.Printf("Run complete:\n")
	fmt.Printf("  Site:              %s\n", run.Site)
	fmt.Printf("  Records fetched:   %d\n", run.RecordsFetched)
	fmt.Printf("  Rows flattened:    %d\n", run.RowsFlattened)
	fmt.Printf("  Urgent:            %d\n", run.UrgentCount)
	fmt.Printf("  Warning:           %d\n", run.WarningCount)
	if run.AlertSites != "" {
		fmt.Printf("  Sites with alerts: %s\n", run.AlertSites)
	}

	if summary.Report == nil {
		fmt.Printf("  No actionable stock alerts for %s.\n", site)
		return nil
	}

	fmt.Printf("  Report rows:       %d\n", run.ReportRows)
	if run.ReportPath != "" {
		fmt.Printf("  Report saved:      %s\n", run.ReportPath)
	}
	fmt.Printf("  Delivered:         %v\n", run.Delivered)

	return nil
}
