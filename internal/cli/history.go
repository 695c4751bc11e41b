package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/stocktide/stockwatch/pkg/archive"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past alert runs",
	RunE:  runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().StringP("site", "s", "", "Only show runs for this site")
	historyCmd.Flags().Int("limit", 20, "Maximum number of runs to show")
	historyCmd.Flags().String("since", "", "Only show runs on or after this date (YYYY-MM-DD)")
}

func runHistory(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	site, _ := cmd.Flags().GetString("site")
	limit, _ := cmd.Flags().GetInt("limit")
	sinceStr, _ := cmd.Flags().GetString("since")

	filter := archive.RunFilter{Site: site, Limit: limit}
	if sinceStr != "" {
		since, err := time.Parse("2006-01-02", sinceStr)
		if err != nil {
			return fmt.Errorf("parse --since: %w", err)
		}
		filter.Since = since
	}

	store, err := initStore(cfg)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer store.Close()

	runs, err := store.ListRuns(cmd.Context(), filter)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Println("No runs recorded yet. Use 'stockwatch run' to create one.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "STARTED\tSITE\tRECORDS\tURGENT\tWARNING\tROWS\tDELIVERED\n")
	for _, run := range runs {
		delivered := "no"
		if run.Delivered {
			delivered = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
			run.StartedAt.Local().Format("2006-01-02 15:04"),
			run.Site, run.RecordsFetched, run.UrgentCount, run.WarningCount,
			run.ReportRows, delivered,
		)
	}
	w.Flush()

	return nil
}
