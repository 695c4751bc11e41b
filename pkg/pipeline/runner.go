// Package pipeline runs one stock-alert cycle end to end: fetch,
// flatten, classify, report, deliver, archive.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/stocktide/stockwatch/pkg/alert"
	"github.com/stocktide/stockwatch/pkg/archive"
	"github.com/stocktide/stockwatch/pkg/flatten"
	"github.com/stocktide/stockwatch/pkg/model"
	"github.com/stocktide/stockwatch/pkg/notify"
	"github.com/stocktide/stockwatch/pkg/report"
)

// Source yields the raw inventory records for one run.
type Source interface {
	FetchAll(ctx context.Context) ([]model.RawRecord, error)
}

// Options control one pipeline run.
type Options struct {
	// Site scopes the report. Alerts at other sites are counted and
	// logged but not delivered.
	Site string
	// Subject is the full email subject line.
	Subject string
	// Recipients receive the report email.
	Recipients []string
	// ExcludeTypes drops rows of these stock types before
	// classification.
	ExcludeTypes []string
	// DryRun renders the report but skips delivery, archival, and the
	// run ledger.
	DryRun bool
}

// Summary reports what one run produced. Report is nil when the site
// had nothing actionable.
type Summary struct {
	Run        *model.Run
	Report     *report.Report
	AlertSites []string
}

// Runner wires the pipeline stages together.
type Runner struct {
	source    Source
	store     archive.Store
	notifiers []notify.Notifier
	logger    *slog.Logger
}

// NewRunner creates a pipeline runner with the given dependencies. The
// store may be nil for dry runs.
func NewRunner(source Source, store archive.Store, notifiers []notify.Notifier, logger *slog.Logger) *Runner {
	return &Runner{
		source:    source,
		store:     store,
		notifiers: notifiers,
		logger:    logger,
	}
}

// Run executes one fetch-to-delivery cycle. Delivery and archive
// failures are logged and recorded on the ledger entry, not returned;
// only fetch and schema failures abort the run.
func (r *Runner) Run(ctx context.Context, opts Options) (*Summary, error) {
	started := time.Now().UTC()

	records, err := r.source.FetchAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch inventory: %w", err)
	}

	flat := flatten.Flatten(records)
	if err := flat.CheckSchema(); err != nil {
		return nil, fmt.Errorf("verify source schema: %w", err)
	}

	rows := prefilter(flat.Rows, opts.ExcludeTypes)
	classified := alert.ClassifyRows(rows)
	urgent, warning := alert.Counts(classified)
	alertSites := report.SitesWithAlerts(classified)

	r.logger.Info("classified inventory",
		"records", len(records),
		"rows", len(flat.Rows),
		"kept", len(rows),
		"urgent", urgent,
		"warning", warning,
		"alert_sites", alertSites,
	)

	rep := report.Build(opts.Site, classified)

	run := &model.Run{
		Site:           opts.Site,
		StartedAt:      started,
		RecordsFetched: len(records),
		RowsFlattened:  len(flat.Rows),
		UrgentCount:    urgent,
		WarningCount:   warning,
		AlertSites:     strings.Join(alertSites, ", "),
	}
	if rep != nil {
		run.ReportRows = len(rep.Rows)
	}

	summary := &Summary{Run: run, Report: rep, AlertSites: alertSites}

	if opts.DryRun {
		return summary, nil
	}

	if rep == nil {
		r.logger.Info("no actionable alerts for site", "site", opts.Site)
	} else {
		csvData, err := rep.CSV()
		if err != nil {
			r.logger.Error("render report csv", "error", err)
		} else {
			run.ReportPath = r.archiveReport(rep.Filename(), csvData)
			run.Delivered = r.deliver(ctx, rep, csvData, opts)
		}
	}

	if err := r.store.RecordRun(ctx, run); err != nil {
		r.logger.Error("record run", "error", err)
	}

	return summary, nil
}

// archiveReport writes the CSV copy under the archive and returns its
// path, or "" when the write failed.
func (r *Runner) archiveReport(filename string, data []byte) string {
	path, err := r.store.SaveReport(filename, data)
	if err != nil {
		r.logger.Error("archive report", "filename", filename, "error", err)
		return ""
	}
	return path
}

// deliver renders the email and sends it through every notifier.
// Delivery counts as successful only when all of them accept it.
func (r *Runner) deliver(ctx context.Context, rep *report.Report, csvData []byte, opts Options) bool {
	if len(r.notifiers) == 0 {
		r.logger.Warn("no notifiers configured, skipping delivery", "site", rep.Site)
		return false
	}
	if len(opts.Recipients) == 0 {
		r.logger.Warn("no recipients resolved, skipping delivery", "site", rep.Site)
		return false
	}

	html, err := rep.HTML()
	if err != nil {
		r.logger.Error("render report html", "error", err)
		return false
	}

	email := notify.Email{
		To:       opts.Recipients,
		Subject:  opts.Subject,
		HTMLBody: html,
		Attachment: notify.Attachment{
			Filename: rep.Filename(),
			Data:     csvData,
		},
	}

	delivered := true
	for _, notifier := range r.notifiers {
		if err := notifier.Send(ctx, email); err != nil {
			r.logger.Error("send report failed",
				"notifier", notifier.Name(),
				"site", rep.Site,
				"error", err,
			)
			delivered = false
			continue
		}
		r.logger.Info("report delivered",
			"notifier", notifier.Name(),
			"site", rep.Site,
			"rows", len(rep.Rows),
			"recipients", len(opts.Recipients),
		)
	}
	return delivered
}

// prefilter drops rows excluded from alerting before classification:
// configured stock types, and rows with a zero par or critical level,
// which are parts nobody has set reorder points for.
func prefilter(rows []model.Row, excludeTypes []string) []model.Row {
	excluded := make(map[string]bool, len(excludeTypes))
	for _, t := range excludeTypes {
		excluded[t] = true
	}

	var kept []model.Row
	for _, row := range rows {
		if excluded[row.Type] {
			continue
		}
		if row.ParLevel == 0 || row.CriticalLevel == 0 {
			continue
		}
		kept = append(kept, row)
	}
	return kept
}
