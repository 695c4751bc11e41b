// Package report shapes classified stock rows into deliverable alert
// reports for a single site.
package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/stocktide/stockwatch/pkg/alert"
	"github.com/stocktide/stockwatch/pkg/model"
)

// Columns are the presentation headers, in output order. "Part Name"
// carries the source title column.
var Columns = []string{
	"Site",
	"Part Name",
	"Type",
	"Model",
	"Internal Reference",
	"Price",
	"Quantity",
	"Par Level",
	"Critical Level",
	"Alert",
}

// Report is a sorted, site-scoped set of actionable stock rows.
type Report struct {
	Site        string
	Rows        []model.Row
	GeneratedAt time.Time
}

// Build assembles the alert report for one site from classified rows.
// Only actionable rows whose site matches exactly are included; when
// none match there is nothing to deliver and Build returns nil.
func Build(site string, rows []model.Row) *Report {
	var scoped []model.Row
	for _, row := range alert.Actionable(rows) {
		if row.Site == site {
			scoped = append(scoped, row)
		}
	}
	if len(scoped) == 0 {
		return nil
	}
	sortRows(scoped)
	return &Report{Site: site, Rows: scoped, GeneratedAt: time.Now().UTC()}
}

// SitesWithAlerts returns the distinct sites carrying actionable rows,
// sorted alphabetically.
func SitesWithAlerts(rows []model.Row) []string {
	seen := make(map[string]bool)
	for _, row := range alert.Actionable(rows) {
		seen[row.Site] = true
	}
	sites := make([]string, 0, len(seen))
	for site := range seen {
		sites = append(sites, site)
	}
	sort.Strings(sites)
	return sites
}

// Filename is the dated CSV attachment name for this report.
func (r *Report) Filename() string {
	return "inventory_alerts_" + r.GeneratedAt.Format("2006-01-02") + ".csv"
}

// CSV renders the report with the presentation header row.
func (r *Report) CSV() ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(Columns); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range r.Rows {
		record := []string{
			row.Site,
			row.Title,
			row.Type,
			row.Model,
			row.InternalReference,
			row.Price,
			formatNumber(row.Quantity),
			formatNumber(row.ParLevel),
			formatNumber(row.CriticalLevel),
			row.Alert,
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// sortRows orders rows by quantity ascending, breaking ties by the
// alert label in descending lexical order. On equal quantities that
// places "Warning: Stock is Low" ahead of "URGENT: Critically Low
// Stock!", since 'W' sorts after 'U'.
func sortRows(rows []model.Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Quantity != rows[j].Quantity {
			return rows[i].Quantity < rows[j].Quantity
		}
		return rows[i].Alert > rows[j].Alert
	})
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
