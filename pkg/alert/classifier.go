// Package alert classifies stock rows against their reorder thresholds.
package alert

import "github.com/stocktide/stockwatch/pkg/model"

// Category is the alert label attached to a classified stock row. The
// label text appears verbatim in reports and notification emails.
type Category string

const (
	// CategoryUrgent marks stock at or below its critical level.
	CategoryUrgent Category = "URGENT: Critically Low Stock!"
	// CategoryWarning marks stock below par but above critical.
	CategoryWarning Category = "Warning: Stock is Low"
	// CategoryOK marks stock at or above par.
	CategoryOK Category = "Stock OK"
)

// Classify returns the alert category for one stock line. The critical
// comparison is inclusive and the par comparison exclusive: quantity
// equal to critical is urgent, quantity equal to par is fine.
func Classify(quantity, parLevel, criticalLevel float64) Category {
	switch {
	case quantity <= criticalLevel:
		return CategoryUrgent
	case quantity < parLevel:
		return CategoryWarning
	default:
		return CategoryOK
	}
}

// ClassifyRows stamps every row with its alert category and returns the
// same slice.
func ClassifyRows(rows []model.Row) []model.Row {
	for i := range rows {
		rows[i].Alert = string(Classify(rows[i].Quantity, rows[i].ParLevel, rows[i].CriticalLevel))
	}
	return rows
}

// Actionable filters classified rows down to those needing attention,
// meaning anything urgent or in warning.
func Actionable(rows []model.Row) []model.Row {
	var out []model.Row
	for _, row := range rows {
		if c := Category(row.Alert); c == CategoryUrgent || c == CategoryWarning {
			out = append(out, row)
		}
	}
	return out
}

// Counts tallies the urgent and warning rows in a classified set.
func Counts(rows []model.Row) (urgent, warning int) {
	for _, row := range rows {
		switch Category(row.Alert) {
		case CategoryUrgent:
			urgent++
		case CategoryWarning:
			warning++
		}
	}
	return urgent, warning
}
