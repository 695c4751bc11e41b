package model

import "time"

// RawRecord is a single inventory record as decoded from the Maintainly
// API. The shape is controlled upstream, so nothing is assumed here
// beyond it being a JSON object.
type RawRecord map[string]any

// Row is one stock line after flattening: the parent record's fields and
// one inventory line's fields merged into a flat, projected row. Site and
// the cycle count fields come from the line's nested store object. String
// columns default to "0" when the source omits them; the three threshold
// columns are numeric.
type Row struct {
	UniqueID          int     `json:"unique_id"`
	Site              string  `json:"site"`
	CycleCountValue   string  `json:"cycle_count_system_value"`
	CycleCountType    string  `json:"cycle_count_system_type"`
	Title             string  `json:"title"`
	Type              string  `json:"type"`
	Model             string  `json:"model"`
	Manufacturer      string  `json:"manufacturer"`
	AssetModel        string  `json:"asset_model"`
	UnitMeasurement   string  `json:"unit_measurement"`
	InternalReference string  `json:"internal_reference"`
	Archive           string  `json:"archive"`
	Price             string  `json:"price"`
	Quantity          float64 `json:"quantity"`
	ParLevel          float64 `json:"par_level"`
	CriticalLevel     float64 `json:"critical_level"`

	// Alert is filled in by the classifier; empty until then.
	Alert string `json:"alert,omitempty"`
}

// Run records one completed pipeline execution in the archive ledger.
type Run struct {
	ID             string    `json:"id" db:"id"`
	Site           string    `json:"site" db:"site"`
	StartedAt      time.Time `json:"started_at" db:"started_at"`
	RecordsFetched int       `json:"records_fetched" db:"records_fetched"`
	RowsFlattened  int       `json:"rows_flattened" db:"rows_flattened"`
	UrgentCount    int       `json:"urgent_count" db:"urgent_count"`
	WarningCount   int       `json:"warning_count" db:"warning_count"`
	AlertSites     string    `json:"alert_sites,omitempty" db:"alert_sites"`
	ReportRows     int       `json:"report_rows" db:"report_rows"`
	Delivered      bool      `json:"delivered" db:"delivered"`
	ReportPath     string    `json:"report_path,omitempty" db:"report_path"`
}
