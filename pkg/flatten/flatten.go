// Package flatten turns nested inventory records into flat stock rows
// ready for classification and reporting.
package flatten

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/stocktide/stockwatch/pkg/model"
)

// lineKey is the field on each record that holds its stock lines.
const lineKey = "inventories"

// thresholdColumns are the columns the classifier compares. A feed that
// never carries them is malformed rather than merely sparse.
var thresholdColumns = []string{"quantity", "par_level", "critical_level"}

// whitelist is the set of source columns kept after merging, in report
// order. The store.* entries are dotted keys produced by flattening the
// line's nested store object. Everything else the feed sends is dropped.
var whitelist = []string{
	"store.title",
	"store.cycle_count_system_value",
	"store.cycle_count_system_type",
	"title",
	"type",
	"model",
	"manufacturer",
	"asset_model",
	"unit_measurement",
	"internal_reference",
	"archive",
	"price",
	"quantity",
	"par_level",
	"critical_level",
}

// Result holds the flattened rows plus the set of whitelisted columns
// actually observed in the source, which CheckSchema inspects.
type Result struct {
	Rows []model.Row

	seen map[string]bool
}

// Flatten merges every record's stock lines with their parent fields and
// projects the result down to the reporting columns. A record's position
// in records becomes the unique_id carried by each of its rows. Records
// without lines contribute no rows at all.
func Flatten(records []model.RawRecord) *Result {
	res := &Result{seen: make(map[string]bool)}
	for i, rec := range records {
		parent := make(map[string]any)
		addFlat(parent, "", map[string]any(rec))
		for _, line := range stockLines(rec) {
			flat := make(map[string]any, len(parent)+len(line))
			for k, v := range parent {
				flat[k] = v
			}
			addFlat(flat, "", line)
			res.Rows = append(res.Rows, res.projectRow(i, flat))
		}
	}
	return res
}

// Columns reports which whitelisted columns appeared at least once in
// the source, in report order.
func (r *Result) Columns() []string {
	var cols []string
	for _, c := range whitelist {
		if r.seen[c] {
			cols = append(cols, c)
		}
	}
	return cols
}

// CheckSchema verifies the columns the classifier depends on were
// observed somewhere in the source. Missing threshold columns cannot be
// zero-filled: a feed without them would mark every line urgent.
func (r *Result) CheckSchema() error {
	var missing []string
	for _, c := range thresholdColumns {
		if !r.seen[c] {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("source data missing required columns: %s", strings.Join(missing, ", "))
	}
	return nil
}

// addFlat writes m's entries into dst, using dotted keys for nested
// objects. Lists are kept as opaque values; projection drops them.
func addFlat(dst map[string]any, prefix string, m map[string]any) {
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := v.(map[string]any); ok {
			addFlat(dst, key, nested)
			continue
		}
		dst[key] = v
	}
}

// stockLines pulls the record's line entries out, tolerating records
// where the field is missing, null, or not a list of objects.
func stockLines(rec model.RawRecord) []map[string]any {
	list, ok := rec[lineKey].([]any)
	if !ok {
		return nil
	}
	lines := make([]map[string]any, 0, len(list))
	for _, entry := range list {
		if m, ok := entry.(map[string]any); ok {
			lines = append(lines, m)
		}
	}
	return lines
}

func (r *Result) projectRow(idx int, flat map[string]any) model.Row {
	return model.Row{
		UniqueID:          idx,
		Site:              r.stringColumn(flat, "store.title"),
		CycleCountValue:   r.stringColumn(flat, "store.cycle_count_system_value"),
		CycleCountType:    r.stringColumn(flat, "store.cycle_count_system_type"),
		Title:             r.stringColumn(flat, "title"),
		Type:              r.stringColumn(flat, "type"),
		Model:             r.stringColumn(flat, "model"),
		Manufacturer:      r.stringColumn(flat, "manufacturer"),
		AssetModel:        r.stringColumn(flat, "asset_model"),
		UnitMeasurement:   r.stringColumn(flat, "unit_measurement"),
		InternalReference: r.stringColumn(flat, "internal_reference"),
		Archive:           r.stringColumn(flat, "archive"),
		Price:             r.stringColumn(flat, "price"),
		Quantity:          r.numericColumn(flat, "quantity"),
		ParLevel:          r.numericColumn(flat, "par_level"),
		CriticalLevel:     r.numericColumn(flat, "critical_level"),
	}
}

// stringColumn reads a text column, recording that it was observed.
// Absent and null values become "0", the blanket fill applied to the
// whole merged table.
func (r *Result) stringColumn(flat map[string]any, key string) string {
	v, ok := flat[key]
	if !ok {
		return "0"
	}
	r.seen[key] = true
	switch t := v.(type) {
	case nil:
		return "0"
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// numericColumn reads a threshold column. JSON numbers pass through,
// numeric strings are parsed, and anything else defaults to 0.
func (r *Result) numericColumn(flat map[string]any, key string) float64 {
	v, ok := flat[key]
	if !ok {
		return 0
	}
	r.seen[key] = true
	switch t := v.(type) {
	case float64:
		return t
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
			return f
		}
		return 0
	default:
		return 0
	}
}
