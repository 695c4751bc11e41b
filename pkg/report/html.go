package report

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/stocktide/stockwatch/pkg/alert"
)

// htmlBody is the email body layout. Styles are inlined; mail clients
// drop <style> blocks.
const htmlBody = `<html>
<body style="font-family: Arial, sans-serif; color: #222222;">
<h2 style="margin-bottom: 4px;">Inventory Stock Alerts: {{.Site}}</h2>
<p style="margin-top: 0; color: #555555;">{{.GeneratedAt.Format "2 January 2006"}} &middot; {{len .Rows}} line(s) below par</p>
<p style="font-size: 12px; color: #666666;">URGENT lines are at or below their critical level. Warning lines are below par. Lowest quantities are listed first.</p>
<table border="1" cellpadding="6" cellspacing="0" style="border-collapse: collapse; font-size: 13px;">
<tr style="background-color: #333333; color: #ffffff;">{{range columns}}<th>{{.}}</th>{{end}}</tr>
{{range .Rows -}}
<tr style="background-color: {{rowColor .Alert}};">
<td>{{.Site}}</td>
<td>{{.Title}}</td>
<td>{{.Type}}</td>
<td>{{.Model}}</td>
<td>{{.InternalReference}}</td>
<td>{{.Price}}</td>
<td>{{number .Quantity}}</td>
<td>{{number .ParLevel}}</td>
<td>{{number .CriticalLevel}}</td>
<td>{{.Alert}}</td>
</tr>
{{end -}}
</table>
<p style="margin-top: 16px;">Regards,<br>Stockwatch</p>
</body>
</html>
`

var htmlTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"columns":  func() []string { return Columns },
	"number":   formatNumber,
	"rowColor": rowColor,
}).Parse(htmlBody))

// HTML renders the report as a self-contained email body.
func (r *Report) HTML() (string, error) {
	var buf strings.Builder
	if err := htmlTemplate.Execute(&buf, r); err != nil {
		return "", fmt.Errorf("render report html: %w", err)
	}
	return buf.String(), nil
}

// rowColor picks a row background from the alert label so urgent lines
// stand out at a glance.
func rowColor(label string) string {
	switch alert.Category(label) {
	case alert.CategoryUrgent:
		return "#f8d7da"
	case alert.CategoryWarning:
		return "#fff3cd"
	default:
		return "#ffffff"
	}
}
