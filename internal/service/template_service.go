// internal/service/template_service.go
package service

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/unclebandit/order-email-api/internal/model"
)

const rowsOpenTag = "<tbody style='background-color:#ffffff;color:#000;text-align:left;'>"

// TemplateService substitutes |name| placeholders and renders the row table.
type TemplateService struct {
	RowField  string
	RowMarker string
}

func NewTemplateService(rowField, rowMarker string) *TemplateService {
	return &TemplateService{RowField: rowField, RowMarker: rowMarker}
}

// Render replaces |key| for every scalar field and |key.cell| for every
// record field. Values are inserted as is. The row field, when present,
// replaces the row marker with one escaped <tr> per row; when absent the
// marker is left in place. Unknown placeholders are kept.
func (s *TemplateService) Render(template string, fields model.FieldMap) string {
	result := template
	for _, f := range fields.Fields() {
		switch f.Value.Kind {
		case model.KindScalar:
			result = strings.ReplaceAll(result, "|"+f.Name+"|", f.Value.Scalar)
		case model.KindRecord:
			for _, c := range f.Value.Record {
				result = strings.ReplaceAll(result, "|"+f.Name+"."+c.Name+"|", c.Value)
			}
		}
	}

	if rows, ok := fields.Get(s.RowField); ok && rows.Kind == model.KindRows {
		result = strings.ReplaceAll(result, s.RowMarker, RenderRows(rows.Rows))
	}
	return result
}

// RenderRows builds the tbody injected at the row marker.
func RenderRows(rows []model.Row) string {
	var b strings.Builder
	b.WriteString(rowsOpenTag)
	for _, row := range rows {
		b.WriteString("<tr>")
		for _, c := range row {
			b.WriteString("<td>")
			b.WriteString(html.EscapeString(c.Value))
			b.WriteString("</td>")
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</tbody>")
	return b.String()
}

var controlStripper = strings.NewReplacer("\r", "", "\n", "", "\t", "")

// PostProcess prepares rendered HTML for embedding in a JSON string.
// The steps must stay in this order: entity decode, strip CR/LF/TAB,
// then turn double quotes into single quotes.
func PostProcess(rendered string) string {
	out := html.UnescapeString(rendered)
	out = controlStripper.Replace(out)
	return strings.ReplaceAll(out, `"`, "'")
}
