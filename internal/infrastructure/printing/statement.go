package printing

import (
	"bytes"
	"context"
	"html/template"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	payoutapp "github.com/royalty/backend/internal/application/payout"
	"github.com/royalty/backend/internal/domain/shared/valueobject"
)

const statementTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>Remittance statement {{.Receipt.ID}}</title>
<style>
body { font-family: "Helvetica Neue", Arial, sans-serif; font-size: 11px; color: #222; }
h1 { font-size: 18px; margin: 0 0 12px; }
table { width: 100%; border-collapse: collapse; margin-top: 12px; }
th, td { border-bottom: 1px solid #ddd; padding: 6px 4px; text-align: left; }
td.amount, th.amount { text-align: right; }
.meta td { border: none; padding: 2px 4px; }
.note { color: #777; font-size: 9px; }
</style>
</head>
<body>
<h1>Remittance statement</h1>
<table class="meta">
<tr><td>Receipt</td><td>{{.Receipt.ID}}</td></tr>
<tr><td>Work</td><td>{{.Agreement.WorkID}}</td></tr>
<tr><td>Agreement</td><td>{{.Agreement.ID}}</td></tr>
<tr><td>Gross amount</td><td>{{money .Receipt.GrossAmount .Receipt.Currency}}</td></tr>
<tr><td>Received</td><td>{{date .Receipt.CreatedAt}}</td></tr>
{{- with .Receipt.DistributedAt}}
<tr><td>Distributed</td><td>{{date .}}</td></tr>
{{- end}}
{{- with .Receipt.Memo}}
<tr><td>Memo</td><td>{{.}}</td></tr>
{{- end}}
</table>
<table>
<thead>
<tr><th>Party</th><th>Role</th><th class="amount">Amount</th><th>Status</th><th>Paid</th><th>Reference</th></tr>
</thead>
<tbody>
{{- range .Receipt.PayoutInstructions}}
<tr>
<td>{{.PartyUserID}}</td>
<td>{{title .PartyRole}}{{if .RoundingAdjustment}} *{{end}}</td>
<td class="amount">{{cents .AmountCents .Currency}}</td>
<td>{{title .Status}}</td>
<td>{{with .PaidAt}}{{date .}}{{end}}</td>
<td>{{with .TxnRef}}{{.}}{{end}}</td>
</tr>
{{- end}}
</tbody>
</table>
{{- if rounded .Receipt.PayoutInstructions}}
<p class="note">* Includes the rounding remainder of the split.</p>
{{- end}}
<p class="note">Generated {{date .GeneratedAt}}</p>
</body>
</html>`

const statementFooter = `<div style="font-size:8px;width:100%;text-align:center;color:#777;">` +
	`<span class="pageNumber"></span> / <span class="totalPages"></span></div>`

// StatementRenderer prints remittance statements through a PDFRenderer
type StatementRenderer struct {
	pdf    PDFRenderer
	tmpl   *template.Template
	logger *zap.Logger
}

// NewStatementRenderer parses the statement template
func NewStatementRenderer(pdf PDFRenderer, logger *zap.Logger) (*StatementRenderer, error) {
	tmpl, err := template.New("statement").Funcs(statementFuncs()).Parse(statementTemplate)
	if err != nil {
		return nil, NewRenderError(ErrCodeTemplateFailed, "failed to parse statement template", err)
	}
	return &StatementRenderer{pdf: pdf, tmpl: tmpl, logger: logger}, nil
}

func statementFuncs() template.FuncMap {
	return template.FuncMap{
		// Casers keep state, so each call gets its own
		"title": func(s string) string {
			return cases.Title(language.English).String(s)
		},
		"cents": func(cents int64, currency string) string {
			return valueobject.FromMinorUnits(cents).StringFixed(valueobject.MinorUnitExponent) + " " + currency
		},
		"money": func(amount decimal.Decimal, currency string) string {
			return amount.StringFixed(valueobject.MinorUnitExponent) + " " + currency
		},
		"date": func(t time.Time) string {
			return t.UTC().Format("2006-01-02 15:04 MST")
		},
		"rounded": func(items []payoutapp.PayoutInstructionResponse) bool {
			for _, i := range items {
				if i.RoundingAdjustment {
					return true
				}
			}
			return false
		},
	}
}

// HTML renders the statement document without printing it
func (s *StatementRenderer) HTML(st payoutapp.Statement) (string, error) {
	var buf bytes.Buffer
	if err := s.tmpl.Execute(&buf, st); err != nil {
		return "", NewRenderError(ErrCodeTemplateFailed, "failed to execute statement template", err)
	}
	return buf.String(), nil
}

// RenderStatement prints the statement to PDF
func (s *StatementRenderer) RenderStatement(ctx context.Context, st payoutapp.Statement) ([]byte, error) {
	doc, err := s.HTML(st)
	if err != nil {
		return nil, err
	}
	result, err := s.pdf.Render(ctx, &RenderRequest{
		HTML:       doc,
		Title:      "Remittance statement",
		Margins:    DefaultMargins(),
		FooterHTML: statementFooter,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("Statement rendered",
		zap.String("receipt_id", st.Receipt.ID.String()),
		zap.Int("pages", result.PageCount))
	return result.PDFData, nil
}

var _ payoutapp.StatementRenderer = (*StatementRenderer)(nil)
