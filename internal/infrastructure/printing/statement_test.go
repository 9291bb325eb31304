package printing

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	payoutapp "github.com/royalty/backend/internal/application/payout"
)

type capturePDF struct {
	req *RenderRequest
	err error
}

func (c *capturePDF) Render(_ context.Context, req *RenderRequest) (*RenderResult, error) {
	c.req = req
	if c.err != nil {
		return nil, c.err
	}
	return &RenderResult{PDFData: []byte("%PDF-1.7"), PageCount: 1}, nil
}

func (c *capturePDF) Close() error { return nil }

func sampleStatement() payoutapp.Statement {
	receiptID := uuid.New()
	paidAt := time.Date(2024, 5, 20, 9, 30, 0, 0, time.UTC)
	distributed := time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC)
	ref := "ach-<001>"
	return payoutapp.Statement{
		Receipt: payoutapp.ReceiptResponse{
			ID:            receiptID,
			Status:        "distributed",
			GrossAmount:   decimal.RequireFromString("1000.01"),
			Currency:      "USD",
			Memo:          "Q2 streaming",
			DistributedAt: &distributed,
			CreatedAt:     time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
			PayoutInstructions: []payoutapp.PayoutInstructionResponse{
				{ReceiptID: receiptID, PartyRole: "creator", Currency: "USD", AmountCents: 70001, Status: "pending", RoundingAdjustment: true, RoundingCents: 1},
				{ReceiptID: receiptID, PartyRole: "licensee", Currency: "USD", AmountCents: 30000, Status: "paid", PaidAt: &paidAt, TxnRef: &ref},
			},
		},
		Agreement:   payoutapp.AgreementResponse{ID: uuid.New(), WorkID: uuid.New()},
		GeneratedAt: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestStatementRenderer_HTML(t *testing.T) {
	r, err := NewStatementRenderer(&capturePDF{}, zap.NewNop())
	require.NoError(t, err)

	st := sampleStatement()
	doc, err := r.HTML(st)
	require.NoError(t, err)

	assert.Contains(t, doc, st.Receipt.ID.String())
	assert.Contains(t, doc, st.Agreement.WorkID.String())
	assert.Contains(t, doc, "1000.01 USD")
	assert.Contains(t, doc, "700.01 USD")
	assert.Contains(t, doc, "300.00 USD")
	assert.Contains(t, doc, "Creator *")
	assert.Contains(t, doc, "Licensee")
	assert.Contains(t, doc, "Paid")
	assert.Contains(t, doc, "2024-05-20 09:30 UTC")
	assert.Contains(t, doc, "2024-05-02 08:00 UTC")
	assert.Contains(t, doc, "Q2 streaming")
	assert.Contains(t, doc, "ach-&lt;001&gt;")
	assert.Contains(t, doc, "rounding remainder")
}

func TestStatementRenderer_HTMLWithoutRounding(t *testing.T) {
	r, err := NewStatementRenderer(&capturePDF{}, zap.NewNop())
	require.NoError(t, err)

	st := sampleStatement()
	st.Receipt.PayoutInstructions[0].RoundingAdjustment = false
	st.Receipt.Memo = ""
	doc, err := r.HTML(st)
	require.NoError(t, err)

	assert.NotContains(t, doc, "rounding remainder")
	assert.NotContains(t, doc, "Memo")
}

func TestStatementRenderer_RenderStatement(t *testing.T) {
	pdf := &capturePDF{}
	r, err := NewStatementRenderer(pdf, zap.NewNop())
	require.NoError(t, err)

	data, err := r.RenderStatement(context.Background(), sampleStatement())
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.7"), data)

	require.NotNil(t, pdf.req)
	assert.Equal(t, DefaultMargins(), pdf.req.Margins)
	assert.Contains(t, pdf.req.FooterHTML, "pageNumber")
	assert.Contains(t, pdf.req.HTML, "<!DOCTYPE html>")
}

func TestStatementRenderer_RenderError(t *testing.T) {
	pdf := &capturePDF{err: NewRenderError(ErrCodeRenderTimeout, "timed out", nil)}
	r, err := NewStatementRenderer(pdf, zap.NewNop())
	require.NoError(t, err)

	_, err = r.RenderStatement(context.Background(), sampleStatement())
	var renderErr *RenderError
	require.ErrorAs(t, err, &renderErr)
	assert.Equal(t, ErrCodeRenderTimeout, renderErr.Code)
}
