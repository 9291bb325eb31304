package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	payoutapp "github.com/royalty/backend/internal/application/payout"
	"github.com/royalty/backend/internal/domain/shared"
	"github.com/royalty/backend/internal/interfaces/http/dto"
)

// ExportHandler serves the admin payout export
type ExportHandler struct {
	BaseHandler
	exports *payoutapp.ExportService
}

// NewExportHandler creates a new ExportHandler
func NewExportHandler(exports *payoutapp.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// ExportQuery selects the export window. from and to accept RFC 3339 or YYYY-MM-DD.
type ExportQuery struct {
	Month string `form:"month" json:"month"`
	From  string `form:"from" json:"from"`
	To    string `form:"to" json:"to"`
}

func (q ExportQuery) toRequest() (payoutapp.ExportRequest, error) {
	req := payoutapp.ExportRequest{Month: q.Month}
	if q.Month != "" {
		return req, nil
	}
	if q.From != "" {
		from, err := parseExportTime(q.From)
		if err != nil {
			return req, shared.NewDomainError(shared.CodeInvalidInput, "from must be RFC 3339 or YYYY-MM-DD")
		}
		req.From = &from
	}
	if q.To != "" {
		to, err := parseExportTime(q.To)
		if err != nil {
			return req, shared.NewDomainError(shared.CodeInvalidInput, "to must be RFC 3339 or YYYY-MM-DD")
		}
		req.To = &to
	}
	return req, nil
}

func parseExportTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.ParseInLocation(time.DateOnly, s, time.UTC)
}

// ExportCSV godoc
//
//	@Summary		Download the payout export
//	@Description	One row per payout instruction created in the month or [from, to) window
//	@Tags			admin
//	@Produce		text/csv
//	@Param			month	query		string	false	"YYYY-MM"
//	@Param			from	query		string	false	"Window start"
//	@Param			to		query		string	false	"Window end (exclusive)"
//	@Success		200		{file}		file
//	@Failure		400		{object}	dto.Response
//	@Security		BearerAuth
//	@Router			/admin/payouts/export.csv [get]
func (h *ExportHandler) ExportCSV(c *gin.Context) {
	var q ExportQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.ValidationError(c, err)
		return
	}
	req, err := q.toRequest()
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	rows, window, err := h.exports.Export(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="`+payoutapp.ExportFilename(window)+`"`)
	c.Status(http.StatusOK)
	if err := h.exports.WriteCSV(c.Writer, rows); err != nil {
		// Headers are already sent; record the failure for the request log
		_ = c.Error(err)
	}
}

// Archive godoc
//
//	@Summary		Archive the payout export to object storage
//	@Tags			admin
//	@Accept			json
//	@Produce		json
//	@Param			request	body		ExportQuery	true	"Window"
//	@Success		201		{object}	dto.Response{data=payoutapp.ArchiveResponse}
//	@Failure		400		{object}	dto.Response
//	@Failure		503		{object}	dto.Response
//	@Security		BearerAuth
//	@Router			/admin/payouts/exports [post]
func (h *ExportHandler) Archive(c *gin.Context) {
	var q ExportQuery
	if err := c.ShouldBindJSON(&q); err != nil {
		h.ValidationError(c, err)
		return
	}
	req, err := q.toRequest()
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	archive, err := h.exports.Archive(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, payoutapp.ErrArchiveUnavailable) {
			h.Error(c, http.StatusServiceUnavailable, dto.ErrCodeUnavailable, "Export archiving is not configured")
			return
		}
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, archive)
}
