package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	payoutapp "github.com/royalty/backend/internal/application/payout"
	"github.com/royalty/backend/internal/interfaces/http/dto"
)

// StatementHandler serves remittance statements
type StatementHandler struct {
	BaseHandler
	statements *payoutapp.StatementService
}

// NewStatementHandler creates a new StatementHandler
func NewStatementHandler(statements *payoutapp.StatementService) *StatementHandler {
	return &StatementHandler{statements: statements}
}

// Download godoc
//
//	@Summary		Download a receipt's remittance statement
//	@Description	PDF listing every payout instruction of a distributed receipt
//	@Tags			receipts
//	@Produce		application/pdf
//	@Param			id	path		string	true	"Receipt ID"
//	@Success		200	{file}		file
//	@Failure		403	{object}	dto.Response
//	@Failure		409	{object}	dto.Response
//	@Failure		503	{object}	dto.Response
//	@Security		BearerAuth
//	@Router			/receipts/{id}/statement.pdf [get]
func (h *StatementHandler) Download(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	pdf, err := h.statements.Render(c.Request.Context(), id, actor)
	if err != nil {
		if errors.Is(err, payoutapp.ErrStatementUnavailable) {
			h.Error(c, http.StatusServiceUnavailable, dto.ErrCodeUnavailable, "Statement printing is not configured")
			return
		}
		h.HandleDomainError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+payoutapp.StatementFilename(id)+`"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}
