package handler

import (
	"github.com/gin-gonic/gin"

	payoutapp "github.com/royalty/backend/internal/application/payout"
)

// AgreementHandler handles licensing agreement endpoints
type AgreementHandler struct {
	BaseHandler
	agreements *payoutapp.AgreementService
}

// NewAgreementHandler creates a new AgreementHandler
func NewAgreementHandler(agreements *payoutapp.AgreementService) *AgreementHandler {
	return &AgreementHandler{agreements: agreements}
}

// Create godoc
//
//	@Summary		Record an agreement
//	@Description	Admins and service callers record agreements negotiated elsewhere
//	@Tags			agreements
//	@Accept			json
//	@Produce		json
//	@Param			request	body		payoutapp.CreateAgreementRequest	true	"Agreement"
//	@Success		201		{object}	dto.Response{data=payoutapp.AgreementResponse}
//	@Failure		400		{object}	dto.Response
//	@Failure		403		{object}	dto.Response
//	@Security		BearerAuth
//	@Router			/agreements [post]
func (h *AgreementHandler) Create(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req payoutapp.CreateAgreementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	agreement, err := h.agreements.Create(c.Request.Context(), req, actor)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, agreement)
}

// Get godoc
//
//	@Summary	Get an agreement
//	@Tags		agreements
//	@Produce	json
//	@Param		id	path		string	true	"Agreement ID"
//	@Success	200	{object}	dto.Response{data=payoutapp.AgreementResponse}
//	@Failure	403	{object}	dto.Response
//	@Failure	404	{object}	dto.Response
//	@Security	BearerAuth
//	@Router		/agreements/{id} [get]
func (h *AgreementHandler) Get(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	agreement, err := h.agreements.Get(c.Request.Context(), id, actor)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, agreement)
}
