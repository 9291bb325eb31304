package handler

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"

	payoutapp "github.com/royalty/backend/internal/application/payout"
)

// IdempotencyKeyHeader lets clients retry a distribution safely
const IdempotencyKeyHeader = "Idempotency-Key"

const maxIdempotencyKeyLength = 128

// ReceiptHandler handles receipt registration and distribution
type ReceiptHandler struct {
	BaseHandler
	distribution   *payoutapp.DistributionService
	reconciliation *payoutapp.ReconciliationService
}

// NewReceiptHandler creates a new ReceiptHandler
func NewReceiptHandler(distribution *payoutapp.DistributionService, reconciliation *payoutapp.ReconciliationService) *ReceiptHandler {
	return &ReceiptHandler{
		distribution:   distribution,
		reconciliation: reconciliation,
	}
}

// DistributeReceiptRequest optionally overrides the configured split
type DistributeReceiptRequest struct {
	Split *payoutapp.SplitInput `json:"split"`
}

// Register godoc
//
//	@Summary		Register a receipt
//	@Description	Records a gross payment against a signed agreement and distributes it to the parties
//	@Tags			receipts
//	@Accept			json
//	@Produce		json
//	@Param			request	body		payoutapp.RegisterReceiptRequest	true	"Receipt"
//	@Success		201		{object}	dto.Response{data=payoutapp.ReceiptResponse}
//	@Failure		400		{object}	dto.Response
//	@Failure		403		{object}	dto.Response
//	@Failure		404		{object}	dto.Response
//	@Security		BearerAuth
//	@Router			/receipts [post]
func (h *ReceiptHandler) Register(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var req payoutapp.RegisterReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	receipt, err := h.distribution.RegisterReceipt(c.Request.Context(), req, actor)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, receipt)
}

// Get godoc
//
//	@Summary	Get a receipt with its payout instructions
//	@Tags		receipts
//	@Produce	json
//	@Param		id	path		string	true	"Receipt ID"
//	@Success	200	{object}	dto.Response{data=payoutapp.ReceiptResponse}
//	@Failure	403	{object}	dto.Response
//	@Failure	404	{object}	dto.Response
//	@Security	BearerAuth
//	@Router		/receipts/{id} [get]
func (h *ReceiptHandler) Get(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	receipt, err := h.distribution.GetReceipt(c.Request.Context(), id, actor)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, receipt)
}

// Distribute godoc
//
//	@Summary		Distribute a pending receipt
//	@Description	Splits the receipt into payout instructions. A repeated Idempotency-Key replays the first result.
//	@Tags			receipts
//	@Accept			json
//	@Produce		json
//	@Param			id				path		string						true	"Receipt ID"
//	@Param			Idempotency-Key	header		string						false	"Client retry key"
//	@Param			request			body		DistributeReceiptRequest	false	"Split override"
//	@Success		200				{object}	dto.Response{data=payoutapp.ReceiptResponse}
//	@Failure		400				{object}	dto.Response
//	@Failure		409				{object}	dto.Response
//	@Security		BearerAuth
//	@Router			/receipts/{id}/distribute [post]
func (h *ReceiptHandler) Distribute(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	key := c.GetHeader(IdempotencyKeyHeader)
	if len(key) > maxIdempotencyKeyLength {
		h.BadRequest(c, "Idempotency-Key is too long")
		return
	}

	var req DistributeReceiptRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			h.ValidationError(c, err)
			return
		}
	}

	receipt, err := h.distribution.Distribute(c.Request.Context(), payoutapp.DistributeRequest{
		ReceiptID:      id,
		Split:          req.Split,
		IdempotencyKey: key,
		Actor:          actor,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, receipt)
}

// ListPayouts godoc
//
//	@Summary	List a receipt's payout instructions (admin)
//	@Tags		admin
//	@Produce	json
//	@Param		id	path		string	true	"Receipt ID"
//	@Success	200	{object}	dto.Response{data=[]payoutapp.PayoutInstructionResponse}
//	@Failure	404	{object}	dto.Response
//	@Security	BearerAuth
//	@Router		/admin/receipts/{id}/payouts [get]
func (h *ReceiptHandler) ListPayouts(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	items, err := h.reconciliation.ListByReceipt(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, items)
}
