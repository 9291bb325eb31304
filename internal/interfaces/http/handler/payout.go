package handler

import (
	"errors"
	"io"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	payoutapp "github.com/royalty/backend/internal/application/payout"
	"github.com/royalty/backend/internal/domain/payout"
	"github.com/royalty/backend/internal/domain/shared"
	"github.com/royalty/backend/internal/interfaces/http/dto"
)

// PayoutHandler handles payout instruction listing and reconciliation
type PayoutHandler struct {
	BaseHandler
	reconciliation *payoutapp.ReconciliationService
}

// NewPayoutHandler creates a new PayoutHandler
func NewPayoutHandler(reconciliation *payoutapp.ReconciliationService) *PayoutHandler {
	return &PayoutHandler{reconciliation: reconciliation}
}

// ListPayoutsQuery filters GET /payouts
type ListPayoutsQuery struct {
	dto.ListRequest
	Status   string `form:"status"`
	Currency string `form:"currency" binding:"omitempty,len=3"`
	// PartyUserID is honoured for admins and service callers only
	PartyUserID string `form:"partyUserId" binding:"omitempty,uuid"`
}

// MarkPaidBody is the body of both mark-paid routes. InstructionID is taken
// from the path on the admin route.
type MarkPaidBody struct {
	InstructionID string     `json:"instructionId" binding:"omitempty,uuid"`
	PaidAt        *time.Time `json:"paidAt"`
	TxnRef        *string    `json:"txnRef"`
}

// List godoc
//
//	@Summary		List payout instructions
//	@Description	Regular users see their own instructions. Admins may filter by partyUserId.
//	@Tags			payouts
//	@Produce		json
//	@Param			page		query		int		false	"Page"
//	@Param			page_size	query		int		false	"Page size"
//	@Param			status		query		string	false	"Status"
//	@Param			currency	query		string	false	"Currency"
//	@Param			partyUserId	query		string	false	"Party (admin only)"
//	@Success		200			{object}	dto.Response{data=[]payoutapp.PayoutInstructionResponse}
//	@Security		BearerAuth
//	@Router			/payouts [get]
func (h *PayoutHandler) List(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var q ListPayoutsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.ValidationError(c, err)
		return
	}

	filter := payout.InstructionFilter{
		Filter: shared.Filter{
			Page:     q.Page,
			PageSize: q.PageSize,
			OrderBy:  "created_at",
			OrderDir: q.OrderDir,
		},
	}
	if q.Status != "" {
		status := payout.Status(strings.ToLower(q.Status))
		filter.Status = &status
	}
	if q.Currency != "" {
		currency := strings.ToUpper(q.Currency)
		filter.Currency = &currency
	}

	ctx := c.Request.Context()
	var (
		page shared.Paginated[payoutapp.PayoutInstructionResponse]
		err  error
	)
	if actor.Privileged() {
		if q.PartyUserID != "" {
			partyID := uuid.MustParse(q.PartyUserID)
			filter.PartyUserID = &partyID
		}
		page, err = h.reconciliation.List(ctx, filter)
	} else {
		page, err = h.reconciliation.ListForParty(ctx, actor.UserID, filter)
	}
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// MarkPaid godoc
//
//	@Summary		Mark a payout instruction as paid
//	@Description	The payee or an admin records a completed payout. Repeating the call is a no-op.
//	@Tags			payouts
//	@Accept			json
//	@Produce		json
//	@Param			request	body		MarkPaidBody	true	"Instruction and payment details"
//	@Success		200		{object}	dto.Response{data=payoutapp.MarkPaidResponse}
//	@Failure		403		{object}	dto.Response
//	@Failure		404		{object}	dto.Response
//	@Failure		409		{object}	dto.Response
//	@Security		BearerAuth
//	@Router			/payouts/mark-paid [post]
func (h *PayoutHandler) MarkPaid(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var body MarkPaidBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.ValidationError(c, err)
		return
	}
	if body.InstructionID == "" {
		h.BadRequest(c, "instructionId is required")
		return
	}
	h.markPaid(c, actor, uuid.MustParse(body.InstructionID), body)
}

// AdminMarkPaid godoc
//
//	@Summary	Mark a payout instruction as paid (admin)
//	@Tags		admin
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string			true	"Instruction ID"
//	@Param		request	body		MarkPaidBody	false	"Payment details"
//	@Success	200		{object}	dto.Response{data=payoutapp.MarkPaidResponse}
//	@Failure	404		{object}	dto.Response
//	@Failure	409		{object}	dto.Response
//	@Security	BearerAuth
//	@Router		/admin/payouts/{id}/mark-paid [patch]
func (h *PayoutHandler) AdminMarkPaid(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var body MarkPaidBody
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
			h.ValidationError(c, err)
			return
		}
	}
	h.markPaid(c, actor, id, body)
}

func (h *PayoutHandler) markPaid(c *gin.Context, actor payoutapp.Actor, id uuid.UUID, body MarkPaidBody) {
	resp, err := h.reconciliation.MarkPaid(c.Request.Context(), payoutapp.MarkPaidRequest{
		InstructionID: id,
		PaidAt:        body.PaidAt,
		TxnRef:        body.TxnRef,
		Actor:         actor,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, resp)
}
