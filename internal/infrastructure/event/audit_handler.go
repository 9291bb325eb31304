package event

import (
	"context"
	"fmt"
	"time"

	"github.com/royalty/backend/internal/domain/payout"
	"github.com/royalty/backend/internal/domain/shared"
)

// AuditHandler turns payout domain events into audit records
type AuditHandler struct {
	repo payout.AuditEventRepository
}

// NewAuditHandler creates an AuditHandler writing to repo
func NewAuditHandler(repo payout.AuditEventRepository) *AuditHandler {
	return &AuditHandler{repo: repo}
}

// EventTypes implements shared.EventHandler
func (h *AuditHandler) EventTypes() []string {
	return []string{
		payout.EventReceiptCreated,
		payout.EventReceiptDistributed,
		payout.EventPayoutInstructionPaid,
	}
}

// Handle implements shared.EventHandler
func (h *AuditHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	kind, meta, ok := auditEntry(event)
	if !ok {
		return nil
	}
	if err := h.repo.Append(ctx, payout.NewAuditEvent(kind, event.ActorID(), meta, event.OccurredAt())); err != nil {
		return fmt.Errorf("failed to append audit event %s: %w", kind, err)
	}
	return nil
}

func auditEntry(event shared.DomainEvent) (string, map[string]any, bool) {
	switch e := event.(type) {
	case *payout.ReceiptCreatedEvent:
		return payout.AuditKindReceiptCreate, map[string]any{
			"receipt_id":   e.ReceiptID.String(),
			"agreement_id": e.AgreementID.String(),
			"gross_amount": e.GrossAmount.String(),
			"currency":     e.Currency,
		}, true
	case *payout.ReceiptDistributedEvent:
		shares := make([]map[string]any, 0, len(e.Shares))
		for _, s := range e.Shares {
			shares = append(shares, map[string]any{
				"instruction_id": s.InstructionID.String(),
				"party_user_id":  s.PartyUserID.String(),
				"party_role":     s.PartyRole.String(),
				"amount_cents":   s.AmountCents,
				"rounding_cents": s.RoundingCents,
			})
		}
		return payout.AuditKindReceiptDistribute, map[string]any{
			"receipt_id":     e.ReceiptID.String(),
			"currency":       e.Currency,
			"gross_cents":    e.GrossCents,
			"shares":         shares,
			"distributed_at": e.DistributedAt.Format(time.RFC3339),
		}, true
	case *payout.PayoutInstructionPaidEvent:
		meta := map[string]any{
			"instruction_id":  e.InstructionID.String(),
			"receipt_id":      e.ReceiptID.String(),
			"previous_status": e.PreviousStatus.String(),
			"amount_cents":    e.AmountCents,
			"paid_at":         e.PaidAt.Format(time.RFC3339),
		}
		if e.TxnRef != nil {
			meta["txn_ref"] = *e.TxnRef
		}
		return payout.AuditKindPayoutMarkPaid, meta, true
	}
	return "", nil, false
}

var _ shared.EventHandler = (*AuditHandler)(nil)
