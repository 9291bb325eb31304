package payout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/royalty/backend/internal/domain/payout"
	"github.com/royalty/backend/internal/domain/shared"
	"github.com/royalty/backend/internal/infrastructure/telemetry"
)

// Mark-paid outcomes reported to metrics
const (
	OutcomePaid        = "paid"
	OutcomeAlreadyPaid = "already_paid"
	OutcomeConflict    = "conflict"
	OutcomeForbidden   = "forbidden"
)

// ReconciliationService moves payout instructions to paid and lists them
type ReconciliationService struct {
	receipts     payout.ReceiptRepository
	instructions payout.PayoutInstructionRepository
	publisher    shared.EventPublisher
	metrics      *telemetry.PayoutMetrics
	logger       *zap.Logger
	now          func() time.Time
}

// NewReconciliationService creates a new ReconciliationService
func NewReconciliationService(
	receipts payout.ReceiptRepository,
	instructions payout.PayoutInstructionRepository,
	publisher shared.EventPublisher,
	metrics *telemetry.PayoutMetrics,
	logger *zap.Logger,
) *ReconciliationService {
	return &ReconciliationService{
		receipts:     receipts,
		instructions: instructions,
		publisher:    publisher,
		metrics:      metrics,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// MarkPaid records that an instruction was paid out.
// Marking an already paid instruction succeeds without changing paidAt.
func (s *ReconciliationService) MarkPaid(ctx context.Context, req MarkPaidRequest) (*MarkPaidResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ReconciliationService", "MarkPaid",
		telemetry.SpanAttrInstructionID, req.InstructionID.String())
	defer span.End()

	if err := payout.ValidateTxnRef(req.TxnRef); err != nil {
		return nil, err
	}

	ins, err := s.instructions.FindByID(ctx, req.InstructionID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load payout instruction: %w", err)
	}
	if ins == nil {
		return nil, payout.ErrInstructionNotFound
	}
	if !req.Actor.IsAdmin && req.Actor.UserID != ins.PartyUserID {
		s.metrics.RecordMarkPaid(ctx, OutcomeForbidden)
		return nil, shared.NewDomainError(shared.CodeForbidden, "Only the payee or an admin may mark this payout as paid")
	}

	paidAt := s.now()
	if req.PaidAt != nil {
		paidAt = req.PaidAt.UTC()
	}
	hadTxnRef := ins.TxnRef != nil

	changed, err := ins.MarkPaid(paidAt, req.TxnRef, req.Actor.UserID)
	if err != nil {
		if shared.IsConflict(err) {
			s.metrics.RecordMarkPaid(ctx, OutcomeConflict)
			s.metrics.RecordConflict(ctx, "mark_paid")
		}
		telemetry.RecordError(span, err)
		return nil, err
	}
	if !changed {
		if !hadTxnRef && req.TxnRef != nil {
			if err := s.instructions.SetTxnRefIfEmpty(ctx, ins.ID, *req.TxnRef); err != nil {
				return nil, fmt.Errorf("failed to attach txn ref: %w", err)
			}
		}
		s.metrics.RecordMarkPaid(ctx, OutcomeAlreadyPaid)
		return paidResponse(ins, true), nil
	}

	ok, err := s.instructions.MarkPaid(ctx, ins.ID, *ins.PaidAt, ins.TxnRef)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to mark payout as paid: %w", err)
	}
	if !ok {
		// Another request changed the row between our read and the conditional update.
		current, err := s.instructions.FindByID(ctx, ins.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to reload payout instruction: %w", err)
		}
		if current != nil && current.Status == payout.StatusPaid {
			s.metrics.RecordMarkPaid(ctx, OutcomeAlreadyPaid)
			return paidResponse(current, true), nil
		}
		s.metrics.RecordMarkPaid(ctx, OutcomeConflict)
		s.metrics.RecordConflict(ctx, "mark_paid")
		return nil, payout.ErrNotPayable
	}

	events := ins.GetDomainEvents()
	ins.ClearDomainEvents()
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, events...); err != nil {
			s.logger.Warn("Failed to publish domain events", zap.Error(err))
		}
	}
	s.metrics.RecordMarkPaid(ctx, OutcomePaid)
	telemetry.SetOK(span)
	s.logger.Info("Payout marked as paid",
		zap.String("instruction_id", ins.ID.String()),
		zap.String("actor_id", req.Actor.UserID.String()),
		zap.Time("paid_at", *ins.PaidAt),
	)
	return paidResponse(ins, false), nil
}

// ListForParty pages through one party's instructions
func (s *ReconciliationService) ListForParty(ctx context.Context, partyUserID uuid.UUID, filter payout.InstructionFilter) (shared.Paginated[PayoutInstructionResponse], error) {
	filter.PartyUserID = &partyUserID
	return s.List(ctx, filter)
}

// List pages through instructions matching the filter
func (s *ReconciliationService) List(ctx context.Context, filter payout.InstructionFilter) (shared.Paginated[PayoutInstructionResponse], error) {
	filter.Filter = filter.Filter.Normalize()
	if filter.Status != nil && !filter.Status.IsValid() {
		return shared.Paginated[PayoutInstructionResponse]{}, shared.NewDomainError(shared.CodeInvalidInput, "Unknown payout status")
	}
	items, total, err := s.instructions.FindAll(ctx, filter)
	if err != nil {
		return shared.Paginated[PayoutInstructionResponse]{}, fmt.Errorf("failed to list payout instructions: %w", err)
	}
	return shared.NewPaginated(ToInstructionResponses(items), total, filter.Page, filter.PageSize), nil
}

// ListByReceipt returns a receipt's instructions in creation order
func (s *ReconciliationService) ListByReceipt(ctx context.Context, receiptID uuid.UUID) ([]PayoutInstructionResponse, error) {
	receipt, err := s.receipts.FindByID(ctx, receiptID)
	if err != nil {
		return nil, fmt.Errorf("failed to load receipt: %w", err)
	}
	if receipt == nil {
		return nil, payout.ErrReceiptNotFound
	}
	items, err := s.instructions.FindByReceipt(ctx, receiptID)
	if err != nil {
		return nil, fmt.Errorf("failed to load payout instructions: %w", err)
	}
	return ToInstructionResponses(items), nil
}

func paidResponse(ins *payout.PayoutInstruction, alreadyPaid bool) *MarkPaidResponse {
	resp := &MarkPaidResponse{
		OK:            true,
		InstructionID: ins.ID,
		Status:        payout.StatusPaid.String(),
		TxnRef:        ins.TxnRef,
		AlreadyPaid:   alreadyPaid,
	}
	if ins.PaidAt != nil {
		resp.PaidAt = ins.PaidAt.UTC()
	}
	return resp
}
