package payout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/royalty/backend/internal/domain/payout"
	"github.com/royalty/backend/internal/domain/shared"
)

// ErrStatementUnavailable is returned when no PDF renderer is configured
var ErrStatementUnavailable = errors.New("statement rendering is not configured")

// Statement is the content of a receipt's remittance statement
type Statement struct {
	Receipt     ReceiptResponse
	Agreement   AgreementResponse
	GeneratedAt time.Time
}

// StatementRenderer turns a statement into a PDF document
type StatementRenderer interface {
	RenderStatement(ctx context.Context, st Statement) ([]byte, error)
}

// StatementService produces remittance statements for distributed receipts
type StatementService struct {
	agreements   payout.AgreementRepository
	receipts     payout.ReceiptRepository
	instructions payout.PayoutInstructionRepository
	renderer     StatementRenderer
	logger       *zap.Logger
}

// NewStatementService creates a StatementService. A nil renderer disables statements.
func NewStatementService(
	agreements payout.AgreementRepository,
	receipts payout.ReceiptRepository,
	instructions payout.PayoutInstructionRepository,
	renderer StatementRenderer,
	logger *zap.Logger,
) *StatementService {
	return &StatementService{
		agreements:   agreements,
		receipts:     receipts,
		instructions: instructions,
		renderer:     renderer,
		logger:       logger,
	}
}

// StatementFilename names the PDF for a receipt
func StatementFilename(receiptID uuid.UUID) string {
	return "statement-" + receiptID.String() + ".pdf"
}

// Render builds the PDF statement for a receipt. Agreement parties and
// privileged callers may request it once the receipt has been distributed.
func (s *StatementService) Render(ctx context.Context, receiptID uuid.UUID, actor Actor) ([]byte, error) {
	if s.renderer == nil {
		return nil, ErrStatementUnavailable
	}

	receipt, err := s.receipts.FindByID(ctx, receiptID)
	if err != nil {
		return nil, fmt.Errorf("failed to load receipt: %w", err)
	}
	if receipt == nil {
		return nil, payout.ErrReceiptNotFound
	}
	agreement, err := s.agreements.FindByID(ctx, receipt.AgreementID)
	if err != nil {
		return nil, fmt.Errorf("failed to load agreement: %w", err)
	}
	if agreement == nil {
		return nil, payout.ErrAgreementNotFound
	}
	if !actor.Privileged() && !agreement.IsParty(actor.UserID) {
		return nil, shared.ErrForbidden
	}
	if receipt.Status == payout.StatusPending {
		return nil, shared.NewDomainError(shared.CodeConflict, "Receipt has not been distributed yet")
	}

	items, err := s.instructions.FindByReceipt(ctx, receipt.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load payout instructions: %w", err)
	}

	pdf, err := s.renderer.RenderStatement(ctx, Statement{
		Receipt:     *ToReceiptResponse(receipt, ToInstructionResponses(items)),
		Agreement:   *ToAgreementResponse(agreement),
		GeneratedAt: time.Now().UTC(),
	})
	if err != nil {
		s.logger.Error("Failed to render statement",
			zap.String("receipt_id", receipt.ID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("failed to render statement: %w", err)
	}
	return pdf, nil
}
