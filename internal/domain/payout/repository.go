package payout

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/royalty/backend/internal/domain/shared"
)

// AgreementRepository persists agreements
type AgreementRepository interface {
	// FindByID returns nil, nil when the agreement does not exist
	FindByID(ctx context.Context, id uuid.UUID) (*Agreement, error)
	// Save inserts or updates an agreement
	Save(ctx context.Context, agreement *Agreement) error
}

// ReceiptRepository persists receipts
type ReceiptRepository interface {
	// FindByID returns nil, nil when the receipt does not exist
	FindByID(ctx context.Context, id uuid.UUID) (*Receipt, error)
	// FindByAgreement lists receipts for an agreement, newest first
	FindByAgreement(ctx context.Context, agreementID uuid.UUID) ([]Receipt, error)
	// Create inserts a new receipt
	Create(ctx context.Context, receipt *Receipt) error
	// CommitDistribution moves a pending receipt to distributed and inserts
	// its instructions in one transaction. It returns ErrAlreadyDistributed
	// when the receipt was not pending at write time, leaving nothing behind.
	CommitDistribution(ctx context.Context, receipt *Receipt, instructions []*PayoutInstruction) error
}

// InstructionFilter narrows instruction listings
type InstructionFilter struct {
	shared.Filter
	PartyUserID *uuid.UUID
	Status      *Status
	Currency    *string
}

// PayoutInstructionRepository persists payout instructions
type PayoutInstructionRepository interface {
	// FindByID returns nil, nil when the instruction does not exist
	FindByID(ctx context.Context, id uuid.UUID) (*PayoutInstruction, error)
	// FindByReceipt lists a receipt's instructions in creation order
	FindByReceipt(ctx context.Context, receiptID uuid.UUID) ([]PayoutInstruction, error)
	// FindAll returns a page of instructions and the total count
	FindAll(ctx context.Context, filter InstructionFilter) ([]PayoutInstruction, int64, error)
	// FindCreatedBetween lists instructions with from <= created_at < to, oldest first
	FindCreatedBetween(ctx context.Context, from, to time.Time) ([]PayoutInstruction, error)
	// MarkPaid sets status paid only while the stored status is still payable.
	// It reports whether a row changed.
	MarkPaid(ctx context.Context, id uuid.UUID, paidAt time.Time, txnRef *string) (bool, error)
	// SetTxnRefIfEmpty attaches a reference to a paid instruction that has none
	SetTxnRefIfEmpty(ctx context.Context, id uuid.UUID, txnRef string) error
}
