package payout

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/royalty/backend/internal/domain/shared"
	"github.com/royalty/backend/internal/domain/shared/valueobject"
)

// MaxTxnRefLength bounds the external transaction reference
const MaxTxnRefLength = 120

// PayoutInstruction is one party's share of a distributed receipt
type PayoutInstruction struct {
	shared.BaseAggregateRoot
	ReceiptID          uuid.UUID
	AgreementID        uuid.UUID
	PartyUserID        uuid.UUID
	PartyRole          PartyRole
	Currency           valueobject.Currency
	AmountCents        int64
	Status             Status
	RoundingAdjustment bool
	RoundingCents      int64
	PaidAt             *time.Time
	TxnRef             *string
}

// NewPayoutInstruction builds a pending instruction from an allocation
func NewPayoutInstruction(r *Receipt, alloc Allocation, partyUserID uuid.UUID, createdAt time.Time) *PayoutInstruction {
	root := shared.NewBaseAggregateRoot()
	root.CreatedAt = createdAt
	root.UpdatedAt = createdAt
	return &PayoutInstruction{
		BaseAggregateRoot:  root,
		ReceiptID:          r.ID,
		AgreementID:        r.AgreementID,
		PartyUserID:        partyUserID,
		PartyRole:          alloc.Role,
		Currency:           r.Currency,
		AmountCents:        alloc.Amount,
		Status:             StatusPending,
		RoundingAdjustment: alloc.IsRoundingRecipient,
		RoundingCents:      alloc.RoundingCents,
	}
}

// ValidateTxnRef checks an optional external reference
func ValidateTxnRef(txnRef *string) error {
	if txnRef != nil && len(*txnRef) > MaxTxnRefLength {
		return shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("txnRef cannot exceed %d characters", MaxTxnRefLength))
	}
	return nil
}

// MarkPaid moves the instruction to paid.
// It returns false without error when the instruction was already paid, in
// which case PaidAt keeps its original value and only a missing TxnRef is filled in.
func (p *PayoutInstruction) MarkPaid(paidAt time.Time, txnRef *string, actorID uuid.UUID) (bool, error) {
	if err := ValidateTxnRef(txnRef); err != nil {
		return false, err
	}
	if p.Status == StatusPaid {
		if p.TxnRef == nil && txnRef != nil {
			p.TxnRef = txnRef
		}
		return false, nil
	}
	if !p.Status.CanMarkPaid() {
		return false, shared.NewDomainError(shared.CodeConflict,
			fmt.Sprintf("Payout in %s status cannot be marked as paid", p.Status))
	}

	previous := p.Status
	paidAt = paidAt.UTC()
	p.Status = StatusPaid
	p.PaidAt = &paidAt
	p.TxnRef = txnRef
	p.UpdatedAt = time.Now().UTC()
	p.IncrementVersion()
	p.AddDomainEvent(NewPayoutInstructionPaidEvent(p, previous, actorID))
	return true, nil
}
