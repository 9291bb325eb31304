package payout

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/royalty/backend/internal/domain/shared"
	"github.com/royalty/backend/internal/domain/shared/valueobject"
)

// MaxMemoLength bounds the free-text memo on a receipt
const MaxMemoLength = 200

// Receipt is a gross payment recorded against an agreement.
// Currency is fixed at creation; nothing in the domain or persistence layer rewrites it.
type Receipt struct {
	shared.BaseAggregateRoot
	AgreementID   uuid.UUID
	GrossAmount   decimal.Decimal
	Currency      valueobject.Currency
	Status        Status
	Memo          string
	CreatedBy     uuid.UUID
	DistributedAt *time.Time
}

// NewReceipt creates a pending receipt
func NewReceipt(
	agreementID uuid.UUID,
	gross valueobject.Money,
	memo string,
	createdBy uuid.UUID,
) (*Receipt, error) {
	if agreementID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Agreement ID is required")
	}
	if !gross.IsPositive() {
		return nil, shared.NewDomainError(shared.CodeInvalidAmount, "Gross amount must be positive")
	}
	units, err := gross.MinorUnits()
	if err != nil {
		return nil, shared.NewDomainError(shared.CodeInvalidAmount, err.Error())
	}
	if units < 1 {
		return nil, shared.NewDomainError(shared.CodeInvalidAmount, "Gross amount must be at least one minor unit")
	}
	if _, err := valueobject.ParseCurrency(gross.Currency().String()); err != nil {
		return nil, err
	}
	memo = strings.TrimSpace(memo)
	if len(memo) > MaxMemoLength {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("Memo cannot exceed %d characters", MaxMemoLength))
	}

	r := &Receipt{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		AgreementID:       agreementID,
		GrossAmount:       gross.Amount(),
		Currency:          gross.Currency(),
		Status:            StatusPending,
		Memo:              memo,
		CreatedBy:         createdBy,
	}
	r.AddDomainEvent(NewReceiptCreatedEvent(r))
	return r, nil
}

// GrossMinorUnits returns round(GrossAmount * 100)
func (r *Receipt) GrossMinorUnits() (int64, error) {
	return valueobject.ToMinorUnits(r.GrossAmount)
}

// Distribute runs the split for this receipt and builds one pending instruction
// per allocation. The receipt moves to distributed; persisting both sides
// together is the repository's job.
func (r *Receipt) Distribute(
	agreement *Agreement,
	split SplitConfiguration,
	platformUserID uuid.UUID,
	dropZeroAmounts bool,
	actorID uuid.UUID,
) ([]*PayoutInstruction, error) {
	if !r.Status.CanDistribute() {
		return nil, ErrAlreadyDistributed
	}
	if agreement == nil || agreement.ID != r.AgreementID {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Agreement does not match receipt")
	}
	if err := split.Validate(); err != nil {
		return nil, err
	}

	gross, err := r.GrossMinorUnits()
	if err != nil {
		return nil, shared.NewDomainError(shared.CodeInvalidAmount, err.Error())
	}
	allocations, err := Split(gross, split.Shares, split.Primary)
	if err != nil {
		return nil, err
	}
	if dropZeroAmounts {
		allocations = DropZeroAmounts(allocations)
	}

	now := time.Now().UTC()
	instructions := make([]*PayoutInstruction, 0, len(allocations))
	for _, alloc := range allocations {
		partyID, err := agreement.PartyFor(alloc.Role, platformUserID)
		if err != nil {
			return nil, err
		}
		instructions = append(instructions, NewPayoutInstruction(r, alloc, partyID, now))
	}

	r.Status = StatusDistributed
	r.DistributedAt = &now
	r.UpdatedAt = now
	r.IncrementVersion()
	r.AddDomainEvent(NewReceiptDistributedEvent(r, instructions, actorID))

	return instructions, nil
}
