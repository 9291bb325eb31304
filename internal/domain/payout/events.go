package payout

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/royalty/backend/internal/domain/shared"
)

// Event type names
const (
	EventReceiptCreated        = "ReceiptCreated"
	EventReceiptDistributed    = "ReceiptDistributed"
	EventPayoutInstructionPaid = "PayoutInstructionPaid"

	AggregateReceipt           = "Receipt"
	AggregatePayoutInstruction = "PayoutInstruction"
)

// ReceiptCreatedEvent is raised when a receipt is registered
type ReceiptCreatedEvent struct {
	shared.BaseDomainEvent
	ReceiptID   uuid.UUID       `json:"receipt_id"`
	AgreementID uuid.UUID       `json:"agreement_id"`
	GrossAmount decimal.Decimal `json:"gross_amount"`
	Currency    string          `json:"currency"`
}

// NewReceiptCreatedEvent creates a new ReceiptCreatedEvent
func NewReceiptCreatedEvent(r *Receipt) *ReceiptCreatedEvent {
	return &ReceiptCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventReceiptCreated, AggregateReceipt, r.ID, r.CreatedBy),
		ReceiptID:       r.ID,
		AgreementID:     r.AgreementID,
		GrossAmount:     r.GrossAmount,
		Currency:        r.Currency.String(),
	}
}

// DistributedShare summarizes one instruction inside a distribution event
type DistributedShare struct {
	InstructionID uuid.UUID `json:"instruction_id"`
	PartyUserID   uuid.UUID `json:"party_user_id"`
	PartyRole     PartyRole `json:"party_role"`
	AmountCents   int64     `json:"amount_cents"`
	RoundingCents int64     `json:"rounding_cents"`
}

// ReceiptDistributedEvent is raised when a receipt's instructions are generated
type ReceiptDistributedEvent struct {
	shared.BaseDomainEvent
	ReceiptID     uuid.UUID          `json:"receipt_id"`
	AgreementID   uuid.UUID          `json:"agreement_id"`
	Currency      string             `json:"currency"`
	GrossCents    int64              `json:"gross_cents"`
	Shares        []DistributedShare `json:"shares"`
	DistributedAt time.Time          `json:"distributed_at"`
}

// NewReceiptDistributedEvent creates a new ReceiptDistributedEvent
func NewReceiptDistributedEvent(r *Receipt, instructions []*PayoutInstruction, actorID uuid.UUID) *ReceiptDistributedEvent {
	shares := make([]DistributedShare, 0, len(instructions))
	var total int64
	for _, ins := range instructions {
		total += ins.AmountCents
		shares = append(shares, DistributedShare{
			InstructionID: ins.ID,
			PartyUserID:   ins.PartyUserID,
			PartyRole:     ins.PartyRole,
			AmountCents:   ins.AmountCents,
			RoundingCents: ins.RoundingCents,
		})
	}
	var at time.Time
	if r.DistributedAt != nil {
		at = *r.DistributedAt
	}
	return &ReceiptDistributedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventReceiptDistributed, AggregateReceipt, r.ID, actorID),
		ReceiptID:       r.ID,
		AgreementID:     r.AgreementID,
		Currency:        r.Currency.String(),
		GrossCents:      total,
		Shares:          shares,
		DistributedAt:   at,
	}
}

// PayoutInstructionPaidEvent is raised when an instruction is reconciled as paid
type PayoutInstructionPaidEvent struct {
	shared.BaseDomainEvent
	InstructionID  uuid.UUID `json:"instruction_id"`
	ReceiptID      uuid.UUID `json:"receipt_id"`
	PartyUserID    uuid.UUID `json:"party_user_id"`
	PreviousStatus Status    `json:"previous_status"`
	AmountCents    int64     `json:"amount_cents"`
	PaidAt         time.Time `json:"paid_at"`
	TxnRef         *string   `json:"txn_ref,omitempty"`
}

// NewPayoutInstructionPaidEvent creates a new PayoutInstructionPaidEvent
func NewPayoutInstructionPaidEvent(p *PayoutInstruction, previous Status, actorID uuid.UUID) *PayoutInstructionPaidEvent {
	var paidAt time.Time
	if p.PaidAt != nil {
		paidAt = *p.PaidAt
	}
	return &PayoutInstructionPaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventPayoutInstructionPaid, AggregatePayoutInstruction, p.ID, actorID),
		InstructionID:   p.ID,
		ReceiptID:       p.ReceiptID,
		PartyUserID:     p.PartyUserID,
		PreviousStatus:  previous,
		AmountCents:     p.AmountCents,
		PaidAt:          paidAt,
		TxnRef:          p.TxnRef,
	}
}
