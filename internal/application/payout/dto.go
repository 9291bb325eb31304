package payout

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/royalty/backend/internal/domain/payout"
)

// Actor identifies the caller of an application operation
type Actor struct {
	UserID    uuid.UUID
	IsAdmin   bool
	IsService bool
}

// Privileged reports whether the caller may act on behalf of other users
func (a Actor) Privileged() bool {
	return a.IsAdmin || a.IsService
}

// SplitInput is a caller-supplied split. Roles left nil take no share.
type SplitInput struct {
	Creator  *decimal.Decimal `json:"creator"`
	Licensee *decimal.Decimal `json:"licensee"`
	Platform *decimal.Decimal `json:"platform"`
	Primary  string           `json:"primary" binding:"omitempty,oneof=creator licensee platform"`
}

// ToConfiguration converts the input into an ordered split, defaulting the primary role
func (in *SplitInput) ToConfiguration(defaultPrimary payout.PartyRole) (payout.SplitConfiguration, error) {
	cfg := payout.SplitConfiguration{Primary: defaultPrimary}
	add := func(role payout.PartyRole, f *decimal.Decimal) {
		if f != nil {
			cfg.Shares = append(cfg.Shares, payout.Share{Role: role, Fraction: *f})
		}
	}
	add(payout.RoleCreator, in.Creator)
	add(payout.RoleLicensee, in.Licensee)
	add(payout.RolePlatform, in.Platform)

	if in.Primary != "" {
		role, err := payout.ParsePartyRole(in.Primary)
		if err != nil {
			return payout.SplitConfiguration{}, err
		}
		cfg.Primary = role
	}
	return cfg, cfg.Validate()
}

// RegisterReceiptRequest registers a gross payment and distributes it
type RegisterReceiptRequest struct {
	AgreementID uuid.UUID       `json:"agreementId" binding:"required"`
	GrossAmount decimal.Decimal `json:"grossAmount"`
	Currency    string          `json:"currency" binding:"omitempty,currency_code"`
	Split       *SplitInput     `json:"split"`
	Memo        string          `json:"memo" binding:"max=200"`
	// CreatorID is required for service callers, who act on the creator's behalf
	CreatorID *uuid.UUID `json:"creatorId"`
}

// DistributeRequest distributes a pending receipt
type DistributeRequest struct {
	ReceiptID      uuid.UUID
	Split          *SplitInput
	IdempotencyKey string
	Actor          Actor
}

// PayoutInstructionResponse is one instruction in API responses
type PayoutInstructionResponse struct {
	ID                 uuid.UUID  `json:"id"`
	ReceiptID          uuid.UUID  `json:"receiptId"`
	AgreementID        uuid.UUID  `json:"agreementId"`
	PartyUserID        uuid.UUID  `json:"partyUserId"`
	PartyRole          string     `json:"partyRole"`
	Currency           string     `json:"currency"`
	AmountCents        int64      `json:"amountCents"`
	Status             string     `json:"status"`
	RoundingAdjustment bool       `json:"roundingAdjustment"`
	RoundingCents      int64      `json:"roundingCents"`
	PaidAt             *time.Time `json:"paidAt"`
	TxnRef             *string    `json:"txnRef,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
}

// ReceiptResponse is a receipt with its payout instructions
type ReceiptResponse struct {
	ID                 uuid.UUID                   `json:"id"`
	AgreementID        uuid.UUID                   `json:"agreementId"`
	Status             string                      `json:"status"`
	GrossAmount        decimal.Decimal             `json:"grossAmount"`
	Currency           string                      `json:"currency"`
	Memo               string                      `json:"memo,omitempty"`
	PayoutInstructions []PayoutInstructionResponse `json:"payoutInstructions"`
	DistributedAt      *time.Time                  `json:"distributedAt"`
	CreatedAt          time.Time                   `json:"createdAt"`
}

// MarkPaidRequest reconciles one instruction as paid
type MarkPaidRequest struct {
	InstructionID uuid.UUID
	PaidAt        *time.Time
	TxnRef        *string
	Actor         Actor
}

// MarkPaidResponse reports the stored paid state
type MarkPaidResponse struct {
	OK            bool      `json:"ok"`
	InstructionID uuid.UUID `json:"instructionId"`
	Status        string    `json:"status"`
	PaidAt        time.Time `json:"paidAt"`
	TxnRef        *string   `json:"txnRef,omitempty"`
	// AlreadyPaid is set when nothing changed because the instruction was paid earlier
	AlreadyPaid bool `json:"alreadyPaid"`
}

// ExportRequest selects a month ("YYYY-MM") or an explicit [From, To) window
type ExportRequest struct {
	Month string
	From  *time.Time
	To    *time.Time
}

// ExportRow is one line of the payout export
type ExportRow struct {
	ReceiptID   uuid.UUID
	PartyUserID uuid.UUID
	Currency    string
	AmountCents int64
	Status      string
	CreatedAt   time.Time
	PaidAt      *time.Time
}

// ArchiveResponse points at an uploaded export
type ArchiveResponse struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
	Rows      int       `json:"rows"`
}

// CreateAgreementRequest records an agreement reached outside this service
type CreateAgreementRequest struct {
	WorkID     uuid.UUID `json:"workId" binding:"required"`
	CreatorID  uuid.UUID `json:"creatorId" binding:"required"`
	LicenseeID uuid.UUID `json:"licenseeId" binding:"required"`
	Status     string    `json:"status" binding:"omitempty,oneof=DRAFT SIGNED FINALIZED"`
}

// AgreementResponse is an agreement in API responses
type AgreementResponse struct {
	ID         uuid.UUID `json:"id"`
	WorkID     uuid.UUID `json:"workId"`
	CreatorID  uuid.UUID `json:"creatorId"`
	LicenseeID uuid.UUID `json:"licenseeId"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ToInstructionResponse converts a domain instruction
func ToInstructionResponse(p *payout.PayoutInstruction) PayoutInstructionResponse {
	return PayoutInstructionResponse{
		ID:                 p.ID,
		ReceiptID:          p.ReceiptID,
		AgreementID:        p.AgreementID,
		PartyUserID:        p.PartyUserID,
		PartyRole:          p.PartyRole.String(),
		Currency:           p.Currency.String(),
		AmountCents:        p.AmountCents,
		Status:             p.Status.String(),
		RoundingAdjustment: p.RoundingAdjustment,
		RoundingCents:      p.RoundingCents,
		PaidAt:             p.PaidAt,
		TxnRef:             p.TxnRef,
		CreatedAt:          p.CreatedAt,
	}
}

// ToInstructionResponses converts a slice of instructions
func ToInstructionResponses(items []payout.PayoutInstruction) []PayoutInstructionResponse {
	out := make([]PayoutInstructionResponse, len(items))
	for i := range items {
		out[i] = ToInstructionResponse(&items[i])
	}
	return out
}

// ToReceiptResponse converts a receipt and its instructions
func ToReceiptResponse(r *payout.Receipt, instructions []PayoutInstructionResponse) *ReceiptResponse {
	if instructions == nil {
		instructions = []PayoutInstructionResponse{}
	}
	return &ReceiptResponse{
		ID:                 r.ID,
		AgreementID:        r.AgreementID,
		Status:             r.Status.String(),
		GrossAmount:        r.GrossAmount,
		Currency:           r.Currency.String(),
		Memo:               r.Memo,
		PayoutInstructions: instructions,
		DistributedAt:      r.DistributedAt,
		CreatedAt:          r.CreatedAt,
	}
}

// ToAgreementResponse converts a domain agreement
func ToAgreementResponse(a *payout.Agreement) *AgreementResponse {
	return &AgreementResponse{
		ID:         a.ID,
		WorkID:     a.WorkID,
		CreatorID:  a.CreatorID,
		LicenseeID: a.LicenseeID,
		Status:     string(a.Status),
		CreatedAt:  a.CreatedAt,
	}
}
