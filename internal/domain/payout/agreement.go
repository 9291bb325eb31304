package payout

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/royalty/backend/internal/domain/shared"
)

// AgreementStatus represents the signing state of a licensing agreement
type AgreementStatus string

const (
	AgreementStatusDraft     AgreementStatus = "DRAFT"
	AgreementStatusSigned    AgreementStatus = "SIGNED"
	AgreementStatusFinalized AgreementStatus = "FINALIZED"
)

// IsValid checks if the status is known
func (s AgreementStatus) IsValid() bool {
	switch s {
	case AgreementStatusDraft, AgreementStatusSigned, AgreementStatusFinalized:
		return true
	}
	return false
}

// AcceptsReceipts returns true once the agreement has been signed
func (s AgreementStatus) AcceptsReceipts() bool {
	return s == AgreementStatusSigned || s == AgreementStatusFinalized
}

// Agreement is a license between a work's creator and a licensee.
// Receipts are registered against it and its parties receive the payouts.
type Agreement struct {
	shared.BaseEntity
	WorkID     uuid.UUID
	CreatorID  uuid.UUID
	LicenseeID uuid.UUID
	Status     AgreementStatus
}

// NewAgreement creates a signed agreement
func NewAgreement(workID, creatorID, licenseeID uuid.UUID) (*Agreement, error) {
	if workID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Work ID is required")
	}
	if creatorID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Creator ID is required")
	}
	if licenseeID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Licensee ID is required")
	}
	if creatorID == licenseeID {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Creator cannot license a work to themselves")
	}
	return &Agreement{
		BaseEntity: shared.NewBaseEntity(),
		WorkID:     workID,
		CreatorID:  creatorID,
		LicenseeID: licenseeID,
		Status:     AgreementStatusSigned,
	}, nil
}

// PartyFor resolves the user that receives a role's payout
func (a *Agreement) PartyFor(role PartyRole, platformUserID uuid.UUID) (uuid.UUID, error) {
	switch role {
	case RoleCreator:
		return a.CreatorID, nil
	case RoleLicensee:
		return a.LicenseeID, nil
	case RolePlatform:
		if platformUserID == uuid.Nil {
			return uuid.Nil, shared.NewDomainError(CodeInvalidSplit, "platform share requires a configured platform account")
		}
		return platformUserID, nil
	}
	return uuid.Nil, shared.NewDomainError(CodeInvalidRole, fmt.Sprintf("unknown party role %q", role))
}

// IsParty reports whether the user is the creator or licensee
func (a *Agreement) IsParty(userID uuid.UUID) bool {
	return userID == a.CreatorID || userID == a.LicenseeID
}
