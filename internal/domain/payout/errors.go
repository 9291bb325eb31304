package payout

import "github.com/royalty/backend/internal/domain/shared"

// Error codes raised by the payout context
const (
	CodeNoParties           = "NO_PARTIES"
	CodeUnknownPrimaryParty = "UNKNOWN_PRIMARY_PARTY"
	CodeInvalidSplit        = "INVALID_SPLIT"
	CodeInvalidRole         = "INVALID_PARTY_ROLE"
)

var (
	// ErrNoParties means no role had a positive share after filtering
	ErrNoParties = shared.NewDomainError(CodeNoParties, "Split configuration has no party with a positive share")
	// ErrUnknownPrimaryParty means the remainder recipient is absent from the split
	ErrUnknownPrimaryParty = shared.NewDomainError(CodeUnknownPrimaryParty, "Primary party must hold a positive share")
	// ErrInvalidAmount is raised for negative gross amounts
	ErrInvalidAmount = shared.NewDomainError(shared.CodeInvalidAmount, "Gross amount cannot be negative")
	// ErrReceiptNotFound is returned when a receipt id does not resolve
	ErrReceiptNotFound = shared.NewDomainError(shared.CodeNotFound, "Receipt not found")
	// ErrInstructionNotFound is returned when a payout instruction id does not resolve
	ErrInstructionNotFound = shared.NewDomainError(shared.CodeNotFound, "Payout instruction not found")
	// ErrAgreementNotFound is returned when an agreement id does not resolve
	ErrAgreementNotFound = shared.NewDomainError(shared.CodeNotFound, "Agreement not found")
	// ErrAlreadyDistributed is raised when the pending gate has already been passed
	ErrAlreadyDistributed = shared.NewDomainError(shared.CodeConflict, "Receipt is no longer pending distribution")
	// ErrNotPayable is raised when an instruction's status does not allow payment
	ErrNotPayable = shared.NewDomainError(shared.CodeConflict, "Payout status does not allow marking as paid")
)
