package payout

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/royalty/backend/internal/domain/payout"
	"github.com/royalty/backend/internal/domain/shared"
)

// AgreementService records agreements and exposes them to their parties
type AgreementService struct {
	agreements payout.AgreementRepository
	logger     *zap.Logger
}

// NewAgreementService creates a new AgreementService
func NewAgreementService(agreements payout.AgreementRepository, logger *zap.Logger) *AgreementService {
	return &AgreementService{agreements: agreements, logger: logger}
}

// Create stores an agreement negotiated elsewhere. Only privileged callers may do this.
func (s *AgreementService) Create(ctx context.Context, req CreateAgreementRequest, actor Actor) (*AgreementResponse, error) {
	if !actor.Privileged() {
		return nil, shared.ErrForbidden
	}
	agreement, err := payout.NewAgreement(req.WorkID, req.CreatorID, req.LicenseeID)
	if err != nil {
		return nil, err
	}
	if req.Status != "" {
		status := payout.AgreementStatus(req.Status)
		if !status.IsValid() {
			return nil, shared.NewDomainError(shared.CodeInvalidInput, "Unknown agreement status")
		}
		agreement.Status = status
	}
	if err := s.agreements.Save(ctx, agreement); err != nil {
		return nil, fmt.Errorf("failed to save agreement: %w", err)
	}
	s.logger.Info("Agreement recorded",
		zap.String("agreement_id", agreement.ID.String()),
		zap.String("status", string(agreement.Status)),
	)
	return ToAgreementResponse(agreement), nil
}

// Get returns an agreement to one of its parties or a privileged caller
func (s *AgreementService) Get(ctx context.Context, id uuid.UUID, actor Actor) (*AgreementResponse, error) {
	agreement, err := s.agreements.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load agreement: %w", err)
	}
	if agreement == nil {
		return nil, payout.ErrAgreementNotFound
	}
	if !actor.Privileged() && !agreement.IsParty(actor.UserID) {
		return nil, shared.ErrForbidden
	}
	return ToAgreementResponse(agreement), nil
}
