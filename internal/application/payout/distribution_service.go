package payout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/royalty/backend/internal/domain/payout"
	"github.com/royalty/backend/internal/domain/shared"
	"github.com/royalty/backend/internal/domain/shared/valueobject"
	"github.com/royalty/backend/internal/infrastructure/telemetry"
)

// DistributionService registers receipts and turns them into payout instructions
type DistributionService struct {
	agreements   payout.AgreementRepository
	receipts     payout.ReceiptRepository
	instructions payout.PayoutInstructionRepository
	publisher    shared.EventPublisher
	idempotency  shared.IdempotencyStore
	metrics      *telemetry.PayoutMetrics
	settings     Settings
	logger       *zap.Logger
}

// DistributionServiceOption configures optional collaborators
type DistributionServiceOption func(*DistributionService)

// WithIdempotencyStore enables Idempotency-Key replay
func WithIdempotencyStore(store shared.IdempotencyStore) DistributionServiceOption {
	return func(s *DistributionService) {
		s.idempotency = store
	}
}

// WithDistributionMetrics records distribution counters
func WithDistributionMetrics(m *telemetry.PayoutMetrics) DistributionServiceOption {
	return func(s *DistributionService) {
		s.metrics = m
	}
}

// NewDistributionService creates a new DistributionService
func NewDistributionService(
	agreements payout.AgreementRepository,
	receipts payout.ReceiptRepository,
	instructions payout.PayoutInstructionRepository,
	publisher shared.EventPublisher,
	settings Settings,
	logger *zap.Logger,
	opts ...DistributionServiceOption,
) *DistributionService {
	s := &DistributionService{
		agreements:   agreements,
		receipts:     receipts,
		instructions: instructions,
		publisher:    publisher,
		settings:     settings,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterReceipt records a pending receipt against an agreement and distributes it.
// Only the agreement's creator may register; privileged callers act for the creator
// by naming it in CreatorID.
func (s *DistributionService) RegisterReceipt(ctx context.Context, req RegisterReceiptRequest, actor Actor) (*ReceiptResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "DistributionService", "RegisterReceipt",
		telemetry.SpanAttrAgreementID, req.AgreementID.String())
	defer span.End()

	creatorID, err := resolveCreator(req, actor)
	if err != nil {
		return nil, err
	}

	code := req.Currency
	if strings.TrimSpace(code) == "" {
		code = s.settings.DefaultCurrency.String()
	}
	cur, err := valueobject.ParseCurrency(code)
	if err != nil {
		return nil, err
	}
	gross, err := valueobject.NewMoney(req.GrossAmount, cur)
	if err != nil {
		return nil, shared.NewDomainError(shared.CodeInvalidAmount, err.Error())
	}
	split, err := s.resolveSplit(req.Split)
	if err != nil {
		return nil, err
	}

	agreement, err := s.agreements.FindByID(ctx, req.AgreementID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load agreement: %w", err)
	}
	if agreement == nil {
		return nil, payout.ErrAgreementNotFound
	}
	if agreement.CreatorID != creatorID {
		return nil, shared.NewDomainError(shared.CodeForbidden, "Only the creator may register receipts for this agreement")
	}
	if !agreement.Status.AcceptsReceipts() {
		return nil, shared.NewDomainError(shared.CodeConflict, "Agreement has not been signed")
	}
	if f, ok := split.Shares.Get(payout.RolePlatform); ok && f.IsPositive() && s.settings.PlatformUserID == uuid.Nil {
		return nil, shared.NewDomainError(payout.CodeInvalidSplit, "platform share requires a configured platform account")
	}

	receipt, err := payout.NewReceipt(agreement.ID, gross, req.Memo, creatorID)
	if err != nil {
		return nil, err
	}
	if err := s.receipts.Create(ctx, receipt); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to create receipt: %w", err)
	}
	s.publish(ctx, receipt)
	telemetry.SetAttributes(span, telemetry.SpanAttrReceiptID, receipt.ID.String())

	result, err := s.Distribute(ctx, DistributeRequest{
		ReceiptID: receipt.ID,
		Split:     req.Split,
		Actor:     Actor{UserID: creatorID, IsAdmin: actor.IsAdmin, IsService: actor.IsService},
	})
	if err != nil {
		// The receipt stays pending and can be distributed again through its own route.
		s.logger.Error("Receipt registered but distribution failed",
			zap.String("receipt_id", receipt.ID.String()),
			zap.Error(err),
		)
		return ToReceiptResponse(receipt, nil), nil
	}
	telemetry.SetOK(span)
	return result, nil
}

// Distribute splits a pending receipt and persists its instructions atomically.
// A repeated call with the same idempotency key replays the stored result to
// callers allowed to distribute the receipt.
func (s *DistributionService) Distribute(ctx context.Context, req DistributeRequest) (*ReceiptResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "DistributionService", "Distribute",
		telemetry.SpanAttrReceiptID, req.ReceiptID.String())
	defer span.End()

	key, replay, err := s.claim(ctx, req)
	if err != nil {
		return nil, err
	}
	if replay != nil {
		s.logger.Info("Replaying distribution for idempotency key",
			zap.String("receipt_id", req.ReceiptID.String()))
		return replay, nil
	}

	start := time.Now()
	receipt, instructions, err := s.distribute(ctx, req)
	if err != nil {
		if key != "" {
			if relErr := s.idempotency.Release(ctx, key); relErr != nil {
				s.logger.Warn("Failed to release idempotency key", zap.String("key", key), zap.Error(relErr))
			}
		}
		if shared.IsConflict(err) {
			s.metrics.RecordConflict(ctx, "distribute")
		}
		telemetry.RecordError(span, err)
		return nil, err
	}

	var total, rounding int64
	responses := make([]PayoutInstructionResponse, 0, len(instructions))
	for _, ins := range instructions {
		total += ins.AmountCents
		rounding += ins.RoundingCents
		responses = append(responses, ToInstructionResponse(ins))
	}
	s.metrics.RecordDistribution(ctx, receipt.Currency.String(), total, rounding, time.Since(start))
	s.publish(ctx, receipt)

	telemetry.SetAttributes(span,
		telemetry.SpanAttrGrossCents, total,
		telemetry.SpanAttrCurrency, receipt.Currency.String(),
		telemetry.SpanAttrPartyCount, len(instructions),
	)
	telemetry.SetOK(span)
	s.logger.Info("Receipt distributed",
		zap.String("receipt_id", receipt.ID.String()),
		zap.Int64("gross_cents", total),
		zap.Int64("rounding_cents", rounding),
		zap.Int("instructions", len(instructions)),
	)
	return ToReceiptResponse(receipt, responses), nil
}

func (s *DistributionService) distribute(ctx context.Context, req DistributeRequest) (*payout.Receipt, []*payout.PayoutInstruction, error) {
	receipt, agreement, err := s.loadForDistributor(ctx, req.ReceiptID, req.Actor)
	if err != nil {
		return nil, nil, err
	}

	split, err := s.resolveSplit(req.Split)
	if err != nil {
		return nil, nil, err
	}

	instructions, err := receipt.Distribute(agreement, split, s.settings.PlatformUserID, s.settings.DropZeroAmounts, req.Actor.UserID)
	if err != nil {
		return nil, nil, err
	}
	if err := s.receipts.CommitDistribution(ctx, receipt, instructions); err != nil {
		if errors.Is(err, payout.ErrAlreadyDistributed) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("failed to commit distribution: %w", err)
	}
	return receipt, instructions, nil
}

// loadForDistributor loads a receipt and its agreement for a caller that must
// be the agreement's creator or privileged.
func (s *DistributionService) loadForDistributor(ctx context.Context, receiptID uuid.UUID, actor Actor) (*payout.Receipt, *payout.Agreement, error) {
	receipt, err := s.receipts.FindByID(ctx, receiptID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load receipt: %w", err)
	}
	if receipt == nil {
		return nil, nil, payout.ErrReceiptNotFound
	}
	agreement, err := s.agreements.FindByID(ctx, receipt.AgreementID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load agreement: %w", err)
	}
	if agreement == nil {
		return nil, nil, payout.ErrAgreementNotFound
	}
	if !actor.Privileged() && actor.UserID != agreement.CreatorID {
		return nil, nil, shared.NewDomainError(shared.CodeForbidden, "Only the creator may distribute this receipt")
	}
	return receipt, agreement, nil
}

// claim records the idempotency key. A key seen before replays the stored
// receipt once it is distributed, for callers allowed to distribute it. While
// the receipt is still pending the key may belong to a crashed attempt, so the
// request proceeds and the conditional commit admits a single winner.
func (s *DistributionService) claim(ctx context.Context, req DistributeRequest) (string, *ReceiptResponse, error) {
	if s.idempotency == nil || req.IdempotencyKey == "" {
		return "", nil, nil
	}
	key := fmt.Sprintf("distribute:%s:%s", req.ReceiptID, req.IdempotencyKey)
	fresh, err := s.idempotency.MarkProcessed(ctx, key, s.settings.IdempotencyTTL)
	if err != nil {
		s.logger.Warn("Idempotency store unavailable, distributing without replay protection", zap.Error(err))
		return "", nil, nil
	}
	if fresh {
		return key, nil, nil
	}

	receipt, _, err := s.loadForDistributor(ctx, req.ReceiptID, req.Actor)
	if err != nil {
		return "", nil, err
	}
	if receipt.Status != payout.StatusDistributed {
		s.logger.Info("Idempotency key already claimed for a pending receipt, retrying distribution",
			zap.String("receipt_id", receipt.ID.String()))
		return "", nil, nil
	}
	items, err := s.instructions.FindByReceipt(ctx, receipt.ID)
	if err != nil {
		return "", nil, fmt.Errorf("failed to load payout instructions: %w", err)
	}
	return "", ToReceiptResponse(receipt, ToInstructionResponses(items)), nil
}

// GetReceipt returns a receipt with its instructions. Agreement parties and
// privileged callers may read it.
func (s *DistributionService) GetReceipt(ctx context.Context, id uuid.UUID, actor Actor) (*ReceiptResponse, error) {
	receipt, err := s.receipts.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load receipt: %w", err)
	}
	if receipt == nil {
		return nil, payout.ErrReceiptNotFound
	}
	if !actor.Privileged() {
		agreement, err := s.agreements.FindByID(ctx, receipt.AgreementID)
		if err != nil {
			return nil, fmt.Errorf("failed to load agreement: %w", err)
		}
		if agreement == nil || !agreement.IsParty(actor.UserID) {
			return nil, shared.ErrForbidden
		}
	}
	items, err := s.instructions.FindByReceipt(ctx, receipt.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load payout instructions: %w", err)
	}
	return ToReceiptResponse(receipt, ToInstructionResponses(items)), nil
}

func (s *DistributionService) resolveSplit(in *SplitInput) (payout.SplitConfiguration, error) {
	if in == nil {
		return s.settings.DefaultSplit, nil
	}
	return in.ToConfiguration(s.settings.DefaultSplit.Primary)
}

// publish hands pending domain events to the bus. Subscribers run after the
// write has committed, so their failures never undo it.
func (s *DistributionService) publish(ctx context.Context, agg interface {
	GetDomainEvents() []shared.DomainEvent
	ClearDomainEvents()
}) {
	events := agg.GetDomainEvents()
	agg.ClearDomainEvents()
	if s.publisher == nil || len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish domain events", zap.Error(err))
	}
}

func resolveCreator(req RegisterReceiptRequest, actor Actor) (uuid.UUID, error) {
	if actor.IsService {
		if req.CreatorID == nil || *req.CreatorID == uuid.Nil {
			return uuid.Nil, shared.NewDomainError(shared.CodeInvalidInput, "creatorId is required when using service credentials")
		}
		return *req.CreatorID, nil
	}
	if actor.IsAdmin && req.CreatorID != nil && *req.CreatorID != uuid.Nil {
		return *req.CreatorID, nil
	}
	if actor.UserID == uuid.Nil {
		return uuid.Nil, shared.ErrUnauthorized
	}
	return actor.UserID, nil
}
