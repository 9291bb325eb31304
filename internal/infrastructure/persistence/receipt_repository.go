package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/royalty/backend/internal/domain/payout"
	"github.com/royalty/backend/internal/infrastructure/persistence/models"
)

const instructionBatchSize = 100

// GormReceiptRepository implements ReceiptRepository using GORM
type GormReceiptRepository struct {
	db *gorm.DB
}

// NewGormReceiptRepository creates a new GormReceiptRepository
func NewGormReceiptRepository(db *gorm.DB) *GormReceiptRepository {
	return &GormReceiptRepository{db: db}
}

// FindByID finds a receipt by its ID
func (r *GormReceiptRepository) FindByID(ctx context.Context, id uuid.UUID) (*payout.Receipt, error) {
	var model models.ReceiptModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByAgreement lists an agreement's receipts, newest first
func (r *GormReceiptRepository) FindByAgreement(ctx context.Context, agreementID uuid.UUID) ([]payout.Receipt, error) {
	var rows []models.ReceiptModel
	if err := r.db.WithContext(ctx).
		Where("agreement_id = ?", agreementID).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	receipts := make([]payout.Receipt, len(rows))
	for i := range rows {
		receipts[i] = *rows[i].ToDomain()
	}
	return receipts, nil
}

// Create inserts a new receipt
func (r *GormReceiptRepository) Create(ctx context.Context, receipt *payout.Receipt) error {
	return r.db.WithContext(ctx).Create(models.ReceiptModelFromDomain(receipt)).Error
}

// CommitDistribution flips the receipt from pending to distributed and inserts
// its instructions inside a single transaction. The status predicate on the
// UPDATE makes the transition single-use under concurrent callers.
func (r *GormReceiptRepository) CommitDistribution(ctx context.Context, receipt *payout.Receipt, instructions []*payout.PayoutInstruction) error {
	if receipt.DistributedAt == nil {
		return fmt.Errorf("receipt %s has no distribution timestamp", receipt.ID)
	}

	rows := make([]*models.PayoutInstructionModel, len(instructions))
	for i, ins := range instructions {
		rows[i] = models.PayoutInstructionModelFromDomain(ins)
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.ReceiptModel{}).
			Where("id = ? AND status = ?", receipt.ID, payout.StatusPending).
			Updates(map[string]any{
				"status":         payout.StatusDistributed,
				"distributed_at": *receipt.DistributedAt,
				"updated_at":     receipt.UpdatedAt,
				"version":        gorm.Expr("version + 1"),
			})
		if result.Error != nil {
			return fmt.Errorf("failed to update receipt status: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return payout.ErrAlreadyDistributed
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(rows, instructionBatchSize).Error; err != nil {
			return fmt.Errorf("failed to insert payout instructions: %w", err)
		}
		return nil
	})
}

var _ payout.ReceiptRepository = (*GormReceiptRepository)(nil)
