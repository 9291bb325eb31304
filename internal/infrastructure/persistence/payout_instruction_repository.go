package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/royalty/backend/internal/domain/payout"
	"github.com/royalty/backend/internal/infrastructure/persistence/models"
)

// GormPayoutInstructionRepository implements PayoutInstructionRepository using GORM
type GormPayoutInstructionRepository struct {
	db *gorm.DB
}

// NewGormPayoutInstructionRepository creates a new GormPayoutInstructionRepository
func NewGormPayoutInstructionRepository(db *gorm.DB) *GormPayoutInstructionRepository {
	return &GormPayoutInstructionRepository{db: db}
}

// FindByID finds an instruction by its ID
func (r *GormPayoutInstructionRepository) FindByID(ctx context.Context, id uuid.UUID) (*payout.PayoutInstruction, error) {
	var model models.PayoutInstructionModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByReceipt lists a receipt's instructions in creation order
func (r *GormPayoutInstructionRepository) FindByReceipt(ctx context.Context, receiptID uuid.UUID) ([]payout.PayoutInstruction, error) {
	var rows []models.PayoutInstructionModel
	if err := r.db.WithContext(ctx).
		Where("receipt_id = ?", receiptID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toInstructions(rows), nil
}

// FindAll returns a filtered page of instructions and the unpaged total
func (r *GormPayoutInstructionRepository) FindAll(ctx context.Context, filter payout.InstructionFilter) ([]payout.PayoutInstruction, int64, error) {
	page := filter.Filter.Normalize()

	query := r.db.WithContext(ctx).Model(&models.PayoutInstructionModel{})
	if filter.PartyUserID != nil {
		query = query.Where("party_user_id = ?", *filter.PartyUserID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Currency != nil {
		query = query.Where("currency = ?", *filter.Currency)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortField := sortColumn(page.OrderBy, instructionSortColumns, "created_at")
	sortOrder := sortDirection(page.OrderDir)

	var rows []models.PayoutInstructionModel
	if err := query.
		Order(sortField + " " + sortOrder).
		Order("id " + sortOrder).
		Offset(page.Offset()).
		Limit(page.PageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return toInstructions(rows), total, nil
}

// FindCreatedBetween lists instructions created in [from, to), oldest first with id as tiebreaker
func (r *GormPayoutInstructionRepository) FindCreatedBetween(ctx context.Context, from, to time.Time) ([]payout.PayoutInstruction, error) {
	var rows []models.PayoutInstructionModel
	if err := r.db.WithContext(ctx).
		Where("created_at >= ? AND created_at < ?", from.UTC(), to.UTC()).
		Order("created_at ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toInstructions(rows), nil
}

// MarkPaid is a compare-and-swap on status: it only touches rows still in a
// payable state and reports whether one changed.
func (r *GormPayoutInstructionRepository) MarkPaid(ctx context.Context, id uuid.UUID, paidAt time.Time, txnRef *string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.PayoutInstructionModel{}).
		Where("id = ? AND status IN ?", id, payout.StatusStrings(payout.PayableStatuses)).
		Updates(map[string]any{
			"status":     payout.StatusPaid,
			"paid_at":    paidAt.UTC(),
			"txn_ref":    txnRef,
			"updated_at": time.Now().UTC(),
			"version":    gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// SetTxnRefIfEmpty fills in the reference of a paid instruction that has none
func (r *GormPayoutInstructionRepository) SetTxnRefIfEmpty(ctx context.Context, id uuid.UUID, txnRef string) error {
	return r.db.WithContext(ctx).
		Model(&models.PayoutInstructionModel{}).
		Where("id = ? AND status = ? AND txn_ref IS NULL", id, payout.StatusPaid).
		Updates(map[string]any{
			"txn_ref":    txnRef,
			"updated_at": time.Now().UTC(),
		}).Error
}

func toInstructions(rows []models.PayoutInstructionModel) []payout.PayoutInstruction {
	out := make([]payout.PayoutInstruction, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

var _ payout.PayoutInstructionRepository = (*GormPayoutInstructionRepository)(nil)
