package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/royalty/backend/internal/domain/payout"
	"github.com/royalty/backend/internal/infrastructure/persistence/models"
)

// GormAgreementRepository implements AgreementRepository using GORM
type GormAgreementRepository struct {
	db *gorm.DB
}

// NewGormAgreementRepository creates a new GormAgreementRepository
func NewGormAgreementRepository(db *gorm.DB) *GormAgreementRepository {
	return &GormAgreementRepository{db: db}
}

// FindByID finds an agreement by its ID
func (r *GormAgreementRepository) FindByID(ctx context.Context, id uuid.UUID) (*payout.Agreement, error) {
	var model models.AgreementModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save upserts an agreement
func (r *GormAgreementRepository) Save(ctx context.Context, agreement *payout.Agreement) error {
	model := models.AgreementModelFromDomain(agreement)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "updated_at"}),
	}).Create(model).Error
}

var _ payout.AgreementRepository = (*GormAgreementRepository)(nil)
