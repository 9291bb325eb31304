package persistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/royalty/backend/internal/domain/payout"
	"github.com/royalty/backend/internal/infrastructure/persistence/models"
)

// GormAuditEventRepository appends audit records using GORM
type GormAuditEventRepository struct {
	db *gorm.DB
}

// NewGormAuditEventRepository creates a new GormAuditEventRepository
func NewGormAuditEventRepository(db *gorm.DB) *GormAuditEventRepository {
	return &GormAuditEventRepository{db: db}
}

// Append inserts one audit record
func (r *GormAuditEventRepository) Append(ctx context.Context, event *payout.AuditEvent) error {
	model, err := models.AuditEventModelFromDomain(event)
	if err != nil {
		return fmt.Errorf("failed to encode audit meta: %w", err)
	}
	return r.db.WithContext(ctx).Create(model).Error
}

// FindByKind returns the newest records of a kind
func (r *GormAuditEventRepository) FindByKind(ctx context.Context, kind string, limit int) ([]payout.AuditEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []models.AuditEventModel
	if err := r.db.WithContext(ctx).
		Where("kind = ?", kind).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]payout.AuditEvent, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

var _ payout.AuditEventRepository = (*GormAuditEventRepository)(nil)
