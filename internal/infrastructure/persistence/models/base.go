package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/royalty/backend/internal/domain/shared"
)

// BaseModel holds the columns shared by every payout table. Timestamps are
// stored and read back as UTC.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null;index"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (m *BaseModel) entity() shared.BaseEntity {
	return shared.BaseEntity{ID: m.ID, CreatedAt: m.CreatedAt.UTC(), UpdatedAt: m.UpdatedAt.UTC()}
}

func (m *BaseModel) setEntity(e shared.BaseEntity) {
	m.ID, m.CreatedAt, m.UpdatedAt = e.ID, e.CreatedAt.UTC(), e.UpdatedAt.UTC()
}

// AggregateModel adds the version column that conditional updates bump
type AggregateModel struct {
	BaseModel
	Version int `gorm:"not null;default:1"`
}

// aggregate rebuilds the root without pending events
func (m *AggregateModel) aggregate() shared.BaseAggregateRoot {
	return shared.BaseAggregateRoot{BaseEntity: m.entity(), Version: m.Version}
}

func (m *AggregateModel) setAggregate(a shared.BaseAggregateRoot) {
	m.setEntity(a.BaseEntity)
	m.Version = a.Version
}
