package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/royalty/backend/internal/domain/payout"
	"github.com/royalty/backend/internal/domain/shared/valueobject"
)

// AgreementModel is the persistence model for the Agreement entity.
type AgreementModel struct {
	BaseModel
	WorkID     uuid.UUID              `gorm:"type:uuid;not null;index"`
	CreatorID  uuid.UUID              `gorm:"type:uuid;not null;index"`
	LicenseeID uuid.UUID              `gorm:"type:uuid;not null;index"`
	Status     payout.AgreementStatus `gorm:"type:varchar(20);not null;default:'SIGNED'"`
}

// TableName returns the table name for GORM
func (AgreementModel) TableName() string {
	return "agreements"
}

// ToDomain converts the persistence model to a domain Agreement entity.
func (m *AgreementModel) ToDomain() *payout.Agreement {
	return &payout.Agreement{
		BaseEntity: m.entity(),
		WorkID:     m.WorkID,
		CreatorID:  m.CreatorID,
		LicenseeID: m.LicenseeID,
		Status:     m.Status,
	}
}

// FromDomain populates the persistence model from a domain Agreement entity.
func (m *AgreementModel) FromDomain(a *payout.Agreement) {
	m.setEntity(a.BaseEntity)
	m.WorkID = a.WorkID
	m.CreatorID = a.CreatorID
	m.LicenseeID = a.LicenseeID
	m.Status = a.Status
}

// AgreementModelFromDomain creates a new persistence model from a domain Agreement.
func AgreementModelFromDomain(a *payout.Agreement) *AgreementModel {
	m := &AgreementModel{}
	m.FromDomain(a)
	return m
}

// ReceiptModel is the persistence model for the Receipt aggregate root.
type ReceiptModel struct {
	AggregateModel
	AgreementID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	GrossAmount   decimal.Decimal `gorm:"type:numeric(18,4);not null"`
	Currency      string          `gorm:"type:varchar(3);not null;default:'JPY'"`
	Status        payout.Status   `gorm:"type:varchar(20);not null;default:'pending';index"`
	Memo          string          `gorm:"type:varchar(200)"`
	CreatedBy     uuid.UUID       `gorm:"type:uuid;not null"`
	DistributedAt *time.Time
}

// TableName returns the table name for GORM
func (ReceiptModel) TableName() string {
	return "receipts"
}

// ToDomain converts the persistence model to a domain Receipt aggregate.
func (m *ReceiptModel) ToDomain() *payout.Receipt {
	r := &payout.Receipt{
		BaseAggregateRoot: m.aggregate(),
		AgreementID:       m.AgreementID,
		GrossAmount:       m.GrossAmount,
		Currency:          valueobject.Currency(m.Currency),
		Status:            m.Status,
		Memo:              m.Memo,
		CreatedBy:         m.CreatedBy,
	}
	if m.DistributedAt != nil {
		at := m.DistributedAt.UTC()
		r.DistributedAt = &at
	}
	return r
}

// FromDomain populates the persistence model from a domain Receipt aggregate.
func (m *ReceiptModel) FromDomain(r *payout.Receipt) {
	m.setAggregate(r.BaseAggregateRoot)
	m.AgreementID = r.AgreementID
	m.GrossAmount = r.GrossAmount
	m.Currency = r.Currency.String()
	m.Status = r.Status
	m.Memo = r.Memo
	m.CreatedBy = r.CreatedBy
	m.DistributedAt = r.DistributedAt
}

// ReceiptModelFromDomain creates a new persistence model from a domain Receipt.
func ReceiptModelFromDomain(r *payout.Receipt) *ReceiptModel {
	m := &ReceiptModel{}
	m.FromDomain(r)
	return m
}

// PayoutInstructionModel is the persistence model for the PayoutInstruction aggregate root.
type PayoutInstructionModel struct {
	AggregateModel
	ReceiptID          uuid.UUID        `gorm:"type:uuid;not null;index"`
	AgreementID        uuid.UUID        `gorm:"type:uuid;not null"`
	PartyUserID        uuid.UUID        `gorm:"type:uuid;not null;index"`
	PartyRole          payout.PartyRole `gorm:"type:varchar(20);not null"`
	Currency           string           `gorm:"type:varchar(3);not null"`
	AmountCents        int64            `gorm:"not null"`
	Status             payout.Status    `gorm:"type:varchar(20);not null;default:'pending';index"`
	RoundingAdjustment bool             `gorm:"not null;default:false"`
	RoundingCents      int64            `gorm:"not null;default:0"`
	PaidAt             *time.Time
	TxnRef             *string `gorm:"type:varchar(120)"`
}

// TableName returns the table name for GORM
func (PayoutInstructionModel) TableName() string {
	return "payout_instructions"
}

// ToDomain converts the persistence model to a domain PayoutInstruction.
func (m *PayoutInstructionModel) ToDomain() *payout.PayoutInstruction {
	p := &payout.PayoutInstruction{
		BaseAggregateRoot:  m.aggregate(),
		ReceiptID:          m.ReceiptID,
		AgreementID:        m.AgreementID,
		PartyUserID:        m.PartyUserID,
		PartyRole:          m.PartyRole,
		Currency:           valueobject.Currency(m.Currency),
		AmountCents:        m.AmountCents,
		Status:             m.Status,
		RoundingAdjustment: m.RoundingAdjustment,
		RoundingCents:      m.RoundingCents,
		TxnRef:             m.TxnRef,
	}
	if m.PaidAt != nil {
		at := m.PaidAt.UTC()
		p.PaidAt = &at
	}
	return p
}

// FromDomain populates the persistence model from a domain PayoutInstruction.
func (m *PayoutInstructionModel) FromDomain(p *payout.PayoutInstruction) {
	m.setAggregate(p.BaseAggregateRoot)
	m.ReceiptID = p.ReceiptID
	m.AgreementID = p.AgreementID
	m.PartyUserID = p.PartyUserID
	m.PartyRole = p.PartyRole
	m.Currency = p.Currency.String()
	m.AmountCents = p.AmountCents
	m.Status = p.Status
	m.RoundingAdjustment = p.RoundingAdjustment
	m.RoundingCents = p.RoundingCents
	m.PaidAt = p.PaidAt
	m.TxnRef = p.TxnRef
}

// PayoutInstructionModelFromDomain creates a new persistence model from a domain PayoutInstruction.
func PayoutInstructionModelFromDomain(p *payout.PayoutInstruction) *PayoutInstructionModel {
	m := &PayoutInstructionModel{}
	m.FromDomain(p)
	return m
}

// AuditEventModel is the persistence model for audit records.
type AuditEventModel struct {
	ID        uuid.UUID  `gorm:"type:uuid;primary_key"`
	UserID    *uuid.UUID `gorm:"type:uuid;index"`
	Kind      string     `gorm:"type:varchar(50);not null;index"`
	MetaJSON  string     `gorm:"column:meta;type:jsonb;not null;default:'{}'"`
	CreatedAt time.Time  `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (AuditEventModel) TableName() string {
	return "audit_events"
}

// ToDomain converts the persistence model to a domain AuditEvent.
// An unreadable meta column yields an empty map.
func (m *AuditEventModel) ToDomain() payout.AuditEvent {
	meta := map[string]any{}
	if m.MetaJSON != "" {
		_ = json.Unmarshal([]byte(m.MetaJSON), &meta)
	}
	return payout.AuditEvent{
		ID:        m.ID,
		UserID:    m.UserID,
		Kind:      m.Kind,
		Meta:      meta,
		CreatedAt: m.CreatedAt.UTC(),
	}
}

// AuditEventModelFromDomain creates a new persistence model from a domain AuditEvent.
func AuditEventModelFromDomain(e *payout.AuditEvent) (*AuditEventModel, error) {
	meta := e.Meta
	if meta == nil {
		meta = map[string]any{}
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return nil, err
	}
	return &AuditEventModel{
		ID:        e.ID,
		UserID:    e.UserID,
		Kind:      e.Kind,
		MetaJSON:  string(raw),
		CreatedAt: e.CreatedAt,
	}, nil
}

// AllModels returns every model managed by AutoMigrate in tests.
func AllModels() []any {
	return []any{
		&AgreementModel{},
		&ReceiptModel{},
		&PayoutInstructionModel{},
		&AuditEventModel{},
	}
}
