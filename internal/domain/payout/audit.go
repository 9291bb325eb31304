package payout

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Audit kinds recorded for payout activity
const (
	AuditKindReceiptCreate     = "receipt.create"
	AuditKindReceiptDistribute = "receipt.distribute"
	AuditKindPayoutMarkPaid    = "payout.mark_paid"
)

// AuditEvent is an append-only record of a state change
type AuditEvent struct {
	ID        uuid.UUID
	UserID    *uuid.UUID
	Kind      string
	Meta      map[string]any
	CreatedAt time.Time
}

// NewAuditEvent creates an audit record; a nil actor is stored as no user
func NewAuditEvent(kind string, actorID uuid.UUID, meta map[string]any, at time.Time) *AuditEvent {
	ev := &AuditEvent{
		ID:        uuid.New(),
		Kind:      kind,
		Meta:      meta,
		CreatedAt: at.UTC(),
	}
	if actorID != uuid.Nil {
		ev.UserID = &actorID
	}
	return ev
}

// AuditEventRepository appends audit records
type AuditEventRepository interface {
	Append(ctx context.Context, event *AuditEvent) error
	FindByKind(ctx context.Context, kind string, limit int) ([]AuditEvent, error)
}
