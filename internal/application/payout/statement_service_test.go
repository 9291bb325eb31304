package payout

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/royalty/backend/internal/domain/payout"
	"github.com/royalty/backend/internal/domain/shared"
	"github.com/royalty/backend/internal/domain/shared/valueobject"
)

type recordingRenderer struct {
	got []Statement
	err error
}

func (r *recordingRenderer) RenderStatement(_ context.Context, st Statement) ([]byte, error) {
	r.got = append(r.got, st)
	if r.err != nil {
		return nil, r.err
	}
	return []byte("%PDF-1.7"), nil
}

func TestStatement_Render(t *testing.T) {
	h := newHarness(t)
	renderer := &recordingRenderer{}
	svc := NewStatementService(h.agreements, h.receipts, h.instructions, renderer, zap.NewNop())

	pending := h.pendingReceipt(t, "10.00", valueobject.USD)

	t.Run("pending receipt conflicts", func(t *testing.T) {
		_, err := svc.Render(context.Background(), pending.ID, h.creator())
		require.Error(t, err)
		assert.True(t, shared.IsConflict(err))
	})

	_, err := h.distribution.Distribute(context.Background(), DistributeRequest{ReceiptID: pending.ID, Actor: h.creator()})
	require.NoError(t, err)

	t.Run("party receives pdf", func(t *testing.T) {
		pdf, err := svc.Render(context.Background(), pending.ID, h.licensee())
		require.NoError(t, err)
		assert.Equal(t, []byte("%PDF-1.7"), pdf)

		require.NotEmpty(t, renderer.got)
		st := renderer.got[len(renderer.got)-1]
		assert.Equal(t, pending.ID, st.Receipt.ID)
		assert.Equal(t, h.agreement.WorkID, st.Agreement.WorkID)
		assert.Len(t, st.Receipt.PayoutInstructions, 2)
		assert.Equal(t, int64(1000), sumCents(st.Receipt.PayoutInstructions))
		assert.False(t, st.GeneratedAt.IsZero())
	})

	t.Run("outsider forbidden", func(t *testing.T) {
		_, err := svc.Render(context.Background(), pending.ID, Actor{UserID: uuid.New()})
		assert.ErrorIs(t, err, shared.ErrForbidden)
	})

	t.Run("admin allowed", func(t *testing.T) {
		_, err := svc.Render(context.Background(), pending.ID, Actor{UserID: uuid.New(), IsAdmin: true})
		assert.NoError(t, err)
	})

	t.Run("unknown receipt", func(t *testing.T) {
		_, err := svc.Render(context.Background(), uuid.New(), h.creator())
		assert.ErrorIs(t, err, payout.ErrReceiptNotFound)
	})

	t.Run("renderer failure is wrapped", func(t *testing.T) {
		failing := NewStatementService(h.agreements, h.receipts, h.instructions,
			&recordingRenderer{err: errors.New("chrome gone")}, zap.NewNop())
		_, err := failing.Render(context.Background(), pending.ID, h.creator())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "chrome gone")
	})
}

func TestStatement_Unavailable(t *testing.T) {
	svc := NewStatementService(nil, nil, nil, nil, zap.NewNop())
	_, err := svc.Render(context.Background(), uuid.New(), Actor{IsAdmin: true})
	assert.ErrorIs(t, err, ErrStatementUnavailable)
}

func TestStatementFilename(t *testing.T) {
	id := uuid.MustParse("6f1c2a9e-2f43-4c1b-9d0e-1c5b7f9a3e21")
	assert.Equal(t, "statement-6f1c2a9e-2f43-4c1b-9d0e-1c5b7f9a3e21.pdf", StatementFilename(id))
}
