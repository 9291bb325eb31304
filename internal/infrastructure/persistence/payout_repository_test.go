package persistence

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/royalty/backend/internal/domain/payout"
	"github.com/royalty/backend/internal/domain/shared"
	"github.com/royalty/backend/internal/domain/shared/valueobject"
	"github.com/royalty/backend/internal/infrastructure/persistence/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.AllModels()...))
	return db
}

type payoutFixture struct {
	agreements   *GormAgreementRepository
	receipts     *GormReceiptRepository
	instructions *GormPayoutInstructionRepository
	agreement    *payout.Agreement
}

func newPayoutFixture(t *testing.T) *payoutFixture {
	t.Helper()
	db := setupTestDB(t)
	f := &payoutFixture{
		agreements:   NewGormAgreementRepository(db),
		receipts:     NewGormReceiptRepository(db),
		instructions: NewGormPayoutInstructionRepository(db),
	}
	agreement, err := payout.NewAgreement(uuid.New(), uuid.New(), uuid.New())
	require.NoError(t, err)
	require.NoError(t, f.agreements.Save(context.Background(), agreement))
	f.agreement = agreement
	return f
}

func (f *payoutFixture) pendingReceipt(t *testing.T, amount string) *payout.Receipt {
	t.Helper()
	gross, err := valueobject.NewMoneyFromString(amount, valueobject.USD)
	require.NoError(t, err)
	r, err := payout.NewReceipt(f.agreement.ID, gross, "", f.agreement.CreatorID)
	require.NoError(t, err)
	require.NoError(t, f.receipts.Create(context.Background(), r))
	return r
}

func (f *payoutFixture) distribute(t *testing.T, r *payout.Receipt) []*payout.PayoutInstruction {
	t.Helper()
	instructions, err := r.Distribute(f.agreement, payout.DefaultSplit(), uuid.Nil, false, f.agreement.CreatorID)
	require.NoError(t, err)
	return instructions
}

func TestGormAgreementRepository(t *testing.T) {
	f := newPayoutFixture(t)
	ctx := context.Background()

	found, err := f.agreements.FindByID(ctx, f.agreement.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, f.agreement.CreatorID, found.CreatorID)
	assert.Equal(t, payout.AgreementStatusSigned, found.Status)

	found.Status = payout.AgreementStatusFinalized
	require.NoError(t, f.agreements.Save(ctx, found))
	again, err := f.agreements.FindByID(ctx, f.agreement.ID)
	require.NoError(t, err)
	assert.Equal(t, payout.AgreementStatusFinalized, again.Status)

	missing, err := f.agreements.FindByID(ctx, uuid.New())
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestGormReceiptRepository_CommitDistribution(t *testing.T) {
	ctx := context.Background()

	t.Run("persists receipt status and instructions together", func(t *testing.T) {
		f := newPayoutFixture(t)
		r := f.pendingReceipt(t, "10.01")
		instructions := f.distribute(t, r)

		require.NoError(t, f.receipts.CommitDistribution(ctx, r, instructions))

		stored, err := f.receipts.FindByID(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, payout.StatusDistributed, stored.Status)
		assert.NotNil(t, stored.DistributedAt)
		assert.Equal(t, 2, stored.Version)
		assert.True(t, stored.GrossAmount.Equal(decimal.RequireFromString("10.01")))

		rows, err := f.instructions.FindByReceipt(ctx, r.ID)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		var sum int64
		for _, row := range rows {
			sum += row.AmountCents
			assert.Equal(t, payout.StatusPending, row.Status)
			assert.Equal(t, valueobject.USD, row.Currency)
		}
		assert.Equal(t, int64(1001), sum)
	})

	t.Run("second commit conflicts and inserts nothing", func(t *testing.T) {
		f := newPayoutFixture(t)
		r := f.pendingReceipt(t, "50")
		first := f.distribute(t, r)
		require.NoError(t, f.receipts.CommitDistribution(ctx, r, first))

		replay, err := f.receipts.FindByID(ctx, r.ID)
		require.NoError(t, err)
		replay.Status = payout.StatusPending
		second := f.distribute(t, replay)

		err = f.receipts.CommitDistribution(ctx, replay, second)
		assert.ErrorIs(t, err, payout.ErrAlreadyDistributed)
		assert.True(t, shared.IsConflict(err))

		rows, err := f.instructions.FindByReceipt(ctx, r.ID)
		require.NoError(t, err)
		assert.Len(t, rows, 2)
	})

	t.Run("failed instruction insert rolls back the status change", func(t *testing.T) {
		f := newPayoutFixture(t)
		r := f.pendingReceipt(t, "10.00")
		instructions := f.distribute(t, r)
		require.Len(t, instructions, 2)
		instructions[1].ID = instructions[0].ID

		err := f.receipts.CommitDistribution(ctx, r, instructions)
		require.Error(t, err)
		assert.NotErrorIs(t, err, payout.ErrAlreadyDistributed)

		stored, err := f.receipts.FindByID(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, payout.StatusPending, stored.Status)
		assert.Nil(t, stored.DistributedAt)
		assert.Equal(t, 1, stored.Version)

		rows, err := f.instructions.FindByReceipt(ctx, r.ID)
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("rejects a receipt without distribution timestamp", func(t *testing.T) {
		f := newPayoutFixture(t)
		r := f.pendingReceipt(t, "1")
		assert.Error(t, f.receipts.CommitDistribution(ctx, r, nil))
	})
}

func TestGormReceiptRepository_FindByAgreement(t *testing.T) {
	f := newPayoutFixture(t)
	f.pendingReceipt(t, "1")
	f.pendingReceipt(t, "2")

	receipts, err := f.receipts.FindByAgreement(context.Background(), f.agreement.ID)
	require.NoError(t, err)
	assert.Len(t, receipts, 2)

	missing, err := f.receipts.FindByID(context.Background(), uuid.New())
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestGormPayoutInstructionRepository_MarkPaid(t *testing.T) {
	ctx := context.Background()
	f := newPayoutFixture(t)
	r := f.pendingReceipt(t, "100")
	instructions := f.distribute(t, r)
	require.NoError(t, f.receipts.CommitDistribution(ctx, r, instructions))
	id := instructions[0].ID

	paidAt := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	changed, err := f.instructions.MarkPaid(ctx, id, paidAt, nil)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = f.instructions.MarkPaid(ctx, id, paidAt.Add(time.Hour), nil)
	require.NoError(t, err)
	assert.False(t, changed, "already paid rows must not be rewritten")

	stored, err := f.instructions.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, payout.StatusPaid, stored.Status)
	require.NotNil(t, stored.PaidAt)
	assert.True(t, stored.PaidAt.Equal(paidAt))
	assert.Nil(t, stored.TxnRef)

	require.NoError(t, f.instructions.SetTxnRefIfEmpty(ctx, id, "wire-1"))
	require.NoError(t, f.instructions.SetTxnRefIfEmpty(ctx, id, "wire-2"))
	stored, err = f.instructions.FindByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, stored.TxnRef)
	assert.Equal(t, "wire-1", *stored.TxnRef)
}

func TestGormPayoutInstructionRepository_Queries(t *testing.T) {
	ctx := context.Background()
	f := newPayoutFixture(t)

	for _, amount := range []string{"10", "20", "30"} {
		r := f.pendingReceipt(t, amount)
		require.NoError(t, f.receipts.CommitDistribution(ctx, r, f.distribute(t, r)))
	}

	creator := f.agreement.CreatorID
	page, total, err := f.instructions.FindAll(ctx, payout.InstructionFilter{
		Filter:      shared.Filter{Page: 1, PageSize: 2, OrderBy: "amount_cents", OrderDir: "asc"},
		PartyUserID: &creator,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, page, 2)
	assert.Equal(t, int64(700), page[0].AmountCents)
	assert.Equal(t, int64(1400), page[1].AmountCents)

	all, err := f.instructions.FindCreatedBetween(ctx, time.Now().Add(-time.Hour), time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Len(t, all, 6)
	for i := 1; i < len(all); i++ {
		assert.False(t, all[i].CreatedAt.Before(all[i-1].CreatedAt))
	}

	none, err := f.instructions.FindCreatedBetween(ctx, time.Now().Add(time.Hour), time.Now().Add(2*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestGormAuditEventRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewGormAuditEventRepository(setupTestDB(t))

	actor := uuid.New()
	require.NoError(t, repo.Append(ctx, payout.NewAuditEvent(payout.AuditKindReceiptCreate, actor,
		map[string]any{"receipt_id": "r1", "gross_amount": "10"}, time.Now())))
	require.NoError(t, repo.Append(ctx, payout.NewAuditEvent(payout.AuditKindPayoutMarkPaid, uuid.Nil, nil, time.Now())))

	events, err := repo.FindByKind(ctx, payout.AuditKindReceiptCreate, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "r1", events[0].Meta["receipt_id"])
	assert.Equal(t, actor, *events[0].UserID)
}

func TestCommitDistribution_ConditionalUpdateSQL(t *testing.T) {
	gormDB, mock, mockDB := newMockGormDB(t)
	defer mockDB.Close()
	repo := NewGormReceiptRepository(gormDB)

	now := time.Now().UTC()
	r := &payout.Receipt{BaseAggregateRoot: shared.NewBaseAggregateRoot(), Status: payout.StatusDistributed, DistributedAt: &now}

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "receipts" SET .*"version"=version \+ 1 WHERE id = \$\d+ AND status = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.CommitDistribution(context.Background(), r, nil)
	assert.ErrorIs(t, err, payout.ErrAlreadyDistributed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkPaid_CompareAndSwapSQL(t *testing.T) {
	gormDB, mock, mockDB := newMockGormDB(t)
	defer mockDB.Close()
	repo := NewGormPayoutInstructionRepository(gormDB)

	mock.ExpectExec(`UPDATE "payout_instructions" SET .* WHERE id = \$\d+ AND status IN \(\$\d+,\$\d+,\$\d+\)`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	changed, err := repo.MarkPaid(context.Background(), uuid.New(), time.Now(), nil)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.NoError(t, mock.ExpectationsWereMet())
}
