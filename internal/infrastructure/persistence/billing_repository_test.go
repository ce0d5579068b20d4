package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/telcobill/backend/internal/domain/billing"
	"github.com/telcobill/backend/internal/domain/shared"
	"github.com/telcobill/backend/internal/domain/shared/valueobject"
	"github.com/telcobill/backend/internal/infrastructure/persistence/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupBillingTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.InvoiceModel{}, &models.PaymentModel{})
	require.NoError(t, err)

	return db
}

func newTestInvoice(t *testing.T, msisdn string, amount float64) *billing.Invoice {
	t.Helper()
	period := valueobject.CalendarMonth(time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC))
	inv, err := billing.NewInvoice(msisdn, period, decimal.NewFromFloat(amount))
	require.NoError(t, err)
	return inv
}

func TestGormInvoiceRepository_SaveAndFind(t *testing.T) {
	db := setupBillingTestDB(t)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()

	t.Run("saves and reloads an invoice", func(t *testing.T) {
		inv := newTestInvoice(t, "+27821234567", 149.00)
		require.NoError(t, repo.Save(ctx, inv))

		found, err := repo.FindByID(ctx, inv.ID)
		require.NoError(t, err)
		assert.Equal(t, inv.ID, found.ID)
		assert.Equal(t, "+27821234567", found.MSISDN.String())
		assert.Equal(t, billing.InvoiceStatusUnpaid, found.Status)
		assert.True(t, found.TotalAmount.Equal(decimal.NewFromFloat(149.00)))
	})

	t.Run("save persists payment state changes", func(t *testing.T) {
		inv := newTestInvoice(t, "+27829999999", 100.00)
		require.NoError(t, repo.Save(ctx, inv))

		require.NoError(t, inv.ApplyPayment(decimal.NewFromFloat(40)))
		require.NoError(t, repo.Save(ctx, inv))

		found, err := repo.FindByID(ctx, inv.ID)
		require.NoError(t, err)
		assert.Equal(t, billing.InvoiceStatusPartiallyPaid, found.Status)
		assert.True(t, found.AmountDue.Equal(decimal.NewFromFloat(60)))
		assert.True(t, found.TotalAmount.Equal(decimal.NewFromFloat(100)))
	})

	t.Run("missing invoice yields not found", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormInvoiceRepository_ExistsForPeriod(t *testing.T) {
	db := setupBillingTestDB(t)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()

	inv := newTestInvoice(t, "+27821234567", 149.00)
	require.NoError(t, repo.Save(ctx, inv))

	t.Run("existing period matches", func(t *testing.T) {
		exists, err := repo.ExistsForPeriod(ctx, "+27821234567", inv.PeriodStart, inv.PeriodEnd)
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("other subscriber does not match", func(t *testing.T) {
		exists, err := repo.ExistsForPeriod(ctx, "+27829999999", inv.PeriodStart, inv.PeriodEnd)
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("other period does not match", func(t *testing.T) {
		other := valueobject.CalendarMonth(time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC))
		exists, err := repo.ExistsForPeriod(ctx, "+27821234567", other.Start(), other.End())
		require.NoError(t, err)
		assert.False(t, exists)
	})
}

func TestGormInvoiceRepository_FindBySubscriber(t *testing.T) {
	db := setupBillingTestDB(t)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()

	february := valueobject.CalendarMonth(time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))
	older, err := billing.NewInvoice("+27821234567", february, decimal.NewFromFloat(120))
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, older))

	newer := newTestInvoice(t, "+27821234567", 149.00)
	require.NoError(t, repo.Save(ctx, newer))

	unrelated := newTestInvoice(t, "+27829999999", 99.00)
	require.NoError(t, repo.Save(ctx, unrelated))

	invoices, err := repo.FindBySubscriber(ctx, "+27821234567")
	require.NoError(t, err)
	require.Len(t, invoices, 2)
	assert.Equal(t, newer.ID, invoices[0].ID)
	assert.Equal(t, older.ID, invoices[1].ID)
}

func TestGormPaymentRepository(t *testing.T) {
	db := setupBillingTestDB(t)
	invoiceRepo := NewGormInvoiceRepository(db)
	paymentRepo := NewGormPaymentRepository(db)
	ctx := context.Background()

	inv := newTestInvoice(t, "+27821234567", 100.00)
	require.NoError(t, invoiceRepo.Save(ctx, inv))

	t.Run("inserts and lists payments in paid order", func(t *testing.T) {
		first, err := billing.NewPayment(inv.ID,
			time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC),
			decimal.NewFromFloat(40), billing.PaymentMethodEFT)
		require.NoError(t, err)
		second, err := billing.NewPayment(inv.ID,
			time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC),
			decimal.NewFromFloat(60), billing.PaymentMethodCard)
		require.NoError(t, err)

		// Insert out of order to exercise the sort
		require.NoError(t, paymentRepo.Insert(ctx, second))
		require.NoError(t, paymentRepo.Insert(ctx, first))

		payments, err := paymentRepo.FindByInvoice(ctx, inv.ID)
		require.NoError(t, err)
		require.Len(t, payments, 2)
		assert.Equal(t, first.ID, payments[0].ID)
		assert.Equal(t, second.ID, payments[1].ID)
		assert.Equal(t, billing.PaymentMethodEFT, payments[0].Method)
	})

	t.Run("unknown invoice lists nothing", func(t *testing.T) {
		payments, err := paymentRepo.FindByInvoice(ctx, uuid.New())
		require.NoError(t, err)
		assert.Empty(t, payments)
	})
}
