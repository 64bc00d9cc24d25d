package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/diewo77/invoice-dashboard/internal/db"
	"github.com/diewo77/invoice-dashboard/internal/models"
	"github.com/diewo77/invoice-dashboard/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestPostgresWritePath runs the migrations and the invoice statements against a real
// PostgreSQL. Needs docker; skipped with -short.
func TestPostgresWritePath(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("invoices"),
		tcpostgres.WithUsername("app"),
		tcpostgres.WithPassword("app"),
		tcpostgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	if err != nil {
		t.Skipf("postgres container unavailable: %v", err)
	}

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	require.NoError(t, db.Migrate(ctx, gdb))
	require.NoError(t, db.Migrate(ctx, gdb), "migrations must be rerunnable")
	require.NoError(t, db.Seed(ctx, gdb))

	s := store.NewInvoiceStore(gdb, store.WithClock(fixedClock))
	require.NoError(t, s.Create(ctx, store.InvoiceWrite{CustomerID: evilRabbit, Cents: 4500, Status: models.InvoiceStatusPending}))

	rows, err := s.Filtered(ctx, "2026-10-14", 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.EqualValues(t, 4500, rows[0].Amount)
	assert.Equal(t, "Evil Rabbit", rows[0].Name)

	err = s.Create(ctx, store.InvoiceWrite{CustomerID: unassigned, Cents: 1, Status: models.InvoiceStatusPaid})
	require.Error(t, err)
	assert.True(t, store.IsForeignKeyViolation(err))

	n := cardsFor(t, s)
	assert.EqualValues(t, 9, n.NumberOfInvoices)
}

func cardsFor(t *testing.T, s *store.InvoiceStore) models.CardData {
	t.Helper()
	cards, err := s.CardData(context.Background())
	require.NoError(t, err)
	return cards
}
