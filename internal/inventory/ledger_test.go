package inventory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	pkgerrors "github.com/namito/commerce-backend/pkg/errors"
)

func setupLedgerTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:ledger_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	variants := `
CREATE TABLE IF NOT EXISTS variants (
  id TEXT PRIMARY KEY,
  sku TEXT NOT NULL,
  name TEXT NOT NULL,
  base_price_cents INTEGER NOT NULL,
  discount_value NUMERIC,
  discount_type TEXT,
  stock INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(variants).Error)
	return db
}

func seedVariant(t *testing.T, db *gorm.DB, id uuid.UUID, stock int) {
	t.Helper()

	err := db.Exec(`
		INSERT INTO variants (id, sku, name, base_price_cents, stock)
		VALUES (?, ?, ?, ?, ?)
	`, id, "SKU-"+id.String()[:8], "Test Variant", 1000, stock).Error
	require.NoError(t, err)
}

func variantStock(t *testing.T, db *gorm.DB, id uuid.UUID) int {
	t.Helper()

	var stock int
	require.NoError(t, db.Raw(`SELECT stock FROM variants WHERE id = ?`, id).Scan(&stock).Error)
	return stock
}

func TestLedgerReserve(t *testing.T) {
	t.Parallel()

	db := setupLedgerTestDB(t)
	ledger := NewLedger(db)
	ctx := context.Background()

	variantA := uuid.New()
	variantB := uuid.New()
	seedVariant(t, db, variantA, 5)
	seedVariant(t, db, variantB, 1)

	err := db.Transaction(func(tx *gorm.DB) error {
		return ledger.Reserve(ctx, tx, []Reservation{
			{VariantID: variantA, Quantity: 3},
			{VariantID: variantB, Quantity: 1},
		})
	})
	require.NoError(t, err)

	assert.Equal(t, 2, variantStock(t, db, variantA))
	assert.Equal(t, 0, variantStock(t, db, variantB))
}

func TestLedgerReserveInsufficientStockRollsBack(t *testing.T) {
	t.Parallel()

	db := setupLedgerTestDB(t)
	ledger := NewLedger(db)
	ctx := context.Background()

	variantA := uuid.New()
	variantB := uuid.New()
	seedVariant(t, db, variantA, 5)
	seedVariant(t, db, variantB, 1)

	err := db.Transaction(func(tx *gorm.DB) error {
		return ledger.Reserve(ctx, tx, []Reservation{
			{VariantID: variantA, Quantity: 3},
			{VariantID: variantB, Quantity: 2},
		})
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeConflict))

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	details, ok := typed.Details().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, variantB.String(), details["variant_id"])

	// Neither decrement survives the rollback.
	assert.Equal(t, 5, variantStock(t, db, variantA))
	assert.Equal(t, 1, variantStock(t, db, variantB))
}

func TestLedgerReserveLastUnit(t *testing.T) {
	t.Parallel()

	db := setupLedgerTestDB(t)
	ledger := NewLedger(db)
	ctx := context.Background()

	variant := uuid.New()
	seedVariant(t, db, variant, 1)

	first := db.Transaction(func(tx *gorm.DB) error {
		return ledger.Reserve(ctx, tx, []Reservation{{VariantID: variant, Quantity: 1}})
	})
	require.NoError(t, first)

	second := db.Transaction(func(tx *gorm.DB) error {
		return ledger.Reserve(ctx, tx, []Reservation{{VariantID: variant, Quantity: 1}})
	})
	require.Error(t, second)
	assert.True(t, pkgerrors.HasCode(second, pkgerrors.CodeConflict))
	assert.Equal(t, 0, variantStock(t, db, variant))
}

func TestLedgerReserveInvalidQuantity(t *testing.T) {
	t.Parallel()

	db := setupLedgerTestDB(t)
	ledger := NewLedger(db)
	ctx := context.Background()

	variant := uuid.New()
	seedVariant(t, db, variant, 5)

	err := db.Transaction(func(tx *gorm.DB) error {
		return ledger.Reserve(ctx, tx, []Reservation{{VariantID: variant, Quantity: 0}})
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
	assert.Equal(t, 5, variantStock(t, db, variant))
}

func TestLedgerRelease(t *testing.T) {
	t.Parallel()

	db := setupLedgerTestDB(t)
	ledger := NewLedger(db)
	ctx := context.Background()

	variant := uuid.New()
	seedVariant(t, db, variant, 2)

	err := db.Transaction(func(tx *gorm.DB) error {
		return ledger.Release(ctx, tx, variant, 3)
	})
	require.NoError(t, err)
	assert.Equal(t, 5, variantStock(t, db, variant))
}

func TestLedgerReleaseUnknownVariant(t *testing.T) {
	t.Parallel()

	db := setupLedgerTestDB(t)
	ledger := NewLedger(db)
	ctx := context.Background()

	err := db.Transaction(func(tx *gorm.DB) error {
		return ledger.Release(ctx, tx, uuid.New(), 1)
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func TestLedgerAvailableStock(t *testing.T) {
	t.Parallel()

	db := setupLedgerTestDB(t)
	ledger := NewLedger(db)
	ctx := context.Background()

	variant := uuid.New()
	seedVariant(t, db, variant, 7)

	stock, err := ledger.AvailableStock(ctx, variant)
	require.NoError(t, err)
	assert.Equal(t, 7, stock)
}
