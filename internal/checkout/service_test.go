package checkout

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/namito/commerce-backend/internal/cart"
	"github.com/namito/commerce-backend/internal/catalog"
	"github.com/namito/commerce-backend/internal/inventory"
	"github.com/namito/commerce-backend/internal/orders"
	"github.com/namito/commerce-backend/internal/users"
	"github.com/namito/commerce-backend/pkg/db/models"
	"github.com/namito/commerce-backend/pkg/enums"
	pkgerrors "github.com/namito/commerce-backend/pkg/errors"
	"github.com/namito/commerce-backend/pkg/logger"
)

type testTxRunner struct {
	db *gorm.DB
}

func (r *testTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(tx)
	})
}

type recordingNotifier struct {
	orders []*models.Order
	isNew  []bool
}

func (n *recordingNotifier) DispatchOrderStatus(_ context.Context, order *models.Order, isNew bool) {
	n.orders = append(n.orders, order)
	n.isNew = append(n.isNew, isNew)
}

func setupCheckoutTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:checkout_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	for _, ddl := range []string{
		`CREATE TABLE IF NOT EXISTS variants (
  id TEXT PRIMARY KEY,
  sku TEXT NOT NULL,
  name TEXT NOT NULL,
  base_price_cents INTEGER NOT NULL,
  discount_value NUMERIC,
  discount_type TEXT,
  stock INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS carts (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL UNIQUE,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS cart_items (
  id TEXT PRIMARY KEY,
  cart_id TEXT NOT NULL,
  variant_id TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  to_purchase INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  order_number TEXT NOT NULL UNIQUE,
  user_id TEXT NOT NULL,
  cart_id TEXT,
  total_amount_cents INTEGER NOT NULL DEFAULT 0,
  delivery_method TEXT NOT NULL,
  user_address_id TEXT,
  payment_method TEXT NOT NULL DEFAULT 'card',
  status TEXT NOT NULL DEFAULT 'in_progress',
  payment_status TEXT NOT NULL DEFAULT 'unpaid',
  created_at DATETIME,
  finished_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS ordered_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  variant_id TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  unit_price_cents INTEGER NOT NULL,
  subtotal_cents INTEGER NOT NULL,
  created_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS user_addresses (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  city TEXT NOT NULL,
  street TEXT NOT NULL,
  building TEXT,
  apartment TEXT,
  comment TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
	} {
		require.NoError(t, db.Exec(ddl).Error)
	}
	return db
}

type checkoutFixture struct {
	db       *gorm.DB
	svc      Service
	notifier *recordingNotifier
}

func newCheckoutFixture(t *testing.T) *checkoutFixture {
	t.Helper()

	db := setupCheckoutTestDB(t)
	notifier := &recordingNotifier{}
	svc, err := NewService(
		cart.NewRepository(db),
		orders.NewRepository(db),
		catalog.NewRepository(db),
		users.NewAddressRepository(db),
		inventory.NewLedger(db),
		&testTxRunner{db: db},
		notifier,
		nil,
		logger.New(logger.Options{Level: zerolog.ErrorLevel}),
	)
	require.NoError(t, err)
	return &checkoutFixture{db: db, svc: svc, notifier: notifier}
}

func (f *checkoutFixture) seedVariant(t *testing.T, priceCents, stock int, discountValue, discountType any) uuid.UUID {
	t.Helper()

	id := uuid.New()
	err := f.db.Exec(`
		INSERT INTO variants (id, sku, name, base_price_cents, discount_value, discount_type, stock)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, id, "SKU-"+id.String()[:8], "Variant", priceCents, discountValue, discountType, stock).Error
	require.NoError(t, err)
	return id
}

func (f *checkoutFixture) seedCartLine(t *testing.T, userID, variantID uuid.UUID, qty int, toPurchase bool) uuid.UUID {
	t.Helper()

	var cartID uuid.UUID
	var existing models.Cart
	err := f.db.Where("user_id = ?", userID).First(&existing).Error
	if err != nil {
		require.ErrorIs(t, err, gorm.ErrRecordNotFound)
		cartID = uuid.New()
		require.NoError(t, f.db.Exec(`INSERT INTO carts (id, user_id) VALUES (?, ?)`, cartID, userID).Error)
	} else {
		cartID = existing.ID
	}

	itemID := uuid.New()
	require.NoError(t, f.db.Exec(`
		INSERT INTO cart_items (id, cart_id, variant_id, quantity, to_purchase, created_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	`, itemID, cartID, variantID, qty, toPurchase).Error)
	return itemID
}

func (f *checkoutFixture) seedAddress(t *testing.T, userID uuid.UUID) uuid.UUID {
	t.Helper()

	id := uuid.New()
	require.NoError(t, f.db.Exec(`
		INSERT INTO user_addresses (id, user_id, city, street) VALUES (?, ?, ?, ?)
	`, id, userID, "Bishkek", "Chuy Ave").Error)
	return id
}

func (f *checkoutFixture) variantStock(t *testing.T, id uuid.UUID) int {
	t.Helper()

	var stock int
	require.NoError(t, f.db.Raw(`SELECT stock FROM variants WHERE id = ?`, id).Scan(&stock).Error)
	return stock
}

func TestCreateOrderHappyPath(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	ctx := context.Background()
	userID := uuid.New()

	plain := f.seedVariant(t, 1000, 10, nil, nil)
	discounted := f.seedVariant(t, 1000, 10, "25", "percent")
	f.seedCartLine(t, userID, plain, 2, true)
	f.seedCartLine(t, userID, discounted, 1, true)
	kept := f.seedCartLine(t, userID, plain, 1, false)

	order, err := f.svc.CreateOrder(ctx, userID, CreateOrderInput{
		DeliveryMethod: enums.DeliveryMethodPickup,
	})
	require.NoError(t, err)

	assert.Len(t, order.OrderNumber, 10)
	assert.Equal(t, enums.OrderStatusInProgress, order.Status)
	assert.Equal(t, enums.PaymentStatusUnpaid, order.PaymentStatus)
	assert.Equal(t, enums.PaymentMethodCard, order.PaymentMethod)
	// 2 x 1000 + 1 x 750.
	assert.Equal(t, 2750, order.TotalAmountCents)
	require.Len(t, order.Items, 2)

	assert.Equal(t, 8, f.variantStock(t, plain))
	assert.Equal(t, 9, f.variantStock(t, discounted))

	// Purchased lines are gone, the kept line survives.
	var remaining []models.CartItem
	require.NoError(t, f.db.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	assert.Equal(t, kept, remaining[0].ID)

	require.Len(t, f.notifier.orders, 1)
	assert.True(t, f.notifier.isNew[0])
	assert.Equal(t, order.OrderNumber, f.notifier.orders[0].OrderNumber)
}

func TestCreateOrderEmptyCart(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	ctx := context.Background()
	userID := uuid.New()

	// No cart at all.
	_, err := f.svc.CreateOrder(ctx, userID, CreateOrderInput{DeliveryMethod: enums.DeliveryMethodPickup})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	// Cart with only kept-aside lines.
	variant := f.seedVariant(t, 1000, 10, nil, nil)
	f.seedCartLine(t, userID, variant, 1, false)

	_, err = f.svc.CreateOrder(ctx, userID, CreateOrderInput{DeliveryMethod: enums.DeliveryMethodPickup})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
	assert.Empty(t, f.notifier.orders)
}

func TestCreateOrderCourierRequiresAddress(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	ctx := context.Background()
	userID := uuid.New()

	variant := f.seedVariant(t, 1000, 10, nil, nil)
	f.seedCartLine(t, userID, variant, 1, true)

	// Missing address id.
	_, err := f.svc.CreateOrder(ctx, userID, CreateOrderInput{DeliveryMethod: enums.DeliveryMethodCourier})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	// Address owned by someone else.
	foreign := f.seedAddress(t, uuid.New())
	_, err = f.svc.CreateOrder(ctx, userID, CreateOrderInput{
		DeliveryMethod: enums.DeliveryMethodCourier,
		UserAddressID:  &foreign,
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	// Owned address succeeds.
	owned := f.seedAddress(t, userID)
	order, err := f.svc.CreateOrder(ctx, userID, CreateOrderInput{
		DeliveryMethod: enums.DeliveryMethodCourier,
		UserAddressID:  &owned,
	})
	require.NoError(t, err)
	require.NotNil(t, order.UserAddressID)
	assert.Equal(t, owned, *order.UserAddressID)
}

func TestCreateOrderInsufficientStockRollsBack(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	ctx := context.Background()
	userID := uuid.New()

	plenty := f.seedVariant(t, 1000, 10, nil, nil)
	scarce := f.seedVariant(t, 1000, 1, nil, nil)
	f.seedCartLine(t, userID, plenty, 2, true)
	f.seedCartLine(t, userID, scarce, 3, true)

	_, err := f.svc.CreateOrder(ctx, userID, CreateOrderInput{DeliveryMethod: enums.DeliveryMethodPickup})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeConflict))

	// Nothing committed: stock, cart lines and orders are untouched.
	assert.Equal(t, 10, f.variantStock(t, plenty))
	assert.Equal(t, 1, f.variantStock(t, scarce))

	var orderCount, lineCount int64
	require.NoError(t, f.db.Model(&models.Order{}).Count(&orderCount).Error)
	require.NoError(t, f.db.Model(&models.CartItem{}).Count(&lineCount).Error)
	assert.Zero(t, orderCount)
	assert.Equal(t, int64(2), lineCount)
	assert.Empty(t, f.notifier.orders)
}

func TestCreateOrderPriceFloorAtZero(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	ctx := context.Background()
	userID := uuid.New()

	free := f.seedVariant(t, 500, 5, "600", "fixed_unit")
	f.seedCartLine(t, userID, free, 2, true)

	order, err := f.svc.CreateOrder(ctx, userID, CreateOrderInput{DeliveryMethod: enums.DeliveryMethodPickup})
	require.NoError(t, err)
	require.Len(t, order.Items, 1)
	assert.Zero(t, order.Items[0].UnitPriceCents)
	assert.Zero(t, order.TotalAmountCents)

	// A zero-priced order still reserves stock.
	assert.Equal(t, 3, f.variantStock(t, free))
}

type collidingOrderRepo struct {
	orders.OrderRepository
}

func (r *collidingOrderRepo) WithTx(tx *gorm.DB) orders.OrderRepository {
	return &collidingOrderRepo{OrderRepository: r.OrderRepository.WithTx(tx)}
}

func (r *collidingOrderRepo) ExistsByNumber(context.Context, string) (bool, error) {
	return true, nil
}

func TestCreateOrderNumberCollisionBound(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	ctx := context.Background()
	userID := uuid.New()

	variant := f.seedVariant(t, 1000, 10, nil, nil)
	f.seedCartLine(t, userID, variant, 1, true)

	svc, err := NewService(
		cart.NewRepository(f.db),
		&collidingOrderRepo{OrderRepository: orders.NewRepository(f.db)},
		catalog.NewRepository(f.db),
		users.NewAddressRepository(f.db),
		inventory.NewLedger(f.db),
		&testTxRunner{db: f.db},
		&recordingNotifier{},
		nil,
		logger.New(logger.Options{Level: zerolog.ErrorLevel}),
	)
	require.NoError(t, err)

	_, err = svc.CreateOrder(ctx, userID, CreateOrderInput{DeliveryMethod: enums.DeliveryMethodPickup})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeConflict))
	assert.Equal(t, 10, f.variantStock(t, variant))
}
