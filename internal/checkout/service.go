package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/namito/commerce-backend/internal/cart"
	"github.com/namito/commerce-backend/internal/catalog"
	"github.com/namito/commerce-backend/internal/inventory"
	"github.com/namito/commerce-backend/internal/orders"
	"github.com/namito/commerce-backend/internal/pricing"
	"github.com/namito/commerce-backend/internal/users"
	"github.com/namito/commerce-backend/pkg/db/models"
	"github.com/namito/commerce-backend/pkg/enums"
	pkgerrors "github.com/namito/commerce-backend/pkg/errors"
	"github.com/namito/commerce-backend/pkg/logger"
	"github.com/namito/commerce-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type statusNotifier interface {
	DispatchOrderStatus(ctx context.Context, order *models.Order, isNew bool)
}

// Service turns a cart's purchasable lines into an order.
type Service interface {
	CreateOrder(ctx context.Context, userID uuid.UUID, input CreateOrderInput) (*models.Order, error)
}

type service struct {
	carts     cart.CartRepository
	orders    orders.OrderRepository
	variants  catalog.VariantLookup
	addresses users.AddressLookup
	ledger    inventory.Ledger
	tx        txRunner
	notifier  statusNotifier
	metrics   *metrics.CheckoutMetrics
	logg      *logger.Logger
}

// NewService builds the checkout service backed by the provided stack.
func NewService(
	carts cart.CartRepository,
	orderRepo orders.OrderRepository,
	variants catalog.VariantLookup,
	addresses users.AddressLookup,
	ledger inventory.Ledger,
	tx txRunner,
	notifier statusNotifier,
	m *metrics.CheckoutMetrics,
	logg *logger.Logger,
) (Service, error) {
	if carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if orderRepo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if variants == nil {
		return nil, fmt.Errorf("variant lookup required")
	}
	if addresses == nil {
		return nil, fmt.Errorf("address lookup required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("inventory ledger required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("status notifier required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		carts:     carts,
		orders:    orderRepo,
		variants:  variants,
		addresses: addresses,
		ledger:    ledger,
		tx:        tx,
		notifier:  notifier,
		metrics:   m,
		logg:      logg,
	}, nil
}

// CreateOrderInput captures the checkout payload.
type CreateOrderInput struct {
	DeliveryMethod enums.DeliveryMethod
	UserAddressID  *uuid.UUID
	PaymentMethod  enums.PaymentMethod
}

// CreateOrder converts the cart's purchasable lines into an order inside one
// transaction: stock is reserved, effective prices are captured into
// immutable order lines, and the purchased cart lines are removed. Either
// everything commits or nothing does. The placement notification goes out
// after commit and never affects the order.
func (s *service) CreateOrder(ctx context.Context, userID uuid.UUID, input CreateOrderInput) (*models.Order, error) {
	started := time.Now()

	order, err := s.createOrder(ctx, userID, input)
	if err != nil {
		code := string(pkgerrors.CodeInternal)
		if typed := pkgerrors.As(err); typed != nil {
			code = string(typed.Code())
		}
		s.metrics.IncCheckoutFailure(code)
		return nil, err
	}

	s.metrics.IncOrderCreated()
	s.metrics.ObserveCheckoutDuration(time.Since(started).Seconds())

	ctx = s.logg.WithOrderNumber(ctx, order.OrderNumber)
	s.logg.Info(ctx, "order created")
	s.notifier.DispatchOrderStatus(ctx, order, true)
	return order, nil
}

func (s *service) createOrder(ctx context.Context, userID uuid.UUID, input CreateOrderInput) (*models.Order, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if !input.DeliveryMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown delivery method")
	}
	paymentMethod := input.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = enums.PaymentMethodCard
	}
	if !paymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method")
	}

	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txCarts := s.carts.WithTx(tx)
		txOrders := s.orders.WithTx(tx)

		record, err := txCarts.FindByUser(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return emptyCart()
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}

		items, err := txCarts.PurchasableItems(ctx, record.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart lines")
		}
		if len(items) == 0 {
			return emptyCart()
		}

		addressID, err := s.resolveAddress(ctx, userID, input)
		if err != nil {
			return err
		}

		number, err := s.allocateOrderNumber(ctx, txOrders)
		if err != nil {
			return err
		}

		lines, reservations, total, err := s.buildLines(ctx, items)
		if err != nil {
			return err
		}

		if err := s.ledger.Reserve(ctx, tx, reservations); err != nil {
			return err
		}

		cartID := record.ID
		order = &models.Order{
			ID:               uuid.New(),
			OrderNumber:      number,
			UserID:           userID,
			CartID:           &cartID,
			TotalAmountCents: total,
			DeliveryMethod:   input.DeliveryMethod,
			UserAddressID:    addressID,
			PaymentMethod:    paymentMethod,
			Status:           enums.OrderStatusInProgress,
			PaymentStatus:    enums.PaymentStatusUnpaid,
			Items:            lines,
		}
		if _, err := txOrders.Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		if err := txCarts.DeletePurchasableItems(ctx, record.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// resolveAddress enforces the courier address requirement. Pickup orders
// ignore any provided address.
func (s *service) resolveAddress(ctx context.Context, userID uuid.UUID, input CreateOrderInput) (*uuid.UUID, error) {
	if !input.DeliveryMethod.RequiresAddress() {
		return nil, nil
	}
	if input.UserAddressID == nil {
		return nil, addressRequired()
	}
	address, err := s.addresses.Get(ctx, *input.UserAddressID, userID)
	if err != nil {
		if pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
			return nil, addressRequired()
		}
		return nil, err
	}
	return &address.ID, nil
}

// allocateOrderNumber draws random numbers until one is free. The bound
// turns a pathological collision streak into an explicit error instead of a
// spin.
func (s *service) allocateOrderNumber(ctx context.Context, txOrders orders.OrderRepository) (string, error) {
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		number, err := newOrderNumber()
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate order number")
		}
		taken, err := txOrders.ExistsByNumber(ctx, number)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check order number")
		}
		if !taken {
			return number, nil
		}
	}
	return "", pkgerrors.New(pkgerrors.CodeConflict, "could not allocate order number")
}

// buildLines snapshots effective prices for every purchasable cart line and
// derives the reservation set.
func (s *service) buildLines(ctx context.Context, items []models.CartItem) ([]models.OrderedItem, []inventory.Reservation, int, error) {
	variantIDs := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		variantIDs = append(variantIDs, item.VariantID)
	}
	variants, err := s.variants.GetMany(ctx, variantIDs)
	if err != nil {
		return nil, nil, 0, err
	}

	lines := make([]models.OrderedItem, 0, len(items))
	reservations := make([]inventory.Reservation, 0, len(items))
	total := 0
	for _, item := range items {
		variant, ok := variants[item.VariantID]
		if !ok {
			return nil, nil, 0, pkgerrors.New(pkgerrors.CodeConflict, "variant no longer available").
				WithDetails(map[string]any{"variant_id": item.VariantID.String()})
		}

		unitPrice := pricing.EffectivePrice(variant.BasePriceCents, variant.DiscountValue, variant.DiscountType)
		subtotal := unitPrice * item.Quantity
		lines = append(lines, models.OrderedItem{
			ID:             uuid.New(),
			VariantID:      variant.ID,
			Quantity:       item.Quantity,
			UnitPriceCents: unitPrice,
			SubtotalCents:  subtotal,
		})
		reservations = append(reservations, inventory.Reservation{
			VariantID: variant.ID,
			Quantity:  item.Quantity,
		})
		total += subtotal
	}
	return lines, reservations, total, nil
}

func emptyCart() error {
	return pkgerrors.New(pkgerrors.CodeValidation, "cart has no items to purchase")
}

func addressRequired() error {
	return pkgerrors.New(pkgerrors.CodeValidation, "delivery address required for courier delivery")
}
