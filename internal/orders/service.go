package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/namito/commerce-backend/internal/inventory"
	"github.com/namito/commerce-backend/pkg/db"
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

// Service drives the order lifecycle after checkout.
type Service interface {
	Transition(ctx context.Context, input TransitionInput) (*models.Order, error)
	SetPaymentStatus(ctx context.Context, orderID, userID uuid.UUID, target enums.PaymentStatus) (*models.Order, error)
	Get(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error)
	List(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	History(ctx context.Context, userID uuid.UUID) ([]models.OrderHistory, error)
}

type service struct {
	repo     OrderRepository
	tx       txRunner
	ledger   inventory.Ledger
	notifier statusNotifier
	metrics  *metrics.CheckoutMetrics
	logg     *logger.Logger
}

// NewService builds the order lifecycle service.
func NewService(repo OrderRepository, tx txRunner, ledger inventory.Ledger, notifier statusNotifier, m *metrics.CheckoutMetrics, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("inventory ledger required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("status notifier required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, tx: tx, ledger: ledger, notifier: notifier, metrics: m, logg: logg}, nil
}

// TransitionInput identifies the order and the requested target status.
type TransitionInput struct {
	OrderID uuid.UUID
	UserID  uuid.UUID
	Target  enums.OrderStatus
}

// Transition moves an order to the target status. Statuses only move
// forward; cancellation stops the order and returns its reserved stock.
// Repeating a terminal transition is a no-op so retried requests stay safe.
func (s *service) Transition(ctx context.Context, input TransitionInput) (*models.Order, error) {
	if !input.Target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status").
			WithDetails(map[string]any{"status": string(input.Target)})
	}

	var (
		updated *models.Order
		noop    bool
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		order, err := txRepo.FindByIDAndUser(ctx, input.OrderID, input.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		if order.Status == input.Target && order.Status.IsTerminal() {
			updated, noop = order, true
			return nil
		}

		switch input.Target {
		case enums.OrderStatusCanceled:
			err = s.cancel(ctx, tx, txRepo, order)
		case enums.OrderStatusDelivered:
			err = s.deliver(ctx, txRepo, order)
		default:
			err = s.advance(ctx, txRepo, order, input.Target)
		}
		if err != nil {
			return err
		}
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !noop {
		s.metrics.IncStatusTransition(string(updated.Status))
		s.notifier.DispatchOrderStatus(ctx, updated, false)
	}
	return updated, nil
}

// cancel returns every reserved unit and stops the order. Delivered orders
// are final and cannot be canceled.
func (s *service) cancel(ctx context.Context, tx *gorm.DB, txRepo OrderRepository, order *models.Order) error {
	if order.Status == enums.OrderStatusDelivered {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "delivered orders cannot be canceled")
	}

	for _, item := range order.Items {
		if err := s.ledger.Release(ctx, tx, item.VariantID, item.Quantity); err != nil {
			return err
		}
	}

	order.Status = enums.OrderStatusCanceled
	if err := txRepo.Save(ctx, order); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save order")
	}
	return nil
}

// deliver finishes the order and writes the audit record exactly once. The
// unique order index backs up the existence check under concurrent retries.
func (s *service) deliver(ctx context.Context, txRepo OrderRepository, order *models.Order) error {
	if order.Status != enums.OrderStatusInProgress && order.Status != enums.OrderStatusShipped {
		return illegalTransition(order.Status, enums.OrderStatusDelivered)
	}

	now := time.Now().UTC()
	order.Status = enums.OrderStatusDelivered
	order.FinishedAt = &now
	if err := txRepo.Save(ctx, order); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save order")
	}

	exists, err := txRepo.HasHistory(ctx, order.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check order history")
	}
	if exists {
		return nil
	}
	entry := &models.OrderHistory{ID: uuid.New(), UserID: order.UserID, OrderID: order.ID}
	if err := txRepo.CreateHistory(ctx, entry); err != nil {
		if db.IsUniqueViolation(err, "order_histories_order_id_key") {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order history")
	}
	return nil
}

// advance handles the forward informational moves with no stock effect.
func (s *service) advance(ctx context.Context, txRepo OrderRepository, order *models.Order, target enums.OrderStatus) error {
	allowed := false
	switch target {
	case enums.OrderStatusInProgress:
		allowed = order.Status == enums.OrderStatusNew
	case enums.OrderStatusShipped:
		allowed = order.Status == enums.OrderStatusNew || order.Status == enums.OrderStatusInProgress
	}
	if !allowed {
		return illegalTransition(order.Status, target)
	}

	order.Status = target
	if err := txRepo.Save(ctx, order); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save order")
	}
	return nil
}

// SetPaymentStatus advances the payment axis. Payment state is independent
// of fulfillment state and only moves forward.
func (s *service) SetPaymentStatus(ctx context.Context, orderID, userID uuid.UUID, target enums.PaymentStatus) (*models.Order, error) {
	if !target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment status").
			WithDetails(map[string]any{"payment_status": string(target)})
	}

	order, err := s.repo.FindByIDAndUser(ctx, orderID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	if !order.PaymentStatus.CanAdvanceTo(target) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payment status can only move forward").
			WithDetails(map[string]any{
				"from": string(order.PaymentStatus),
				"to":   string(target),
			})
	}

	order.PaymentStatus = target
	if err := s.repo.Save(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save order")
	}
	return order, nil
}

// Get loads a single order owned by the user.
func (s *service) Get(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByIDAndUser(ctx, orderID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

// List returns the user's orders, newest first.
func (s *service) List(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return rows, nil
}

// History returns the user's delivery audit records.
func (s *service) History(ctx context.Context, userID uuid.UUID) ([]models.OrderHistory, error) {
	rows, err := s.repo.ListHistoryByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list order history")
	}
	return rows, nil
}

func illegalTransition(from, to enums.OrderStatus) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, "illegal order status transition").
		WithDetails(map[string]any{"from": string(from), "to": string(to)})
}
