package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/namito/commerce-backend/internal/users"
	"github.com/namito/commerce-backend/pkg/db/models"
	"github.com/namito/commerce-backend/pkg/enums"
	"github.com/namito/commerce-backend/pkg/logger"
	"github.com/namito/commerce-backend/pkg/metrics"
	"github.com/namito/commerce-backend/pkg/push"
)

// Dispatcher fans order lifecycle events out to the user: an in-app
// notification row plus a push. Delivery is best effort; nothing here may
// fail the order flow, so every method swallows its errors after logging.
type Dispatcher struct {
	users   users.UserLookup
	repo    NotificationRepository
	sender  push.Sender
	metrics *metrics.CheckoutMetrics
	logg    *logger.Logger
}

// NewDispatcher builds the order notification dispatcher.
func NewDispatcher(userLookup users.UserLookup, repo NotificationRepository, sender push.Sender, m *metrics.CheckoutMetrics, logg *logger.Logger) (*Dispatcher, error) {
	if userLookup == nil {
		return nil, fmt.Errorf("user lookup required")
	}
	if repo == nil {
		return nil, fmt.Errorf("notification repository required")
	}
	if sender == nil {
		return nil, fmt.Errorf("push sender required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Dispatcher{users: userLookup, repo: repo, sender: sender, metrics: m, logg: logg}, nil
}

// DispatchOrderStatus notifies the order's user about placement or a status
// change. Users without a push token or with notifications disabled are
// skipped silently.
func (d *Dispatcher) DispatchOrderStatus(ctx context.Context, order *models.Order, isNew bool) {
	ctx = d.logg.WithOrderNumber(ctx, order.OrderNumber)

	user, err := d.users.Get(ctx, order.UserID)
	if err != nil {
		d.logg.Warn(ctx, fmt.Sprintf("notification skipped, user lookup failed: %v", err))
		return
	}
	if !user.NotificationsEnabled || user.FCMToken == nil || *user.FCMToken == "" {
		return
	}

	notificationType := enums.NotificationTypeOrderStatus
	title := "Order status updated"
	if isNew {
		notificationType = enums.NotificationTypeOrderPlaced
		title = "Order placed"
	}
	body := fmt.Sprintf("Order %s from %s is %s",
		order.OrderNumber,
		order.CreatedAt.Format("02.01.2006"),
		order.Status.Label(),
	)
	data := map[string]string{
		"order_id":     order.ID.String(),
		"order_number": order.OrderNumber,
		"status":       string(order.Status),
		"type":         string(notificationType),
	}

	payload, err := json.Marshal(data)
	if err != nil {
		d.logg.Error(ctx, "marshal notification data", err)
		return
	}

	if err := d.repo.Create(ctx, &models.Notification{
		ID:      uuid.New(),
		UserID:  user.ID,
		Type:    notificationType,
		Title:   title,
		Message: body,
		Data:    payload,
	}); err != nil {
		d.logg.Error(ctx, "store notification", err)
		return
	}

	if err := d.sender.Send(ctx, push.Message{
		Token: *user.FCMToken,
		Title: title,
		Body:  body,
		Data:  data,
	}); err != nil {
		d.metrics.IncNotifyFailure()
		d.logg.Error(ctx, "push delivery failed", err)
	}
}
