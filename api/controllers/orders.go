package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/namito/commerce-backend/api/responses"
	"github.com/namito/commerce-backend/api/validators"
	orderssvc "github.com/namito/commerce-backend/internal/orders"
	"github.com/namito/commerce-backend/pkg/db/models"
	"github.com/namito/commerce-backend/pkg/enums"
	pkgerrors "github.com/namito/commerce-backend/pkg/errors"
	"github.com/namito/commerce-backend/pkg/logger"
)

// ListOrders returns the caller's orders, newest first.
func ListOrders(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		records, err := svc.List(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]orderResponse, 0, len(records))
		for i := range records {
			items = append(items, newOrderResponse(&records[i]))
		}
		responses.WriteSuccess(w, items)
	}
}

// GetOrder returns a single order owned by the caller.
func GetOrder(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := routeUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Get(r.Context(), orderID, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

// CancelOrder cancels the order and returns its reserved stock. Repeating
// the call on an already canceled order succeeds without side effects.
func CancelOrder(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := routeUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Transition(r.Context(), orderssvc.TransitionInput{
			OrderID: orderID,
			UserID:  userID,
			Target:  enums.OrderStatusCanceled,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

// UpdateOrderStatus moves the order to the requested fulfillment status.
func UpdateOrderStatus(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := routeUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		target, err := enums.ParseOrderStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order status"))
			return
		}

		order, err := svc.Transition(r.Context(), orderssvc.TransitionInput{
			OrderID: orderID,
			UserID:  userID,
			Target:  target,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

// UpdatePaymentStatus moves the order's payment status forward.
func UpdatePaymentStatus(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := routeUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updatePaymentStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		target, err := enums.ParsePaymentStatus(payload.PaymentStatus)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment status"))
			return
		}

		order, err := svc.SetPaymentStatus(r.Context(), orderID, userID, target)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

// OrderHistory lists the caller's delivered orders.
func OrderHistory(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		records, err := svc.History(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]orderHistoryResponse, 0, len(records))
		for i := range records {
			items = append(items, newOrderHistoryResponse(records[i]))
		}
		responses.WriteSuccess(w, items)
	}
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type updatePaymentStatusRequest struct {
	PaymentStatus string `json:"payment_status" validate:"required"`
}

type orderResponse struct {
	OrderID          uuid.UUID           `json:"order_id"`
	OrderNumber      string              `json:"order_number"`
	Status           string              `json:"status"`
	PaymentStatus    string              `json:"payment_status"`
	DeliveryMethod   string              `json:"delivery_method"`
	PaymentMethod    string              `json:"payment_method"`
	UserAddressID    *uuid.UUID          `json:"user_address_id,omitempty"`
	TotalAmountCents int                 `json:"total_amount_cents"`
	Items            []orderItemResponse `json:"items"`
	CreatedAt        time.Time           `json:"created_at"`
	FinishedAt       *time.Time          `json:"finished_at,omitempty"`
}

type orderItemResponse struct {
	VariantID      uuid.UUID `json:"variant_id"`
	Quantity       int       `json:"quantity"`
	UnitPriceCents int       `json:"unit_price_cents"`
	SubtotalCents  int       `json:"subtotal_cents"`
}

type orderHistoryResponse struct {
	OrderID   uuid.UUID `json:"order_id"`
	OrderDate time.Time `json:"order_date"`
}

func newOrderHistoryResponse(record models.OrderHistory) orderHistoryResponse {
	return orderHistoryResponse{
		OrderID:   record.OrderID,
		OrderDate: record.OrderDate,
	}
}

func newOrderResponse(order *models.Order) orderResponse {
	if order == nil {
		return orderResponse{}
	}
	items := make([]orderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemResponse{
			VariantID:      item.VariantID,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
			SubtotalCents:  item.SubtotalCents,
		})
	}
	return orderResponse{
		OrderID:          order.ID,
		OrderNumber:      order.OrderNumber,
		Status:           string(order.Status),
		PaymentStatus:    string(order.PaymentStatus),
		DeliveryMethod:   string(order.DeliveryMethod),
		PaymentMethod:    string(order.PaymentMethod),
		UserAddressID:    order.UserAddressID,
		TotalAmountCents: order.TotalAmountCents,
		Items:            items,
		CreatedAt:        order.CreatedAt,
		FinishedAt:       order.FinishedAt,
	}
}
