package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/namito/commerce-backend/api/responses"
	"github.com/namito/commerce-backend/api/validators"
	checkoutsvc "github.com/namito/commerce-backend/internal/checkout"
	"github.com/namito/commerce-backend/pkg/enums"
	pkgerrors "github.com/namito/commerce-backend/pkg/errors"
	"github.com/namito/commerce-backend/pkg/logger"
)

// Checkout converts the caller's purchasable cart lines into an order.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		delivery, err := enums.ParseDeliveryMethod(payload.DeliveryMethod)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid delivery method"))
			return
		}

		input := checkoutsvc.CreateOrderInput{
			DeliveryMethod: delivery,
			UserAddressID:  payload.UserAddressID,
		}
		if payload.PaymentMethod != "" {
			payment, err := enums.ParsePaymentMethod(payload.PaymentMethod)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
				return
			}
			input.PaymentMethod = payment
		}

		order, err := svc.CreateOrder(r.Context(), userID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newOrderResponse(order))
	}
}

type checkoutRequest struct {
	DeliveryMethod string     `json:"delivery_method" validate:"required"`
	UserAddressID  *uuid.UUID `json:"user_address_id,omitempty"`
	PaymentMethod  string     `json:"payment_method,omitempty"`
}
