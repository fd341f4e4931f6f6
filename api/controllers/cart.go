package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/namito/commerce-backend/api/responses"
	"github.com/namito/commerce-backend/api/validators"
	cartsvc "github.com/namito/commerce-backend/internal/cart"
	"github.com/namito/commerce-backend/pkg/db/models"
	pkgerrors "github.com/namito/commerce-backend/pkg/errors"
	"github.com/namito/commerce-backend/pkg/logger"
)

// CartFetch returns the caller's cart with current effective prices.
func CartFetch(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Get(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, view)
	}
}

// CartAddItem adds a variant to the caller's cart, creating the cart on
// first use and merging quantities into an existing purchasable line.
func CartAddItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.AddItem(r.Context(), userID, cartsvc.AddItemInput{
			VariantID: payload.VariantID,
			Quantity:  payload.Quantity,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newCartItemResponse(item))
	}
}

// CartBatchUpdate applies a batch of line updates. Lines succeed or fail
// independently; the response reports a per-line outcome.
func CartBatchUpdate(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload batchUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if len(payload.Items) == 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "items must not be empty"))
			return
		}

		updates := make([]cartsvc.ItemUpdate, 0, len(payload.Items))
		for _, line := range payload.Items {
			updates = append(updates, cartsvc.ItemUpdate{
				ItemID:     line.ItemID,
				Quantity:   line.Quantity,
				ToPurchase: line.ToPurchase,
			})
		}

		result, err := svc.BatchUpdate(r.Context(), userID, updates)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// CartRemoveItem deletes a single cart line.
func CartRemoveItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemID, err := routeUUID(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.RemoveItem(r.Context(), userID, itemID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]bool{"removed": true})
	}
}

type addCartItemRequest struct {
	VariantID uuid.UUID `json:"variant_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gte=1"`
}

type batchUpdateRequest struct {
	Items []batchUpdateLine `json:"items" validate:"required,dive"`
}

type batchUpdateLine struct {
	ItemID     uuid.UUID `json:"item_id" validate:"required"`
	Quantity   int       `json:"quantity" validate:"omitempty,gte=0"`
	ToPurchase *bool     `json:"to_purchase,omitempty"`
}

type cartItemResponse struct {
	ItemID     uuid.UUID `json:"item_id"`
	CartID     uuid.UUID `json:"cart_id"`
	VariantID  uuid.UUID `json:"variant_id"`
	Quantity   int       `json:"quantity"`
	ToPurchase bool      `json:"to_purchase"`
}

func newCartItemResponse(item *models.CartItem) cartItemResponse {
	if item == nil {
		return cartItemResponse{}
	}
	return cartItemResponse{
		ItemID:     item.ID,
		CartID:     item.CartID,
		VariantID:  item.VariantID,
		Quantity:   item.Quantity,
		ToPurchase: item.ToPurchase,
	}
}
