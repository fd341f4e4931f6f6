package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	cartsvc "github.com/namito/commerce-backend/internal/cart"
	"github.com/namito/commerce-backend/pkg/db/models"
)

type testCartService struct {
	addItemFn     func(ctx context.Context, userID uuid.UUID, input cartsvc.AddItemInput) (*models.CartItem, error)
	batchUpdateFn func(ctx context.Context, userID uuid.UUID, updates []cartsvc.ItemUpdate) (*cartsvc.BatchResult, error)
	removeItemFn  func(ctx context.Context, userID, itemID uuid.UUID) error
	getFn         func(ctx context.Context, userID uuid.UUID) (*cartsvc.View, error)
}

func (s *testCartService) AddItem(ctx context.Context, userID uuid.UUID, input cartsvc.AddItemInput) (*models.CartItem, error) {
	if s.addItemFn != nil {
		return s.addItemFn(ctx, userID, input)
	}
	return &models.CartItem{}, nil
}

func (s *testCartService) BatchUpdate(ctx context.Context, userID uuid.UUID, updates []cartsvc.ItemUpdate) (*cartsvc.BatchResult, error) {
	if s.batchUpdateFn != nil {
		return s.batchUpdateFn(ctx, userID, updates)
	}
	return &cartsvc.BatchResult{}, nil
}

func (s *testCartService) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error {
	if s.removeItemFn != nil {
		return s.removeItemFn(ctx, userID, itemID)
	}
	return nil
}

func (s *testCartService) Get(ctx context.Context, userID uuid.UUID) (*cartsvc.View, error) {
	if s.getFn != nil {
		return s.getFn(ctx, userID)
	}
	return &cartsvc.View{}, nil
}

func TestCartAddItemSuccess(t *testing.T) {
	userID := uuid.New()
	variantID := uuid.New()
	cartID := uuid.New()
	svc := &testCartService{
		addItemFn: func(ctx context.Context, uid uuid.UUID, input cartsvc.AddItemInput) (*models.CartItem, error) {
			if uid != userID {
				t.Fatalf("unexpected user %s", uid)
			}
			if input.VariantID != variantID || input.Quantity != 2 {
				t.Fatalf("unexpected input %+v", input)
			}
			return &models.CartItem{
				ID:         uuid.New(),
				CartID:     cartID,
				VariantID:  variantID,
				Quantity:   2,
				ToPurchase: true,
			}, nil
		},
	}

	body := `{"variant_id":"` + variantID.String() + `","quantity":2}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = asUser(req, userID)

	resp := httptest.NewRecorder()
	CartAddItem(svc, testLogger())(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Data cartItemResponse `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data.CartID != cartID {
		t.Fatalf("unexpected cart %s", envelope.Data.CartID)
	}
	if !envelope.Data.ToPurchase {
		t.Fatal("expected new line marked purchasable")
	}
}

func TestCartAddItemRejectsZeroQuantity(t *testing.T) {
	body := `{"variant_id":"` + uuid.NewString() + `","quantity":0}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = asUser(req, uuid.New())

	resp := httptest.NewRecorder()
	CartAddItem(&testCartService{}, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCartAddItemMissingIdentity(t *testing.T) {
	body := `{"variant_id":"` + uuid.NewString() + `","quantity":1}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp := httptest.NewRecorder()
	CartAddItem(&testCartService{}, testLogger())(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestCartBatchUpdatePassesLines(t *testing.T) {
	userID := uuid.New()
	first := uuid.New()
	second := uuid.New()
	svc := &testCartService{
		batchUpdateFn: func(ctx context.Context, uid uuid.UUID, updates []cartsvc.ItemUpdate) (*cartsvc.BatchResult, error) {
			if len(updates) != 2 {
				t.Fatalf("expected 2 updates got %d", len(updates))
			}
			if updates[0].ItemID != first || updates[0].Quantity != 3 {
				t.Fatalf("unexpected first update %+v", updates[0])
			}
			if updates[1].ItemID != second || updates[1].ToPurchase == nil || *updates[1].ToPurchase {
				t.Fatalf("unexpected second update %+v", updates[1])
			}
			return &cartsvc.BatchResult{Lines: []cartsvc.LineResult{
				{ItemID: first, Updated: true},
				{ItemID: second, Updated: true},
			}}, nil
		},
	}

	body := `{"items":[{"item_id":"` + first.String() + `","quantity":3},{"item_id":"` + second.String() + `","to_purchase":false}]}`
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/cart/items", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = asUser(req, userID)

	resp := httptest.NewRecorder()
	CartBatchUpdate(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Data cartsvc.BatchResult `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(envelope.Data.Lines) != 2 {
		t.Fatalf("expected 2 line results got %d", len(envelope.Data.Lines))
	}
}

func TestCartBatchUpdateRejectsEmptyItems(t *testing.T) {
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/cart/items", strings.NewReader(`{"items":[]}`))
	req.Header.Set("Content-Type", "application/json")
	req = asUser(req, uuid.New())

	resp := httptest.NewRecorder()
	CartBatchUpdate(&testCartService{}, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCartRemoveItemInvalidID(t *testing.T) {
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/cart/items/invalid", nil)
	req = asUser(req, uuid.New())
	req = addRouteParam(req, "itemId", "invalid")

	resp := httptest.NewRecorder()
	CartRemoveItem(&testCartService{}, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCartFetchReturnsView(t *testing.T) {
	userID := uuid.New()
	svc := &testCartService{
		getFn: func(ctx context.Context, uid uuid.UUID) (*cartsvc.View, error) {
			return &cartsvc.View{
				CartID:     uuid.New(),
				TotalCents: 2750,
				Items: []cartsvc.ViewItem{
					{ItemID: uuid.New(), Quantity: 2, ToPurchase: true, UnitPriceCents: 1000, SubtotalCents: 2000},
				},
			}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req = asUser(req, userID)
	resp := httptest.NewRecorder()
	CartFetch(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	var envelope struct {
		Data cartsvc.View `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data.TotalCents != 2750 {
		t.Fatalf("unexpected total %d", envelope.Data.TotalCents)
	}
}
