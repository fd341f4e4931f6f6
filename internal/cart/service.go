package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/namito/commerce-backend/internal/catalog"
	"github.com/namito/commerce-backend/internal/pricing"
	"github.com/namito/commerce-backend/pkg/db/models"
	pkgerrors "github.com/namito/commerce-backend/pkg/errors"
	"github.com/namito/commerce-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes cart operations.
type Service interface {
	AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*models.CartItem, error)
	BatchUpdate(ctx context.Context, userID uuid.UUID, updates []ItemUpdate) (*BatchResult, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error
	Get(ctx context.Context, userID uuid.UUID) (*View, error)
}

type service struct {
	repo     CartRepository
	tx       txRunner
	variants catalog.VariantLookup
	logg     *logger.Logger
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo CartRepository, tx txRunner, variants catalog.VariantLookup, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if variants == nil {
		return nil, fmt.Errorf("variant lookup required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, tx: tx, variants: variants, logg: logg}, nil
}

// AddItemInput captures the payload for a new cart line.
type AddItemInput struct {
	VariantID uuid.UUID
	Quantity  int
}

// ItemUpdate is one line of a batch update.
type ItemUpdate struct {
	ItemID     uuid.UUID
	Quantity   int
	ToPurchase *bool
}

// LineResult reports the outcome of a single batch update line.
type LineResult struct {
	ItemID  uuid.UUID      `json:"item_id"`
	Updated bool           `json:"updated"`
	Code    pkgerrors.Code `json:"code,omitempty"`
	Reason  string         `json:"reason,omitempty"`
}

// BatchResult aggregates per-line outcomes of a batch update.
type BatchResult struct {
	Lines []LineResult `json:"lines"`
}

// View is the display projection of a cart. Prices here are informational;
// checkout recomputes them inside its own transaction.
type View struct {
	CartID     uuid.UUID  `json:"cart_id"`
	Items      []ViewItem `json:"items"`
	TotalCents int        `json:"total_cents"`
}

// ViewItem is one displayed cart line with its current effective price.
type ViewItem struct {
	ItemID         uuid.UUID `json:"item_id"`
	VariantID      uuid.UUID `json:"variant_id"`
	Name           string    `json:"name"`
	SKU            string    `json:"sku"`
	Quantity       int       `json:"quantity"`
	ToPurchase     bool      `json:"to_purchase"`
	UnitPriceCents int       `json:"unit_price_cents"`
	SubtotalCents  int       `json:"subtotal_cents"`
	Unavailable    bool      `json:"unavailable,omitempty"`
}

// AddItem lazily creates the user's cart and adds the variant to it. When a
// purchasable line for the same variant already exists the quantities merge
// into one line. Stock is soft-checked here; the ledger's conditional update
// at checkout stays authoritative.
func (s *service) AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*models.CartItem, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	variant, err := s.variants.Get(ctx, input.VariantID)
	if err != nil {
		return nil, err
	}
	if input.Quantity > variant.Stock {
		return nil, insufficientStock(variant.ID)
	}

	var saved *models.CartItem
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		record, err := txRepo.FindByUser(ctx, userID)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
			}
			record, err = txRepo.Create(ctx, &models.Cart{ID: uuid.New(), UserID: userID})
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart")
			}
		}

		line, err := txRepo.FindPurchasableLine(ctx, record.ID, variant.ID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart line")
		}

		if line != nil {
			merged := line.Quantity + input.Quantity
			if merged > variant.Stock {
				return insufficientStock(variant.ID)
			}
			line.Quantity = merged
			if err := txRepo.SaveItem(ctx, line); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "merge cart line")
			}
			saved = line
			return nil
		}

		item := &models.CartItem{
			ID:         uuid.New(),
			CartID:     record.ID,
			VariantID:  variant.ID,
			Quantity:   input.Quantity,
			ToPurchase: true,
		}
		created, err := txRepo.CreateItem(ctx, item)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart line")
		}
		saved = created
		return nil
	}); err != nil {
		return nil, err
	}

	return saved, nil
}

// BatchUpdate applies each line independently. A line that fails validation
// or stock checks is reported in the result and does not abort the others.
func (s *service) BatchUpdate(ctx context.Context, userID uuid.UUID, updates []ItemUpdate) (*BatchResult, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one update is required")
	}

	record, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	result := &BatchResult{Lines: make([]LineResult, 0, len(updates))}
	var failures error

	for _, update := range updates {
		if err := s.applyUpdate(ctx, record.ID, update); err != nil {
			typed := pkgerrors.As(err)
			if typed == nil {
				typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update cart line")
			}
			result.Lines = append(result.Lines, LineResult{
				ItemID: update.ItemID,
				Code:   typed.Code(),
				Reason: typed.Message(),
			})
			failures = multierr.Append(failures, fmt.Errorf("item %s: %w", update.ItemID, err))
			continue
		}
		result.Lines = append(result.Lines, LineResult{ItemID: update.ItemID, Updated: true})
	}

	if failures != nil {
		s.logg.Warn(s.logg.WithUserID(ctx, userID.String()),
			fmt.Sprintf("cart batch update completed with failures: %v", failures))
	}
	return result, nil
}

func (s *service) applyUpdate(ctx context.Context, cartID uuid.UUID, update ItemUpdate) error {
	// Quantity zero means the line only toggles its purchase flag.
	if update.Quantity < 0 || (update.Quantity == 0 && update.ToPurchase == nil) {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	item, err := s.repo.FindItem(ctx, cartID, update.ItemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart line")
	}

	if update.Quantity > 0 {
		variant, err := s.variants.Get(ctx, item.VariantID)
		if err != nil {
			return err
		}
		if update.Quantity > variant.Stock {
			return insufficientStock(variant.ID)
		}
		item.Quantity = update.Quantity
	}
	if update.ToPurchase != nil {
		item.ToPurchase = *update.ToPurchase
	}
	if err := s.repo.SaveItem(ctx, item); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart line")
	}
	return nil
}

// RemoveItem deletes a single line from the user's cart.
func (s *service) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	record, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	if err := s.repo.DeleteItem(ctx, record.ID, itemID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart line")
	}
	return nil
}

// Get returns the cart view with current effective prices. A user with no
// cart yet gets an empty view, matching the lazy-create behavior of AddItem.
func (s *service) Get(ctx context.Context, userID uuid.UUID) (*View, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	record, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &View{Items: []ViewItem{}}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	variantIDs := make([]uuid.UUID, 0, len(record.Items))
	for _, item := range record.Items {
		variantIDs = append(variantIDs, item.VariantID)
	}
	variants, err := s.variants.GetMany(ctx, variantIDs)
	if err != nil {
		return nil, err
	}

	view := &View{CartID: record.ID, Items: make([]ViewItem, 0, len(record.Items))}
	for _, item := range record.Items {
		entry := ViewItem{
			ItemID:     item.ID,
			VariantID:  item.VariantID,
			Quantity:   item.Quantity,
			ToPurchase: item.ToPurchase,
		}
		variant, ok := variants[item.VariantID]
		if !ok {
			entry.Unavailable = true
			view.Items = append(view.Items, entry)
			continue
		}
		entry.Name = variant.Name
		entry.SKU = variant.SKU
		entry.UnitPriceCents = pricing.EffectivePrice(variant.BasePriceCents, variant.DiscountValue, variant.DiscountType)
		entry.SubtotalCents = entry.UnitPriceCents * item.Quantity
		if item.ToPurchase {
			view.TotalCents += entry.SubtotalCents
		}
		view.Items = append(view.Items, entry)
	}
	return view, nil
}

func insufficientStock(variantID uuid.UUID) error {
	return pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock").
		WithDetails(map[string]any{"variant_id": variantID.String()})
}
