package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/namito/commerce-backend/pkg/db/models"
)

// CartRepository defines the persistence surface required by the cart service
// and by checkout, which consumes purchasable lines inside its transaction.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	FindByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	Create(ctx context.Context, cart *models.Cart) (*models.Cart, error)
	FindItem(ctx context.Context, cartID, itemID uuid.UUID) (*models.CartItem, error)
	FindPurchasableLine(ctx context.Context, cartID, variantID uuid.UUID) (*models.CartItem, error)
	CreateItem(ctx context.Context, item *models.CartItem) (*models.CartItem, error)
	SaveItem(ctx context.Context, item *models.CartItem) error
	DeleteItem(ctx context.Context, cartID, itemID uuid.UUID) error
	PurchasableItems(ctx context.Context, cartID uuid.UUID) ([]models.CartItem, error)
	DeletePurchasableItems(ctx context.Context, cartID uuid.UUID) error
}
