package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/namito/commerce-backend/pkg/db/models"
)

// OrderRepository defines the persistence surface for orders and their audit
// history. Checkout shares it to allocate order numbers and insert new orders
// inside its own transaction.
type OrderRepository interface {
	WithTx(tx *gorm.DB) OrderRepository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	Save(ctx context.Context, order *models.Order) error
	ExistsByNumber(ctx context.Context, orderNumber string) (bool, error)
	FindByIDAndUser(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	HasHistory(ctx context.Context, orderID uuid.UUID) (bool, error)
	CreateHistory(ctx context.Context, entry *models.OrderHistory) error
	ListHistoryByUser(ctx context.Context, userID uuid.UUID) ([]models.OrderHistory, error)
}
