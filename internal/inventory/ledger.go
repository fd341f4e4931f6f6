package inventory

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/namito/commerce-backend/pkg/errors"
)

// Reservation is one stock decrement requested by a checkout line.
type Reservation struct {
	VariantID uuid.UUID
	Quantity  int
}

// Ledger is the only component allowed to mutate variant stock. Reserve and
// Release run against the caller's transaction so a failed checkout rolls
// every decrement back together with the order rows.
type Ledger interface {
	Reserve(ctx context.Context, tx *gorm.DB, reservations []Reservation) error
	Release(ctx context.Context, tx *gorm.DB, variantID uuid.UUID, qty int) error
	AvailableStock(ctx context.Context, variantID uuid.UUID) (int, error)
}

type ledger struct {
	db *gorm.DB
}

// NewLedger builds the stock ledger over the shared connection. The
// connection is only used for reads; mutations require an explicit tx.
func NewLedger(db *gorm.DB) Ledger {
	return &ledger{db: db}
}

// Reserve decrements stock for every reservation or none of them. Each
// decrement is a single conditional update, so two checkouts racing for the
// last unit cannot both succeed. Reservations are acquired in ascending
// variant id order to keep lock ordering stable across concurrent checkouts.
func (l *ledger) Reserve(ctx context.Context, tx *gorm.DB, reservations []Reservation) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for stock reservation")
	}
	for _, res := range reservations {
		if res.Quantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "reservation quantity must be positive").
				WithDetails(map[string]any{"variant_id": res.VariantID.String()})
		}
	}

	ordered := make([]Reservation, len(reservations))
	copy(ordered, reservations)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].VariantID.String() < ordered[j].VariantID.String()
	})

	for _, res := range ordered {
		result := tx.WithContext(ctx).Exec(`
			UPDATE variants
			SET stock = stock - ?,
				updated_at = CURRENT_TIMESTAMP
			WHERE id = ? AND stock >= ?
		`, res.Quantity, res.VariantID, res.Quantity)
		if result.Error != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, result.Error, "reserve stock")
		}
		if result.RowsAffected == 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock").
				WithDetails(map[string]any{"variant_id": res.VariantID.String()})
		}
	}
	return nil
}

// Release returns previously reserved stock. Exactly-once semantics are the
// caller's responsibility; the state machine invokes this once per canceled
// order line.
func (l *ledger) Release(ctx context.Context, tx *gorm.DB, variantID uuid.UUID, qty int) error {
	if qty <= 0 {
		return nil
	}
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for stock release")
	}

	result := tx.WithContext(ctx).Exec(`
		UPDATE variants
		SET stock = stock + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, qty, variantID)
	if result.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, result.Error, "release stock")
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
	}
	return nil
}

// AvailableStock reads the current counter. Cart mutations use it for soft
// checks; the authoritative check stays inside Reserve.
func (l *ledger) AvailableStock(ctx context.Context, variantID uuid.UUID) (int, error) {
	var stock int
	err := l.db.WithContext(ctx).
		Raw(`SELECT stock FROM variants WHERE id = ?`, variantID).
		Scan(&stock).Error
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read stock")
	}
	return stock, nil
}
