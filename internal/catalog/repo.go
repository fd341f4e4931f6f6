package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/namito/commerce-backend/internal/repo"
	"github.com/namito/commerce-backend/pkg/db/models"
	pkgerrors "github.com/namito/commerce-backend/pkg/errors"
)

// VariantLookup is the read surface the fulfillment core consumes from the
// catalog subsystem. Catalog writes happen outside this service.
type VariantLookup interface {
	Get(ctx context.Context, variantID uuid.UUID) (*models.Variant, error)
	GetMany(ctx context.Context, variantIDs []uuid.UUID) (map[uuid.UUID]*models.Variant, error)
}

// Repository implements VariantLookup over the variants table.
type Repository struct {
	repo.Base
}

// NewRepository builds a read-only variant repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// Get loads a single variant.
func (r *Repository) Get(ctx context.Context, variantID uuid.UUID) (*models.Variant, error) {
	var variant models.Variant
	if err := r.DB(ctx).First(&variant, "id = ?", variantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load variant")
	}
	return &variant, nil
}

// GetMany loads the given variants keyed by id. Missing ids are absent from
// the result; callers decide whether that is an error.
func (r *Repository) GetMany(ctx context.Context, variantIDs []uuid.UUID) (map[uuid.UUID]*models.Variant, error) {
	result := make(map[uuid.UUID]*models.Variant, len(variantIDs))
	if len(variantIDs) == 0 {
		return result, nil
	}
	var variants []models.Variant
	if err := r.DB(ctx).Where("id IN ?", variantIDs).Find(&variants).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load variants")
	}
	for i := range variants {
		result[variants[i].ID] = &variants[i]
	}
	return result, nil
}
