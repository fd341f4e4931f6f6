package users

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/namito/commerce-backend/internal/repo"
	"github.com/namito/commerce-backend/pkg/db/models"
	pkgerrors "github.com/namito/commerce-backend/pkg/errors"
)

// UserLookup is the read surface the fulfillment core needs from the user
// subsystem, mainly push token resolution.
type UserLookup interface {
	Get(ctx context.Context, userID uuid.UUID) (*models.User, error)
}

// AddressLookup resolves a delivery address and enforces ownership.
type AddressLookup interface {
	Get(ctx context.Context, addressID, ownerUserID uuid.UUID) (*models.UserAddress, error)
}

// Repository implements UserLookup over the users table.
type Repository struct {
	repo.Base
}

// NewRepository builds a read-only user repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// Get loads a single user.
func (r *Repository) Get(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.DB(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return &user, nil
}

// AddressRepository implements AddressLookup over the user_addresses table.
type AddressRepository struct {
	repo.Base
}

// NewAddressRepository builds a read-only address repository.
func NewAddressRepository(db *gorm.DB) *AddressRepository {
	return &AddressRepository{Base: repo.NewBase(db)}
}

// Get loads an address owned by the given user. An address belonging to a
// different user is reported as not found, not forbidden.
func (r *AddressRepository) Get(ctx context.Context, addressID, ownerUserID uuid.UUID) (*models.UserAddress, error) {
	var address models.UserAddress
	err := r.DB(ctx).
		Where("id = ? AND user_id = ?", addressID, ownerUserID).
		First(&address).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load address")
	}
	return &address, nil
}
