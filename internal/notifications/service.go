package notifications

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/namito/commerce-backend/pkg/db/models"
	pkgerrors "github.com/namito/commerce-backend/pkg/errors"
)

// Service exposes the in-app notification feed.
type Service interface {
	List(ctx context.Context, userID uuid.UUID) ([]models.Notification, error)
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
}

type service struct {
	repo NotificationRepository
}

// NewService builds the notification feed service.
func NewService(repo NotificationRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("notification repository required")
	}
	return &service{repo: repo}, nil
}

// List returns the user's notifications, newest first.
func (s *service) List(ctx context.Context, userID uuid.UUID) ([]models.Notification, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}
	return rows, nil
}

// MarkRead stamps a notification as read. Marking an already read
// notification keeps its original timestamp and succeeds.
func (s *service) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	err := s.repo.MarkRead(ctx, userID, notificationID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}

	// Distinguish "already read" from "not yours / does not exist".
	existing, getErr := s.repo.Get(ctx, userID, notificationID)
	if getErr != nil {
		if errors.Is(getErr, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, getErr, "load notification")
	}
	if existing.ReadAt != nil {
		return nil
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
}

// MarkAllRead stamps every unread notification of the user.
func (s *service) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	if err := s.repo.MarkAllRead(ctx, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notifications read")
	}
	return nil
}
