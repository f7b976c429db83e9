package ws

import (
	"context"

	"github.com/google/uuid"

	"github.com/creatorlink/collab-backend/internal/models"
)

// NotificationServiceAdapter lets the hub persist notifications through
// the notification service without depending on the service package.
type NotificationServiceAdapter struct {
	service interface {
		CreateNotification(ctx context.Context, userID uuid.UUID, event string, data interface{}) (*models.Notification, error)
	}
}

// NewNotificationServiceAdapter creates the adapter.
func NewNotificationServiceAdapter(service interface {
	CreateNotification(ctx context.Context, userID uuid.UUID, event string, data interface{}) (*models.Notification, error)
}) *NotificationServiceAdapter {
	return &NotificationServiceAdapter{service: service}
}

// CreateNotification implements NotificationSaver.
func (a *NotificationServiceAdapter) CreateNotification(ctx context.Context, userID uuid.UUID, event string, data interface{}) error {
	_, err := a.service.CreateNotification(ctx, userID, event, data)
	return err
}
