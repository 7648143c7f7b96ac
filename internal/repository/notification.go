package repository

import (
	"context"
	"errors"
	"time"

	"reservo/internal/models"

	"gorm.io/gorm"
)

// NotificationRepository defines persistence operations for in-app notifications.
type NotificationRepository interface {
	Create(ctx context.Context, notification *models.SystemNotification) error
	ListByRecipient(ctx context.Context, recipientID uint, limit, offset int) ([]models.SystemNotification, error)
	MarkRead(ctx context.Context, id, recipientID uint, at time.Time) error
}

type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository returns a new NotificationRepository implementation.
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, notification *models.SystemNotification) error {
	if err := r.db.WithContext(ctx).Create(notification).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *notificationRepository) ListByRecipient(ctx context.Context, recipientID uint, limit, offset int) ([]models.SystemNotification, error) {
	var notifications []models.SystemNotification
	if err := r.db.WithContext(ctx).
		Where("recipient_id = ?", recipientID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&notifications).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return notifications, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, id, recipientID uint, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&models.SystemNotification{}).
		Where("id = ? AND recipient_id = ? AND read_at IS NULL", id, recipientID).
		Update("read_at", at)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		var existing models.SystemNotification
		if err := r.db.WithContext(ctx).
			Where("id = ? AND recipient_id = ?", id, recipientID).
			First(&existing).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Notification", id)
			}
			return models.NewInternalError(err)
		}
		// Already read; marking again is a no-op.
	}
	return nil
}
