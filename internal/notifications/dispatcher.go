package notifications

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"reservo/internal/models"
	"reservo/internal/observability"
	"reservo/internal/repository"

	"gorm.io/datatypes"
)

// Dispatcher fans a moderation event out to the owner's email and the in-app
// notification feed. Delivery is best effort: a failed channel is logged and
// counted but never fails the lifecycle operation that triggered it.
type Dispatcher struct {
	email    EmailSender
	repo     repository.NotificationRepository
	notifier *Notifier

	now func() time.Time
}

// NewDispatcher creates a Dispatcher over the given channels.
func NewDispatcher(email EmailSender, repo repository.NotificationRepository, notifier *Notifier) *Dispatcher {
	return &Dispatcher{
		email:    email,
		repo:     repo,
		notifier: notifier,
		now:      time.Now,
	}
}

// Notify delivers subject/body to one recipient on both channels.
func (d *Dispatcher) Notify(ctx context.Context, recipient *models.User, subject, body string, meta map[string]interface{}) {
	if recipient == nil {
		return
	}
	d.sendEmail(ctx, recipient, subject, body)
	d.createInApp(ctx, recipient.ID, subject, body, meta)
}

// NotifyAll delivers subject/body to every recipient, typically the admin group.
func (d *Dispatcher) NotifyAll(ctx context.Context, recipients []models.User, subject, body string, meta map[string]interface{}) {
	for i := range recipients {
		d.Notify(ctx, &recipients[i], subject, body, meta)
	}
}

func (d *Dispatcher) sendEmail(ctx context.Context, recipient *models.User, subject, body string) {
	if d.email == nil || recipient.Email == "" {
		return
	}
	span, ctx := observability.NewSpan(ctx, "notify.email")
	defer span.End()

	if err := d.email.Send(ctx, recipient.Email, subject, body); err != nil {
		span.SetError(err)
		observability.RecordNotification("email", "error")
		slog.WarnContext(ctx, "email notification failed",
			slog.Uint64("recipient_id", uint64(recipient.ID)),
			slog.String("subject", subject),
			slog.String("err", err.Error()),
		)
		return
	}
	observability.RecordNotification("email", "ok")
}

func (d *Dispatcher) createInApp(ctx context.Context, recipientID uint, subject, body string, meta map[string]interface{}) {
	if d.repo == nil {
		return
	}
	span, ctx := observability.NewSpan(ctx, "notify.in_app")
	defer span.End()

	var metadata datatypes.JSON
	if len(meta) > 0 {
		if raw, err := json.Marshal(meta); err == nil {
			metadata = datatypes.JSON(raw)
		}
	}

	notification := &models.SystemNotification{
		RecipientID: recipientID,
		Subject:     subject,
		Body:        body,
		Metadata:    metadata,
		CreatedAt:   d.now(),
	}
	if err := d.repo.Create(ctx, notification); err != nil {
		span.SetError(err)
		observability.RecordNotification("in_app", "error")
		slog.WarnContext(ctx, "in-app notification failed",
			slog.Uint64("recipient_id", uint64(recipientID)),
			slog.String("subject", subject),
			slog.String("err", err.Error()),
		)
		return
	}
	observability.RecordNotification("in_app", "ok")

	if d.notifier != nil {
		payload, err := json.Marshal(map[string]interface{}{
			"type":    "system_notification",
			"id":      notification.ID,
			"subject": subject,
			"body":    body,
		})
		if err == nil {
			if err := d.notifier.PublishUser(ctx, recipientID, string(payload)); err != nil {
				slog.WarnContext(ctx, "notification publish failed",
					slog.Uint64("recipient_id", uint64(recipientID)),
					slog.String("err", err.Error()),
				)
			}
		}
	}
}
