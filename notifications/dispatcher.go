package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/anjiri1684/mixlab_studio/models"
	"github.com/anjiri1684/mixlab_studio/services"
	"github.com/google/uuid"
)

var _ services.Notifier = (*Dispatcher)(nil)

type NotificationStore interface {
	InsertNotification(ctx context.Context, n *models.Notification) error
}

// Pusher delivers a payload to a user's live connections.
type Pusher interface {
	Push(userID uuid.UUID, payload any)
}

// Dispatcher persists notifications and fans them out. It never returns an
// error: a failed notification must not undo the booking that caused it.
type Dispatcher struct {
	store     NotificationStore
	pusher    Pusher
	publisher services.EventPublisher
	now       func() time.Time
}

func NewDispatcher(store NotificationStore, pusher Pusher, publisher services.EventPublisher) *Dispatcher {
	return &Dispatcher{store: store, pusher: pusher, publisher: publisher, now: time.Now}
}

func (d *Dispatcher) Notify(ctx context.Context, userID uuid.UUID, kind, message string) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "notification dispatch panicked", "user_id", userID, "type", kind, "panic", fmt.Sprint(r))
		}
	}()

	n := &models.Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Type:      kind,
		Message:   message,
		CreatedAt: d.now(),
	}
	if err := d.store.InsertNotification(ctx, n); err != nil {
		slog.WarnContext(ctx, "failed to store notification", "user_id", userID, "type", kind, "error", err)
		return
	}

	if d.pusher != nil {
		d.pusher.Push(userID, n)
	}
	if d.publisher != nil {
		if err := d.publisher.Publish(ctx, "notification.created", n); err != nil {
			slog.WarnContext(ctx, "failed to publish notification event", "notification_id", n.ID, "error", err)
		}
	}
}
