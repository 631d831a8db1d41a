package notify

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"lumen-board/feedcore/internal/database"
	"lumen-board/feedcore/internal/models"
)

// StoreNotifier persists notifications to the notifications table. Delivery
// to the recipient (polling, push) is outside this service.
type StoreNotifier struct {
	db *database.DB
}

// NewStoreNotifier creates the default sqlite-backed sink.
func NewStoreNotifier(db *database.DB) *StoreNotifier {
	return &StoreNotifier{db: db}
}

// Notify writes one notification row.
func (s *StoreNotifier) Notify(ctx context.Context, recipientID string, kind models.NotificationKind, msg, actorAvatarURL string) error {
	avatar := sql.NullString{String: actorAvatarURL, Valid: actorAvatarURL != ""}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO notifications (id, recipient_id, kind, message, actor_avatar_url, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		xid.New().String(), recipientID, kind, msg, avatar, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("storing notification for %s: %w", recipientID, err)
	}
	return nil
}

// ListForRecipient returns a recipient's notifications, newest first.
func (s *StoreNotifier) ListForRecipient(ctx context.Context, recipientID string, limit int) ([]models.Notification, error) {
	var rows []models.Notification
	err := s.db.SelectContext(ctx, &rows,
		`SELECT id, recipient_id, kind, message, actor_avatar_url, created_at
		 FROM notifications WHERE recipient_id = ?
		 ORDER BY created_at DESC, id DESC LIMIT ?`,
		recipientID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing notifications for %s: %w", recipientID, err)
	}
	return rows, nil
}
