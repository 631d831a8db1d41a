package models

import (
	"database/sql"
	"time"
)

// NotificationKind distinguishes what interaction produced a notification.
type NotificationKind string

const (
	NotifyReaction NotificationKind = "reaction"
	NotifyComment  NotificationKind = "comment"
	NotifyShare    NotificationKind = "share"
)

// Notification is a best-effort message to an item's author about an
// interaction. Delivery is an external concern; this is only the record the
// default sink persists.
type Notification struct {
	ID             string           `db:"id" json:"id"`
	RecipientID    string           `db:"recipient_id" json:"recipient_id"`
	Kind           NotificationKind `db:"kind" json:"kind"`
	Message        string           `db:"message" json:"message"`
	ActorAvatarURL sql.NullString   `db:"actor_avatar_url" json:"actor_avatar_url"`
	CreatedAt      time.Time        `db:"created_at" json:"created_at"`
}
