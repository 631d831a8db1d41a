package models

import "time"

// Comment is a user comment on an item. Comments are never deduplicated;
// every call creates a new row.
type Comment struct {
	ID        string      `db:"id" json:"id"`
	ItemType  ContentType `db:"item_type" json:"item_type"`
	ItemID    string      `db:"item_id" json:"item_id"`
	UserID    string      `db:"user_id" json:"user_id"`
	Body      string      `db:"body" json:"body"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
}

const (
	// CommentMinLen and CommentMaxLen bound the trimmed comment body.
	CommentMinLen = 1
	CommentMaxLen = 2000
)
