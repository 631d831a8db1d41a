package models

import (
	"database/sql"
	"time"
)

// Reaction is a user's acknowledgement of an item. At most one row exists
// per (item_type, item_id, user_id); a NULL emoji is a plain acknowledgement.
type Reaction struct {
	ItemType  ContentType    `db:"item_type" json:"item_type"`
	ItemID    string         `db:"item_id" json:"item_id"`
	UserID    string         `db:"user_id" json:"user_id"`
	Emoji     sql.NullString `db:"emoji" json:"-"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
}

// EmojiOrNil returns the emoji as a pointer for JSON shaping.
func (r Reaction) EmojiOrNil() *string {
	if r.Emoji.Valid {
		e := r.Emoji.String
		return &e
	}
	return nil
}

// EmojiGroup is one bucket of a reaction summary: a single emoji (or the
// plain, emoji-less bucket) with its count and a few sample reactors.
type EmojiGroup struct {
	Emoji       *string  `json:"emoji"`
	Count       int      `json:"count"`
	SampleUsers []string `json:"sample_users"`
}

// ReactionSummary is the derived per-item aggregate. It is always recomputed
// from reaction rows, never persisted.
type ReactionSummary struct {
	Total  int          `json:"total"`
	Groups []EmojiGroup `json:"by_emoji"`
}

// ReactionAction names the outcome of a React call.
type ReactionAction string

const (
	ReactionCreated ReactionAction = "created"
	ReactionUpdated ReactionAction = "updated"
	ReactionRemoved ReactionAction = "removed"
)

// ShareAction names the outcome of a Share toggle.
type ShareAction string

const (
	Shared   ShareAction = "shared"
	Unshared ShareAction = "unshared"
)
