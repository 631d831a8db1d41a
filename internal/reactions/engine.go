// Package reactions implements the per-(item, user) interaction state
// machine: plain or emoji-tagged reactions with toggle semantics, comments,
// and share toggles, with engagement counters moved in the same transaction.
package reactions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
	"github.com/rs/zerolog/log"

	"lumen-board/feedcore/internal/apperr"
	"lumen-board/feedcore/internal/content"
	"lumen-board/feedcore/internal/counters"
	"lumen-board/feedcore/internal/database"
	"lumen-board/feedcore/internal/models"
)

// Hook receives notifications for interactions that should alert the item's
// author. Implementations must be non-blocking; notify.Dispatcher satisfies
// this.
type Hook interface {
	Enqueue(recipientID string, kind models.NotificationKind, body, actorAvatarURL string)
}

// Engine enforces the at-most-one-reaction-per-(item, user) invariant and
// the toggle contract around it.
type Engine struct {
	db    *database.DB
	items *content.Store
	store Store
	hook  Hook
}

// NewEngine wires the engine. hook may be nil, which disables notifications.
func NewEngine(db *database.DB, items *content.Store, hook Hook) *Engine {
	return &Engine{db: db, items: items, hook: hook}
}

const maxEmojiBytes = 32

// validateEmoji rejects anything that cannot plausibly be an emoji tag.
func validateEmoji(emoji string) error {
	if emoji == "" {
		return apperr.New(apperr.KindValidation, "emoji must not be empty")
	}
	if len(emoji) > maxEmojiBytes {
		return apperr.Newf(apperr.KindValidation, "emoji exceeds %d bytes", maxEmojiBytes)
	}
	if strings.ContainsAny(emoji, " \t\n\r") {
		return apperr.New(apperr.KindValidation, "emoji must not contain whitespace")
	}
	return nil
}

// React applies one tap of the reaction control:
//
//   - no existing row: create one (plain or tagged), regardless of whether an
//     emoji was supplied
//   - existing row, emoji supplied: overwrite the emoji in place
//   - existing row, no emoji: remove the row (a bare tap toggles off)
//
// The asymmetry of the last two cases is the contract: a plain "like" tap
// and "opened the picker, picked nothing" arrive identically as no emoji.
func (e *Engine) React(ctx context.Context, typ models.ContentType, itemID, userID string, emoji *string) (models.ReactionAction, error) {
	if emoji != nil {
		if err := validateEmoji(*emoji); err != nil {
			return "", err
		}
	}

	item, err := e.items.Get(ctx, typ, itemID)
	if err != nil {
		return "", err
	}

	var action models.ReactionAction
	err = e.inTx(ctx, func(tx *sqlx.Tx) error {
		existing, err := e.store.Find(ctx, tx, typ, itemID, userID)
		if err != nil {
			return err
		}

		switch {
		case existing == nil:
			if err := e.store.Insert(ctx, tx, typ, itemID, userID, emoji); err != nil {
				// A concurrent React from the same user may have won the
				// insert race; the unique constraint makes the loser an
				// update, never a duplicate row or a caller-visible error.
				if isUniqueViolation(err) {
					if err := e.store.UpdateEmoji(ctx, tx, typ, itemID, userID, emoji); err != nil {
						return err
					}
					action = models.ReactionUpdated
					return nil
				}
				return err
			}
			action = models.ReactionCreated
			return counters.Apply(ctx, tx, typ, itemID, counters.Reactions, +1)

		case emoji != nil:
			if err := e.store.UpdateEmoji(ctx, tx, typ, itemID, userID, emoji); err != nil {
				return err
			}
			action = models.ReactionUpdated
			return nil

		default:
			if _, err := e.store.Delete(ctx, tx, typ, itemID, userID); err != nil {
				return err
			}
			action = models.ReactionRemoved
			return counters.Apply(ctx, tx, typ, itemID, counters.Reactions, -1)
		}
	})
	if err != nil {
		return "", err
	}

	if action != models.ReactionRemoved {
		e.notifyAuthor(item, userID, models.NotifyReaction,
			fmt.Sprintf("%s reacted to your %s %q", userID, typ, item.Title))
	}
	return action, nil
}

// Unreact is the explicit removal path. Removing an absent reaction is not
// an error.
func (e *Engine) Unreact(ctx context.Context, typ models.ContentType, itemID, userID string) (bool, error) {
	if _, err := e.items.Get(ctx, typ, itemID); err != nil {
		return false, err
	}

	var removed bool
	err := e.inTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		removed, err = e.store.Delete(ctx, tx, typ, itemID, userID)
		if err != nil {
			return err
		}
		if !removed {
			return nil
		}
		return counters.Apply(ctx, tx, typ, itemID, counters.Reactions, -1)
	})
	return removed, err
}

// Comment creates a comment on an item.
func (e *Engine) Comment(ctx context.Context, typ models.ContentType, itemID, userID, text string) (*models.Comment, error) {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < models.CommentMinLen || len(trimmed) > models.CommentMaxLen {
		return nil, apperr.Newf(apperr.KindValidation,
			"comment length must be between %d and %d characters", models.CommentMinLen, models.CommentMaxLen)
	}

	item, err := e.items.Get(ctx, typ, itemID)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		ID:        xid.New().String(),
		ItemType:  typ,
		ItemID:    itemID,
		UserID:    userID,
		Body:      trimmed,
		CreatedAt: time.Now().UTC(),
	}

	err = e.inTx(ctx, func(tx *sqlx.Tx) error {
		if err := e.store.InsertComment(ctx, tx, comment); err != nil {
			return err
		}
		return counters.Apply(ctx, tx, typ, itemID, counters.Comments, +1)
	})
	if err != nil {
		return nil, err
	}

	e.notifyAuthor(item, userID, models.NotifyComment,
		fmt.Sprintf("%s commented on your %s %q", userID, typ, item.Title))
	return comment, nil
}

// Share toggles the user's share of an item; a second call unshares.
func (e *Engine) Share(ctx context.Context, typ models.ContentType, itemID, userID string) (models.ShareAction, error) {
	item, err := e.items.Get(ctx, typ, itemID)
	if err != nil {
		return "", err
	}

	var action models.ShareAction
	err = e.inTx(ctx, func(tx *sqlx.Tx) error {
		removed, err := e.store.DeleteShare(ctx, tx, typ, itemID, userID)
		if err != nil {
			return err
		}
		if removed {
			action = models.Unshared
			return counters.Apply(ctx, tx, typ, itemID, counters.Shares, -1)
		}
		if err := e.store.InsertShare(ctx, tx, typ, itemID, userID); err != nil {
			if isUniqueViolation(err) {
				// Concurrent share won; treat this call as the toggle-off.
				if _, err := e.store.DeleteShare(ctx, tx, typ, itemID, userID); err != nil {
					return err
				}
				action = models.Unshared
				return counters.Apply(ctx, tx, typ, itemID, counters.Shares, -1)
			}
			return err
		}
		action = models.Shared
		return counters.Apply(ctx, tx, typ, itemID, counters.Shares, +1)
	})
	if err != nil {
		return "", err
	}

	if action == models.Shared {
		e.notifyAuthor(item, userID, models.NotifyShare,
			fmt.Sprintf("%s shared your %s %q", userID, typ, item.Title))
	}
	return action, nil
}

// inTx runs fn inside a transaction, committing only when fn succeeds. The
// counter deltas ride in the same transaction as the row mutation, so a
// failure can never leave the counters out of step.
func (e *Engine) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := e.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Error().Err(rbErr).Msg("Rollback failed")
		}
		return err
	}
	return tx.Commit()
}

// notifyAuthor enqueues a notification unless the actor is the author.
func (e *Engine) notifyAuthor(item *models.Item, actorID string, kind models.NotificationKind, body string) {
	if e.hook == nil || item.AuthorID == actorID {
		return
	}
	e.hook.Enqueue(item.AuthorID, kind, body, "")
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}
