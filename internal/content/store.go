// Package content provides access to the per-type item tables. The nine
// tables are structurally identical; tableFor is the single point where
// behavior differs by type.
package content

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"lumen-board/feedcore/internal/apperr"
	"lumen-board/feedcore/internal/database"
	"lumen-board/feedcore/internal/models"
)

// tableFor maps a content type to its table. The switch is exhaustive over
// models.ContentTypes; adding a type without extending it is a bug caught by
// the panic below.
func tableFor(t models.ContentType) string {
	switch t {
	case models.TypeArticle:
		return "articles"
	case models.TypeBook:
		return "books"
	case models.TypeIdea:
		return "ideas"
	case models.TypeImage:
		return "images"
	case models.TypeVideo:
		return "videos"
	case models.TypeClaim:
		return "claims"
	case models.TypeQuestion:
		return "questions"
	case models.TypeAnnouncement:
		return "announcements"
	case models.TypeProduct:
		return "products"
	default:
		panic(fmt.Sprintf("content: no table for type %q", t))
	}
}

// TableFor exposes the type-to-table mapping for the counter repair routine.
func TableFor(t models.ContentType) string { return tableFor(t) }

// Store reads and writes the per-type content tables.
type Store struct {
	db *database.DB
}

// NewStore creates a content store over db.
func NewStore(db *database.DB) *Store {
	return &Store{db: db}
}

// List returns up to limit items of the given type, newest first. Ordering is
// (created_at DESC, id ASC) so repeated calls over a static dataset paginate
// stably. A non-nil before pins an upper created_at bound, which keeps pages
// stable while new content arrives.
func (s *Store) List(ctx context.Context, typ models.ContentType, limit, offset int, before *time.Time) ([]models.Item, error) {
	where := ""
	args := []any{}
	if before != nil {
		where = "WHERE created_at <= ?"
		args = append(args, before.UTC())
	}
	query := fmt.Sprintf(
		`SELECT id, title, body, author_id, created_at, view_count, reaction_count, comment_count, share_count
		 FROM %s %s ORDER BY created_at DESC, id ASC LIMIT ? OFFSET ?`, tableFor(typ), where)
	args = append(args, limit, offset)

	var items []models.Item
	if err := s.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("listing %s: %w", typ, err)
	}
	for i := range items {
		items[i].Type = typ
	}
	return items, nil
}

// Count returns the total number of items of the given type, honoring the
// same optional upper bound as List.
func (s *Store) Count(ctx context.Context, typ models.ContentType, before *time.Time) (int, error) {
	where := ""
	args := []any{}
	if before != nil {
		where = "WHERE created_at <= ?"
		args = append(args, before.UTC())
	}
	var n int
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s %s`, tableFor(typ), where)
	if err := s.db.GetContext(ctx, &n, query, args...); err != nil {
		return 0, fmt.Errorf("counting %s: %w", typ, err)
	}
	return n, nil
}

// Get fetches a single item without recording a view. Callers serving a
// detail page pair it with RecordView.
func (s *Store) Get(ctx context.Context, typ models.ContentType, id string) (*models.Item, error) {
	query := fmt.Sprintf(
		`SELECT id, title, body, author_id, created_at, view_count, reaction_count, comment_count, share_count
		 FROM %s WHERE id = ?`, tableFor(typ))

	var item models.Item
	if err := s.db.GetContext(ctx, &item, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.Newf(apperr.KindNotFound, "%s %s not found", typ, id)
		}
		return nil, fmt.Errorf("getting %s %s: %w", typ, id, err)
	}
	item.Type = typ
	return &item, nil
}

// RecordView appends a view row and bumps the denormalized counter in one
// transaction. Detail-view semantics: list paths never call this.
func (s *Store) RecordView(ctx context.Context, typ models.ContentType, id string) error {
	table := tableFor(typ)
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning view transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO item_views (item_type, item_id, viewed_at) VALUES (?, ?, ?)`,
		typ, id, now); err != nil {
		return fmt.Errorf("recording view for %s %s: %w", typ, id, err)
	}

	query := fmt.Sprintf(`UPDATE %s SET view_count = view_count + 1 WHERE id = ?`, table)
	if _, err := tx.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("bumping view count for %s %s: %w", typ, id, err)
	}

	return tx.Commit()
}

// Create inserts a new item authored by authorID.
func (s *Store) Create(ctx context.Context, typ models.ContentType, authorID, title, body string) (*models.Item, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperr.New(apperr.KindValidation, "title must not be empty")
	}

	item := &models.Item{
		ID:        xid.New().String(),
		Type:      typ,
		Title:     title,
		Body:      body,
		AuthorID:  authorID,
		CreatedAt: time.Now().UTC(),
	}

	query := fmt.Sprintf(
		`INSERT INTO %s (id, title, body, author_id, created_at) VALUES (?, ?, ?, ?, ?)`,
		tableFor(typ))
	if _, err := s.db.ExecContext(ctx, query, item.ID, item.Title, item.Body, item.AuthorID, item.CreatedAt); err != nil {
		return nil, fmt.Errorf("creating %s: %w", typ, err)
	}
	return item, nil
}

// Put inserts a fully-formed item, preserving its ID and timestamp. The RSS
// import path uses it so published times drive feed order.
func (s *Store) Put(ctx context.Context, item *models.Item) error {
	query := fmt.Sprintf(
		`INSERT INTO %s (id, title, body, author_id, created_at) VALUES (?, ?, ?, ?, ?)`,
		tableFor(item.Type))
	if _, err := s.db.ExecContext(ctx, query, item.ID, item.Title, item.Body, item.AuthorID, item.CreatedAt); err != nil {
		return fmt.Errorf("inserting %s %s: %w", item.Type, item.ID, err)
	}
	return nil
}

// Edit updates an item's title and body. Only the author may edit.
func (s *Store) Edit(ctx context.Context, typ models.ContentType, id, actorID, title, body string) (*models.Item, error) {
	item, err := s.Get(ctx, typ, id)
	if err != nil {
		return nil, err
	}
	if item.AuthorID != actorID {
		return nil, apperr.Newf(apperr.KindForbidden, "user %s is not the author of %s %s", actorID, typ, id)
	}

	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperr.New(apperr.KindValidation, "title must not be empty")
	}

	query := fmt.Sprintf(`UPDATE %s SET title = ?, body = ? WHERE id = ?`, tableFor(typ))
	if _, err := s.db.ExecContext(ctx, query, title, body, id); err != nil {
		return nil, fmt.Errorf("editing %s %s: %w", typ, id, err)
	}
	item.Title = title
	item.Body = body
	return item, nil
}

// Delete removes an item. Only the author may delete; deleted items stop
// appearing in List/Get immediately.
func (s *Store) Delete(ctx context.Context, typ models.ContentType, id, actorID string) error {
	item, err := s.Get(ctx, typ, id)
	if err != nil {
		return err
	}
	if item.AuthorID != actorID {
		return apperr.Newf(apperr.KindForbidden, "user %s is not the author of %s %s", actorID, typ, id)
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, tableFor(typ))
	if _, err := s.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("deleting %s %s: %w", typ, id, err)
	}
	return nil
}
