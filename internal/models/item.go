package models

import (
	"fmt"
	"time"
)

// ContentType identifies which collection an item belongs to.
type ContentType string

const (
	TypeArticle      ContentType = "article"
	TypeBook         ContentType = "book"
	TypeIdea         ContentType = "idea"
	TypeImage        ContentType = "image"
	TypeVideo        ContentType = "video"
	TypeClaim        ContentType = "claim"
	TypeQuestion     ContentType = "question"
	TypeAnnouncement ContentType = "announcement"
	TypeProduct      ContentType = "product"
)

// ContentTypes lists every known type. Feed fan-out and the counter repair
// routine iterate this slice.
var ContentTypes = []ContentType{
	TypeArticle,
	TypeBook,
	TypeIdea,
	TypeImage,
	TypeVideo,
	TypeClaim,
	TypeQuestion,
	TypeAnnouncement,
	TypeProduct,
}

// ParseContentType validates a wire-format type name.
func ParseContentType(s string) (ContentType, error) {
	for _, t := range ContentTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown content type %q", s)
}

func (t ContentType) String() string { return string(t) }

// Item represents a row in one of the per-type content tables. The tables
// are structurally identical; only the table name differs.
type Item struct {
	ID            string      `db:"id" json:"id"`
	Type          ContentType `db:"-" json:"type"`
	Title         string      `db:"title" json:"title"`
	Body          string      `db:"body" json:"body"`
	AuthorID      string      `db:"author_id" json:"author_id"`
	CreatedAt     time.Time   `db:"created_at" json:"created_at"`
	ViewCount     int64       `db:"view_count" json:"view_count"`
	ReactionCount int64       `db:"reaction_count" json:"reaction_count"`
	CommentCount  int64       `db:"comment_count" json:"comment_count"`
	ShareCount    int64       `db:"share_count" json:"share_count"`
}
