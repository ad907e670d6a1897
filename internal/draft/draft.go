// Package draft persists user drafts and lets observers follow changes to them.
package draft

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/debemdeboas/stylus/internal/apperror"
)

var draftLogger = zerolog.Nop()

func SetLogger(l zerolog.Logger) {
	draftLogger = l
}

type ID string

// NewID returns a fresh random draft id.
func NewID() ID {
	return ID(uuid.New().String())
}

type Draft struct {
	ID      ID     `json:"id"`
	Content string `json:"content"`

	// Persisted with millisecond precision.
	LastModified time.Time `json:"last_modified"`

	// Derived from Content at save time; may be stale until the next save.
	ContentPreview *string `json:"content_preview,omitempty"`

	// Unused by any workflow.
	Title *string `json:"title,omitempty"`
}

var ErrNotFound = apperror.New(apperror.KindNotFound, "draft not found")

type Store interface {
	// Upsert inserts d or fully replaces the record with the same id.
	Upsert(ctx context.Context, d Draft) error
	// Get returns ErrNotFound when no record has the id.
	Get(ctx context.Context, id ID) (*Draft, error)
	// Delete succeeds when the id does not exist.
	Delete(ctx context.Context, id ID) error
	// List orders drafts by LastModified, newest first.
	List(ctx context.Context) ([]Draft, error)
}

const Ellipsis = "..."

// Preview cuts content to max runes, appending Ellipsis only when something was cut.
func Preview(content string, max int) string {
	if max < 0 || utf8.RuneCountInString(content) <= max {
		return content
	}

	var b strings.Builder
	n := 0
	for _, r := range content {
		if n == max {
			break
		}
		b.WriteRune(r)
		n++
	}
	b.WriteString(Ellipsis)
	return b.String()
}

func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
