package draft

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/debemdeboas/stylus/internal/apperror"
	"github.com/debemdeboas/stylus/internal/db"
)

type SQLStore struct {
	db db.DB

	// Serializes writers; the last write to an id wins.
	writeMu sync.Mutex
}

func NewSQLStore(db db.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Upsert(ctx context.Context, d Draft) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO drafts (id, content, last_modified, content_preview, title) VALUES (?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    content = excluded.content,
    last_modified = excluded.last_modified,
    content_preview = excluded.content_preview,
    title = excluded.title`,
		string(d.ID), d.Content, d.LastModified.UnixMilli(), nullString(d.ContentPreview), nullString(d.Title),
	)
	if err != nil {
		return apperror.Storage(err, "could not save draft")
	}

	draftLogger.Debug().Str("draft_id", string(d.ID)).Interface("result", res).Msg("Draft saved")
	return nil
}

func (s *SQLStore) Get(ctx context.Context, id ID) (*Draft, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, content, last_modified, content_preview, title FROM drafts WHERE id = ?`, string(id))

	d, err := scanDraft(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, apperror.Storage(err, "could not load draft")
	}
	return d, nil
}

func (s *SQLStore) Delete(ctx context.Context, id ID) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM drafts WHERE id = ?`, string(id))
	if err != nil {
		return apperror.Storage(err, "could not delete draft")
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		draftLogger.Debug().Str("draft_id", string(id)).Msg("Delete of missing draft ignored")
	}
	return nil
}

func (s *SQLStore) List(ctx context.Context) ([]Draft, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, content, last_modified, content_preview, title FROM drafts ORDER BY last_modified DESC`)
	if err != nil {
		return nil, apperror.Storage(err, "could not list drafts")
	}
	defer rows.Close()

	drafts := make([]Draft, 0)
	for rows.Next() {
		d, err := scanDraft(rows)
		if err != nil {
			return nil, apperror.Storage(err, "could not read draft")
		}
		drafts = append(drafts, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Storage(err, "could not list drafts")
	}
	return drafts, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDraft(row scanner) (*Draft, error) {
	var d Draft
	var id string
	var lastModified int64
	var preview, title sql.NullString

	if err := row.Scan(&id, &d.Content, &lastModified, &preview, &title); err != nil {
		return nil, err
	}

	d.ID = ID(id)
	d.LastModified = time.UnixMilli(lastModified)
	if preview.Valid {
		d.ContentPreview = &preview.String
	}
	if title.Valid {
		d.Title = &title.String
	}
	return &d, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
