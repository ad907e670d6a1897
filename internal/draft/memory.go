package draft

import (
	"context"
	"slices"
	"time"

	"github.com/debemdeboas/stylus/internal/cache"
)

type MemoryStore struct {
	drafts *cache.Cache[ID, Draft]
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		drafts: cache.NewCache[ID, Draft](),
	}
}

func (m *MemoryStore) Upsert(ctx context.Context, d Draft) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.LastModified = time.UnixMilli(d.LastModified.UnixMilli())
	m.drafts.Set(d.ID, clone(d))
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, id ID) (*Draft, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if d, ok := m.drafts.Get(id); ok {
		c := clone(d)
		return &c, nil
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) Delete(ctx context.Context, id ID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.drafts.Delete(id)
	return nil
}

func (m *MemoryStore) List(ctx context.Context) ([]Draft, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	drafts := m.drafts.Values()
	for i := range drafts {
		drafts[i] = clone(drafts[i])
	}

	slices.SortStableFunc(drafts, func(a, b Draft) int {
		return -a.LastModified.Compare(b.LastModified)
	})
	return drafts, nil
}

// clone keeps callers from mutating the optional fields of a stored draft.
func clone(d Draft) Draft {
	if d.ContentPreview != nil {
		p := *d.ContentPreview
		d.ContentPreview = &p
	}
	if d.Title != nil {
		t := *d.Title
		d.Title = &t
	}
	return d
}
