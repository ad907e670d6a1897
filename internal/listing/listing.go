// Package listing projects stored drafts into the previews shown in the
// drafts list.
package listing

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/debemdeboas/stylus/internal/draft"
	"github.com/debemdeboas/stylus/internal/live"
	"github.com/debemdeboas/stylus/internal/metrics"
	"github.com/debemdeboas/stylus/internal/resource"
)

const (
	DefaultPreviewLength = 100
	DefaultDateLayout    = "Jan 02, 2006"

	LabelToday     = "Today"
	LabelYesterday = "Yesterday"
)

var listingLogger = zerolog.Nop()

func SetLogger(l zerolog.Logger) {
	listingLogger = l
}

type Preview struct {
	ID             draft.ID `json:"id"`
	ContentPreview string   `json:"content_preview"`
	Date           string   `json:"date"`
}

// Source is a store that can also push list changes, such as *draft.Live.
type Source interface {
	draft.Store
	WatchAll(ctx context.Context) <-chan draft.Snapshot
}

type Options struct {
	PreviewLength int
	DateLayout    string
	// Location decides where a day starts and ends; nil means time.Local.
	Location *time.Location
	Clock    func() time.Time
	Metrics  *metrics.Metrics
}

type Controller struct {
	store         Source
	previewLength int
	layout        string
	loc           *time.Location
	now           func() time.Time
	metrics       *metrics.Metrics
}

func NewController(store Source, opts Options) *Controller {
	if opts.PreviewLength <= 0 {
		opts.PreviewLength = DefaultPreviewLength
	}
	if opts.DateLayout == "" {
		opts.DateLayout = DefaultDateLayout
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	return &Controller{
		store:         store,
		previewLength: opts.PreviewLength,
		layout:        opts.DateLayout,
		loc:           opts.Location,
		now:           opts.Clock,
		metrics:       opts.Metrics,
	}
}

func (c *Controller) Previews(ctx context.Context) ([]Preview, error) {
	drafts, err := c.store.List(ctx)
	if err != nil {
		return nil, err
	}
	return c.project(drafts), nil
}

// Watch emits Loading, then the current previews, then fresh previews after
// every change to the store. A slow reader may skip intermediate lists but
// always gets the latest. The channel is closed when ctx is done.
func (c *Controller) Watch(ctx context.Context) <-chan resource.Resource[[]Preview] {
	snapshots := c.store.WatchAll(ctx)
	out := make(chan resource.Resource[[]Preview], 1)
	out <- resource.Loading[[]Preview]()

	go func() {
		defer close(out)
		first := true
		for snap := range snapshots {
			var r resource.Resource[[]Preview]
			if snap.Err != nil {
				listingLogger.Error().Err(snap.Err).Msg("Failed to list drafts")
				r = resource.FromError[[]Preview](snap.Err)
			} else {
				r = resource.Success(c.project(snap.Drafts))
			}

			// The Loading marker is never overwritten.
			if first {
				first = false
				select {
				case out <- r:
				case <-ctx.Done():
					return
				}
				continue
			}
			live.Offer(out, r)
		}
	}()

	return out
}

func (c *Controller) DeleteDraft(ctx context.Context, id draft.ID) error {
	if err := c.store.Delete(ctx, id); err != nil {
		listingLogger.Error().Err(err).Str("draft_id", string(id)).Msg("Failed to delete draft")
		return err
	}
	c.metrics.RecordDraftDeleted()
	listingLogger.Info().Str("draft_id", string(id)).Msg("Draft deleted from list")
	return nil
}

// FormatDate labels ts relative to now in the controller's location.
func (c *Controller) FormatDate(ts, now time.Time) string {
	return FormatDate(ts.In(c.loc), now.In(c.loc), c.layout)
}

func (c *Controller) project(drafts []draft.Draft) []Preview {
	now := c.now()
	previews := make([]Preview, 0, len(drafts))
	for _, d := range drafts {
		text := draft.Preview(d.Content, c.previewLength)
		if d.ContentPreview != nil {
			text = *d.ContentPreview
		}
		previews = append(previews, Preview{
			ID:             d.ID,
			ContentPreview: text,
			Date:           c.FormatDate(d.LastModified, now),
		})
	}
	return previews
}

// FormatDate returns "Today" or "Yesterday" when ts falls on the same or the
// previous calendar day as now, and ts formatted with layout otherwise. Days
// are taken in now's location.
func FormatDate(ts, now time.Time, layout string) string {
	ts = ts.In(now.Location())
	switch {
	case sameDay(ts, now):
		return LabelToday
	case sameDay(ts, now.AddDate(0, 0, -1)):
		return LabelYesterday
	default:
		return ts.Format(layout)
	}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
