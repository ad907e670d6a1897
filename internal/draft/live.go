package draft

import (
	"context"
	"errors"

	"github.com/debemdeboas/stylus/internal/live"
)

// Lookup is one observation of a single draft. Draft is nil when the draft
// does not exist.
type Lookup struct {
	Draft *Draft
	Err   error
}

// Snapshot is one observation of the full draft list.
type Snapshot struct {
	Drafts []Draft
	Err    error
}

// Live decorates a Store so that observers are told about every write.
type Live struct {
	Store
	changes *live.Broker[ID]
}

func NewLive(s Store) *Live {
	return &Live{
		Store:   s,
		changes: live.NewBroker[ID](),
	}
}

func (l *Live) Upsert(ctx context.Context, d Draft) error {
	if err := l.Store.Upsert(ctx, d); err != nil {
		return err
	}
	l.changes.Publish(string(d.ID), d.ID)
	return nil
}

func (l *Live) Delete(ctx context.Context, id ID) error {
	if err := l.Store.Delete(ctx, id); err != nil {
		return err
	}
	l.changes.Publish(string(id), id)
	return nil
}

// Watch emits the current state of the draft and a fresh lookup after each
// write to it. Intermediate states may be skipped; the latest one is always
// delivered. The channel is closed when ctx is done.
func (l *Live) Watch(ctx context.Context, id ID) <-chan Lookup {
	sub := l.changes.SubscribeContext(ctx, string(id))
	out := make(chan Lookup, 1)

	go func() {
		defer close(out)
		for {
			d, err := l.Store.Get(ctx, id)
			if ctx.Err() != nil {
				return
			}
			if errors.Is(err, ErrNotFound) {
				err = nil
			}
			live.Offer(out, Lookup{Draft: d, Err: err})

			if _, ok := <-sub.C(); !ok {
				return
			}
		}
	}()

	return out
}

// WatchAll emits the draft list now and after every write to any draft.
func (l *Live) WatchAll(ctx context.Context) <-chan Snapshot {
	sub := l.changes.SubscribeContext(ctx, live.AnyTopic)
	out := make(chan Snapshot, 1)

	go func() {
		defer close(out)
		for {
			drafts, err := l.Store.List(ctx)
			if ctx.Err() != nil {
				return
			}
			live.Offer(out, Snapshot{Drafts: drafts, Err: err})

			if _, ok := <-sub.C(); !ok {
				return
			}
		}
	}()

	return out
}
