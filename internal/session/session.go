// Package session drives the editing of a single draft: loading, editing,
// saving, grammar checking and deleting it.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/debemdeboas/stylus/internal/apperror"
	"github.com/debemdeboas/stylus/internal/draft"
	"github.com/debemdeboas/stylus/internal/grammar"
	"github.com/debemdeboas/stylus/internal/live"
	"github.com/debemdeboas/stylus/internal/metrics"
	"github.com/debemdeboas/stylus/internal/resource"
)

const DefaultPreviewLength = 150

var sessionLogger = zerolog.Nop()

func SetLogger(l zerolog.Logger) {
	sessionLogger = l
}

// ErrEmptyContent is returned when saving blank text into a draft that does
// not exist yet.
var ErrEmptyContent = apperror.Validation("Nothing to save")

// Corrector is the part of the grammar client the controller needs.
type Corrector interface {
	Correct(ctx context.Context, text, language string) (*grammar.CorrectionResult, error)
}

type Options struct {
	Language      string
	PreviewLength int
	Clock         func() time.Time
	Metrics       *metrics.Metrics
}

type Controller struct {
	store     draft.Store
	corrector Corrector

	language      string
	previewLength int
	now           func() time.Time
	metrics       *metrics.Metrics

	// saveMu keeps two saves of a new draft from minting two ids.
	saveMu sync.Mutex

	mu    sync.Mutex
	state State
	// seq identifies the newest correction request; older completions are dropped.
	seq uint64

	changes *live.Broker[State]
}

func NewController(store draft.Store, corrector Corrector, opts Options) *Controller {
	if opts.Language == "" {
		opts.Language = grammar.DefaultLanguage
	}
	if opts.PreviewLength <= 0 {
		opts.PreviewLength = DefaultPreviewLength
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	return &Controller{
		store:         store,
		corrector:     corrector,
		language:      opts.Language,
		previewLength: opts.PreviewLength,
		now:           opts.Clock,
		metrics:       opts.Metrics,
		state:         State{Correction: resource.Empty[grammar.CorrectionResult]()},
		changes:       live.NewBroker[State](),
	}
}

// update applies fn to the state under the lock and publishes the result.
func (c *Controller) update(fn func(s *State)) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.state)
	st := c.state
	c.changes.Publish(live.AnyTopic, st)
	return st
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe delivers the current state followed by every later change,
// skipping intermediate states a slow reader missed. The channel is closed
// when ctx is done.
func (c *Controller) Subscribe(ctx context.Context) <-chan State {
	sub := c.changes.SubscribeContext(ctx, live.AnyTopic)
	out := make(chan State, 1)
	out <- c.State()

	go func() {
		defer close(out)
		for st := range sub.C() {
			live.Offer(out, st)
		}
	}()

	return out
}

// Open prepares the session for an existing draft, or for a new one when id
// is empty. A draft id that is not in the store yields an empty buffer that
// will be saved under that id.
func (c *Controller) Open(ctx context.Context, id draft.ID) error {
	if id == "" {
		c.update(func(s *State) {
			c.seq++
			*s = State{Phase: PhaseReady, Correction: resource.Empty[grammar.CorrectionResult]()}
		})
		return nil
	}

	c.update(func(s *State) {
		c.seq++
		*s = State{Phase: PhaseLoading, DraftID: id, Correction: resource.Empty[grammar.CorrectionResult]()}
	})

	d, err := c.store.Get(ctx, id)
	if err != nil && !errors.Is(err, draft.ErrNotFound) {
		sessionLogger.Error().Err(err).Str("draft_id", string(id)).Msg("Failed to load draft")
		c.update(func(s *State) {
			*s = State{Correction: resource.Empty[grammar.CorrectionResult]()}
		})
		return err
	}

	c.update(func(s *State) {
		s.Phase = PhaseReady
		if d != nil {
			s.Content = d.Content
		}
	})
	sessionLogger.Debug().Str("draft_id", string(id)).Bool("found", d != nil).Msg("Draft opened")
	return nil
}

func (c *Controller) EditContent(text string) {
	c.update(func(s *State) {
		c.seq++
		s.Content = text
		s.Correction = resource.Empty[grammar.CorrectionResult]()
	})
}

// Save persists content under the session's draft id, minting one on the
// first successful save, and returns the id.
func (c *Controller) Save(ctx context.Context, content string) (draft.ID, error) {
	c.saveMu.Lock()
	defer c.saveMu.Unlock()

	id := c.State().DraftID
	if id == "" && draft.IsBlank(content) {
		return "", ErrEmptyContent
	}

	target := id
	if target == "" {
		target = draft.NewID()
	}

	preview := draft.Preview(content, c.previewLength)
	d := draft.Draft{
		ID:             target,
		Content:        content,
		LastModified:   c.now(),
		ContentPreview: &preview,
	}
	if err := c.store.Upsert(ctx, d); err != nil {
		sessionLogger.Error().Err(err).Str("draft_id", string(target)).Msg("Failed to save draft")
		return "", err
	}
	c.metrics.RecordDraftSaved()

	c.update(func(s *State) {
		s.DraftID = target
		if s.Content != content {
			c.seq++
			s.Content = content
			s.Correction = resource.Empty[grammar.CorrectionResult]()
		}
	})
	sessionLogger.Info().Str("draft_id", string(target)).Bool("created", id == "").Msg("Draft saved")
	return target, nil
}

// CheckGrammar sends the trimmed buffer to the correction service and returns
// the outcome. If the buffer or correction state changed while the request
// was in flight, the outcome is returned but not stored.
func (c *Controller) CheckGrammar(ctx context.Context) resource.Resource[grammar.CorrectionResult] {
	c.mu.Lock()
	c.seq++
	seq := c.seq
	text := strings.TrimSpace(c.state.Content)
	if text == "" {
		blank := resource.Error[grammar.CorrectionResult](grammar.ErrMsgEmptyText)
		c.state.Correction = blank
		c.changes.Publish(live.AnyTopic, c.state)
		c.mu.Unlock()
		return blank
	}
	c.state.Correction = resource.Loading[grammar.CorrectionResult]()
	c.changes.Publish(live.AnyTopic, c.state)
	c.mu.Unlock()

	result, err := c.corrector.Correct(ctx, text, c.language)
	if err == nil && result == nil {
		err = apperror.Protocol(nil, grammar.ErrMsgEmptyResponse)
	}

	var outcome resource.Resource[grammar.CorrectionResult]
	if err != nil {
		outcome = resource.FromError[grammar.CorrectionResult](err)
	} else {
		outcome = resource.Success(*result)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.seq {
		sessionLogger.Debug().Uint64("seq", seq).Uint64("current", c.seq).Msg("Discarding stale correction")
		return outcome
	}
	c.state.Correction = outcome
	c.changes.Publish(live.AnyTopic, c.state)
	return outcome
}

// ApplyCorrection replaces the buffer with the corrected text. It reports
// false, changing nothing, unless a non-blank correction is ready.
func (c *Controller) ApplyCorrection() bool {
	applied := false
	c.update(func(s *State) {
		result, ok := s.Correction.Data()
		if !ok || draft.IsBlank(result.CorrectedText) {
			return
		}
		c.seq++
		s.Content = result.CorrectedText
		s.Correction = resource.Empty[grammar.CorrectionResult]()
		applied = true
	})
	return applied
}

func (c *Controller) DismissCorrection() {
	c.update(func(s *State) {
		c.seq++
		s.Correction = resource.Empty[grammar.CorrectionResult]()
	})
}

// DeleteCurrentDraft removes the session's draft, if it has one, and resets
// the session. onDone runs only when the reset happened.
func (c *Controller) DeleteCurrentDraft(ctx context.Context, onDone func()) error {
	c.saveMu.Lock()
	defer c.saveMu.Unlock()

	id := c.State().DraftID
	if id != "" {
		if err := c.store.Delete(ctx, id); err != nil {
			sessionLogger.Error().Err(err).Str("draft_id", string(id)).Msg("Failed to delete draft")
			return err
		}
		c.metrics.RecordDraftDeleted()
		sessionLogger.Info().Str("draft_id", string(id)).Msg("Draft deleted")
	}

	c.update(func(s *State) {
		c.seq++
		*s = State{Phase: PhaseReady, Correction: resource.Empty[grammar.CorrectionResult]()}
	})

	if onDone != nil {
		onDone()
	}
	return nil
}
