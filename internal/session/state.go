package session

import (
	"fmt"
	"strings"

	"github.com/debemdeboas/stylus/internal/draft"
	"github.com/debemdeboas/stylus/internal/grammar"
	"github.com/debemdeboas/stylus/internal/resource"
)

type Phase int

const (
	PhaseUninitialized Phase = iota
	PhaseLoading
	PhaseReady
)

func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// State is a snapshot of a session. Correction is Empty when no check is
// pending or shown.
type State struct {
	Phase      Phase                                      `json:"phase"`
	DraftID    draft.ID                                   `json:"draft_id,omitempty"`
	Content    string                                     `json:"content"`
	Correction resource.Resource[grammar.CorrectionResult] `json:"correction"`
}

// NoChangesNeeded reports whether a ready correction leaves the text as it is.
func (s State) NoChangesNeeded() bool {
	result, ok := s.Correction.Data()
	if !ok {
		return false
	}
	return strings.TrimSpace(result.CorrectedText) == strings.TrimSpace(s.Content)
}
