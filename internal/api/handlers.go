package api

import (
	"encoding/json"
	"net/http"

	"github.com/debemdeboas/stylus/internal/draft"
	"github.com/debemdeboas/stylus/internal/listing"
	"github.com/debemdeboas/stylus/internal/resource"
	"github.com/debemdeboas/stylus/internal/session"
	"github.com/debemdeboas/stylus/internal/util"
)

type sessionView struct {
	SessionID string `json:"session_id"`
	session.State
	NoChanges bool `json:"no_changes_needed"`
}

func viewOf(sid string, st session.State) sessionView {
	return sessionView{SessionID: sid, State: st, NoChanges: st.NoChangesNeeded()}
}

type openRequest struct {
	DraftID draft.ID `json:"draft_id"`
}

type contentRequest struct {
	Content *string `json:"content"`
}

type saveResponse struct {
	DraftID draft.ID `json:"draft_id"`
}

type applyResponse struct {
	Applied bool `json:"applied"`
	sessionView
}

type sessionHandler func(w http.ResponseWriter, r *http.Request, sid string, c *session.Controller)

func (s *Server) withSession(h sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sid := r.PathValue("sid")
		c, ok := s.sessions.Get(sid)
		if !ok {
			writeJSON(w, http.StatusNotFound, errorBody{Error: "not_found", Message: "session not found"})
			return
		}
		h(w, r, sid, c)
	}
}

func (s *Server) serveDrafts(w http.ResponseWriter, r *http.Request) {
	previews, err := s.list.Previews(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	body, err := json.Marshal(previews)
	if err != nil {
		writeError(w, err)
		return
	}

	etag := util.ETag(body)
	w.Header().Set(HETag, etag)
	w.Header().Set(HCacheControl, "no-cache")
	if util.MatchesETag(r.Header.Get(HIfNoneMatch), etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set(HCType, CTypeJSON)
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

func (s *Server) serveDraftEvents(w http.ResponseWriter, r *http.Request) {
	stream(w, r, "drafts", s.list.Watch(r.Context()), func(v resource.Resource[[]listing.Preview]) any {
		return v
	})
}

func (s *Server) serveDeleteDraft(w http.ResponseWriter, r *http.Request) {
	if err := s.list.DeleteDraft(r.Context(), draft.ID(r.PathValue("id"))); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) serveOpenSession(w http.ResponseWriter, r *http.Request) {
	var req openRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	c := session.NewController(s.store, s.corrector, s.sessionOpts)
	if err := c.Open(r.Context(), req.DraftID); err != nil {
		writeError(w, err)
		return
	}

	sid := s.sessions.Add(c)
	apiLogger.Info().Str("session_id", sid).Str("draft_id", string(req.DraftID)).Msg("Session opened")
	writeJSON(w, http.StatusCreated, viewOf(sid, c.State()))
}

func (s *Server) serveSession(w http.ResponseWriter, r *http.Request, sid string, c *session.Controller) {
	writeJSON(w, http.StatusOK, viewOf(sid, c.State()))
}

func (s *Server) serveSessionEvents(w http.ResponseWriter, r *http.Request, sid string, c *session.Controller) {
	stream(w, r, "session", c.Subscribe(r.Context()), func(st session.State) any {
		return viewOf(sid, st)
	})
}

func (s *Server) serveEditContent(w http.ResponseWriter, r *http.Request, sid string, c *session.Controller) {
	var req contentRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if req.Content == nil {
		writeBadRequest(w, "content is required")
		return
	}

	c.EditContent(*req.Content)
	writeJSON(w, http.StatusOK, viewOf(sid, c.State()))
}

func (s *Server) serveSave(w http.ResponseWriter, r *http.Request, sid string, c *session.Controller) {
	var req contentRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	content := c.State().Content
	if req.Content != nil {
		content = *req.Content
	}

	id, err := c.Save(r.Context(), content)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saveResponse{DraftID: id})
}

func (s *Server) serveCheck(w http.ResponseWriter, r *http.Request, sid string, c *session.Controller) {
	result := c.CheckGrammar(r.Context())
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) serveApply(w http.ResponseWriter, r *http.Request, sid string, c *session.Controller) {
	applied := c.ApplyCorrection()
	writeJSON(w, http.StatusOK, applyResponse{Applied: applied, sessionView: viewOf(sid, c.State())})
}

func (s *Server) serveDismiss(w http.ResponseWriter, r *http.Request, sid string, c *session.Controller) {
	c.DismissCorrection()
	writeJSON(w, http.StatusOK, viewOf(sid, c.State()))
}

func (s *Server) serveDeleteSessionDraft(w http.ResponseWriter, r *http.Request, sid string, c *session.Controller) {
	err := c.DeleteCurrentDraft(r.Context(), func() {
		s.sessions.Remove(sid)
	})
	if err != nil {
		writeError(w, err)
		return
	}
	apiLogger.Info().Str("session_id", sid).Msg("Session closed after delete")
	w.WriteHeader(http.StatusNoContent)
}
