// Package api exposes drafts and editing sessions over HTTP, with
// server-sent event streams for live updates.
package api

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/debemdeboas/stylus/internal/draft"
	"github.com/debemdeboas/stylus/internal/listing"
	"github.com/debemdeboas/stylus/internal/metrics"
	"github.com/debemdeboas/stylus/internal/session"
)

var apiLogger = zerolog.Nop()

func SetLogger(l zerolog.Logger) {
	apiLogger = l
}

const DefaultSessionTTL = 30 * time.Minute

type Options struct {
	SessionTTL time.Duration
	// Session configures every controller the server opens.
	Session session.Options
	Metrics *metrics.Metrics
}

type Server struct {
	store     draft.Store
	list      *listing.Controller
	corrector session.Corrector
	sessions  *Registry

	sessionOpts session.Options
	metrics     *metrics.Metrics
}

func NewServer(store draft.Store, list *listing.Controller, corrector session.Corrector, opts Options) *Server {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = DefaultSessionTTL
	}
	opts.Session.Metrics = opts.Metrics

	s := &Server{
		store:       store,
		list:        list,
		corrector:   corrector,
		sessions:    NewRegistry(opts.SessionTTL),
		sessionOpts: opts.Session,
		metrics:     opts.Metrics,
	}

	opts.Metrics.RegisterGaugeFunc("sessions_open", "Editing sessions currently held in memory", func() float64 {
		return float64(s.sessions.Len())
	})
	return s
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.Handle("GET /metrics", s.metrics.Handler())

	mux.HandleFunc("GET /api/drafts", s.serveDrafts)
	mux.HandleFunc("GET /api/drafts/events", s.serveDraftEvents)
	mux.HandleFunc("DELETE /api/drafts/{id}", s.serveDeleteDraft)

	mux.HandleFunc("POST /api/sessions", s.serveOpenSession)
	mux.HandleFunc("GET /api/sessions/{sid}", s.withSession(s.serveSession))
	mux.HandleFunc("GET /api/sessions/{sid}/events", s.withSession(s.serveSessionEvents))
	mux.HandleFunc("PUT /api/sessions/{sid}/content", s.withSession(s.serveEditContent))
	mux.HandleFunc("POST /api/sessions/{sid}/save", s.withSession(s.serveSave))
	mux.HandleFunc("POST /api/sessions/{sid}/check", s.withSession(s.serveCheck))
	mux.HandleFunc("POST /api/sessions/{sid}/apply", s.withSession(s.serveApply))
	mux.HandleFunc("POST /api/sessions/{sid}/dismiss", s.withSession(s.serveDismiss))
	mux.HandleFunc("DELETE /api/sessions/{sid}/draft", s.withSession(s.serveDeleteSessionDraft))

	return logRequests(secureHeaders(mux))
}

func secureHeaders(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Frame-Options", "deny")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		h.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Flush keeps SSE streaming working through the recorder.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func logRequests(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h.ServeHTTP(rec, r)
		apiLogger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("elapsed", time.Since(start)).
			Msg("Request served")
	})
}
