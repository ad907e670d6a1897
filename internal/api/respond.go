package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/debemdeboas/stylus/internal/apperror"
)

const (
	HCType        = "Content-Type"
	HETag         = "ETag"
	HCacheControl = "Cache-Control"
	HIfNoneMatch  = "If-None-Match"

	CTypeJSON        = "application/json"
	CTypeEventStream = "text/event-stream"
)

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set(HCType, CTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		apiLogger.Error().Err(err).Msg("Failed to encode response")
	}
}

func statusFor(kind apperror.Kind) int {
	switch kind {
	case apperror.KindValidation:
		return http.StatusUnprocessableEntity
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindTransport, apperror.KindProtocol, apperror.KindService:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	kind := apperror.KindOf(err)
	status := statusFor(kind)
	if status >= http.StatusInternalServerError {
		apiLogger.Error().Stack().Err(err).Str("kind", kind.String()).Msg("Request failed")
	}
	writeJSON(w, status, errorBody{Error: kind.String(), Message: apperror.MessageOf(err)})
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: "bad_request", Message: msg})
}

// decodeBody decodes an optional JSON body into v; an empty body leaves v untouched.
func decodeBody(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// stream relays values from ch to the client as server-sent events until
// ch closes or the client goes away.
func stream[T any](w http.ResponseWriter, r *http.Request, event string, ch <-chan T, view func(T) any) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set(HCType, CTypeEventStream)
	w.Header().Set(HCacheControl, "no-cache")
	w.Header().Set("Connection", "keep-alive")

	fmt.Fprintf(w, "event: connected\ndata: SSE connection established\n\n")
	flusher.Flush()

	apiLogger.Debug().Str("path", r.URL.Path).Msg("SSE client connected")
	defer apiLogger.Debug().Str("path", r.URL.Path).Msg("SSE client disconnected")

	notify := r.Context().Done()
	for {
		select {
		case v, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(view(v))
			if err != nil {
				apiLogger.Error().Err(err).Msg("Failed to encode event")
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
			flusher.Flush()
		case <-notify:
			return
		}
	}
}
