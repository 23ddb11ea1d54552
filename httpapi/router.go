// Package httpapi serves Guard operations as a small JSON HTTP API.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/SamuelRCrider/piiguard"
	"github.com/SamuelRCrider/piiguard/core"
	"github.com/SamuelRCrider/piiguard/utils"
)

// maxBodyBytes bounds request bodies
const maxBodyBytes = 1 << 20

type anonymizeRequest struct {
	Text      string `json:"text"`
	SessionID string `json:"sessionId"`
}

type restoreRequest struct {
	AnonymizedText string `json:"anonymizedText"`
	SessionID      string `json:"sessionId"`
}

type errorResponse struct {
	Error    string `json:"error"`
	Category string `json:"category,omitempty"`
}

type handler struct {
	guard  *piiguard.Guard
	logger *utils.Logger
}

// NewRouter builds the HTTP routes for guard
func NewRouter(guard *piiguard.Guard, logger *utils.Logger) http.Handler {
	if logger == nil {
		logger = utils.Discard()
	}
	h := &handler{guard: guard, logger: logger.WithPrefix("http")}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "piiguard"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Post("/anonymize", h.anonymize)
		r.Post("/restore", h.restore)
		r.Delete("/sessions/{sessionID}", h.clearSession)
		r.Get("/stats", h.stats)
	})

	return r
}

// logRequests logs method, route and status only; bodies may carry PII
func (h *handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (h *handler) anonymize(w http.ResponseWriter, r *http.Request) {
	var req anonymizeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.guard.DetectAndAnonymize(req.Text, req.SessionID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *handler) restore(w http.ResponseWriter, r *http.Request) {
	var req restoreRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.guard.Restore(req.AnonymizedText, req.SessionID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *handler) clearSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if err := h.guard.ClearSession(sessionID); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"cleared": true, "sessionId": sessionID})
}

func (h *handler) stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.guard.StoreStats())
}

func (h *handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, core.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, core.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, core.ErrStoreClosed):
		status = http.StatusServiceUnavailable
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "error", err.Error())
	}

	writeJSON(w, status, errorResponse{Error: err.Error(), Category: string(core.CategoryOf(err))})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error(), Category: string(core.ErrorCategoryValidation)})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
