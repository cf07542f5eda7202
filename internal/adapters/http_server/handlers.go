// internal/adapters/http_server/handlers.go
package httpserver

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"reviewlist/internal/domain"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// ReviewLister serves pages of the review contract.
type ReviewLister interface {
	ListReviews(ctx context.Context, offset, limit int) (domain.ReviewsPage, error)
}

type Handlers struct{ Q ReviewLister }

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/v1/reviews", h.listReviews)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// calcETag hashes an already encoded body.
func calcETag(body []byte) string {
	sum := sha1.Sum(body)
	return `W/"` + hex.EncodeToString(sum[:]) + `"`
}

// intParam reads a non-negative query integer; ok is false when malformed.
func intParam(r *http.Request, name string, def, lo, hi int) (int, bool) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return def, true
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < lo || n > hi {
		return 0, false
	}
	return n, true
}

func (h *Handlers) listReviews(w http.ResponseWriter, r *http.Request) {
	offset, ok := intParam(r, "offset", 0, 0, 1<<31-1)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid offset", "offset must be a non-negative integer")
		return
	}
	limit, ok := intParam(r, "limit", defaultLimit, 1, maxLimit)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid limit", "limit must be an integer between 1 and 100")
		return
	}

	out, err := h.Q.ListReviews(r.Context(), offset, limit)
	if err != nil {
		log.Error().Err(err).Int("offset", offset).Int("limit", limit).Msg("list reviews failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "reviews unavailable")
		return
	}

	body, err := domain.EncodePage(out)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal reviews page")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "encoding failed")
		return
	}
	etag := calcETag(body)
	// If client already has this version, short-circuit.
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag) // include ETag on 304
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write listReviews body")
	}
}
