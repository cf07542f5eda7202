package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"reviewlist/internal/adapters/imagecache"
	"reviewlist/internal/app"
	"reviewlist/internal/domain"
	"reviewlist/internal/layout"
	"reviewlist/internal/typeset"
)

const (
	defaultWidth   = 375.0
	refreshTimeout = 10 * time.Second
	maxErrors      = 16
)

// ScreenHandlers drive a review list over HTTP, standing in for a list
// widget: the client asks for rows at a width and reports scroll positions.
type ScreenHandlers struct {
	List   *app.List
	Images domain.ImageResolver

	mu     sync.Mutex
	errors []*domain.FetchError
}

// ReportError is the list's error callback. Errors queue until a client reads them.
func (h *ScreenHandlers) ReportError(err *domain.FetchError) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.errors) == maxErrors {
		h.errors = h.errors[1:]
	}
	h.errors = append(h.errors, err)
}

func (s *Server) MountScreen(h *ScreenHandlers) {
	s.mux.Route("/v1/screen", func(r chi.Router) {
		r.Get("/", h.state)
		r.Get("/rows", h.rows)
		r.Get("/errors", h.drainErrors)
		r.Get("/images", h.image)
		r.Post("/load", h.load)
		r.Post("/refresh", h.refresh)
		r.Post("/scroll", h.scroll)
		r.Post("/rows/{id}/expand", h.expand)
	})
}

// ---- views ----

type stateView struct {
	Phase          string `json:"phase"`
	Rows           int    `json:"rows"`
	RowCount       int    `json:"row_count"`
	Offset         int    `json:"offset"`
	PageSize       int    `json:"page_size"`
	TotalCount     int    `json:"total_count"`
	IsLoading      bool   `json:"is_loading"`
	ShouldLoadMore bool   `json:"should_load_more"`
}

func newStateView(s app.State) stateView {
	return stateView{
		Phase:          s.Phase().String(),
		Rows:           len(s.Rows),
		RowCount:       s.RowCount(),
		Offset:         s.Offset,
		PageSize:       s.PageSize,
		TotalCount:     s.TotalCount,
		IsLoading:      s.IsLoading,
		ShouldLoadMore: s.ShouldLoadMore,
	}
}

type rectView struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

func newRect(r layout.Rect) *rectView {
	if r.IsZero() {
		return nil
	}
	return &rectView{X: r.X, Y: r.Y, W: r.W, H: r.H}
}

type textView struct {
	Text  string    `json:"text"`
	Color string    `json:"color"`
	Size  float64   `json:"size"`
	Rect  *rectView `json:"rect,omitempty"`
	// MaxLines is 0 when unlimited.
	MaxLines *int `json:"max_lines,omitempty"`
}

func newText(b typeset.Block, r layout.Rect) *textView {
	if b.IsEmpty() {
		return nil
	}
	v := &textView{
		Text:  b.Text,
		Color: hexColor(b),
		Rect:  newRect(r),
	}
	if b.Font != nil {
		v.Size = b.Font.Size()
	}
	return v
}

func hexColor(b typeset.Block) string {
	return fmt.Sprintf("#%02x%02x%02x", b.Color.R, b.Color.G, b.Color.B)
}

type imageView struct {
	Ref    string    `json:"ref"`
	URL    string    `json:"url,omitempty"`
	Rect   *rectView `json:"rect"`
	Loaded bool      `json:"loaded"`
}

type rowView struct {
	Index    int          `json:"index"`
	Kind     string       `json:"kind"`
	Height   *float64     `json:"height,omitempty"`
	ID       string       `json:"id,omitempty"`
	Name     *textView    `json:"name,omitempty"`
	Rating   int          `json:"rating,omitempty"`
	Stars    *textView    `json:"stars,omitempty"`
	Avatar   *imageView   `json:"avatar,omitempty"`
	Photos   []imageView  `json:"photos,omitempty"`
	Text     *textView    `json:"text,omitempty"`
	ShowMore *textView    `json:"show_more,omitempty"`
	Created  *textView    `json:"created,omitempty"`
	Summary  *summaryView `json:"summary,omitempty"`
}

type summaryView struct {
	Count int       `json:"count"`
	Label *textView `json:"label"`
}

// ---- sink ----

// jsonSink records what the list configures into one row.
type jsonSink struct {
	mu      sync.Mutex
	review  *app.ReviewCell
	summary *app.SummaryCell
	loaded  map[app.ImageSlot]bool
}

func (s *jsonSink) ConfigureReview(c app.ReviewCell) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.review = &c
	s.loaded = map[app.ImageSlot]bool{}
}

func (s *jsonSink) ConfigureSummary(c app.SummaryCell) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summary = &c
}

func (s *jsonSink) BoundRef(slot app.ImageSlot) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.review == nil {
		return ""
	}
	switch {
	case slot.Kind == app.SlotAvatar:
		return s.review.AvatarRef
	case slot.Index < len(s.review.PhotoRefs):
		return s.review.PhotoRefs[slot.Index]
	}
	return ""
}

func (s *jsonSink) SetImage(slot app.ImageSlot, img []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded != nil {
		s.loaded[slot] = img != nil
	}
}

func (s *jsonSink) view(index int, height float64) rowView {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := rowView{Index: index}
	if s.summary != nil {
		v.Kind = "summary"
		v.Summary = &summaryView{Count: s.summary.Count, Label: newText(s.summary.Label, layout.Rect{})}
		return v
	}
	c := s.review
	if c == nil {
		return v
	}
	g := c.Geometry
	v.Kind = "review"
	v.Height = &height
	v.ID = c.ID.String()
	v.Name = newText(c.Name, g.Name)
	v.Rating = c.Rating
	v.Stars = newText(c.Stars, g.Rating)
	v.Text = newText(c.Text, g.Text)
	if v.Text != nil {
		ml := c.MaxLines
		v.Text.MaxLines = &ml
	}
	if g.NeedsShowMore {
		v.ShowMore = newText(c.ShowMore, g.ShowMore)
	}
	v.Created = newText(c.Created, g.Created)
	v.Avatar = &imageView{
		Ref:    c.AvatarRef,
		URL:    imageURL(c.AvatarRef),
		Rect:   newRect(g.Avatar),
		Loaded: s.loaded[app.ImageSlot{Kind: app.SlotAvatar}],
	}
	for i, ref := range c.PhotoRefs {
		v.Photos = append(v.Photos, imageView{
			Ref:    ref,
			URL:    imageURL(ref),
			Rect:   newRect(g.Photos[i]),
			Loaded: s.loaded[app.ImageSlot{Kind: app.SlotPhoto, Index: i}],
		})
	}
	return v
}

func imageURL(ref string) string {
	if ref == "" {
		return ""
	}
	return "/v1/screen/images?ref=" + url.QueryEscape(ref)
}

// ---- handlers ----

func (h *ScreenHandlers) state(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newStateView(h.List.Snapshot()))
}

func (h *ScreenHandlers) rows(w http.ResponseWriter, r *http.Request) {
	width := defaultWidth
	if ws := r.URL.Query().Get("width"); ws != "" {
		n, ok := intParam(r, "width", 0, 1, 10000)
		if !ok {
			writeProblem(w, http.StatusBadRequest, "Invalid width", "width must be an integer between 1 and 10000")
			return
		}
		width = float64(n)
	}
	from, ok := intParam(r, "from", 0, 0, math.MaxInt32)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid from", "from must be a non-negative integer")
		return
	}
	to, ok := intParam(r, "to", -1, 0, math.MaxInt32)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid to", "to must be a non-negative integer")
		return
	}

	sinks := map[int]*jsonSink{}
	st, heights, err := h.List.PopulateRange(from, to, width, func(i int) app.CellSink {
		sinks[i] = &jsonSink{}
		return sinks[i]
	})
	if errors.Is(err, app.ErrRowRange) {
		writeProblem(w, http.StatusBadRequest, "Invalid range", "from and to must lie within the row count")
		return
	}
	out := make([]rowView, 0, len(heights))
	for j, height := range heights {
		out = append(out, sinks[from+j].view(from+j, height))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"state": newStateView(st),
		"width": width,
		"rows":  out,
	})
}

func (h *ScreenHandlers) drainErrors(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	errs := h.errors
	h.errors = nil
	h.mu.Unlock()

	type errView struct {
		Kind    string `json:"kind"`
		Message string `json:"message"`
	}
	out := make([]errView, 0, len(errs))
	for _, e := range errs {
		out = append(out, errView{Kind: e.Kind.String(), Message: e.Message()})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *ScreenHandlers) image(w http.ResponseWriter, r *http.Request) {
	ref := r.URL.Query().Get("ref")
	if ref == "" {
		writeProblem(w, http.StatusBadRequest, "Missing ref", "ref is required")
		return
	}
	if h.Images == nil {
		writeProblem(w, http.StatusNotFound, "Not Found", "images are disabled")
		return
	}
	img := h.Images.Resolve(r.Context(), ref)
	if img == nil {
		writeProblem(w, http.StatusNotFound, "Not Found", "image unavailable")
		return
	}
	if format, err := imagecache.Format(img); err == nil {
		w.Header().Set("Content-Type", "image/"+format)
	}
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(img); err != nil {
		log.Error().Err(err).Msg("failed to write image body")
	}
}

func (h *ScreenHandlers) load(w http.ResponseWriter, r *http.Request) {
	h.List.Load()
	writeJSON(w, http.StatusAccepted, newStateView(h.List.Snapshot()))
}

func (h *ScreenHandlers) refresh(w http.ResponseWriter, r *http.Request) {
	done := make(chan struct{})
	h.List.Refresh(func() { close(done) })

	ctx, cancel := context.WithTimeout(r.Context(), refreshTimeout)
	defer cancel()
	select {
	case <-done:
		writeJSON(w, http.StatusOK, newStateView(h.List.Snapshot()))
	case <-ctx.Done():
		writeJSON(w, http.StatusAccepted, newStateView(h.List.Snapshot()))
	}
}

type scrollRequest struct {
	TargetOffsetY  float64 `json:"target_offset_y"`
	ContentHeight  float64 `json:"content_height"`
	ViewportHeight float64 `json:"viewport_height"`
}

func (h *ScreenHandlers) scroll(w http.ResponseWriter, r *http.Request) {
	var req scrollRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid body", err.Error())
		return
	}
	if req.ViewportHeight <= 0 || req.ContentHeight < 0 {
		writeProblem(w, http.StatusBadRequest, "Invalid body", "viewport_height must be positive")
		return
	}
	requested := h.List.Scrolled(req.TargetOffsetY, req.ContentHeight, req.ViewportHeight)
	writeJSON(w, http.StatusOK, map[string]any{"load_requested": requested})
}

func (h *ScreenHandlers) expand(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a UUID")
		return
	}
	h.List.Expand(id)
	w.WriteHeader(http.StatusNoContent)
}
