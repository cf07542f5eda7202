package app

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"reviewlist/internal/adapters/observability"
	"reviewlist/internal/domain"
	"reviewlist/internal/layout"
	"reviewlist/internal/typeset"
)

const (
	DefaultPageSize        = 20
	DefaultPrefetchScreens = 2.5
)

// ErrRowRange is returned by PopulateRange for bounds outside the row count.
var ErrRowRange = errors.New("list: row range out of bounds")

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoadingFirstPage
	PhasePopulated
	PhaseLoadingNextPage
)

func (p Phase) String() string {
	switch p {
	case PhaseLoadingFirstPage:
		return "loading_first_page"
	case PhasePopulated:
		return "populated"
	case PhaseLoadingNextPage:
		return "loading_next_page"
	default:
		return "idle"
	}
}

// State is a snapshot of the list. Rows is a copy; descriptors are values.
type State struct {
	Rows           []layout.Descriptor
	Offset         int
	PageSize       int
	TotalCount     int
	IsLoading      bool
	ShouldLoadMore bool
}

// RowCount is the number of widget rows: every review plus the summary row.
func (s State) RowCount() int { return len(s.Rows) + 1 }

func (s State) Phase() Phase {
	switch {
	case s.IsLoading && len(s.Rows) == 0:
		return PhaseLoadingFirstPage
	case s.IsLoading:
		return PhaseLoadingNextPage
	case len(s.Rows) > 0:
		return PhasePopulated
	default:
		return PhaseIdle
	}
}

type Options struct {
	Provider domain.FetchProvider
	// Images may be nil; every image slot then shows its placeholder.
	Images domain.ImageResolver
	Engine *layout.Engine
	Fonts  *typeset.Fonts

	PageSize        int
	MaxLines        int
	PrefetchScreens float64

	// OnStateChange and OnError run on the list's owner goroutine. They must
	// not call the blocking accessors (Snapshot, RowCount, RowHeight,
	// Populate, Close); Load, Refresh, Expand and Scrolled are safe.
	OnStateChange func(State)
	OnError       func(*domain.FetchError)

	Logger *zerolog.Logger
}

type geometryKey struct {
	id       uuid.UUID
	expanded bool
	width    float64
}

// List is the incremental-loading state machine behind a review list.
type List struct {
	provider domain.FetchProvider
	images   domain.ImageResolver
	engine   *layout.Engine
	items    *ItemBuilder
	fonts    *typeset.Fonts
	prefetch float64

	onState func(State)
	onError func(*domain.FetchError)
	log     zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	loop   *loop

	// owned by loop
	state     State
	index     map[uuid.UUID]int
	gen       uint64
	geoms     map[geometryKey]layout.Geometry
	geomWidth float64
}

func NewList(opts Options) (*List, error) {
	if opts.Provider == nil {
		return nil, errors.New("list: provider is required")
	}
	if opts.Engine == nil || opts.Fonts == nil {
		return nil, errors.New("list: engine and fonts are required")
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.MaxLines < 0 {
		return nil, fmt.Errorf("list: max lines must not be negative, got %d", opts.MaxLines)
	}
	if opts.PrefetchScreens <= 0 {
		opts.PrefetchScreens = DefaultPrefetchScreens
	}
	logger := log.Logger
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &List{
		provider: opts.Provider,
		images:   opts.Images,
		engine:   opts.Engine,
		items:    NewItemBuilder(opts.Fonts, opts.MaxLines),
		fonts:    opts.Fonts,
		prefetch: opts.PrefetchScreens,
		onState:  opts.OnStateChange,
		onError:  opts.OnError,
		log:      logger.With().Str("component", "review_list").Logger(),
		ctx:      ctx,
		cancel:   cancel,
		loop:     newLoop(),
		state:    State{PageSize: opts.PageSize, ShouldLoadMore: true},
		index:    make(map[uuid.UUID]int),
		geoms:    make(map[geometryKey]layout.Geometry),
	}, nil
}

// Close cancels in-flight fetches and stops the owner goroutine.
func (l *List) Close() {
	l.cancel()
	l.loop.stop()
}

// Load requests the next page unless one is in flight or none remain.
func (l *List) Load() {
	l.loop.post(func() { l.load(nil) })
}

// Refresh drops every row and reloads from offset zero. onComplete runs on
// the owner goroutine once that fetch has settled, whatever its outcome.
func (l *List) Refresh(onComplete func()) {
	l.loop.post(func() { l.refresh(onComplete) })
}

// Expand removes the line limit of the row with id. Unknown ids are ignored.
func (l *List) Expand(id uuid.UUID) {
	l.loop.post(func() { l.expand(id) })
}

// Scrolled is the widget's scroll callback. targetOffsetY is where the
// scroll is predicted to settle. It reports whether a load was requested.
func (l *List) Scrolled(targetOffsetY, contentHeight, viewportHeight float64) bool {
	if !PrefetchTrigger(targetOffsetY, contentHeight, viewportHeight, l.prefetch) {
		return false
	}
	l.Load()
	return true
}

func (l *List) Snapshot() State {
	var s State
	l.loop.call(func() { s = l.snapshot() })
	return s
}

func (l *List) RowCount() int {
	n := 1
	l.loop.call(func() { n = l.state.RowCount() })
	return n
}

// RowHeight returns the height of row index at width, or
// layout.AutomaticHeight for the summary row.
func (l *List) RowHeight(index int, width float64) float64 {
	h := layout.AutomaticHeight
	l.loop.call(func() {
		r, ok := l.rowAt(index)
		if !ok {
			return
		}
		h = l.height(r, width)
	})
	return h
}

// Populate fills sink with row index laid out at width and starts resolving
// its images. Out-of-range indexes leave sink untouched.
func (l *List) Populate(index int, width float64, sink CellSink) {
	l.loop.call(func() {
		r, ok := l.rowAt(index)
		if !ok {
			return
		}
		l.populate(r, width, sink)
	})
}

// PopulateRange populates rows [from, to) at width in one pass over a single
// state, so a concurrent refresh or expand cannot interleave. sinkFor returns
// the sink for each index. A negative to means the last row. It returns the
// state the rows were read from and one height per row.
func (l *List) PopulateRange(from, to int, width float64, sinkFor func(index int) CellSink) (State, []float64, error) {
	var (
		s       State
		heights []float64
		err     error
	)
	l.loop.call(func() {
		n := l.state.RowCount()
		if to < 0 {
			to = n
		}
		if from < 0 || from > to || to > n {
			err = fmt.Errorf("%w: [%d, %d) of %d", ErrRowRange, from, to, n)
			return
		}
		heights = make([]float64, 0, to-from)
		for i := from; i < to; i++ {
			r, _ := l.rowAt(i)
			l.populate(r, width, sinkFor(i))
			heights = append(heights, l.height(r, width))
		}
		s = l.snapshot()
	})
	return s, heights, err
}

func (l *List) snapshot() State {
	s := l.state
	s.Rows = slices.Clone(l.state.Rows)
	return s
}

func (l *List) emit() {
	if l.onState != nil {
		l.onState(l.snapshot())
	}
}

func (l *List) fail(err *domain.FetchError) {
	l.log.Warn().Err(err).Str("kind", err.Kind.String()).Int("offset", l.state.Offset).Msg("reviews load failed")
	if l.onError != nil {
		l.onError(err)
	}
}

func (l *List) load(onComplete func()) {
	if !l.state.ShouldLoadMore || l.state.IsLoading {
		if onComplete != nil {
			onComplete()
		}
		return
	}
	l.state.IsLoading = true
	l.state.ShouldLoadMore = false
	l.emit()

	gen, offset, limit := l.gen, l.state.Offset, l.state.PageSize
	l.log.Debug().Int("offset", offset).Int("limit", limit).Msg("fetching reviews page")
	go func() {
		raw, err := l.provider.GetReviews(l.ctx, offset, limit)
		l.loop.post(func() {
			l.gotReviews(gen, raw, err)
			if onComplete != nil {
				onComplete()
			}
		})
	}()
}

func (l *List) gotReviews(gen uint64, raw []byte, err error) {
	if gen != l.gen {
		l.log.Debug().Uint64("gen", gen).Msg("dropping page superseded by refresh")
		return
	}
	l.state.IsLoading = false

	if err != nil {
		l.state.ShouldLoadMore = true
		fe := domain.Transport(err)
		observability.ObserveListLoad(fe.Kind.String())
		l.fail(fe)
		l.emit()
		return
	}
	page, err := domain.DecodePage(raw)
	if err != nil {
		l.state.ShouldLoadMore = true
		observability.ObserveListLoad(domain.KindDecode.String())
		l.fail(domain.Decode(err))
		l.emit()
		return
	}

	for _, r := range page.Items {
		d := l.items.Build(r)
		l.index[d.ID] = len(l.state.Rows)
		l.state.Rows = append(l.state.Rows, d)
	}
	l.state.Offset += l.state.PageSize
	l.state.TotalCount = page.Count
	l.state.ShouldLoadMore = l.state.Offset < l.state.TotalCount
	observability.ObserveListLoad("ok")
	l.log.Debug().
		Int("items", len(page.Items)).
		Int("rows", len(l.state.Rows)).
		Int("total", page.Count).
		Msg("reviews page applied")
	l.emit()
}

func (l *List) refresh(onComplete func()) {
	l.gen++
	l.state.Rows = nil
	l.state.Offset = 0
	l.state.IsLoading = false
	l.state.ShouldLoadMore = true
	clear(l.index)
	clear(l.geoms)
	l.emit()
	l.load(onComplete)
}

func (l *List) expand(id uuid.UUID) {
	i, ok := l.index[id]
	if !ok || i >= len(l.state.Rows) || l.state.Rows[i].ID != id {
		l.log.Debug().Str("id", id.String()).Msg("expand target not found")
		return
	}
	if l.state.Rows[i].IsExpanded() {
		return
	}
	l.state.Rows[i] = l.state.Rows[i].Expanded()
	l.emit()
}

// geometry memoises layouts for the most recent width only; a new width
// drops the others so the memo stays bounded by the row count.
func (l *List) geometry(d layout.Descriptor, width float64) layout.Geometry {
	if width != l.geomWidth {
		clear(l.geoms)
		l.geomWidth = width
	}
	key := geometryKey{id: d.ID, expanded: d.IsExpanded(), width: width}
	if g, ok := l.geoms[key]; ok {
		return g
	}
	g := l.engine.Compute(d, width)
	observability.ObserveLayout()
	l.geoms[key] = g
	return g
}
