package app

import (
	"reviewlist/internal/layout"
	"reviewlist/internal/typeset"
)

type rowKind int

const (
	rowReview rowKind = iota
	rowSummary
)

// row is what a widget index resolves to: one review or the trailing summary.
type row struct {
	kind   rowKind
	review layout.Descriptor
	total  int
}

func (l *List) rowAt(index int) (row, bool) {
	switch n := len(l.state.Rows); {
	case index < 0 || index > n:
		return row{}, false
	case index == n:
		return row{kind: rowSummary, total: l.state.TotalCount}, true
	default:
		return row{kind: rowReview, review: l.state.Rows[index]}, true
	}
}

func (l *List) height(r row, width float64) float64 {
	if r.kind == rowSummary {
		return layout.AutomaticHeight
	}
	return l.geometry(r.review, width).Height
}

func (l *List) populate(r row, width float64, sink CellSink) {
	if r.kind == rowSummary {
		sink.ConfigureSummary(SummaryCell{
			Count: r.total,
			Label: typeset.Block{Text: SummaryText(r.total), Font: l.fonts.Count, Color: typeset.Gray},
		})
		return
	}

	d := r.review
	g := l.geometry(d, width)
	cell := ReviewCell{
		ID:        d.ID,
		Name:      d.Name,
		Rating:    d.Rating,
		Stars:     d.Stars,
		Text:      d.Text,
		Created:   d.Created,
		MaxLines:  d.MaxLines,
		AvatarRef: d.AvatarRef,
		PhotoRefs: d.PhotoRefs[:len(g.Photos)],
		Geometry:  g,
	}
	if g.NeedsShowMore {
		cell.ShowMore = l.engine.ShowMore()
	}
	sink.ConfigureReview(cell)

	l.bindImage(sink, ImageSlot{Kind: SlotAvatar}, cell.AvatarRef)
	for i, ref := range cell.PhotoRefs {
		l.bindImage(sink, ImageSlot{Kind: SlotPhoto, Index: i}, ref)
	}
}

// bindImage shows the placeholder in slot, then resolves ref off the owner
// goroutine. The result is applied only if the slot still shows ref.
func (l *List) bindImage(sink CellSink, slot ImageSlot, ref string) {
	sink.SetImage(slot, nil)
	if ref == "" || l.images == nil {
		return
	}
	go func() {
		img := l.images.Resolve(l.ctx, ref)
		if img == nil {
			return
		}
		l.loop.post(func() {
			if sink.BoundRef(slot) != ref {
				l.log.Debug().Str("ref", ref).Msg("discarding image for reused slot")
				return
			}
			sink.SetImage(slot, img)
		})
	}()
}

// PrefetchTrigger reports whether the next page should be requested once the
// scroll settles at visibleBottomY. It fires when the content left below is
// within threshold viewport heights.
func PrefetchTrigger(visibleBottomY, contentHeight, viewportHeight, threshold float64) bool {
	return contentHeight-viewportHeight-visibleBottomY <= viewportHeight*threshold
}
