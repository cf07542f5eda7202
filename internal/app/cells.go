package app

import (
	"github.com/google/uuid"

	"reviewlist/internal/layout"
	"reviewlist/internal/typeset"
)

type SlotKind int

const (
	SlotAvatar SlotKind = iota
	SlotPhoto
)

// ImageSlot names one image view inside a review cell.
type ImageSlot struct {
	Kind  SlotKind
	Index int
}

// ReviewCell is what a review row hands to a cell: content plus rectangles.
type ReviewCell struct {
	ID       uuid.UUID
	Name     typeset.Block
	Rating   int
	Stars    typeset.Block
	Text     typeset.Block
	Created  typeset.Block
	MaxLines int
	ShowMore typeset.Block

	AvatarRef string
	// PhotoRefs has one entry per placed photo slot.
	PhotoRefs []string

	Geometry layout.Geometry
}

type SummaryCell struct {
	Count int
	Label typeset.Block
}

// CellSink is a widget cell being populated. Every method is invoked on the
// list's owner goroutine. BoundRef reports the ref the slot currently shows,
// which may differ from the one an image was requested for once the cell
// has been reused.
type CellSink interface {
	ConfigureReview(c ReviewCell)
	ConfigureSummary(c SummaryCell)
	BoundRef(slot ImageSlot) string
	// SetImage shows img in slot; nil means the placeholder.
	SetImage(slot ImageSlot, img []byte)
}
