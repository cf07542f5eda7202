package layout

import (
	"github.com/google/uuid"

	"reviewlist/internal/typeset"
)

// Descriptor is everything needed to measure and render one review row.
// A Descriptor is a value: expanding a row produces a new version with the
// same ID rather than mutating the old one.
type Descriptor struct {
	ID       uuid.UUID
	Name     typeset.Block
	Rating   int
	Stars    typeset.Block
	Text     typeset.Block
	Created  typeset.Block
	MaxLines int

	AvatarRef string
	PhotoRefs []string
}

// Expanded returns the version of d with the line limit removed.
func (d Descriptor) Expanded() Descriptor {
	d.MaxLines = 0
	return d
}

func (d Descriptor) IsExpanded() bool { return d.MaxLines == 0 }

// AutomaticHeight asks the list widget to size the row itself.
const AutomaticHeight = -1.0
