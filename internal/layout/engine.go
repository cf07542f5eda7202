// Package layout computes review row geometry. Everything here is pure:
// the same descriptor and width always give the same rectangles.
package layout

import (
	"context"
	"math"

	"golang.org/x/sync/errgroup"

	"reviewlist/internal/typeset"
)

type Rect struct {
	X, Y, W, H float64
}

func (r Rect) MaxX() float64 { return r.X + r.W }
func (r Rect) MaxY() float64 { return r.Y + r.H }
func (r Rect) IsZero() bool  { return r == Rect{} }

// Geometry is the result of laying out one review row.
type Geometry struct {
	Avatar   Rect
	Name     Rect
	Rating   Rect
	Photos   []Rect
	Text     Rect
	ShowMore Rect
	Created  Rect
	Height   float64

	NeedsShowMore bool
}

type Engine struct {
	theme    Theme
	showMore typeset.Block
}

// NewEngine builds an engine; fonts supplies the show-more control's face.
func NewEngine(theme Theme, fonts *typeset.Fonts) *Engine {
	return &Engine{
		theme:    theme,
		showMore: typeset.Block{Text: theme.ShowMoreText, Font: fonts.ShowMore, Color: typeset.Accent},
	}
}

func (e *Engine) Theme() Theme { return e.theme }

// ShowMore is the pre-styled title of the show-more control.
func (e *Engine) ShowMore() typeset.Block { return e.showMore }

func (e *Engine) contentLeft() float64 {
	return e.theme.Insets.Left + e.theme.AvatarSize.W + e.theme.AvatarToName
}

func (e *Engine) availableWidth(maxWidth float64) float64 {
	return math.Max(0, maxWidth-e.contentLeft()-e.theme.Insets.Right)
}

// PhotoSlots is how many photo slots fit at maxWidth for n photos.
func (e *Engine) PhotoSlots(n int, maxWidth float64) int {
	t := e.theme
	step := t.PhotoSize.W + t.PhotoSpacing
	if n <= 0 || step <= 0 {
		return 0
	}
	fit := int(math.Floor((e.availableWidth(maxWidth) + t.PhotoSpacing) / step))
	return max(0, min(n, fit, t.MaxPhotos, MaxPhotoSlots))
}

// Compute lays out d within maxWidth, stacking elements top to bottom.
func (e *Engine) Compute(d Descriptor, maxWidth float64) Geometry {
	t := e.theme
	left := e.contentLeft()
	avail := e.availableWidth(maxWidth)

	var g Geometry
	g.Avatar = Rect{X: t.Insets.Left, Y: t.Insets.Top, W: t.AvatarSize.W, H: t.AvatarSize.H}
	g.Name = Rect{X: left, Y: t.Insets.Top, W: avail, H: t.NameHeight}
	g.Rating = Rect{X: left, Y: g.Name.MaxY() + t.NameToRating, W: t.RatingSize.W, H: t.RatingSize.H}
	y := g.Rating.MaxY()

	if n := e.PhotoSlots(len(d.PhotoRefs), maxWidth); n > 0 {
		y += t.RatingToPhotos
		g.Photos = make([]Rect, n)
		for i := range g.Photos {
			g.Photos[i] = Rect{
				X: left + float64(i)*(t.PhotoSize.W+t.PhotoSpacing),
				Y: y,
				W: t.PhotoSize.W,
				H: t.PhotoSize.H,
			}
		}
		y = g.Photos[n-1].MaxY() + t.PhotosToText
	} else {
		y += t.RatingToText
	}

	if !d.Text.IsEmpty() {
		bounded := d.Text.BoundedHeight(d.MaxLines)
		full := d.Text.Measure(avail, 0)
		g.NeedsShowMore = d.MaxLines != 0 && full.H > bounded

		size := full
		if g.NeedsShowMore {
			size = d.Text.Measure(avail, d.MaxLines)
		}
		g.Text = Rect{X: left, Y: y, W: size.W, H: size.H}
		y = g.Text.MaxY() + t.TextToCreated
	}

	if g.NeedsShowMore {
		size := e.showMore.Measure(math.Inf(1), 1)
		g.ShowMore = Rect{X: left, Y: y, W: size.W, H: size.H}
		y = g.ShowMore.MaxY() + t.ShowMoreToCreated
	}

	created := d.Created.Measure(avail, 0)
	g.Created = Rect{X: left, Y: y, W: created.W, H: created.H}
	g.Height = g.Created.MaxY() + t.Insets.Bottom
	return g
}

// ComputeAll lays out a snapshot of rows concurrently. Results are in input order.
func (e *Engine) ComputeAll(ctx context.Context, ds []Descriptor, maxWidth float64, workers int) ([]Geometry, error) {
	out := make([]Geometry, len(ds))
	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i := range ds {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out[i] = e.Compute(ds[i], maxWidth)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
