package typeset

import (
	"fmt"
	"image/color"
)

// Sizes holds the point sizes of every text style used by the review list.
type Sizes struct {
	Username float64 `toml:"username"`
	Body     float64 `toml:"body"`
	Created  float64 `toml:"created"`
	ShowMore float64 `toml:"show_more"`
	Count    float64 `toml:"count"`
}

func DefaultSizes() Sizes {
	return Sizes{Username: 16, Body: 16, Created: 14, ShowMore: 16, Count: 15}
}

// Fonts is the set of faces built from Sizes.
type Fonts struct {
	Username *Font
	Body     *Font
	Created  *Font
	ShowMore *Font
	Count    *Font
}

func NewFonts(s Sizes) (*Fonts, error) {
	var (
		fs  Fonts
		err error
	)
	for _, it := range []struct {
		name string
		size float64
		dst  **Font
	}{
		{"username", s.Username, &fs.Username},
		{"body", s.Body, &fs.Body},
		{"created", s.Created, &fs.Created},
		{"show_more", s.ShowMore, &fs.ShowMore},
		{"count", s.Count, &fs.Count},
	} {
		if *it.dst, err = NewFont(it.size); err != nil {
			return nil, fmt.Errorf("%s font: %w", it.name, err)
		}
	}
	return &fs, nil
}

// Palette colours.
var (
	Black    = color.RGBA{A: 0xff}
	Gray     = color.RGBA{R: 0x8e, G: 0x8e, B: 0x93, A: 0xff}
	Accent   = color.RGBA{R: 0x00, G: 0x7a, B: 0xff, A: 0xff}
	Tertiary = color.RGBA{R: 0xc7, G: 0xc7, B: 0xcc, A: 0xff}
)
