// Package typeset measures and wraps text against fixed font metrics,
// independently of any rendering surface.
package typeset

import (
	"fmt"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// Font wraps a font.Face. opentype faces keep internal buffers, so every
// measurement goes through mu; this keeps Font safe to share between goroutines.
type Font struct {
	mu         sync.Mutex
	face       font.Face
	size       float64
	lineHeight float64
}

var (
	parseOnce sync.Once
	regular   *sfnt.Font
	parseErr  error
)

func defaultTTF() (*sfnt.Font, error) {
	parseOnce.Do(func() {
		regular, parseErr = opentype.Parse(goregular.TTF)
	})
	return regular, parseErr
}

// NewFont returns the bundled Go Regular face at the given point size (72 DPI).
func NewFont(size float64) (*Font, error) {
	f, err := defaultTTF()
	if err != nil {
		return nil, fmt.Errorf("parse bundled font: %w", err)
	}
	return newFont(f, size)
}

// NewFontFromTTF parses a TrueType/OpenType file and returns a face at size.
func NewFontFromTTF(ttf []byte, size float64) (*Font, error) {
	f, err := opentype.Parse(ttf)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return newFont(f, size)
}

func newFont(f *sfnt.Font, size float64) (*Font, error) {
	if size <= 0 {
		return nil, fmt.Errorf("font size must be positive, got %v", size)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("new face: %w", err)
	}
	return &Font{
		face:       face,
		size:       size,
		lineHeight: toFloat(face.Metrics().Height),
	}, nil
}

func (f *Font) Size() float64 { return f.size }

// LineHeight is the distance between consecutive baselines.
func (f *Font) LineHeight() float64 { return f.lineHeight }

// Advance returns the horizontal advance of s on a single line.
func (f *Font) Advance(s string) float64 {
	if s == "" {
		return 0
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return toFloat(font.MeasureString(f.face, s))
}

func toFloat(v fixed.Int26_6) float64 { return float64(v) / 64 }
