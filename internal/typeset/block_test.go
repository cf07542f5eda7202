package typeset_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reviewlist/internal/typeset"
)

func newBody(t *testing.T) *typeset.Font {
	t.Helper()
	f, err := typeset.NewFont(16)
	require.NoError(t, err)
	return f
}

func TestFont_Metrics(t *testing.T) {
	f := newBody(t)
	assert.Greater(t, f.LineHeight(), 0.0)
	assert.Equal(t, 0.0, f.Advance(""))
	assert.Greater(t, f.Advance("ww"), f.Advance("w"))
}

func TestNewFont_RejectsNonPositiveSize(t *testing.T) {
	_, err := typeset.NewFont(0)
	require.Error(t, err)
}

func TestBlock_LinesHonoursNewlines(t *testing.T) {
	b := typeset.Block{Text: "a\nb\n\nc", Font: newBody(t)}
	assert.Equal(t, []string{"a", "b", "", "c"}, b.Lines(1000))
}

func TestBlock_WrapsOnWords(t *testing.T) {
	f := newBody(t)
	b := typeset.Block{Text: "alpha beta alpha beta", Font: f}
	width := f.Advance("alpha beta") + 1

	lines := b.Lines(width)
	assert.Equal(t, []string{"alpha beta", "alpha beta"}, lines)
	for _, l := range lines {
		assert.LessOrEqual(t, f.Advance(l), width)
	}
}

func TestBlock_BreaksLongWords(t *testing.T) {
	f := newBody(t)
	word := strings.Repeat("m", 40)
	b := typeset.Block{Text: word, Font: f}

	lines := b.Lines(f.Advance("mmmmm") + 0.5)
	require.Len(t, lines, 8)
	assert.Equal(t, word, strings.Join(lines, ""))
}

func TestBlock_ZeroWidthStillTerminates(t *testing.T) {
	b := typeset.Block{Text: "abc", Font: newBody(t)}
	assert.Equal(t, []string{"a", "b", "c"}, b.Lines(0))
}

func TestBlock_Measure(t *testing.T) {
	f := newBody(t)
	b := typeset.Block{Text: "one\ntwo\nthree\nfour\nfive", Font: f}

	full := b.Measure(500, 0)
	assert.InDelta(t, 5*f.LineHeight(), full.H, 1e-9)

	bounded := b.Measure(500, 3)
	assert.InDelta(t, 3*f.LineHeight(), bounded.H, 1e-9)
	assert.InDelta(t, b.BoundedHeight(3), bounded.H, 1e-9)

	assert.Equal(t, typeset.Size{}, typeset.Block{Font: f}.Measure(500, 0))
	assert.LessOrEqual(t, b.Measure(10, 0).W, 10.0)
}

func TestNewFonts_Defaults(t *testing.T) {
	fs, err := typeset.NewFonts(typeset.DefaultSizes())
	require.NoError(t, err)
	assert.Equal(t, 14.0, fs.Created.Size())
	assert.Equal(t, 16.0, fs.Body.Size())
}
