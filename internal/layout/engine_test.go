package layout_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reviewlist/internal/layout"
	"reviewlist/internal/typeset"
)

type fixture struct {
	engine *layout.Engine
	fonts  *typeset.Fonts
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	fonts, err := typeset.NewFonts(typeset.DefaultSizes())
	require.NoError(t, err)
	return fixture{engine: layout.NewEngine(layout.DefaultTheme(), fonts), fonts: fonts}
}

func (f fixture) descriptor(text string, maxLines int, photos int) layout.Descriptor {
	refs := make([]string, photos)
	for i := range refs {
		refs[i] = "https://img.example.com/p" + string(rune('a'+i)) + ".jpg"
	}
	if photos == 0 {
		refs = nil
	}
	return layout.Descriptor{
		ID:        uuid.New(),
		Name:      typeset.Block{Text: "Ada Lovelace", Font: f.fonts.Username, Color: typeset.Black},
		Rating:    4,
		Text:      typeset.Block{Text: text, Font: f.fonts.Body, Color: typeset.Black},
		Created:   typeset.Block{Text: "13 February", Font: f.fonts.Created, Color: typeset.Gray},
		MaxLines:  maxLines,
		PhotoRefs: refs,
	}
}

func TestCompute_FixedBlocks(t *testing.T) {
	f := newFixture(t)
	g := f.engine.Compute(f.descriptor("short", 3, 0), 375)

	assert.Equal(t, layout.Rect{X: 12, Y: 9, W: 36, H: 36}, g.Avatar)
	assert.Equal(t, layout.Rect{X: 58, Y: 9, W: 375 - 58 - 12, H: 20}, g.Name)
	assert.Equal(t, layout.Rect{X: 58, Y: 35, W: 84, H: 16}, g.Rating)
	assert.Equal(t, 57.0, g.Text.Y)
	assert.Empty(t, g.Photos)
}

func TestCompute_EmptyTextSkipsTextAndShowMore(t *testing.T) {
	f := newFixture(t)
	for _, w := range []float64{120, 320, 375, 1024} {
		g := f.engine.Compute(f.descriptor("", 3, 2), w)
		assert.True(t, g.Text.IsZero(), "width %v", w)
		assert.True(t, g.ShowMore.IsZero(), "width %v", w)
		assert.False(t, g.NeedsShowMore)
		assert.Equal(t, g.Created.MaxY()+9, g.Height)
	}
}

func TestCompute_UnlimitedLinesNeverShowsMore(t *testing.T) {
	f := newFixture(t)
	long := strings.Repeat("This hotel was lovely and the staff were kind. ", 40)
	for _, w := range []float64{100, 375, 800} {
		g := f.engine.Compute(f.descriptor(long, 0, 0), w)
		assert.False(t, g.NeedsShowMore)
		assert.True(t, g.ShowMore.IsZero())
		assert.Equal(t, g.Text.MaxY()+6, g.Created.Y)
	}
}

func TestCompute_TextThatFitsHasNoShowMore(t *testing.T) {
	f := newFixture(t)
	for _, text := range []string{"one line", "one\ntwo", "one\ntwo\nthree"} {
		g := f.engine.Compute(f.descriptor(text, 3, 0), 375)
		assert.False(t, g.NeedsShowMore, text)
		assert.True(t, g.ShowMore.IsZero(), text)
	}
}

func TestCompute_TruncationAndExpand(t *testing.T) {
	f := newFixture(t)
	d := f.descriptor("one\ntwo\nthree\nfour\nfive", 3, 0)
	lh := f.fonts.Body.LineHeight()

	collapsed := f.engine.Compute(d, 375)
	require.True(t, collapsed.NeedsShowMore)
	assert.False(t, collapsed.ShowMore.IsZero())
	assert.InDelta(t, 3*lh, collapsed.Text.H, 1e-9)
	assert.Equal(t, collapsed.Text.MaxY()+6, collapsed.ShowMore.Y)
	assert.Equal(t, collapsed.ShowMore.MaxY()+6, collapsed.Created.Y)

	expanded := f.engine.Compute(d.Expanded(), 375)
	assert.False(t, expanded.NeedsShowMore)
	assert.True(t, expanded.ShowMore.IsZero())
	assert.InDelta(t, 5*lh, expanded.Text.H, 1e-9)
	assert.Greater(t, expanded.Height, collapsed.Height)
}

func TestCompute_HeightIsCreatedBottomPlusInset(t *testing.T) {
	f := newFixture(t)
	g := f.engine.Compute(f.descriptor("some text", 3, 3), 375)
	assert.Equal(t, g.Created.MaxY()+9, g.Height)
	assert.InDelta(t, f.fonts.Created.LineHeight(), g.Created.H, 1e-9)
}

func TestPhotoSlots_MonotoneAndCapped(t *testing.T) {
	f := newFixture(t)
	for _, n := range []int{1, 2, 5, 9} {
		prev := 0
		for w := 0.0; w <= 2000; w += 7 {
			got := f.engine.PhotoSlots(n, w)
			assert.GreaterOrEqual(t, got, prev, "n=%d w=%v", n, w)
			assert.LessOrEqual(t, got, min(n, 5), "n=%d w=%v", n, w)
			prev = got
		}
		assert.Equal(t, min(n, 5), prev)
	}
	assert.Equal(t, 0, f.engine.PhotoSlots(0, 2000))
}

func TestCompute_PhotoStrip(t *testing.T) {
	f := newFixture(t)
	// content width 375-58-12 = 305 fits (305+8)/63 = 4 slots
	g := f.engine.Compute(f.descriptor("text", 3, 7), 375)
	require.Len(t, g.Photos, 4)
	assert.Equal(t, layout.Rect{X: 58, Y: 61, W: 55, H: 66}, g.Photos[0])
	assert.Equal(t, layout.Rect{X: 58 + 3*63, Y: 61, W: 55, H: 66}, g.Photos[3])
	assert.Equal(t, g.Photos[0].MaxY()+10, g.Text.Y)

	narrow := f.engine.Compute(f.descriptor("text", 3, 7), 100)
	assert.Empty(t, narrow.Photos)
	assert.Equal(t, narrow.Rating.MaxY()+6, narrow.Text.Y)
}

func TestCompute_Deterministic(t *testing.T) {
	f := newFixture(t)
	d := f.descriptor(strings.Repeat("word ", 60), 3, 2)
	assert.Equal(t, f.engine.Compute(d, 375), f.engine.Compute(d, 375))
}

func TestComputeAll_MatchesSerial(t *testing.T) {
	f := newFixture(t)
	ds := make([]layout.Descriptor, 30)
	for i := range ds {
		ds[i] = f.descriptor(strings.Repeat("abc ", i*5), 3, i%7)
	}
	got, err := f.engine.ComputeAll(context.Background(), ds, 375, 4)
	require.NoError(t, err)
	require.Len(t, got, len(ds))
	for i, d := range ds {
		assert.Equal(t, f.engine.Compute(d, 375), got[i])
	}
}

func TestComputeAll_CancelledContext(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.engine.ComputeAll(ctx, []layout.Descriptor{f.descriptor("x", 3, 0)}, 375, 1)
	require.ErrorIs(t, err, context.Canceled)
}

func TestLoadTheme(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "theme.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
default_max_lines = 4
show_more_text = "More..."

[insets]
top = 10.0
left = 16.0
bottom = 10.0
right = 16.0

[font_sizes]
body = 17.0
`), 0o600))

	th, err := layout.LoadTheme(path)
	require.NoError(t, err)
	assert.Equal(t, 4, th.DefaultMaxLines)
	assert.Equal(t, "More...", th.ShowMoreText)
	assert.Equal(t, 16.0, th.Insets.Left)
	assert.Equal(t, 17.0, th.FontSizes.Body)
	assert.Equal(t, 14.0, th.FontSizes.Created, "unset keys keep defaults")
	assert.Equal(t, 5, th.MaxPhotos)

	def, err := layout.LoadTheme("")
	require.NoError(t, err)
	assert.Equal(t, layout.DefaultTheme(), def)

	for _, bad := range []string{
		`max_photos = -1`,
		`max_photos = 9`,
		`photo_spacing = -1.0`,
		"[photo_size]\nwidth = 0.0\nheight = 66.0",
	} {
		require.NoError(t, os.WriteFile(path, []byte(bad), 0o600))
		_, err = layout.LoadTheme(path)
		require.Error(t, err, bad)
	}
}

func TestPhotoSlots_CapHoldsForUnvalidatedTheme(t *testing.T) {
	fonts, err := typeset.NewFonts(typeset.DefaultSizes())
	require.NoError(t, err)

	th := layout.DefaultTheme()
	th.MaxPhotos = 9
	e := layout.NewEngine(th, fonts)
	assert.Equal(t, layout.MaxPhotoSlots, e.PhotoSlots(9, 2000))

	refs := make([]string, 9)
	for i := range refs {
		refs[i] = fmt.Sprintf("p%d.jpg", i)
	}
	g := e.Compute(layout.Descriptor{PhotoRefs: refs, MaxLines: 3}, 2000)
	assert.Len(t, g.Photos, layout.MaxPhotoSlots)

	th = layout.DefaultTheme()
	th.PhotoSize.W, th.PhotoSpacing = 0, 0
	assert.Zero(t, layout.NewEngine(th, fonts).PhotoSlots(3, 2000))
}
