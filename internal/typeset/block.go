package typeset

import (
	"image/color"
	"math"
	"strings"
	"unicode/utf8"
)

// Size is a width/height pair in points.
type Size struct {
	W, H float64
}

// Block is a pre-styled run of text: the string plus the font and colour it
// will be drawn with. All measurement uses Font, never a live view.
type Block struct {
	Text  string
	Font  *Font
	Color color.RGBA
}

func (b Block) IsEmpty() bool { return b.Text == "" || b.Font == nil }

// Lines wraps the text greedily on word boundaries at width. Explicit
// newlines start a new line; words wider than width are broken between runes,
// with at least one rune per line.
func (b Block) Lines(width float64) []string {
	if b.IsEmpty() {
		return nil
	}
	var out []string
	for _, para := range strings.Split(b.Text, "\n") {
		out = append(out, b.wrap(para, width)...)
	}
	return out
}

func (b Block) wrap(para string, width float64) []string {
	words := strings.Fields(para)
	if len(words) == 0 {
		return []string{""}
	}
	var (
		lines []string
		line  string
	)
	for _, w := range words {
		if line != "" {
			if cand := line + " " + w; b.Font.Advance(cand) <= width {
				line = cand
				continue
			}
			lines = append(lines, line)
			line = ""
		}
		if b.Font.Advance(w) <= width {
			line = w
			continue
		}
		chunks := b.breakWord(w, width)
		lines = append(lines, chunks[:len(chunks)-1]...)
		line = chunks[len(chunks)-1]
	}
	return append(lines, line)
}

func (b Block) breakWord(w string, width float64) []string {
	var chunks []string
	for w != "" {
		_, n := utf8.DecodeRuneInString(w)
		end := n
		for end < len(w) {
			_, m := utf8.DecodeRuneInString(w[end:])
			if b.Font.Advance(w[:end+m]) > width {
				break
			}
			end += m
		}
		chunks = append(chunks, w[:end])
		w = w[end:]
	}
	return chunks
}

// LineCount is the number of lines the full text needs at width.
func (b Block) LineCount(width float64) int { return len(b.Lines(width)) }

// Measure returns the size of the text laid out at width, truncated to
// maxLines lines. maxLines == 0 means unlimited.
func (b Block) Measure(width float64, maxLines int) Size {
	lines := b.Lines(width)
	if len(lines) == 0 {
		return Size{}
	}
	if maxLines > 0 && len(lines) > maxLines {
		lines = lines[:maxLines]
	}
	var w float64
	for _, l := range lines {
		w = math.Max(w, b.Font.Advance(l))
	}
	if width >= 0 {
		w = math.Min(w, width)
	}
	return Size{W: w, H: float64(len(lines)) * b.Font.LineHeight()}
}

// BoundedHeight is the height of exactly maxLines lines in this block's font.
func (b Block) BoundedHeight(maxLines int) float64 {
	if b.Font == nil {
		return 0
	}
	return float64(maxLines) * b.Font.LineHeight()
}
