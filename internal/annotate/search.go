// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package annotate

import (
	"math"
	"unicode"

	"github.com/ledongthuc/pdf"

	"github.com/pdiddy/docharvest/pkg/types"
)

// Glyph boxes extend below the baseline by descent and above it by ascent,
// both as fractions of the font size.
const (
	descent = 0.2
	ascent  = 0.8

	// wordGap is the horizontal gap, as a fraction of the font size, above
	// which two glyphs on one line are taken to be separate words.
	wordGap = 0.2
)

type glyph struct {
	r   rune
	box types.Rect
	sep bool
}

// pageText is the text of one page reconstructed from positioned glyphs.
// Lines break where the baseline moves; a space is inserted where the
// layout leaves a gap, since many PDFs position words instead of encoding
// space characters.
type pageText struct {
	glyphs []glyph
}

func newPageText(texts []pdf.Text) pageText {
	var pt pageText
	var prev *pdf.Text
	for i := range texts {
		t := &texts[i]
		if t.S == "" {
			continue
		}
		if prev != nil {
			size := math.Max(prev.FontSize, 1)
			switch {
			case math.Abs(t.Y-prev.Y) > size/2:
				pt.glyphs = append(pt.glyphs, glyph{r: '\n', sep: true})
			case t.X-(prev.X+prev.W) > size*wordGap && !pt.endsWithSpace() && !unicode.IsSpace([]rune(t.S)[0]):
				pt.glyphs = append(pt.glyphs, glyph{r: ' ', sep: true})
			}
		}

		runes := []rune(t.S)
		w := t.W / float64(len(runes))
		for j, r := range runes {
			x := t.X + w*float64(j)
			pt.glyphs = append(pt.glyphs, glyph{
				r: r,
				box: types.Rect{
					LLX: x,
					LLY: t.Y - descent*t.FontSize,
					URX: x + w,
					URY: t.Y + ascent*t.FontSize,
				},
				sep: unicode.IsSpace(r),
			})
		}
		prev = t
	}
	return pt
}

func (pt pageText) endsWithSpace() bool {
	n := len(pt.glyphs)
	return n > 0 && unicode.IsSpace(pt.glyphs[n-1].r)
}

// String returns the reconstructed text.
func (pt pageText) String() string {
	rs := make([]rune, len(pt.glyphs))
	for i, g := range pt.glyphs {
		rs[i] = g.r
	}
	return string(rs)
}

// find returns one region per non-overlapping occurrence of term, scanning
// left to right. A hit's region is the union of its visible glyph boxes;
// it is the zero Rect when the hit covers no visible glyph.
func (pt pageText) find(term string, fold bool) []types.Rect {
	needle := []rune(term)
	if len(needle) == 0 {
		return nil
	}
	if fold {
		for i, r := range needle {
			needle[i] = unicode.ToLower(r)
		}
	}

	var regions []types.Rect
	for i := 0; i+len(needle) <= len(pt.glyphs); {
		if pt.matchAt(i, needle, fold) {
			regions = append(regions, pt.bounds(i, i+len(needle)))
			i += len(needle)
			continue
		}
		i++
	}
	return regions
}

func (pt pageText) matchAt(i int, needle []rune, fold bool) bool {
	for k, want := range needle {
		got := pt.glyphs[i+k].r
		if fold {
			got = unicode.ToLower(got)
		}
		if got != want {
			return false
		}
	}
	return true
}

func (pt pageText) bounds(from, to int) types.Rect {
	var r types.Rect
	first := true
	for _, g := range pt.glyphs[from:to] {
		if g.sep {
			continue
		}
		if first {
			r = g.box
			first = false
			continue
		}
		r.LLX = math.Min(r.LLX, g.box.LLX)
		r.LLY = math.Min(r.LLY, g.box.LLY)
		r.URX = math.Max(r.URX, g.box.URX)
		r.URY = math.Max(r.URY, g.box.URY)
	}
	return r
}
