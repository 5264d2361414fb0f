// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package annotate

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ledongthuc/pdf"
	pdftypes "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/docharvest/internal/pdfdoc"
	"github.com/pdiddy/docharvest/internal/testpdf"
	"github.com/pdiddy/docharvest/pkg/types"
)

func testRef(t *testing.T, name string) types.DocumentRef {
	t.Helper()
	return types.DocumentRef{
		SourceURL: "https://example.com/docs/" + name,
		DestPath:  filepath.Join(t.TempDir(), name),
	}
}

// highlightsPerPage reads the Highlight annotations back from a written file.
func highlightsPerPage(t *testing.T, path string) map[int]int {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	r, err := pdfdoc.Open(data)
	require.NoError(t, err)

	counts := make(map[int]int)
	for i := 1; i <= r.NumPage(); i++ {
		annots := r.Page(i).V.Key("Annots")
		for j := 0; j < annots.Len(); j++ {
			if annots.Index(j).Key("Subtype").Name() == "Highlight" {
				counts[i]++
			}
		}
	}
	return counts
}

func TestAnnotateAddsHighlights(t *testing.T) {
	payload := testpdf.Build("The budget is a budget", "Nothing here\nBUDGET review")
	ref := testRef(t, "kst-1.pdf")
	spec := types.NewHighlightSpec([]string{"budget", "deficit"})

	report, err := New(types.AnnotateConfig{}).Annotate(ref, payload, spec)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Highlights)
	assert.Empty(t, report.ItemFailures)
	assert.Len(t, report.Placements, 3)
	assert.Equal(t, filepath.Join(filepath.Dir(ref.DestPath), "highlighted_kst-1.pdf"), report.OutputPath)
	assert.Equal(t, ref.DestPath, report.RetainedPath)

	assert.Equal(t, map[int]int{1: 2, 2: 1}, highlightsPerPage(t, report.OutputPath))

	retained, err := os.ReadFile(ref.DestPath)
	require.NoError(t, err)
	assert.Equal(t, payload, retained, "plain-named copy is the unannotated document")
}

func TestAnnotateNoMatchesWritesPlainName(t *testing.T) {
	tests := []struct {
		name  string
		terms []string
	}{
		{"absent term", []string{"deficit"}},
		{"no terms", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := testpdf.Build("The budget")
			ref := testRef(t, "doc.pdf")

			report, err := New(types.AnnotateConfig{}).Annotate(ref, payload, types.NewHighlightSpec(tt.terms))
			require.NoError(t, err)

			assert.Zero(t, report.Highlights)
			assert.Empty(t, report.ItemFailures)
			assert.Equal(t, ref.DestPath, report.OutputPath)
			assert.Empty(t, report.RetainedPath)

			data, err := os.ReadFile(ref.DestPath)
			require.NoError(t, err)
			assert.Equal(t, payload, data)

			_, err = os.Stat(pdfdoc.PrefixedPath(ref.DestPath, types.DefaultHighlightPrefix))
			assert.True(t, os.IsNotExist(err))
		})
	}
}

func TestAnnotateCustomPrefix(t *testing.T) {
	ref := testRef(t, "doc.pdf")
	a := New(types.AnnotateConfig{Prefix: "hl-"})

	report, err := a.Annotate(ref, testpdf.Build("budget"), types.NewHighlightSpec([]string{"budget"}))
	require.NoError(t, err)
	assert.Equal(t, "hl-doc.pdf", filepath.Base(report.OutputPath))
}

func TestAnnotatePersistFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	ref := types.DocumentRef{SourceURL: "https://example.com/doc.pdf", DestPath: filepath.Join(blocker, "doc.pdf")}

	for _, terms := range [][]string{{"budget"}, {"deficit"}} {
		report, err := New(types.AnnotateConfig{}).Annotate(ref, testpdf.Build("budget"), types.NewHighlightSpec(terms))
		require.ErrorIs(t, err, types.ErrPersist)
		assert.Empty(t, report.OutputPath)
	}
}

func TestAnnotateRetainFailureRemovesHighlightedCopy(t *testing.T) {
	ref := testRef(t, "doc.pdf")
	a := New(types.AnnotateConfig{})
	a.write = func(path string, data []byte) error {
		if path == ref.DestPath {
			return errors.New("disk full")
		}
		return pdfdoc.WriteFileAtomic(path, data)
	}

	_, err := a.Annotate(ref, testpdf.Build("budget"), types.NewHighlightSpec([]string{"budget"}))
	require.ErrorIs(t, err, types.ErrPersist)

	entries, err := os.ReadDir(filepath.Dir(ref.DestPath))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAnnotateUnreadablePayload(t *testing.T) {
	ref := testRef(t, "doc.pdf")
	_, err := New(types.AnnotateConfig{}).Annotate(ref, []byte("%PDF-1.4 junk"), types.NewHighlightSpec([]string{"x"}))
	require.ErrorIs(t, err, types.ErrPersist)
	_, statErr := os.Stat(ref.DestPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestAnnotatePlacementsAreIdempotent(t *testing.T) {
	payload := testpdf.Build("budget and budget", "budget")
	spec := types.NewHighlightSpec([]string{"budget", "and"})
	a := New(types.AnnotateConfig{})

	first, err := a.Annotate(testRef(t, "doc.pdf"), payload, spec)
	require.NoError(t, err)
	second, err := a.Annotate(testRef(t, "doc.pdf"), payload, spec)
	require.NoError(t, err)

	assert.Equal(t, first.Highlights, second.Highlights)
	assert.Equal(t, first.Placements, second.Placements)
	assert.Equal(t, highlightsPerPage(t, first.OutputPath), highlightsPerPage(t, second.OutputPath))
}

func TestAnnotateOutputIsByteStable(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for the clock to advance")
	}
	payload := testpdf.Build("budget and budget", "budget")
	spec := types.NewHighlightSpec([]string{"budget"})
	a := New(types.AnnotateConfig{})

	first, err := a.Annotate(testRef(t, "doc.pdf"), payload, spec)
	require.NoError(t, err)
	time.Sleep(1100 * time.Millisecond)
	second, err := a.Annotate(testRef(t, "doc.pdf"), payload, spec)
	require.NoError(t, err)

	firstBytes, err := os.ReadFile(first.OutputPath)
	require.NoError(t, err)
	secondBytes, err := os.ReadFile(second.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, firstBytes, secondBytes)
}

// fakeSource serves canned glyphs and fails on selected pages.
type fakeSource struct {
	pages map[int][]pdf.Text
	fail  map[int]error
	n     int
}

func (f fakeSource) NumPage() int { return f.n }

func (f fakeSource) PageText(page int) ([]pdf.Text, error) {
	if err := f.fail[page]; err != nil {
		return nil, err
	}
	return f.pages[page], nil
}

func TestCollectRecordsItemFailuresAndContinues(t *testing.T) {
	zeroWidth := []pdf.Text{{FontSize: 12, X: 10, Y: 10, W: 0, S: "budget"}}
	src := fakeSource{
		n: 3,
		pages: map[int][]pdf.Text{
			1: line(72, 720, 12, "budget"),
			3: append(zeroWidth, line(72, 600, 12, "budget")...),
		},
		fail: map[int]error{2: errors.New("reading page 2: malformed stream")},
	}

	var report types.AnnotationReport
	a := New(types.AnnotateConfig{})
	pending := a.collect(src, types.NewHighlightSpec([]string{"budget"}), &report)

	assert.Equal(t, 2, report.Highlights)
	assert.Len(t, pending[1], 1)
	assert.Len(t, pending[3], 1)
	assert.Empty(t, pending[2])

	require.Len(t, report.ItemFailures, 2)
	assert.Equal(t, 2, report.ItemFailures[0].Page)
	assert.Empty(t, report.ItemFailures[0].Term)
	assert.Equal(t, 3, report.ItemFailures[1].Page)
	assert.Equal(t, "budget", report.ItemFailures[1].Term)
	assert.Contains(t, report.ItemFailures[1].Reason, "empty region")
}

func TestCollectCountMatchesPlacements(t *testing.T) {
	src := fakeSource{n: 2, pages: map[int][]pdf.Text{
		1: line(0, 700, 10, "alpha beta alpha"),
		2: line(0, 700, 10, "beta"),
	}}
	var report types.AnnotationReport
	pending := New(types.AnnotateConfig{}).collect(src, types.NewHighlightSpec([]string{"alpha", "beta", "gamma"}), &report)

	total := 0
	for _, hs := range pending {
		total += len(hs)
	}
	assert.Equal(t, report.Highlights, total)
	assert.Equal(t, report.Highlights, len(report.Placements))
	assert.Equal(t, 4, report.Highlights)
}

func TestHighlightRenderDict(t *testing.T) {
	cfg := types.AnnotateConfig{}.WithDefaults()
	h, err := newHighlight(types.Rect{LLX: 10, LLY: 20, URX: 30, URY: 40}, "a(b)", cfg)
	require.NoError(t, err)

	d, err := h.RenderDict(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, pdftypes.Name("Highlight"), d["Subtype"])
	assert.Len(t, d["QuadPoints"].(pdftypes.Array), 8)
	assert.Equal(t, floatArray(1, 1, 0), d["C"])
	assert.Equal(t, pdftypes.Float(types.DefaultOpacity), d["CA"])
	assert.Equal(t, pdftypes.StringLiteral(`a\(b\)`), d["Contents"])
	_, hasPage := d["P"]
	assert.False(t, hasPage)
}

func TestNewHighlightRejectsEmptyRegion(t *testing.T) {
	_, err := newHighlight(types.Rect{LLX: 5, LLY: 5, URX: 5, URY: 9}, "x", types.AnnotateConfig{}.WithDefaults())
	require.ErrorIs(t, err, types.ErrAnnotationItem)
}

func TestHighlightContentsEncoding(t *testing.T) {
	cfg := types.AnnotateConfig{}.WithDefaults()
	tests := []struct {
		name string
		term string
		want pdftypes.Object
	}{
		{"ascii literal", "begroting", pdftypes.StringLiteral("begroting")},
		{"ascii escaped", `a\b`, pdftypes.StringLiteral(`a\\b`)},
		{"dutch accents", "één", pdftypes.HexLiteral("feff00e900e9006e")},
		{"euro sign", "€5", pdftypes.HexLiteral("feff20ac0035")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := newHighlight(types.Rect{LLX: 10, LLY: 20, URX: 30, URY: 40}, tt.term, cfg)
			require.NoError(t, err)
			d, err := h.RenderDict(nil, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, d["Contents"])
		})
	}
}
