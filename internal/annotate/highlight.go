// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package annotate

import (
	"bytes"
	"fmt"
	"maps"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	pdftypes "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/pdiddy/docharvest/internal/pdfdoc"
	"github.com/pdiddy/docharvest/pkg/types"
)

// printFlag makes the highlight appear when the page is printed.
const printFlag = 4

// highlight renders a Highlight annotation dictionary for pdfcpu. The
// embedded Annotation supplies the bookkeeping methods of
// model.AnnotationRenderer.
type highlight struct {
	model.Annotation
	region  types.Rect
	term    string
	color   [3]float64
	opacity float64
}

func newHighlight(region types.Rect, term string, cfg types.AnnotateConfig) (*highlight, error) {
	if region.Width() <= 0 || region.Height() <= 0 {
		return nil, fmt.Errorf("%w: empty region %.2f,%.2f %.2f,%.2f for %q",
			types.ErrAnnotationItem, region.LLX, region.LLY, region.URX, region.URY, term)
	}
	return &highlight{
		Annotation: model.Annotation{
			SubType:  model.AnnHighLight,
			Rect:     *pdftypes.NewRectangle(region.LLX, region.LLY, region.URX, region.URY),
			Contents: term,
		},
		region:  region,
		term:    term,
		color:   cfg.Color,
		opacity: cfg.Opacity,
	}, nil
}

// RenderDict returns the annotation dictionary. QuadPoints run upper-left,
// upper-right, lower-left, lower-right.
func (h *highlight) RenderDict(_ *model.XRefTable, pageIndRef *pdftypes.IndirectRef) (pdftypes.Dict, error) {
	r := h.region
	d := pdftypes.Dict{
		"Type":       pdftypes.Name("Annot"),
		"Subtype":    pdftypes.Name("Highlight"),
		"Rect":       floatArray(r.LLX, r.LLY, r.URX, r.URY),
		"QuadPoints": floatArray(r.LLX, r.URY, r.URX, r.URY, r.LLX, r.LLY, r.URX, r.LLY),
		"C":          floatArray(h.color[0], h.color[1], h.color[2]),
		"CA":         pdftypes.Float(h.opacity),
		"F":          pdftypes.Integer(printFlag),
		"Contents":   textString(h.term),
	}
	if pageIndRef != nil {
		d["P"] = *pageIndRef
	}
	return d, nil
}

func floatArray(vals ...float64) pdftypes.Array {
	arr := make(pdftypes.Array, len(vals))
	for i, v := range vals {
		arr[i] = pdftypes.Float(v)
	}
	return arr
}

func escapeLiteral(s string) string {
	return strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`).Replace(s)
}

// textString encodes s as a PDF text string. ASCII stays a literal;
// anything else becomes UTF-16BE with a byte order mark, written as hex.
func textString(s string) pdftypes.Object {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return pdftypes.NewHexLiteral([]byte(pdftypes.EncodeUTF16String(s)))
		}
	}
	return pdftypes.StringLiteral(escapeLiteral(s))
}

// applyHighlights writes payload with every pending highlight added in a
// single pass. Keys of pending are 1-based page numbers. The same payload
// and highlights always produce the same bytes.
func applyHighlights(payload []byte, pending map[int][]model.AnnotationRenderer) ([]byte, error) {
	var buf bytes.Buffer
	err := pdfdoc.Safely("applying highlights", func() error {
		conf := pdfdoc.Config()
		conf.Cmd = model.ADDANNOTATIONS
		ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(payload), conf)
		if err != nil {
			return err
		}
		// Pages go in ascending order so object numbers are stable.
		for _, page := range slices.Sorted(maps.Keys(pending)) {
			one := map[int][]model.AnnotationRenderer{page: pending[page]}
			if _, err := pdfcpu.AddAnnotationsMap(ctx, one, false); err != nil {
				return err
			}
		}
		return api.Write(ctx, &buf, conf)
	})
	if err != nil {
		return nil, err
	}
	return pdfdoc.PinVolatile(buf.Bytes(), payload), nil
}
