// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package annotate highlights search terms in PDF documents and persists
// the result.
package annotate

import (
	"errors"
	"fmt"
	"os"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/pdiddy/docharvest/internal/pdfdoc"
	"github.com/pdiddy/docharvest/pkg/types"
)

var errMissingPage = errors.New("page object is missing")

// textSource yields positioned glyphs page by page.
type textSource interface {
	NumPage() int
	PageText(page int) ([]pdf.Text, error)
}

type readerSource struct {
	r     *pdf.Reader
	pages int
}

func (s readerSource) NumPage() int { return s.pages }

func (s readerSource) PageText(page int) (texts []pdf.Text, err error) {
	err = pdfdoc.Safely(fmt.Sprintf("reading page %d", page), func() error {
		p := s.r.Page(page)
		if p.V.IsNull() {
			return errMissingPage
		}
		texts = p.Content().Text
		return nil
	})
	return texts, err
}

// Annotator adds highlight annotations and writes output files. It holds
// no per-document state and is safe for concurrent use.
type Annotator struct {
	cfg   types.AnnotateConfig
	write func(path string, data []byte) error
}

// New returns an Annotator with cfg's zero fields defaulted.
func New(cfg types.AnnotateConfig) *Annotator {
	return &Annotator{cfg: cfg.WithDefaults(), write: pdfdoc.WriteFileAtomic}
}

// Annotate highlights every occurrence of every term of spec in payload.
//
// Page and term problems are recorded in the report and skipped. With no
// highlights, payload is written unchanged to ref.DestPath. Otherwise the
// highlighted document goes to the prefixed path and payload is kept under
// ref.DestPath as well. A failure to produce or write output is returned
// wrapped in types.ErrPersist; the report then has no OutputPath.
func (a *Annotator) Annotate(ref types.DocumentRef, payload []byte, spec types.HighlightSpec) (types.AnnotationReport, error) {
	report := types.AnnotationReport{SourceURL: ref.SourceURL}

	src, err := open(payload)
	if err != nil {
		return report, fmt.Errorf("%w: %w", types.ErrPersist, err)
	}
	pending := a.collect(src, spec, &report)

	if report.Highlights == 0 {
		if err := a.write(ref.DestPath, payload); err != nil {
			return report, fmt.Errorf("%w: %w", types.ErrPersist, err)
		}
		report.OutputPath = ref.DestPath
		return report, nil
	}

	annotated, err := applyHighlights(payload, pending)
	if err != nil {
		return report, fmt.Errorf("%w: %w", types.ErrPersist, err)
	}

	highlighted := pdfdoc.PrefixedPath(ref.DestPath, a.cfg.Prefix)
	if err := a.write(highlighted, annotated); err != nil {
		return report, fmt.Errorf("%w: %w", types.ErrPersist, err)
	}
	if err := a.write(ref.DestPath, payload); err != nil {
		os.Remove(highlighted)
		return report, fmt.Errorf("%w: keeping original: %w", types.ErrPersist, err)
	}
	report.OutputPath = highlighted
	report.RetainedPath = ref.DestPath
	return report, nil
}

func open(payload []byte) (textSource, error) {
	r, err := pdfdoc.Open(payload)
	if err != nil {
		return nil, err
	}
	src := readerSource{r: r}
	err = pdfdoc.Safely("counting pages", func() error {
		src.pages = r.NumPage()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return src, nil
}

// collect searches every page for every term and returns the highlights
// to add, keyed by page number. It updates report's counter, placements,
// and item failures as it goes.
func (a *Annotator) collect(src textSource, spec types.HighlightSpec, report *types.AnnotationReport) map[int][]model.AnnotationRenderer {
	pending := make(map[int][]model.AnnotationRenderer)
	if spec.Empty() {
		return pending
	}

	for page := 1; page <= src.NumPage(); page++ {
		texts, err := src.PageText(page)
		if err != nil {
			report.ItemFailures = append(report.ItemFailures, types.ItemFailure{
				Page:   page,
				Reason: err.Error(),
			})
			continue
		}
		pt := newPageText(texts)

		for _, term := range spec.Terms {
			var regions []types.Rect
			err := pdfdoc.Safely("searching", func() error {
				regions = pt.find(term, spec.CaseInsensitive)
				return nil
			})
			if err != nil {
				report.ItemFailures = append(report.ItemFailures, types.ItemFailure{
					Page: page, Term: term, Reason: err.Error(),
				})
				continue
			}

			for _, region := range regions {
				h, err := newHighlight(region, term, a.cfg)
				if err != nil {
					report.ItemFailures = append(report.ItemFailures, types.ItemFailure{
						Page: page, Term: term, Reason: err.Error(),
					})
					continue
				}
				pending[page] = append(pending[page], h)
				report.Placements = append(report.Placements, types.Placement{
					Page: page, Term: term, Rect: region,
				})
				report.Highlights++
			}
		}
	}
	return pending
}
