// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report renders batch results for people: status lines on a
// terminal and a YAML report file.
package report

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/docharvest/internal/harvest"
	"github.com/pdiddy/docharvest/internal/pdfdoc"
	"github.com/pdiddy/docharvest/pkg/types"
)

// File is the on-disk YAML report of one batch.
type File struct {
	Run       RunInfo         `yaml:"run"`
	Summary   Summary         `yaml:"summary"`
	Documents []types.Outcome `yaml:"documents"`
}

// RunInfo identifies the batch.
type RunInfo struct {
	ID         string    `yaml:"id,omitempty"`
	StartedAt  time.Time `yaml:"started_at"`
	FinishedAt time.Time `yaml:"finished_at"`
	Terms      []string  `yaml:"terms"`
}

// Summary holds batch counts.
type Summary struct {
	Total      int `yaml:"total"`
	Done       int `yaml:"done"`
	Failed     int `yaml:"failed"`
	Repaired   int `yaml:"repaired"`
	Highlights int `yaml:"highlights"`
}

// NewFile builds the report for a finished batch.
func NewFile(info RunInfo, res harvest.BatchResult) File {
	return File{
		Run: info,
		Summary: Summary{
			Total:      res.Total(),
			Done:       res.Done(),
			Failed:     res.Failed(),
			Repaired:   res.Repaired(),
			Highlights: res.Highlights(),
		},
		Documents: res.Outcomes,
	}
}

// Write saves the report as YAML, replacing any existing file atomically.
func (f File) Write(path string) error {
	data, err := yaml.Marshal(&f)
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	if err := pdfdoc.WriteFileAtomic(path, data); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

// WriteOutcome prints one status line for o, plus an indented warning for
// each annotation item failure.
func WriteOutcome(w io.Writer, o types.Outcome) {
	name := filepath.Base(o.Ref.DestPath)
	if !o.Succeeded() {
		fmt.Fprintf(w, "failed:  %s (%s: %s)\n", name, o.Kind, o.Reason)
		return
	}

	var notes []string
	if o.Report != nil {
		notes = append(notes, plural(o.Report.Highlights, "highlight"))
	}
	if o.Repaired {
		notes = append(notes, "repaired")
	}
	fmt.Fprintf(w, "done:    %s -> %s (%s)\n", name, o.OutputPath(), strings.Join(notes, ", "))

	if o.Report == nil {
		return
	}
	for _, f := range o.Report.ItemFailures {
		if f.Term == "" {
			fmt.Fprintf(w, "  warning: page %d: %s\n", f.Page, f.Reason)
		} else {
			fmt.Fprintf(w, "  warning: page %d, %q: %s\n", f.Page, f.Term, f.Reason)
		}
	}
}

// WriteSummary prints the closing batch summary line.
func WriteSummary(w io.Writer, res harvest.BatchResult) {
	fmt.Fprintf(w, "\nBatch summary: %d done, %d failed, %d repaired, %s (total: %d)\n",
		res.Done(), res.Failed(), res.Repaired(), plural(res.Highlights(), "highlight"), res.Total())
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
