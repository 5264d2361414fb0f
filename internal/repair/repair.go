// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package repair rewrites structurally damaged PDFs. pdfcpu rebuilds a
// broken cross-reference section by scanning the file for object
// definitions; writing the result produces a fresh, consistent xref.
package repair

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/pdiddy/docharvest/internal/pdfdoc"
	"github.com/pdiddy/docharvest/pkg/types"
)

// rewriteFunc reads a PDF from rs and writes a rewritten copy to w.
type rewriteFunc func(rs io.ReadSeeker, w io.Writer, conf *model.Configuration) error

var errEmptyOutput = errors.New("rewrite produced no output")

// Repairer performs one best-effort rewrite per call. It is safe for
// concurrent use; each call owns its own temporary file.
type Repairer struct {
	tempDir string
	rewrite rewriteFunc
}

// New returns a Repairer that stages output under tempDir. An empty tempDir
// means os.TempDir().
func New(tempDir string) *Repairer {
	return &Repairer{tempDir: tempDir, rewrite: api.Optimize}
}

// Repair returns a rewritten copy of payload. The staging file is removed
// before Repair returns, whatever the outcome. Errors wrap
// types.ErrUnrepairable.
func (r *Repairer) Repair(payload []byte) ([]byte, error) {
	tmp, err := os.CreateTemp(r.tempDir, "docharvest-repair-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("%w: creating temp file: %w", types.ErrUnrepairable, err)
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	err = pdfdoc.Safely("rewriting document", func() error {
		return r.rewrite(bytes.NewReader(payload), tmp, pdfdoc.Config())
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrUnrepairable, err)
	}

	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("%w: rewinding temp file: %w", types.ErrUnrepairable, err)
	}
	out, err := io.ReadAll(tmp)
	if err != nil {
		return nil, fmt.Errorf("%w: reading temp file: %w", types.ErrUnrepairable, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %w", types.ErrUnrepairable, errEmptyOutput)
	}
	return pdfdoc.PinVolatile(out, payload), nil
}
