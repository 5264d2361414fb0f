// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pdfdoc holds the PDF plumbing shared by the validate, repair, and
// annotate stages: opening payloads with the structural parser, pdfcpu
// configuration, output naming, and atomic file writes.
package pdfdoc

import (
	"bytes"
	"errors"
	"fmt"
	"sync"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Signature is the leading byte sequence of every PDF file.
var Signature = []byte("%PDF")

// HasSignature reports whether data starts with Signature.
func HasSignature(data []byte) bool {
	return bytes.HasPrefix(data, Signature)
}

// ErrEncrypted is returned by Open for password-protected documents.
var ErrEncrypted = errors.New("document is encrypted")

var disableConfigDir sync.Once

// Config returns a fresh pdfcpu configuration in relaxed validation mode.
// pdfcpu records the running command on the configuration, so each call
// site gets its own copy.
func Config() *model.Configuration {
	disableConfigDir.Do(api.DisableConfigDir)
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// Open parses payload with the structural reader. The parser panics on
// some malformed input; those panics come back as errors.
func Open(payload []byte) (r *pdf.Reader, err error) {
	err = Safely("opening document", func() error {
		var openErr error
		r, openErr = pdf.NewReader(bytes.NewReader(payload), int64(len(payload)))
		return openErr
	})
	if err != nil {
		if errors.Is(err, pdf.ErrInvalidPassword) {
			return nil, fmt.Errorf("%w: %w", ErrEncrypted, err)
		}
		return nil, err
	}
	return r, nil
}

// Safely runs fn, converting a panic into an error prefixed with op.
func Safely(op string, fn func() error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%s: %v", op, p)
		}
	}()
	if err := fn(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
