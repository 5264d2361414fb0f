// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package validate probes whether a PDF payload is structurally readable.
package validate

import (
	"errors"

	"github.com/pdiddy/docharvest/internal/pdfdoc"
	"github.com/pdiddy/docharvest/pkg/types"
)

var (
	errNoPages       = errors.New("document has no pages")
	errNullFirstPage = errors.New("first page object is missing")
)

// Validate opens payload and reads the first page's content. It never
// modifies payload.
//
// Empty, unsigned, and encrypted payloads are Unreadable: a structural
// rewrite cannot help them. Parse failures are Corrupt.
func Validate(payload []byte) types.ValidationOutcome {
	if len(payload) == 0 {
		return unreadable("empty payload")
	}
	if !pdfdoc.HasSignature(payload) {
		return unreadable("missing %PDF signature")
	}

	r, err := pdfdoc.Open(payload)
	if err != nil {
		if errors.Is(err, pdfdoc.ErrEncrypted) {
			return unreadable(err.Error())
		}
		return corrupt(err.Error())
	}

	err = pdfdoc.Safely("reading first page", func() error {
		if r.NumPage() < 1 {
			return errNoPages
		}
		page := r.Page(1)
		if page.V.IsNull() {
			return errNullFirstPage
		}
		_ = page.Content()
		return nil
	})
	if err != nil {
		return corrupt(err.Error())
	}
	return types.ValidationOutcome{Status: types.Valid}
}

// Validator exposes Validate as a method for callers that take an
// interface.
type Validator struct{}

// Validate calls the package-level Validate.
func (Validator) Validate(payload []byte) types.ValidationOutcome {
	return Validate(payload)
}

func corrupt(reason string) types.ValidationOutcome {
	return types.ValidationOutcome{Status: types.Corrupt, Reason: reason}
}

func unreadable(reason string) types.ValidationOutcome {
	return types.ValidationOutcome{Status: types.Unreadable, Reason: reason}
}
