// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package validate

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pdiddy/docharvest/internal/testpdf"
	"github.com/pdiddy/docharvest/pkg/types"
)

func TestValidate(t *testing.T) {
	valid := testpdf.Build("The budget for 2024", "Second page")

	tests := []struct {
		name    string
		payload []byte
		want    types.ValidationStatus
	}{
		{"valid two pages", valid, types.Valid},
		{"valid blank page", testpdf.Build(""), types.Valid},
		{"empty", nil, types.Unreadable},
		{"html page", []byte("<html><title>x</title></html>"), types.Unreadable},
		{"broken xref", testpdf.BreakXRef(valid), types.Corrupt},
		{"truncated", testpdf.Truncate(valid, len(valid)/2), types.Corrupt},
		{"header only", []byte("%PDF-1.4\n%%EOF\n"), types.Corrupt},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Validate(tt.payload)
			assert.Equal(t, tt.want, got.Status, "reason: %s", got.Reason)
			if tt.want == types.Valid {
				assert.Empty(t, got.Reason)
			} else {
				assert.NotEmpty(t, got.Reason)
			}
		})
	}
}

func TestValidateDoesNotMutatePayload(t *testing.T) {
	payload := testpdf.BreakXRef(testpdf.Build("abc"))
	before := bytes.Clone(payload)

	Validate(payload)
	assert.Equal(t, before, payload)
}

func TestValidatorMethod(t *testing.T) {
	var v Validator
	assert.True(t, v.Validate(testpdf.Build("x")).IsValid())
}
