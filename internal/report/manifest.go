// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"go.yaml.in/yaml/v3"
)

// Manifest is a batch described on disk:
//
//	terms:
//	  - budget
//	documents:
//	  - https://example.com/kst-1.pdf
type Manifest struct {
	Terms     []string `yaml:"terms"`
	Documents []string `yaml:"documents"`
}

// ReadManifest loads a manifest file. Blank entries are dropped.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	m.Documents = nonBlank(m.Documents)
	m.Terms = nonBlank(m.Terms)
	return &m, nil
}

// Merge appends extra URLs and terms after the manifest's own.
func (m *Manifest) Merge(urls, terms []string) (allURLs, allTerms []string) {
	if m == nil {
		return nonBlank(urls), terms
	}
	return slices.Concat(m.Documents, nonBlank(urls)), slices.Concat(m.Terms, terms)
}

func nonBlank(ss []string) []string {
	var out []string
	for _, s := range ss {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
