// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"strings"
	"unicode"
)

// DocumentRef pairs a source URL with the path its artifact is written to.
// It is created when a batch starts and never changes.
type DocumentRef struct {
	SourceURL string `json:"source_url" yaml:"source_url"`
	DestPath  string `json:"dest_path" yaml:"dest_path"`
}

// FetchResult is what the fetch stage produced for one DocumentRef: either
// a payload or the error that prevented one.
type FetchResult struct {
	Ref     DocumentRef
	Payload []byte
	Err     error
}

// ValidationStatus classifies a structural probe.
type ValidationStatus string

const (
	Valid      ValidationStatus = "valid"
	Corrupt    ValidationStatus = "corrupt"
	Unreadable ValidationStatus = "unreadable"
)

// ValidationOutcome is the result of probing a payload. Reason is empty
// when Status is Valid.
type ValidationOutcome struct {
	Status ValidationStatus `json:"status" yaml:"status"`
	Reason string           `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// IsValid reports whether the payload can go on to annotation.
func (o ValidationOutcome) IsValid() bool { return o.Status == Valid }

// Err returns nil for a valid payload. A corrupt payload wraps ErrCorrupt;
// an unreadable one wraps ErrUnrepairable, since no rewrite can help it.
func (o ValidationOutcome) Err() error {
	switch o.Status {
	case Valid:
		return nil
	case Corrupt:
		return fmt.Errorf("%w: %s", ErrCorrupt, o.Reason)
	default:
		return fmt.Errorf("%w: %s", ErrUnrepairable, o.String())
	}
}

func (o ValidationOutcome) String() string {
	if o.Reason == "" {
		return string(o.Status)
	}
	return fmt.Sprintf("%s: %s", o.Status, o.Reason)
}

// HighlightSpec is the ordered set of distinct search terms for a batch.
// It is shared read-only by every document pipeline in the batch.
type HighlightSpec struct {
	Terms           []string `json:"terms" yaml:"terms"`
	CaseInsensitive bool     `json:"case_insensitive" yaml:"case_insensitive"`
}

// NewHighlightSpec trims terms, drops empty ones, and removes duplicates
// (compared case-insensitively) while keeping first-seen order.
func NewHighlightSpec(terms []string) HighlightSpec {
	spec := HighlightSpec{CaseInsensitive: true}
	seen := make(map[string]bool, len(terms))
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		key := strings.Map(unicode.ToLower, t)
		if seen[key] {
			continue
		}
		seen[key] = true
		spec.Terms = append(spec.Terms, t)
	}
	return spec
}

// Empty reports whether the spec has no terms.
func (s HighlightSpec) Empty() bool { return len(s.Terms) == 0 }

// Rect is a rectangle in PDF user space: lower-left and upper-right corners.
type Rect struct {
	LLX float64 `json:"llx" yaml:"llx"`
	LLY float64 `json:"lly" yaml:"lly"`
	URX float64 `json:"urx" yaml:"urx"`
	URY float64 `json:"ury" yaml:"ury"`
}

// Width returns URX-LLX.
func (r Rect) Width() float64 { return r.URX - r.LLX }

// Height returns URY-LLY.
func (r Rect) Height() float64 { return r.URY - r.LLY }

// Placement records one highlight that was added.
type Placement struct {
	Page int    `json:"page" yaml:"page"`
	Term string `json:"term" yaml:"term"`
	Rect Rect   `json:"rect" yaml:"rect"`
}

// ItemFailure is a localized annotation problem that did not stop the
// document. Term is empty when the whole page could not be read.
type ItemFailure struct {
	Page   int    `json:"page" yaml:"page"`
	Term   string `json:"term,omitempty" yaml:"term,omitempty"`
	Reason string `json:"reason" yaml:"reason"`
}

// AnnotationReport is the final account of annotating one document.
type AnnotationReport struct {
	SourceURL    string        `json:"source_url" yaml:"source_url"`
	Highlights   int           `json:"highlights" yaml:"highlights"`
	ItemFailures []ItemFailure `json:"item_failures,omitempty" yaml:"item_failures,omitempty"`
	Placements   []Placement   `json:"placements,omitempty" yaml:"placements,omitempty"`

	// OutputPath is the final artifact: the prefixed copy when highlights
	// were added, the plain-named file otherwise. Empty if nothing was written.
	OutputPath string `json:"output_path,omitempty" yaml:"output_path,omitempty"`

	// RetainedPath is the plain-named, unhighlighted file kept next to a
	// highlighted copy. Empty when no highlights were added.
	RetainedPath string `json:"retained_path,omitempty" yaml:"retained_path,omitempty"`
}

// DocumentState is a node of the per-document pipeline.
type DocumentState string

const (
	StateFetched      DocumentState = "fetched"
	StateValidating   DocumentState = "validating"
	StateRepairing    DocumentState = "repairing"
	StateRevalidating DocumentState = "revalidating"
	StateAnnotating   DocumentState = "annotating"
	StateDone         DocumentState = "done"
	StateFailed       DocumentState = "failed"
)

// Terminal reports whether no further transition is possible.
func (s DocumentState) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// Outcome is the per-URL result of a batch run.
type Outcome struct {
	Ref      DocumentRef       `json:"ref" yaml:"ref"`
	State    DocumentState     `json:"state" yaml:"state"`
	Kind     ErrorKind         `json:"kind,omitempty" yaml:"kind,omitempty"`
	Reason   string            `json:"reason,omitempty" yaml:"reason,omitempty"`
	Repaired bool              `json:"repaired" yaml:"repaired"`
	Report   *AnnotationReport `json:"report,omitempty" yaml:"report,omitempty"`
	Trace    []DocumentState   `json:"trace,omitempty" yaml:"trace,omitempty"`
}

// Succeeded reports whether the document reached StateDone.
func (o Outcome) Succeeded() bool { return o.State == StateDone }

// OutputPath returns the final artifact path, or "" for failed documents.
func (o Outcome) OutputPath() string {
	if o.Report == nil || !o.Succeeded() {
		return ""
	}
	return o.Report.OutputPath
}
