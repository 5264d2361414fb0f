// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "errors"

// ErrorKind names a class of document-scoped failure.
type ErrorKind string

const (
	KindNone           ErrorKind = ""
	KindTransport      ErrorKind = "transport_error"
	KindFormatMismatch ErrorKind = "format_mismatch"
	// KindCorrupt only classifies a ValidationOutcome. It routes a document
	// to repair and never ends an Outcome: a corrupt document either
	// repairs or fails with KindUnrepairable.
	KindCorrupt        ErrorKind = "corrupt"
	KindUnrepairable   ErrorKind = "unrepairable"
	KindAnnotationItem ErrorKind = "annotation_item_failure"
	KindPersist        ErrorKind = "persist_failure"
)

// Sentinel errors for each ErrorKind. Stages wrap these with %w so callers
// can test with errors.Is.
var (
	ErrTransport      = errors.New("transport error")
	ErrFormatMismatch = errors.New("format mismatch")
	ErrCorrupt        = errors.New("corrupt document")
	ErrUnrepairable   = errors.New("unrepairable document")
	ErrAnnotationItem = errors.New("annotation item failure")
	ErrPersist        = errors.New("persist failure")
)

var kindSentinels = []struct {
	kind ErrorKind
	err  error
}{
	{KindTransport, ErrTransport},
	{KindFormatMismatch, ErrFormatMismatch},
	{KindCorrupt, ErrCorrupt},
	{KindUnrepairable, ErrUnrepairable},
	{KindAnnotationItem, ErrAnnotationItem},
	{KindPersist, ErrPersist},
}

// KindOf returns the ErrorKind whose sentinel err wraps, or KindNone.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	for _, ks := range kindSentinels {
		if errors.Is(err, ks.err) {
			return ks.kind
		}
	}
	return KindNone
}
