// Package validate classifies document payloads by content signature rather
// than filename, so mislabeled or renamed uploads are rejected before any
// scratch artifact is created.
package validate

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Kind selects the expected media class for a payload.
type Kind string

const (
	KindImage Kind = "image"
	KindPDF   Kind = "pdf"
)

// SniffLimit bounds how many leading bytes participate in detection. Content
// beyond the prefix never changes the verdict.
const SniffLimit = 2048

var pdfSignature = []byte("%PDF-")

// Error reports a payload that failed signature validation.
type Error struct {
	Kind     Kind
	Detected string
	Reason   string
}

func (e *Error) Error() string {
	switch {
	case e.Kind == "":
		return fmt.Sprintf("invalid request: %s", e.Reason)
	case e.Detected != "":
		return fmt.Sprintf("invalid %s payload: %s (detected %s)", e.Kind, e.Reason, e.Detected)
	default:
		return fmt.Sprintf("invalid %s payload: %s", e.Kind, e.Reason)
	}
}

// Errorf builds a request-level validation error (no payload kind attached),
// used for ambiguous or incomplete source selection and bad option values.
func Errorf(format string, args ...interface{}) *Error {
	return &Error{Reason: fmt.Sprintf(format, args...)}
}

// Check sniffs the leading bytes of a payload and confirms it matches the
// expected kind. Images require a detected type under image/; PDFs require
// application/pdf, with the literal %PDF- header accepted as an authoritative
// fallback for truncated files that defeat generic sniffing.
func Check(kind Kind, prefix []byte) error {
	if len(prefix) == 0 {
		return &Error{Kind: kind, Reason: "empty content"}
	}
	if len(prefix) > SniffLimit {
		prefix = prefix[:SniffLimit]
	}

	detected := mimetype.Detect(prefix).String()

	switch kind {
	case KindImage:
		if strings.HasPrefix(detected, "image/") {
			return nil
		}
		return &Error{Kind: kind, Detected: detected, Reason: "not an image"}
	case KindPDF:
		if detected == "application/pdf" || strings.HasPrefix(detected, "application/pdf;") {
			return nil
		}
		if bytes.HasPrefix(prefix, pdfSignature) {
			return nil
		}
		return &Error{Kind: kind, Detected: detected, Reason: "not a PDF"}
	default:
		return &Error{Kind: kind, Reason: "unknown payload kind"}
	}
}
