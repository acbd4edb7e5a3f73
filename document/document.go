// Package document defines the data model shared across the extraction
// pipeline: where a document comes from, how it should be processed, and what
// an extraction produces.
package document

import (
	"fmt"
	"time"

	"github.com/textlift/textlift/ner"
)

// Mode selects the quality-vs-speed trade-off for rasterization and
// preprocessing.
type Mode string

const (
	// ModeFast rasterizes at lower resolution and skips preprocessing.
	ModeFast Mode = "fast"
	// ModeAccurate trades runtime for recognition quality: higher raster DPI
	// plus the full preprocessing chain.
	ModeAccurate Mode = "accurate"
)

// ParseMode validates a raw mode string at the boundary. Only the exact
// values "fast" and "accurate" are accepted.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeFast, ModeAccurate:
		return Mode(s), nil
	}
	return "", fmt.Errorf("invalid mode %q: use %q or %q", s, ModeFast, ModeAccurate)
}

// Source identifies where a document's bytes come from. Exactly one variant
// must be populated: either an inline upload or a tenant bucket reference.
type Source struct {
	// Upload variant.
	Data     []byte
	Filename string

	// Remote variant.
	TenantID  string
	ObjectKey string
}

// IsUpload reports whether any upload-variant field is set.
func (s Source) IsUpload() bool { return len(s.Data) > 0 || s.Filename != "" }

// IsRemote reports whether any remote-variant field is set.
func (s Source) IsRemote() bool { return s.TenantID != "" || s.ObjectKey != "" }

// Name returns the identifier reported back in results: the upload filename
// or the remote object key.
func (s Source) Name() string {
	if s.ObjectKey != "" {
		return s.ObjectKey
	}
	if s.Filename != "" {
		return s.Filename
	}
	return "unknown"
}

// Result is the outcome of one document extraction.
type Result struct {
	// SourceName echoes the upload filename or object key.
	SourceName string
	// Text is the concatenated extracted text, with per-page markers for
	// multi-page documents.
	Text string
	// Entities is nil unless entity extraction was requested.
	Entities []ner.Entity
	// Elapsed covers validation through concatenation (and entity
	// extraction when requested).
	Elapsed time.Duration
}
