package validate

import (
	"errors"
	"strings"
	"testing"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func TestCheckImagePNG(t *testing.T) {
	if err := Check(KindImage, pngHeader); err != nil {
		t.Fatalf("Check() error = %v", err)
	}
}

func TestCheckImageRejectsText(t *testing.T) {
	err := Check(KindImage, []byte("Hello World"))
	var verr *Error
	if !errors.As(err, &verr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if verr.Kind != KindImage {
		t.Fatalf("unexpected kind: %s", verr.Kind)
	}
}

func TestCheckPDFHeader(t *testing.T) {
	if err := Check(KindPDF, []byte("%PDF-1.4\n")); err != nil {
		t.Fatalf("Check() error = %v", err)
	}
}

func TestCheckPDFHeaderFallback(t *testing.T) {
	// Truncated to the bare signature; still authoritative.
	if err := Check(KindPDF, []byte("%PDF-")); err != nil {
		t.Fatalf("Check() error = %v", err)
	}
}

func TestCheckPDFRejectsImage(t *testing.T) {
	err := Check(KindPDF, pngHeader)
	if err == nil {
		t.Fatalf("expected error for PNG payload")
	}
	if !strings.Contains(err.Error(), "not a PDF") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestCheckEmptyContent(t *testing.T) {
	for _, kind := range []Kind{KindImage, KindPDF} {
		err := Check(kind, nil)
		var verr *Error
		if !errors.As(err, &verr) {
			t.Fatalf("expected *Error for empty %s content, got %v", kind, err)
		}
		if !strings.Contains(verr.Error(), "empty content") {
			t.Fatalf("unexpected message: %v", verr)
		}
	}
}

func TestCheckPrefixBounded(t *testing.T) {
	payload := append(append([]byte{}, pngHeader...), make([]byte, SniffLimit*4)...)
	if err := Check(KindImage, payload); err != nil {
		t.Fatalf("Check() error = %v", err)
	}
}
