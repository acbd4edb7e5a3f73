package raster

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/textlift/textlift/document"
)

// writePDF emits a minimal but well-formed PDF with n empty pages.
func writePDF(t *testing.T, n int) string {
	t.Helper()

	var body bytes.Buffer
	offsets := make([]int, 0, n+3)
	addObj := func(s string) {
		offsets = append(offsets, body.Len())
		body.WriteString(s)
	}

	body.WriteString("%PDF-1.4\n")

	kids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		kids = append(kids, fmt.Sprintf("%d 0 R", 3+i))
	}
	addObj("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	addObj(fmt.Sprintf("2 0 obj\n<< /Type /Pages /Kids [%s] /Count %d >>\nendobj\n",
		strings.Join(kids, " "), n))
	for i := 0; i < n; i++ {
		addObj(fmt.Sprintf("%d 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 200 200] >>\nendobj\n", 3+i))
	}

	xrefOffset := body.Len()
	fmt.Fprintf(&body, "xref\n0 %d\n0000000000 65535 f \n", len(offsets)+1)
	for _, off := range offsets {
		fmt.Fprintf(&body, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&body, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		len(offsets)+1, xrefOffset)

	path := filepath.Join(t.TempDir(), "test.pdf")
	if err := os.WriteFile(path, body.Bytes(), 0o600); err != nil {
		t.Fatalf("write pdf: %v", err)
	}
	return path
}

func TestCheckLimit(t *testing.T) {
	for pages := 1; pages <= PageLimit; pages++ {
		if err := CheckLimit(pages, PageLimit, false); err != nil {
			t.Fatalf("CheckLimit(%d) error = %v", pages, err)
		}
	}

	err := CheckLimit(15, PageLimit, false)
	var lerr *LimitError
	if !errors.As(err, &lerr) {
		t.Fatalf("expected *LimitError, got %v", err)
	}
	if lerr.Pages != 15 || lerr.Limit != 10 {
		t.Fatalf("unexpected error: %+v", lerr)
	}
	if !strings.Contains(lerr.Error(), "15") || !strings.Contains(lerr.Error(), "10") {
		t.Fatalf("message should mention both numbers: %v", lerr)
	}

	if err := CheckLimit(15, PageLimit, true); err != nil {
		t.Fatalf("forced CheckLimit error = %v", err)
	}
}

func TestCheckLimitDefault(t *testing.T) {
	if err := CheckLimit(PageLimit+1, 0, false); err == nil {
		t.Fatalf("zero limit should fall back to PageLimit")
	}
}

func TestDPIFor(t *testing.T) {
	if got := DPIFor(document.ModeAccurate); got != DPIAccurate {
		t.Fatalf("accurate DPI = %v", got)
	}
	if got := DPIFor(document.ModeFast); got != DPIFast {
		t.Fatalf("fast DPI = %v", got)
	}
}

func TestPageCount(t *testing.T) {
	path := writePDF(t, 3)
	n, err := PageCount(path)
	if err != nil {
		t.Fatalf("PageCount() error = %v", err)
	}
	if n != 3 {
		t.Fatalf("PageCount() = %d, want 3", n)
	}
}

func TestPageCountBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not.pdf")
	if err := os.WriteFile(path, []byte("not a pdf"), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if _, err := PageCount(path); err == nil {
		t.Fatalf("expected probe error")
	}
}

func TestRenderPages(t *testing.T) {
	path := writePDF(t, 2)
	doc, err := Open(path, document.ModeFast)
	if err != nil {
		t.Skipf("renderer unavailable: %v", err)
	}
	defer doc.Close()

	if doc.Pages() != 2 {
		t.Fatalf("Pages() = %d, want 2", doc.Pages())
	}
	for i := 1; i <= 2; i++ {
		page, err := doc.Render(i)
		if err != nil {
			t.Fatalf("Render(%d) error = %v", i, err)
		}
		if page.Index != i {
			t.Fatalf("page index = %d, want %d", page.Index, i)
		}
		if page.Image.Bounds().Dx() <= 0 || page.Image.Bounds().Dy() <= 0 {
			t.Fatalf("page %d has empty raster", i)
		}
	}

	if _, err := doc.Render(3); err == nil {
		t.Fatalf("expected out-of-range error")
	}
	if _, err := doc.Render(0); err == nil {
		t.Fatalf("expected out-of-range error for index 0")
	}
}
