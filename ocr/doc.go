package ocr

// Package ocr defines the abstraction layer for plugging recognition engines
// (Tesseract locally, or remote services) into the extraction pipeline. The
// interface is intentionally small and transport-agnostic; a failing unit is
// captured in its Result rather than raised, so a multi-page job always
// produces output covering every unit.
