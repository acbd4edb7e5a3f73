package ocr

import (
	"context"
	"fmt"
	"image"

	"github.com/textlift/textlift/lang"
)

// Input encapsulates a single image submitted for recognition.
type Input struct {
	// ID is a caller-provided identifier echoed back in the Result; for PDF
	// pages it carries the page number, for standalone images the source
	// name.
	ID string
	// Image is the decoded raster to recognize. When nil, Path is used
	// instead.
	Image image.Image
	// Path points at an image file on disk, used when Image is nil.
	Path string
	// Spec carries the resolved language codes and segmentation behavior.
	Spec lang.Spec
	// DPI is the effective resolution of the raster; zero means unknown.
	DPI int
	// Metadata passes engine-specific knobs without hard-coding them into
	// the API surface.
	Metadata map[string]string
}

// Result captures recognition output for one input. A failed unit carries
// its error here instead of aborting the batch.
type Result struct {
	InputID string
	Text    string
	Err     error
}

// Failed reports whether the unit produced an error instead of text.
func (r Result) Failed() bool { return r.Err != nil }

// Render returns the text representation used in concatenated output: the
// recognized text, or the inline error marker for a failed unit.
func (r Result) Render() string {
	if r.Err != nil {
		return fmt.Sprintf("[ERROR] Unable to process file: %s. Error: %v", r.InputID, r.Err)
	}
	return r.Text
}

// Engine is the recognition provider contract: one image in, one result out.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, in Input) (Result, error)
}

// Recognize invokes the engine and absorbs any failure into the result, so
// callers processing batches never need a per-unit error path.
func Recognize(ctx context.Context, engine Engine, in Input) Result {
	res, err := engine.Recognize(ctx, in)
	if err != nil {
		return Result{InputID: in.ID, Err: err}
	}
	if res.InputID == "" {
		res.InputID = in.ID
	}
	return res
}
