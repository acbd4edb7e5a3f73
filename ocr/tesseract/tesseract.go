// Package tesseract implements the recognition engine contract with the
// gosseract Tesseract binding.
package tesseract

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"strconv"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/textlift/textlift/ocr"
)

// Engine is a Tesseract-backed recognition engine. A fresh gosseract client
// is created per call; clients are not safe for concurrent reuse.
type Engine struct {
	clientFactory func() *gosseract.Client
}

// New constructs a Tesseract-backed engine.
func New() *Engine {
	return &Engine{clientFactory: gosseract.NewClient}
}

func (e *Engine) Name() string { return "tesseract" }

// Recognize performs OCR on a single input, applying the resolved language
// codes and the page-segmentation directive derived from the language spec.
func (e *Engine) Recognize(ctx context.Context, in ocr.Input) (ocr.Result, error) {
	select {
	case <-ctx.Done():
		return ocr.Result{}, ctx.Err()
	default:
	}

	c := e.clientFactory()
	defer c.Close()

	if in.Image != nil {
		var buf bytes.Buffer
		if err := png.Encode(&buf, in.Image); err != nil {
			return ocr.Result{}, fmt.Errorf("encode raster: %w", err)
		}
		if err := c.SetImageFromBytes(buf.Bytes()); err != nil {
			return ocr.Result{}, fmt.Errorf("set image: %w", err)
		}
	} else {
		if err := c.SetImage(in.Path); err != nil {
			return ocr.Result{}, fmt.Errorf("set image path: %w", err)
		}
	}

	if codes := in.Spec.Codes; codes != "" {
		if err := c.SetLanguage(strings.Split(codes, "+")...); err != nil {
			return ocr.Result{}, fmt.Errorf("set languages: %w", err)
		}
	}
	if err := c.SetPageSegMode(gosseract.PageSegMode(in.Spec.PageSegMode())); err != nil {
		return ocr.Result{}, fmt.Errorf("set page segmentation: %w", err)
	}
	if in.DPI > 0 {
		if err := c.SetVariable(gosseract.SettableVariable("user_defined_dpi"), strconv.Itoa(in.DPI)); err != nil {
			return ocr.Result{}, fmt.Errorf("set dpi: %w", err)
		}
	}
	for k, v := range in.Metadata {
		if err := c.SetVariable(gosseract.SettableVariable(k), v); err != nil {
			return ocr.Result{}, fmt.Errorf("set variable %s: %w", k, err)
		}
	}

	text, err := c.Text()
	if err != nil {
		return ocr.Result{}, fmt.Errorf("recognize text: %w", err)
	}
	return ocr.Result{InputID: in.ID, Text: strings.TrimSpace(text)}, nil
}
