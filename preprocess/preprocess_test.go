package preprocess

import (
	"image"
	"image/color"
	"testing"

	"github.com/textlift/textlift/document"
)

func gradientImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			// Narrow mid-range band so autocontrast has room to stretch.
			v := uint8(100 + x*4)
			img.Set(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return img
}

func TestApplyFastIsIdentity(t *testing.T) {
	img := gradientImage()
	got := Apply(img, document.ModeFast)
	if got != image.Image(img) {
		t.Fatalf("fast mode must return the input unchanged")
	}
}

func TestApplyAccurate(t *testing.T) {
	img := gradientImage()
	got := Apply(img, document.ModeAccurate)

	gray, ok := got.(*image.Gray)
	if !ok {
		t.Fatalf("accurate mode should produce grayscale, got %T", got)
	}
	if w := gray.Bounds().Dx(); w != 8*UpscaleFactor {
		t.Fatalf("width = %d, want %d", w, 8*UpscaleFactor)
	}
	if h := gray.Bounds().Dy(); h != 8*UpscaleFactor {
		t.Fatalf("height = %d, want %d", h, 8*UpscaleFactor)
	}

	// Contrast was stretched to the full range.
	lo, hi := uint8(255), uint8(0)
	for _, v := range gray.Pix {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if lo != 0 || hi != 255 {
		t.Fatalf("autocontrast range = [%d, %d], want [0, 255]", lo, hi)
	}
}

func TestAutocontrastFlatImage(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 4, 4))
	for i := range img.Pix {
		img.Pix[i] = 128
	}
	got := Autocontrast(img)
	for _, v := range got.Pix {
		if v != 128 {
			t.Fatalf("flat image must pass through unchanged, got %d", v)
		}
	}
}

func TestGrayscaleIdempotent(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 4, 4))
	if Grayscale(img) != img {
		t.Fatalf("grayscale input should be returned as-is")
	}
}
