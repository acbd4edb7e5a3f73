// Package lang resolves raw language hints into the concrete OCR language
// codes and page-segmentation behavior handed to the recognition engine.
package lang

// DefaultCodes is the mixed English/Portuguese trained-data selection used
// when a request names no language.
const DefaultCodes = "eng+por"

// HintAuto asks the engine to compensate for an unnamed language with
// orientation-and-script detection while still attempting the mixed default.
const HintAuto = "auto"

// Tesseract page-segmentation modes used by the pipeline.
const (
	PSMAutoOSD = 1 // fully automatic segmentation with OSD
	PSMAuto    = 3 // fully automatic segmentation, no OSD
)

// Spec is a resolved language selection.
type Spec struct {
	// Codes is the "+"-joined Tesseract language code string, e.g. "eng+por".
	Codes string
	// AutoDetect enables orientation-and-script detection during
	// segmentation.
	AutoDetect bool
}

// Resolve maps a raw hint and an explicit auto-detect flag to a Spec. The
// "auto" hint forces auto-detection and the mixed default regardless of the
// explicit flag; an empty hint falls back to the mixed default.
func Resolve(hint string, autoDetect bool) Spec {
	if hint == HintAuto {
		return Spec{Codes: DefaultCodes, AutoDetect: true}
	}
	if hint == "" {
		hint = DefaultCodes
	}
	return Spec{Codes: hint, AutoDetect: autoDetect}
}

// PageSegMode returns the segmentation directive that engages OSD in the
// engine; the language string alone never does.
func (s Spec) PageSegMode() int {
	if s.AutoDetect {
		return PSMAutoOSD
	}
	return PSMAuto
}
