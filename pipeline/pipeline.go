// Package pipeline composes the extraction stages: source resolution,
// content validation, PDF decomposition, preprocessing, recognition, and
// optional entity extraction. Heavy steps run under a bounded worker pool so
// concurrent documents share the process's recognition capacity.
package pipeline

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/textlift/textlift/document"
	"github.com/textlift/textlift/lang"
	"github.com/textlift/textlift/ner"
	"github.com/textlift/textlift/observability"
	"github.com/textlift/textlift/ocr"
	"github.com/textlift/textlift/preprocess"
	"github.com/textlift/textlift/raster"
	"github.com/textlift/textlift/validate"
)

// PageMarker formats the boundary line inserted before each page's text.
const PageMarker = "--- Page %d ---"

// DefaultWorkers bounds the heavy-operation pool when no explicit size is
// configured.
const DefaultWorkers = 4

// ProcessingError wraps rasterization or unexpected pipeline failures.
type ProcessingError struct {
	Op  string
	Err error
}

func (e *ProcessingError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *ProcessingError) Unwrap() error { return e.Err }

// ObjectFetcher retrieves a remote object into a scratch file owned by the
// caller. Implemented by store.Store.
type ObjectFetcher interface {
	Fetch(ctx context.Context, tenantID, objectKey string) (string, error)
}

// EntityService extracts named entities from text. Implemented by
// ner.Service.
type EntityService interface {
	Extract(text, langHint string) ([]ner.Entity, error)
}

// Options mirror the pipeline entry-point parameters.
type Options struct {
	// LangHint is the raw language hint; empty means "eng+por".
	LangHint string
	// Mode is the processing mode; empty means fast.
	Mode document.Mode
	// AutoDetect enables orientation-and-script detection. Overridden to
	// true by the "auto" hint.
	AutoDetect bool
	// ForceProcessing bypasses the page-count ceiling.
	ForceProcessing bool
	// WantEntities adds named-entity extraction over the final text.
	WantEntities bool
}

// pdfDocument is the slice of raster.Document the pipeline needs; tests
// substitute fakes to exercise page flows without a renderer.
type pdfDocument interface {
	Pages() int
	Render(index int) (raster.Page, error)
	Close() error
}

// Extractor runs the document extraction pipeline.
type Extractor struct {
	engine    ocr.Engine
	fetcher   ObjectFetcher
	entities  EntityService
	logger    observability.Logger
	tracer    observability.Tracer
	sem       *semaphore.Weighted
	pageLimit int

	pageCount func(path string) (int, error)
	openDoc   func(path string, mode document.Mode) (pdfDocument, error)
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithFetcher wires the object store used for remote sources.
func WithFetcher(f ObjectFetcher) Option {
	return func(x *Extractor) { x.fetcher = f }
}

// WithEntityService wires the NER service used when entities are requested.
func WithEntityService(s EntityService) Option {
	return func(x *Extractor) { x.entities = s }
}

// WithLogger sets the pipeline logger.
func WithLogger(l observability.Logger) Option {
	return func(x *Extractor) {
		if l != nil {
			x.logger = l
		}
	}
}

// WithTracer sets the pipeline tracer.
func WithTracer(tr observability.Tracer) Option {
	return func(x *Extractor) {
		if tr != nil {
			x.tracer = tr
		}
	}
}

// WithWorkers bounds the heavy-operation pool.
func WithWorkers(n int) Option {
	return func(x *Extractor) {
		if n > 0 {
			x.sem = semaphore.NewWeighted(int64(n))
		}
	}
}

// WithPageLimit overrides the PDF page ceiling.
func WithPageLimit(n int) Option {
	return func(x *Extractor) {
		if n > 0 {
			x.pageLimit = n
		}
	}
}

// New creates an Extractor around a recognition engine.
func New(engine ocr.Engine, opts ...Option) *Extractor {
	x := &Extractor{
		engine:    engine,
		logger:    observability.NopLogger{},
		tracer:    observability.NopTracer(),
		sem:       semaphore.NewWeighted(DefaultWorkers),
		pageLimit: raster.PageLimit,
		pageCount: raster.PageCount,
		openDoc: func(path string, mode document.Mode) (pdfDocument, error) {
			return raster.Open(path, mode)
		},
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Extract runs the full pipeline for one document source.
func (x *Extractor) Extract(ctx context.Context, src document.Source, opts Options) (document.Result, error) {
	ctx, span := x.tracer.StartSpan(ctx, "pipeline.extract")
	defer span.Finish()

	mode, err := resolveMode(opts.Mode)
	if err != nil {
		span.SetError(err)
		return document.Result{}, err
	}
	if err := resolveSource(src); err != nil {
		span.SetError(err)
		return document.Result{}, err
	}

	spec := lang.Resolve(opts.LangHint, opts.AutoDetect)
	name := src.Name()
	log := x.logger.With(observability.String("source", name))

	start := time.Now()

	path, cleanup, err := x.stage(ctx, src)
	if err != nil {
		span.SetError(err)
		return document.Result{}, err
	}
	defer cleanup()

	kind, err := classify(path)
	if err != nil {
		span.SetError(err)
		return document.Result{}, err
	}

	var text string
	switch kind {
	case validate.KindPDF:
		text, err = x.extractPDF(ctx, log, path, name, mode, spec, opts.ForceProcessing)
	default:
		text, err = x.extractImage(ctx, log, path, name, mode, spec)
	}
	if err != nil {
		span.SetError(err)
		return document.Result{}, err
	}

	result := document.Result{SourceName: name, Text: text}
	if opts.WantEntities {
		entities, err := x.extractEntities(text, spec)
		if err != nil {
			span.SetError(err)
			return document.Result{}, err
		}
		result.Entities = entities
		log.Debug("entities extracted", observability.Int(observability.MetricEntityCount, len(entities)))
	}

	result.Elapsed = time.Since(start)
	log.Info("document extracted",
		observability.String("kind", string(kind)),
		observability.Duration("elapsed", result.Elapsed))
	return result, nil
}

// BatchResult is the outcome of a multi-source extraction.
type BatchResult struct {
	Documents []document.Result
	Elapsed   time.Duration
}

// ExtractAll processes sources in input order, one result per source. A
// document-level failure aborts the batch; unit-level OCR failures stay
// inline in the affected document's text.
func (x *Extractor) ExtractAll(ctx context.Context, sources []document.Source, opts Options) (BatchResult, error) {
	start := time.Now()
	results := make([]document.Result, 0, len(sources))
	for _, src := range sources {
		res, err := x.Extract(ctx, src, opts)
		if err != nil {
			return BatchResult{}, err
		}
		results = append(results, res)
	}
	return BatchResult{Documents: results, Elapsed: time.Since(start)}, nil
}

func resolveMode(mode document.Mode) (document.Mode, error) {
	if mode == "" {
		return document.ModeFast, nil
	}
	parsed, err := document.ParseMode(string(mode))
	if err != nil {
		return "", validate.Errorf("%v", err)
	}
	return parsed, nil
}

// resolveSource rejects ambiguous and incomplete requests before any I/O.
func resolveSource(src document.Source) error {
	switch {
	case src.IsUpload() && src.IsRemote():
		return validate.Errorf("ambiguous request: provide either an upload or a remote source, not both")
	case src.IsRemote():
		if src.TenantID == "" || src.ObjectKey == "" {
			return validate.Errorf("client_id and object_key are required for remote sources")
		}
	case src.IsUpload():
		if len(src.Data) == 0 {
			return validate.Errorf("upload source has no payload")
		}
	default:
		return validate.Errorf("no document source provided")
	}
	return nil
}

// stage materializes the source as a scratch file. The returned cleanup
// removes it and must run on every exit path.
func (x *Extractor) stage(ctx context.Context, src document.Source) (string, func(), error) {
	if src.IsRemote() {
		if x.fetcher == nil {
			return "", nil, &ProcessingError{Op: "stage", Err: fmt.Errorf("no object store configured")}
		}
		if err := x.sem.Acquire(ctx, 1); err != nil {
			return "", nil, &ProcessingError{Op: "stage", Err: err}
		}
		path, err := x.fetcher.Fetch(ctx, src.TenantID, src.ObjectKey)
		x.sem.Release(1)
		if err != nil {
			return "", nil, err
		}
		return path, func() { os.Remove(path) }, nil
	}

	// Uploads are validated before the scratch file exists.
	prefix := src.Data
	if len(prefix) > validate.SniffLimit {
		prefix = prefix[:validate.SniffLimit]
	}
	if err := validate.Check(sniffKind(prefix), prefix); err != nil {
		return "", nil, err
	}

	tmp, err := os.CreateTemp("", "textlift-*_"+filepath.Base(src.Filename))
	if err != nil {
		return "", nil, &ProcessingError{Op: "stage upload", Err: err}
	}
	if _, err := tmp.Write(src.Data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", nil, &ProcessingError{Op: "stage upload", Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", nil, &ProcessingError{Op: "stage upload", Err: err}
	}
	return tmp.Name(), func() { os.Remove(tmp.Name()) }, nil
}

// sniffKind guesses the expected media class for validation: PDF when the
// payload carries the PDF signature, image otherwise.
func sniffKind(prefix []byte) validate.Kind {
	if validate.Check(validate.KindPDF, prefix) == nil {
		return validate.KindPDF
	}
	return validate.KindImage
}

// classify sniffs the staged file and validates it as PDF or image.
func classify(path string) (validate.Kind, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", &ProcessingError{Op: "open staged file", Err: err}
	}
	defer f.Close()

	prefix := make([]byte, validate.SniffLimit)
	n, err := f.Read(prefix)
	if err != nil && n == 0 {
		return "", &validate.Error{Kind: validate.KindImage, Reason: "empty content"}
	}
	prefix = prefix[:n]

	kind := sniffKind(prefix)
	if err := validate.Check(kind, prefix); err != nil {
		return "", err
	}
	return kind, nil
}

func (x *Extractor) extractImage(ctx context.Context, log observability.Logger, path, name string, mode document.Mode, spec lang.Spec) (string, error) {
	in := ocr.Input{ID: name, Path: path, Spec: spec}

	if mode == document.ModeAccurate {
		img, err := decodeImage(path)
		if err != nil {
			return "", &ProcessingError{Op: "decode image", Err: err}
		}
		in.Path = ""
		in.Image = preprocess.Apply(img, mode)
	}

	if err := x.sem.Acquire(ctx, 1); err != nil {
		return "", &ProcessingError{Op: "recognize", Err: err}
	}
	res := ocr.Recognize(ctx, x.engine, in)
	x.sem.Release(1)

	if res.Failed() {
		log.Warn("unit recognition failed", observability.Error("err", res.Err))
	}
	return res.Render(), nil
}

func (x *Extractor) extractPDF(ctx context.Context, log observability.Logger, path, name string, mode document.Mode, spec lang.Spec, force bool) (string, error) {
	if err := x.sem.Acquire(ctx, 1); err != nil {
		return "", &ProcessingError{Op: "probe", Err: err}
	}
	probeStart := time.Now()
	count, err := x.pageCount(path)
	x.sem.Release(1)
	if err != nil {
		return "", &ProcessingError{Op: "probe", Err: err}
	}
	log.Debug("page count probed",
		observability.Int(observability.MetricPageCount, count),
		observability.Duration(observability.MetricProbeTime, time.Since(probeStart)))

	// The ceiling is enforced before any rasterization work happens.
	if err := raster.CheckLimit(count, x.pageLimit, force); err != nil {
		return "", err
	}

	doc, err := x.openDoc(path, mode)
	if err != nil {
		return "", &ProcessingError{Op: "decompose", Err: err}
	}
	defer doc.Close()

	pages := doc.Pages()
	parts := make([]string, 0, pages)

	// Rasterization of page N+1 overlaps recognition of page N; the
	// single producer keeps output in strict page order.
	g, gctx := errgroup.WithContext(ctx)
	rendered := make(chan raster.Page, 1)

	g.Go(func() error {
		defer close(rendered)
		for i := 1; i <= pages; i++ {
			if err := x.sem.Acquire(gctx, 1); err != nil {
				return &ProcessingError{Op: "rasterize", Err: err}
			}
			rasterStart := time.Now()
			page, err := doc.Render(i)
			x.sem.Release(1)
			if err != nil {
				return &ProcessingError{Op: "rasterize", Err: err}
			}
			log.Debug("page rasterized",
				observability.Int("page", i),
				observability.Duration(observability.MetricRasterTime, time.Since(rasterStart)))
			select {
			case rendered <- page:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	g.Go(func() error {
		for page := range rendered {
			img := preprocess.Apply(page.Image, mode)
			in := ocr.Input{
				ID:    fmt.Sprintf("%s#page-%d", name, page.Index),
				Image: img,
				Spec:  spec,
				DPI:   int(raster.DPIFor(mode)),
			}
			if err := x.sem.Acquire(gctx, 1); err != nil {
				return &ProcessingError{Op: "recognize", Err: err}
			}
			recognizeStart := time.Now()
			res := ocr.Recognize(gctx, x.engine, in)
			x.sem.Release(1)
			if res.Failed() {
				log.Warn("page recognition failed",
					observability.Int("page", page.Index),
					observability.Error("err", res.Err))
			}
			log.Debug("page recognized",
				observability.Int("page", page.Index),
				observability.Duration(observability.MetricRecognizeTime, time.Since(recognizeStart)))
			parts = append(parts, fmt.Sprintf(PageMarker+"\n%s", page.Index, res.Render()))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return "", err
	}
	return strings.Join(parts, "\n\n"), nil
}

func (x *Extractor) extractEntities(text string, spec lang.Spec) ([]ner.Entity, error) {
	if x.entities == nil {
		return []ner.Entity{}, nil
	}
	entities, err := x.entities.Extract(text, spec.Codes)
	if err != nil {
		return nil, &ProcessingError{Op: "entities", Err: err}
	}
	return entities, nil
}

func decodeImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	return img, err
}
