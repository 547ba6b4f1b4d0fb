// Package faceanalyzer wires vision backends, configuration and logging into a face
// pipeline.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"fmt"
//		"log"
//
//		faceanalyzer "github.com/menta2k/face-analyzer"
//		"github.com/menta2k/face-analyzer/internal/config"
//	)
//
//	func main() {
//		fa, err := faceanalyzer.New(config.Default())
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		report, err := fa.AnalyzeSource(context.Background(), "photo.jpg", faceanalyzer.Features{
//			Expressions: true,
//			AgeGender:   true,
//		})
//		if err != nil {
//			log.Fatal(err)
//		}
//		fmt.Printf("%d faces in %dx%d image\n", len(report.Faces), report.Width, report.Height)
//	}
//
// The detector and attribute predictor are backed by a vision LLM served by Ollama or
// llama.cpp. Landmark and descriptor backends have no LLM implementation and are plugged
// in with WithNets; the chains that need them fail with tasks.ErrNetUnavailable otherwise.
package faceanalyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"os"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/menta2k/face-analyzer/internal/config"
	"github.com/menta2k/face-analyzer/internal/utils"
	"github.com/menta2k/face-analyzer/pkg/client"
	"github.com/menta2k/face-analyzer/pkg/detection"
	"github.com/menta2k/face-analyzer/pkg/face"
	"github.com/menta2k/face-analyzer/pkg/geometry"
	"github.com/menta2k/face-analyzer/pkg/llamacpp"
	"github.com/menta2k/face-analyzer/pkg/media"
	"github.com/menta2k/face-analyzer/pkg/ollama"
	"github.com/menta2k/face-analyzer/pkg/processing"
	"github.com/menta2k/face-analyzer/pkg/results"
	"github.com/menta2k/face-analyzer/pkg/tasks"
	"github.com/menta2k/face-analyzer/pkg/types"
)

// Version of the face analyzer library
const Version = "1.0.0"

// Features selects the stages run after detection
type Features struct {
	Landmarks   bool
	Descriptors bool
	Expressions bool
	AgeGender   bool
}

// Analyzer provides a high-level interface for face analysis
type Analyzer struct {
	cfg       *config.Config
	logger    *zap.SugaredLogger
	processor *processing.Processor
	extractor *media.RegionExtractor
	detector  *detection.Detector
	pipeline  *tasks.Pipeline
}

type options struct {
	logger *zap.SugaredLogger
	client client.VisionClient
	nets   tasks.Nets
}

// Option configures an Analyzer
type Option func(*options)

// WithLogger sets the logger passed down to the pipeline and extractor
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(o *options) { o.logger = logger }
}

// WithVisionClient replaces the client built from the backend configuration
func WithVisionClient(c client.VisionClient) Option {
	return func(o *options) { o.client = c }
}

// WithNets overrides the LLM-backed nets; nil fields keep the defaults
func WithNets(nets tasks.Nets) Option {
	return func(o *options) { o.nets = nets }
}

// New creates an Analyzer from cfg. A nil cfg selects config.Default().
func New(cfg *config.Config, opts ...Option) (*Analyzer, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	o := options{logger: zap.NewNop().Sugar()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop().Sugar()
	}

	vc := o.client
	if vc == nil {
		var err error
		if vc, err = NewVisionClient(cfg.Backend); err != nil {
			return nil, err
		}
	}

	processor := processing.NewProcessor()
	encode := func(img image.Image) (string, error) {
		return processor.PrepareImageForModel(img, cfg.Backend.SendFormat, cfg.Backend.SendSize, cfg.Backend.SendQuality)
	}
	detOpts := detection.Options{Model: cfg.Backend.Model, Encode: encode}
	detector, err := detection.NewDetector(vc, detOpts)
	if err != nil {
		return nil, err
	}
	attrs, err := detection.NewAttributePredictor(vc, detOpts)
	if err != nil {
		return nil, err
	}

	nets := tasks.Nets{FaceDetector: detector, Expressions: attrs, AgeGender: attrs}
	if o.nets.FaceDetector != nil {
		nets.FaceDetector = o.nets.FaceDetector
	}
	if o.nets.Expressions != nil {
		nets.Expressions = o.nets.Expressions
	}
	if o.nets.AgeGender != nil {
		nets.AgeGender = o.nets.AgeGender
	}
	nets.Landmarks = o.nets.Landmarks
	nets.Descriptor = o.nets.Descriptor

	filter, err := media.ResampleFilterByName(cfg.Extraction.ResampleFilter)
	if err != nil {
		return nil, err
	}
	extractor := media.NewRegionExtractor(media.WithLogger(o.logger), media.WithResampleFilter(filter))

	var post []face.Postprocessor
	if cfg.Detection.MinFaceArea > 0 {
		post = append(post, face.NewAreaFilter(cfg.Detection.MinFaceArea))
	}
	if cfg.Detection.MaxFaces > 0 {
		post = append(post, face.NewMaxFacesFilter(cfg.Detection.MaxFaces))
	}

	pipeline := tasks.New(nets,
		tasks.WithLogger(o.logger),
		tasks.WithExtractor(extractor),
		tasks.WithConcurrency(cfg.Pipeline.Concurrency),
		tasks.WithMinConfidence(cfg.Detection.MinConfidence),
		tasks.WithPostprocessors(post...),
	)

	return &Analyzer{
		cfg:       cfg,
		logger:    o.logger,
		processor: processor,
		extractor: extractor,
		detector:  detector,
		pipeline:  pipeline,
	}, nil
}

// NewVisionClient creates the transport selected by cfg.Kind
func NewVisionClient(cfg config.BackendConfig) (client.VisionClient, error) {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	switch cfg.Kind {
	case "ollama":
		c, err := ollama.NewClient(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to create Ollama client: %w", err)
		}
		if timeout > 0 {
			c.SetTimeout(timeout)
		}
		return c, nil
	case "llamacpp":
		c, err := llamacpp.NewClient(cfg.URL, timeout)
		if err != nil {
			return nil, fmt.Errorf("failed to create llama.cpp client: %w", err)
		}
		return c, nil
	}
	return nil, fmt.Errorf("unknown backend %q (use 'ollama' or 'llamacpp')", cfg.Kind)
}

// Pipeline returns the underlying task pipeline for custom chains
func (a *Analyzer) Pipeline() *tasks.Pipeline { return a.pipeline }

// Processor returns the image processor used for loading and saving
func (a *Analyzer) Processor() *processing.Processor { return a.processor }

// Config returns the configuration the analyzer was built with
func (a *Analyzer) Config() *config.Config { return a.cfg }

// TestVision asks the backend to describe an image, to check it can see inputs at all
func (a *Analyzer) TestVision(ctx context.Context, img image.Image) (string, error) {
	imgB64, err := a.processor.PrepareImageForModel(img, a.cfg.Backend.SendFormat, a.cfg.Backend.SendSize, a.cfg.Backend.SendQuality)
	if err != nil {
		return "", err
	}
	return a.detector.TestVision(ctx, imgB64)
}

// LoadInput loads a file path or URL and checks it against the minimum image size
func (a *Analyzer) LoadInput(ctx context.Context, source string) (*media.ImageInput, error) {
	in, err := a.processor.LoadInput(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", source, err)
	}
	if err := processing.ValidateImage(in.Image(), a.cfg.Extraction.MinImageSize); err != nil {
		return nil, err
	}
	return in, nil
}

// Analyze runs detection followed by the selected stages on in
func (a *Analyzer) Analyze(ctx context.Context, in media.Input, f Features) ([]results.Result, error) {
	a.logger.Debugw("analyze", "features", f)
	det := a.pipeline.DetectAllFaces(in)

	if !f.Landmarks && !f.Descriptors {
		switch {
		case f.Expressions && f.AgeGender:
			return det.WithFaceExpressions().WithAgeAndGender().Run(ctx)
		case f.Expressions:
			return det.WithFaceExpressions().Run(ctx)
		case f.AgeGender:
			return det.WithAgeAndGender().Run(ctx)
		}
		return det.Run(ctx)
	}

	lm := det.WithFaceLandmarks()
	if f.Descriptors {
		desc := lm.WithFaceDescriptors()
		switch {
		case f.Expressions && f.AgeGender:
			return desc.WithFaceExpressions().WithAgeAndGender().Run(ctx)
		case f.Expressions:
			return desc.WithFaceExpressions().Run(ctx)
		case f.AgeGender:
			return desc.WithAgeAndGender().Run(ctx)
		}
		return desc.Run(ctx)
	}

	switch {
	case f.Expressions && f.AgeGender:
		return lm.WithFaceExpressions().WithAgeAndGender().Run(ctx)
	case f.Expressions:
		return lm.WithFaceExpressions().Run(ctx)
	case f.AgeGender:
		return lm.WithAgeAndGender().Run(ctx)
	}
	return lm.Run(ctx)
}

// AnalyzeSource loads source, analyzes it and returns the JSON report
func (a *Analyzer) AnalyzeSource(ctx context.Context, source string, f Features) (*types.FaceReport, error) {
	in, err := a.LoadInput(ctx, source)
	if err != nil {
		return nil, err
	}
	rs, err := a.Analyze(ctx, in, f)
	if err != nil {
		return nil, fmt.Errorf("analyze %s: %w", source, err)
	}
	report := Report(source, in.Dims(), rs)
	return &report, nil
}

// SaveCrops writes one crop per result, cut from its aligned rect when present, and
// records the paths in report. Crops are disposed before returning.
func (a *Analyzer) SaveCrops(ctx context.Context, in media.Input, rs []results.Result, report *types.FaceReport) (err error) {
	if len(rs) == 0 {
		return nil
	}
	out := a.cfg.Output
	if err := utils.EnsureDir(out.OutputDir); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	regions := make([]geometry.Box, len(rs))
	for i, r := range rs {
		regions[i] = r.Region()
	}
	crops, err := a.extractor.Extract(ctx, in, regions, geometry.Dimensions{})
	if err != nil {
		return fmt.Errorf("extract crops: %w", err)
	}
	defer func() {
		err = multierr.Append(err, media.DisposeAll(crops))
	}()

	cropCfg := types.CropConfig{
		Width:     out.CropSize,
		Height:    out.CropSize,
		Quality:   out.Quality,
		Lossless:  out.Lossless,
		Extension: out.Format,
	}
	for i, crop := range crops {
		path := utils.FaceCropFilename(report.Source, out.OutputDir, out.Prefix, out.Suffix, out.Format, i)
		if err := a.processor.SaveCrop(crop, path, cropCfg); err != nil {
			return err
		}
		if i < len(report.Faces) {
			report.Faces[i].CropPath = path
		}
		a.logger.Debugw("saved crop", "face", i, "path", path)
	}
	return nil
}

// WriteReport writes report as indented JSON to path
func WriteReport(report *types.FaceReport, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// Report converts pipeline results into the JSON report for source
func Report(source string, dims geometry.Dimensions, rs []results.Result) types.FaceReport {
	report := types.FaceReport{
		Source: source,
		Width:  int(dims.Width),
		Height: int(dims.Height),
		Faces:  make([]types.FaceRecord, len(rs)),
	}
	for i, r := range rs {
		report.Faces[i] = record(i, r)
	}
	return report
}

func record(i int, r results.Result) types.FaceRecord {
	rec := types.FaceRecord{
		Index: i,
		Score: r.Detection.Score,
		Box:   toBox(r.Detection.Box),
	}
	if r.AlignedRect != nil {
		b := toBox(r.AlignedRect.Box)
		rec.AlignedBox = &b
	}
	if r.Landmarks != nil {
		for _, pt := range r.Landmarks.Positions() {
			rec.Landmarks = append(rec.Landmarks, types.Point{X: pt.X, Y: pt.Y})
		}
	}
	if r.Age != nil {
		age := *r.Age
		rec.Age = &age
	}
	if r.Gender != "" {
		rec.Gender = string(r.Gender)
		rec.GenderProb = r.GenderProbability
	}
	if r.Expressions != nil {
		rec.Expressions = make(map[string]float64, len(face.ExpressionLabels))
		for _, ep := range r.Expressions.Sorted() {
			rec.Expressions[ep.Expression] = ep.Probability
		}
		rec.Expression = r.Expressions.Dominant().Expression
	}
	if len(r.Descriptor) > 0 {
		rec.Descriptor = append([]float32(nil), r.Descriptor...)
	}
	return rec
}

func toBox(b geometry.Box) types.Box {
	return types.Box{X: b.X, Y: b.Y, W: b.Width, H: b.Height}
}
