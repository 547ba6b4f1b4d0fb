// Package tasks composes the inference stages into lazily executed chains.
//
//	faces, err := p.DetectAllFaces(in).WithFaceLandmarks().WithFaceDescriptors().Run(ctx)
//
// Building a chain never calls a backend; Run executes every stage in order. The chain's
// type parameter is its arity: []results.Result for DetectAllFaces, *results.Result for
// DetectSingleFace. Methods only exist on the task types whose results satisfy their
// prerequisites, so a descriptor stage can only be chained after landmarks.
package tasks

import (
	"errors"

	"go.uber.org/zap"

	"github.com/menta2k/face-analyzer/pkg/face"
	"github.com/menta2k/face-analyzer/pkg/inference"
	"github.com/menta2k/face-analyzer/pkg/media"
)

// ErrNetUnavailable is returned by a stage whose backend was not configured
var ErrNetUnavailable = errors.New("backend not configured")

// Nets holds the backends a pipeline can run. Any of them may be nil as long as no
// chain uses the corresponding stage.
type Nets struct {
	FaceDetector inference.FaceDetector
	Landmarks    inference.LandmarkNet
	Descriptor   inference.DescriptorNet
	Expressions  inference.ExpressionNet
	AgeGender    inference.AgeGenderNet
}

// Pipeline creates task chains over a fixed set of backends
type Pipeline struct {
	nets           Nets
	extractor      media.Extractor
	logger         *zap.SugaredLogger
	concurrency    int
	postprocessors []face.Postprocessor
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithLogger sets the logger stages report to
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithExtractor replaces the default region extractor
func WithExtractor(e media.Extractor) Option {
	return func(p *Pipeline) {
		if e != nil {
			p.extractor = e
		}
	}
}

// WithConcurrency limits the number of per-face backend calls in flight within a stage.
// Zero or less means one goroutine per face.
func WithConcurrency(n int) Option {
	return func(p *Pipeline) { p.concurrency = n }
}

// WithMinConfidence drops detections scoring below conf
func WithMinConfidence(conf float64) Option {
	return func(p *Pipeline) {
		if conf > 0 {
			p.postprocessors = append(p.postprocessors, face.NewScoreFilter(conf))
		}
	}
}

// WithPostprocessors appends detection postprocessors, applied in order after detection
func WithPostprocessors(pp ...face.Postprocessor) Option {
	return func(p *Pipeline) { p.postprocessors = append(p.postprocessors, pp...) }
}

// New creates a pipeline over nets
func New(nets Nets, opts ...Option) *Pipeline {
	p := &Pipeline{
		nets:   nets,
		logger: zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.extractor == nil {
		p.extractor = media.NewRegionExtractor(media.WithLogger(p.logger))
	}
	return p
}
