// Package results builds up the per-face result records a pipeline returns. Every
// extender returns a new Result and leaves its argument untouched.
package results

import (
	"fmt"

	"github.com/menta2k/face-analyzer/pkg/face"
	"github.com/menta2k/face-analyzer/pkg/geometry"
)

// Result is the accumulated output for one face. Optional capabilities are present when
// their pointer or slice is non-nil.
type Result struct {
	Detection face.Detection `json:"detection"`

	Landmarks          *face.Landmarks `json:"-"`
	UnshiftedLandmarks *face.Landmarks `json:"-"`
	AlignedRect        *face.Detection `json:"alignedRect,omitempty"`

	Descriptor face.Descriptor `json:"descriptor,omitempty"`

	Age               *float64    `json:"age,omitempty"`
	Gender            face.Gender `json:"gender,omitempty"`
	GenderProbability float64     `json:"genderProbability,omitempty"`

	Expressions *face.Expressions `json:"expressions,omitempty"`
}

// WithFaceDetection starts a result from a detection
func WithFaceDetection(det face.Detection) Result {
	return Result{Detection: det}
}

// WithFaceLandmarks attaches landmarks predicted relative to the detection box. The
// landmarks are shifted into image space, and the alignment rect derived from them is
// mapped into image space and clipped to the image.
func WithFaceLandmarks(r Result, unshifted *face.Landmarks) (Result, error) {
	return WithFaceLandmarksInRegion(r, unshifted, r.Detection.Box)
}

// WithFaceLandmarksInRegion is WithFaceLandmarks for landmarks predicted on a crop of
// region rather than of the detection box, e.g. a box clipped at the image border
func WithFaceLandmarksInRegion(r Result, unshifted *face.Landmarks, region geometry.Box) (Result, error) {
	if unshifted == nil {
		return r, fmt.Errorf("WithFaceLandmarks: nil landmarks")
	}
	shifted := unshifted.ShiftBy(region.X, region.Y)

	dims := r.Detection.ImageDims
	rect := shifted.Align()
	aligned, err := face.NewDetectionFromRelative(r.Detection.Score, rect.RescaleDims(dims.Reverse()), dims)
	if err != nil {
		return r, fmt.Errorf("WithFaceLandmarks: align: %w", err)
	}
	aligned.Box = aligned.Box.Clip(dims.Width, dims.Height)

	out := r
	out.Landmarks = shifted
	out.UnshiftedLandmarks = unshifted
	out.AlignedRect = &aligned
	return out, nil
}

// WithFaceDescriptor attaches a recognition descriptor
func WithFaceDescriptor(r Result, d face.Descriptor) Result {
	out := r
	out.Descriptor = append(face.Descriptor(nil), d...)
	return out
}

// WithFaceExpressions attaches expression probabilities
func WithFaceExpressions(r Result, e face.Expressions) Result {
	out := r
	out.Expressions = &e
	return out
}

// WithAge attaches an age estimate
func WithAge(r Result, age float64) Result {
	out := r
	out.Age = &age
	return out
}

// WithGender attaches a gender prediction
func WithGender(r Result, g face.Gender, probability float64) Result {
	out := r
	out.Gender = g
	out.GenderProbability = probability
	return out
}

// WithAgeAndGender validates and attaches an age/gender prediction
func WithAgeAndGender(r Result, p face.AgeAndGender) (Result, error) {
	if err := p.Validate(); err != nil {
		return r, err
	}
	return WithGender(WithAge(r, p.Age), p.Gender, p.GenderProbability), nil
}

// Region returns the box later stages crop from: the alignment rect when present, the
// detection box otherwise
func (r Result) Region() geometry.Box {
	if r.AlignedRect != nil {
		return r.AlignedRect.Box
	}
	return r.Detection.Box
}

// IsWithFaceDetection reports whether r carries a detection in a non-empty image
func IsWithFaceDetection(r Result) bool {
	return r.Detection.ImageDims.Width > 0 && r.Detection.ImageDims.Height > 0
}

// IsWithFaceLandmarks reports whether r carries shifted and unshifted landmarks and an alignment rect
func IsWithFaceLandmarks(r Result) bool {
	return IsWithFaceDetection(r) && r.Landmarks != nil && r.UnshiftedLandmarks != nil && r.AlignedRect != nil
}

// IsWithFaceDescriptor reports whether r carries a non-empty descriptor
func IsWithFaceDescriptor(r Result) bool {
	return len(r.Descriptor) > 0
}

// IsWithFaceExpressions reports whether r carries expressions with probabilities in [0, 1]
func IsWithFaceExpressions(r Result) bool {
	return r.Expressions != nil && r.Expressions.Valid()
}

// IsWithAge reports whether r carries a finite age
func IsWithAge(r Result) bool {
	return r.Age != nil && geometry.IsValidNumber(*r.Age)
}

// IsWithGender reports whether r carries a known gender and a valid probability
func IsWithGender(r Result) bool {
	return r.Gender.Valid() && geometry.IsValidProbability(r.GenderProbability)
}
