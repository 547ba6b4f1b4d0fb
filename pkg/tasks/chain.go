package tasks

import (
	"github.com/menta2k/face-analyzer/pkg/face"
	"github.com/menta2k/face-analyzer/pkg/media"
	"github.com/menta2k/face-analyzer/pkg/results"
)

const (
	stageLandmarks   = "detect landmarks"
	stageDescriptors = "compute descriptors"
	stageExpressions = "predict expressions"
	stageAgeGender   = "predict age and gender"
)

// DetectAllFaces starts a chain returning every detected face
func (p *Pipeline) DetectAllFaces(input media.Input) *DetectFacesTask[[]results.Result] {
	return &DetectFacesTask[[]results.Result]{task[[]results.Result]{
		p: p, input: input, run: p.detect(input, false), resolve: resolveAll,
	}}
}

// DetectSingleFace starts a chain returning the highest scoring face, or nil
func (p *Pipeline) DetectSingleFace(input media.Input) *DetectFacesTask[*results.Result] {
	return &DetectFacesTask[*results.Result]{task[*results.Result]{
		p: p, input: input, run: p.detect(input, true), resolve: resolveSingle,
	}}
}

// FromDetections starts a chain from detections that are already known
func (p *Pipeline) FromDetections(input media.Input, dets []face.Detection) *DetectFacesTask[[]results.Result] {
	return &DetectFacesTask[[]results.Result]{task[[]results.Result]{
		p: p, input: input, run: known(dets), resolve: resolveAll,
	}}
}

// FromDetection starts a single face chain from a known detection
func (p *Pipeline) FromDetection(input media.Input, det face.Detection) *DetectFacesTask[*results.Result] {
	return &DetectFacesTask[*results.Result]{task[*results.Result]{
		p: p, input: input, run: known([]face.Detection{det}), resolve: resolveSingle,
	}}
}

// DetectFacesTask yields detections only
type DetectFacesTask[O any] struct{ task[O] }

// WithFaceLandmarks adds 68 or 5 point landmarks and an alignment rect to every face
func (t *DetectFacesTask[O]) WithFaceLandmarks(opts ...StageOption) *LandmarksTask[O] {
	return &LandmarksTask[O]{t.then(stageLandmarks, t.p.nets.Landmarks != nil, t.p.landmarksStep(t.input), opts)}
}

// WithFaceExpressions predicts expression probabilities for every face
func (t *DetectFacesTask[O]) WithFaceExpressions(opts ...StageOption) *ExpressionsTask[O] {
	return &ExpressionsTask[O]{t.then(stageExpressions, t.p.nets.Expressions != nil, t.p.expressionsStep(t.input), opts)}
}

// WithAgeAndGender predicts age and gender for every face
func (t *DetectFacesTask[O]) WithAgeAndGender(opts ...StageOption) *AgeAndGenderTask[O] {
	return &AgeAndGenderTask[O]{t.then(stageAgeGender, t.p.nets.AgeGender != nil, t.p.ageGenderStep(t.input), opts)}
}

// LandmarksTask yields results with landmarks and an alignment rect; later stages crop
// the aligned face
type LandmarksTask[O any] struct{ task[O] }

// WithFaceDescriptors computes a descriptor from every aligned face
func (t *LandmarksTask[O]) WithFaceDescriptors(opts ...StageOption) *DescriptorsTask[O] {
	return &DescriptorsTask[O]{t.then(stageDescriptors, t.p.nets.Descriptor != nil, t.p.descriptorsStep(t.input), opts)}
}

// WithFaceExpressions predicts expression probabilities for every face
func (t *LandmarksTask[O]) WithFaceExpressions(opts ...StageOption) *AlignedExpressionsTask[O] {
	return &AlignedExpressionsTask[O]{t.then(stageExpressions, t.p.nets.Expressions != nil, t.p.expressionsStep(t.input), opts)}
}

// WithAgeAndGender predicts age and gender for every face
func (t *LandmarksTask[O]) WithAgeAndGender(opts ...StageOption) *AlignedAgeAndGenderTask[O] {
	return &AlignedAgeAndGenderTask[O]{t.then(stageAgeGender, t.p.nets.AgeGender != nil, t.p.ageGenderStep(t.input), opts)}
}

// ExpressionsTask yields unaligned results with expressions
type ExpressionsTask[O any] struct{ task[O] }

// WithAgeAndGender predicts age and gender for every face
func (t *ExpressionsTask[O]) WithAgeAndGender(opts ...StageOption) *AgeAndGenderTask[O] {
	return &AgeAndGenderTask[O]{t.then(stageAgeGender, t.p.nets.AgeGender != nil, t.p.ageGenderStep(t.input), opts)}
}

// AgeAndGenderTask yields unaligned results with age and gender
type AgeAndGenderTask[O any] struct{ task[O] }

// WithFaceExpressions predicts expression probabilities for every face
func (t *AgeAndGenderTask[O]) WithFaceExpressions(opts ...StageOption) *ExpressionsTask[O] {
	return &ExpressionsTask[O]{t.then(stageExpressions, t.p.nets.Expressions != nil, t.p.expressionsStep(t.input), opts)}
}

// AlignedExpressionsTask yields aligned results with expressions
type AlignedExpressionsTask[O any] struct{ task[O] }

// WithAgeAndGender predicts age and gender for every face
func (t *AlignedExpressionsTask[O]) WithAgeAndGender(opts ...StageOption) *AlignedAgeAndGenderTask[O] {
	return &AlignedAgeAndGenderTask[O]{t.then(stageAgeGender, t.p.nets.AgeGender != nil, t.p.ageGenderStep(t.input), opts)}
}

// WithFaceDescriptors computes a descriptor from every aligned face
func (t *AlignedExpressionsTask[O]) WithFaceDescriptors(opts ...StageOption) *DescriptorsTask[O] {
	return &DescriptorsTask[O]{t.then(stageDescriptors, t.p.nets.Descriptor != nil, t.p.descriptorsStep(t.input), opts)}
}

// AlignedAgeAndGenderTask yields aligned results with age and gender
type AlignedAgeAndGenderTask[O any] struct{ task[O] }

// WithFaceExpressions predicts expression probabilities for every face
func (t *AlignedAgeAndGenderTask[O]) WithFaceExpressions(opts ...StageOption) *AlignedExpressionsTask[O] {
	return &AlignedExpressionsTask[O]{t.then(stageExpressions, t.p.nets.Expressions != nil, t.p.expressionsStep(t.input), opts)}
}

// WithFaceDescriptors computes a descriptor from every aligned face
func (t *AlignedAgeAndGenderTask[O]) WithFaceDescriptors(opts ...StageOption) *DescriptorsTask[O] {
	return &DescriptorsTask[O]{t.then(stageDescriptors, t.p.nets.Descriptor != nil, t.p.descriptorsStep(t.input), opts)}
}

// DescriptorsTask yields aligned results with descriptors
type DescriptorsTask[O any] struct{ task[O] }

// WithFaceExpressions predicts expression probabilities for every face
func (t *DescriptorsTask[O]) WithFaceExpressions(opts ...StageOption) *AlignedExpressionsTask[O] {
	return &AlignedExpressionsTask[O]{t.then(stageExpressions, t.p.nets.Expressions != nil, t.p.expressionsStep(t.input), opts)}
}

// WithAgeAndGender predicts age and gender for every face
func (t *DescriptorsTask[O]) WithAgeAndGender(opts ...StageOption) *AlignedAgeAndGenderTask[O] {
	return &AlignedAgeAndGenderTask[O]{t.then(stageAgeGender, t.p.nets.AgeGender != nil, t.p.ageGenderStep(t.input), opts)}
}
