// Package inference defines the backend contracts the pipeline runs against and the
// resource-safe helpers that feed them face crops.
package inference

import (
	"context"

	"github.com/menta2k/face-analyzer/pkg/face"
	"github.com/menta2k/face-analyzer/pkg/geometry"
	"github.com/menta2k/face-analyzer/pkg/media"
)

// FaceDetector finds faces in a whole input
type FaceDetector interface {
	DetectFaces(ctx context.Context, in media.Input) ([]face.Detection, error)
}

// LandmarkNet predicts landmark points for a face crop, relative to the crop in [0,1] units
type LandmarkNet interface {
	DetectLandmarks(ctx context.Context, crop media.Crop) ([]geometry.Point, error)
}

// DescriptorNet computes a recognition descriptor for an aligned face crop
type DescriptorNet interface {
	ComputeDescriptor(ctx context.Context, crop media.Crop) (face.Descriptor, error)
}

// ExpressionNet predicts facial expression probabilities for a face crop
type ExpressionNet interface {
	PredictExpressions(ctx context.Context, crop media.Crop) (face.Expressions, error)
}

// AgeGenderNet predicts age and gender for a face crop
type AgeGenderNet interface {
	PredictAgeAndGender(ctx context.Context, crop media.Crop) (face.AgeAndGender, error)
}

// InputSizer is implemented by backends that expect crops of a fixed size
type InputSizer interface {
	InputSize() geometry.Dimensions
}

// InputSizeOf returns the declared input size of net, or zero dimensions to keep native crop sizes
func InputSizeOf(net any) geometry.Dimensions {
	if s, ok := net.(InputSizer); ok {
		return s.InputSize()
	}
	return geometry.Dimensions{}
}

// FaceDetectorFunc adapts a function to FaceDetector
type FaceDetectorFunc func(ctx context.Context, in media.Input) ([]face.Detection, error)

func (f FaceDetectorFunc) DetectFaces(ctx context.Context, in media.Input) ([]face.Detection, error) {
	return f(ctx, in)
}

// LandmarkNetFunc adapts a function to LandmarkNet
type LandmarkNetFunc func(ctx context.Context, crop media.Crop) ([]geometry.Point, error)

func (f LandmarkNetFunc) DetectLandmarks(ctx context.Context, crop media.Crop) ([]geometry.Point, error) {
	return f(ctx, crop)
}

// DescriptorNetFunc adapts a function to DescriptorNet
type DescriptorNetFunc func(ctx context.Context, crop media.Crop) (face.Descriptor, error)

func (f DescriptorNetFunc) ComputeDescriptor(ctx context.Context, crop media.Crop) (face.Descriptor, error) {
	return f(ctx, crop)
}

// ExpressionNetFunc adapts a function to ExpressionNet
type ExpressionNetFunc func(ctx context.Context, crop media.Crop) (face.Expressions, error)

func (f ExpressionNetFunc) PredictExpressions(ctx context.Context, crop media.Crop) (face.Expressions, error) {
	return f(ctx, crop)
}

// AgeGenderNetFunc adapts a function to AgeGenderNet
type AgeGenderNetFunc func(ctx context.Context, crop media.Crop) (face.AgeAndGender, error)

func (f AgeGenderNetFunc) PredictAgeAndGender(ctx context.Context, crop media.Crop) (face.AgeAndGender, error) {
	return f(ctx, crop)
}
