// Package face holds the values produced by the individual inference stages:
// detections, landmarks, expressions, age/gender predictions and descriptors.
package face

import (
	"fmt"

	"github.com/menta2k/face-analyzer/pkg/geometry"
)

// Detection is one detected face region in the coordinates of the source image
type Detection struct {
	Score     float64             `json:"score"`
	Box       geometry.Box        `json:"box"`
	ImageDims geometry.Dimensions `json:"imageDims"`
}

// NewDetection validates and creates a detection from an absolute box
func NewDetection(score float64, box geometry.Box, imageDims geometry.Dimensions) (Detection, error) {
	if !geometry.IsValidProbability(score) {
		return Detection{}, &geometry.ValidationError{
			Callee: "NewDetection", Property: "score", Value: score, Reason: "a number between [0, 1]",
		}
	}
	if err := box.Validate("NewDetection"); err != nil {
		return Detection{}, err
	}
	if imageDims.Width <= 0 || imageDims.Height <= 0 {
		return Detection{}, &geometry.ValidationError{
			Callee: "NewDetection", Property: "imageDims", Value: fmt.Sprintf("%vx%v", imageDims.Width, imageDims.Height),
			Reason: "positive dimensions",
		}
	}
	return Detection{Score: score, Box: box, ImageDims: imageDims}, nil
}

// NewDetectionFromRelative creates a detection from a box in [0,1] image-relative units
func NewDetectionFromRelative(score float64, relativeBox geometry.Box, imageDims geometry.Dimensions) (Detection, error) {
	return NewDetection(score, relativeBox.RescaleDims(imageDims), imageDims)
}

// RelativeBox returns the box in [0,1] image-relative units
func (d Detection) RelativeBox() geometry.Box {
	return d.Box.RescaleDims(d.ImageDims.Reverse())
}

// ForSize rescales the detection to an image of the given size
func (d Detection) ForSize(width, height float64) Detection {
	dims := geometry.Dimensions{Width: width, Height: height}
	return Detection{
		Score:     d.Score,
		Box:       d.RelativeBox().RescaleDims(dims),
		ImageDims: dims,
	}
}
