package results

import (
	"fmt"

	"github.com/menta2k/face-analyzer/pkg/geometry"
)

// Resize rescales the geometry of every result to an image of the given size, e.g. to
// draw on a display canvas. Attribute fields are carried over unchanged.
func Resize(in []Result, width, height float64) ([]Result, error) {
	out := make([]Result, len(in))
	for i, r := range in {
		resized, err := resizeOne(r, width, height)
		if err != nil {
			return nil, fmt.Errorf("resize result %d: %w", i, err)
		}
		out[i] = resized
	}
	return out, nil
}

func resizeOne(r Result, width, height float64) (Result, error) {
	if !IsWithFaceDetection(r) {
		return r, nil
	}
	out := r
	out.Detection = r.Detection.ForSize(width, height)
	out.Landmarks, out.UnshiftedLandmarks, out.AlignedRect = nil, nil, nil

	if r.UnshiftedLandmarks != nil && r.Landmarks != nil {
		fx := width / r.Detection.ImageDims.Width
		fy := height / r.Detection.ImageDims.Height
		crop := r.UnshiftedLandmarks.ImageDims()
		origin := r.Landmarks.Shift().Sub(r.UnshiftedLandmarks.Shift())
		region := geometry.Box{X: origin.X * fx, Y: origin.Y * fy, Width: crop.Width * fx, Height: crop.Height * fy}

		var err error
		out, err = WithFaceLandmarksInRegion(out, r.UnshiftedLandmarks.ForSize(region.Width, region.Height), region)
		if err != nil {
			return r, err
		}
	}
	return out, nil
}
