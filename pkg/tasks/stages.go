package tasks

import (
	"context"
	"fmt"

	"github.com/menta2k/face-analyzer/pkg/face"
	"github.com/menta2k/face-analyzer/pkg/geometry"
	"github.com/menta2k/face-analyzer/pkg/inference"
	"github.com/menta2k/face-analyzer/pkg/media"
	"github.com/menta2k/face-analyzer/pkg/results"
)

// detect runs the face detector and the postprocessors. With single set only the
// highest scoring detection is kept.
func (p *Pipeline) detect(input media.Input, single bool) func(ctx context.Context) ([]results.Result, error) {
	return func(ctx context.Context) ([]results.Result, error) {
		if p.nets.FaceDetector == nil {
			return nil, fmt.Errorf("detect faces: %w", ErrNetUnavailable)
		}
		dets, err := p.nets.FaceDetector.DetectFaces(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("detect faces: %w", err)
		}
		for _, pp := range p.postprocessors {
			dets = pp(dets)
		}
		if single {
			if best := face.BestDetection(dets); best >= 0 {
				dets = dets[best : best+1]
			}
		}
		p.logger.Debugw("stage complete", "stage", "detect faces", "faces", len(dets), "single", single)
		return toResults(dets), nil
	}
}

func known(dets []face.Detection) func(ctx context.Context) ([]results.Result, error) {
	return func(ctx context.Context) ([]results.Result, error) {
		return toResults(dets), nil
	}
}

func toResults(dets []face.Detection) []results.Result {
	out := make([]results.Result, len(dets))
	for i, d := range dets {
		out[i] = results.WithFaceDetection(d)
	}
	return out
}

// perFace extracts one crop per result, runs fn on every crop and merges the outputs
// back with attach. Crops are cut from Result.Region so later stages see aligned faces,
// unless the caller supplied its own.
func perFace[R any](
	p *Pipeline,
	input media.Input,
	net any,
	fn func(context.Context, media.Crop) (R, error),
	attach func(results.Result, R) (results.Result, error),
) step {
	return func(ctx context.Context, parents []results.Result, crops []media.Crop) ([]results.Result, error) {
		regions := make([]geometry.Box, len(parents))
		for i, r := range parents {
			regions[i] = r.Region()
		}
		req := inference.Request{
			Extractor: p.extractor,
			Input:     input,
			Regions:   regions,
			Size:      inference.InputSizeOf(net),
			Crops:     crops,
		}
		outputs, err := inference.ComputeAll(ctx, req, func(ctx context.Context, crops []media.Crop) ([]R, error) {
			return inference.ForEach(ctx, crops, p.concurrency, fn)
		})
		if err != nil {
			return nil, err
		}

		out := make([]results.Result, len(parents))
		for i, r := range parents {
			if out[i], err = attach(r, outputs[i]); err != nil {
				return nil, fmt.Errorf("face %d: %w", i, err)
			}
		}
		return out, nil
	}
}

// regionPoints is a landmark prediction with the crop region it was predicted on
type regionPoints struct {
	points []geometry.Point
	region geometry.Box
}

func (p *Pipeline) landmarksStep(input media.Input) step {
	net := p.nets.Landmarks
	return perFace(p, input, net,
		func(ctx context.Context, crop media.Crop) (regionPoints, error) {
			pts, err := net.DetectLandmarks(ctx, crop)
			return regionPoints{points: pts, region: crop.Region()}, err
		},
		func(r results.Result, rp regionPoints) (results.Result, error) {
			layout := face.Layout(len(rp.points))
			if layout != face.Layout68 && layout != face.Layout5 {
				return r, fmt.Errorf("unexpected landmark count %d", len(rp.points))
			}
			dims := geometry.Dimensions{Width: rp.region.Width, Height: rp.region.Height}
			lm, err := face.NewLandmarks(layout, rp.points, dims, geometry.Point{})
			if err != nil {
				return r, err
			}
			return results.WithFaceLandmarksInRegion(r, lm, rp.region)
		})
}

func (p *Pipeline) descriptorsStep(input media.Input) step {
	net := p.nets.Descriptor
	return perFace(p, input, net,
		func(ctx context.Context, crop media.Crop) (face.Descriptor, error) {
			return net.ComputeDescriptor(ctx, crop)
		},
		func(r results.Result, d face.Descriptor) (results.Result, error) {
			if len(d) == 0 {
				return r, fmt.Errorf("empty descriptor")
			}
			return results.WithFaceDescriptor(r, d), nil
		})
}

func (p *Pipeline) expressionsStep(input media.Input) step {
	net := p.nets.Expressions
	return perFace(p, input, net,
		func(ctx context.Context, crop media.Crop) (face.Expressions, error) {
			return net.PredictExpressions(ctx, crop)
		},
		func(r results.Result, e face.Expressions) (results.Result, error) {
			return results.WithFaceExpressions(r, e), nil
		})
}

func (p *Pipeline) ageGenderStep(input media.Input) step {
	net := p.nets.AgeGender
	return perFace(p, input, net,
		func(ctx context.Context, crop media.Crop) (face.AgeAndGender, error) {
			return net.PredictAgeAndGender(ctx, crop)
		},
		results.WithAgeAndGender)
}
