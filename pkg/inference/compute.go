package inference

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/menta2k/face-analyzer/pkg/geometry"
	"github.com/menta2k/face-analyzer/pkg/media"
)

// ErrResultCount is returned when a backend produces a different number of results than crops
var ErrResultCount = errors.New("result count does not match crop count")

// Request describes the crops an inference call runs on. When Crops is set the caller
// owns them and they are used as is; otherwise Regions are extracted from Input by
// Extractor and disposed once the call returns.
type Request struct {
	Extractor media.Extractor
	Input     media.Input
	Regions   []geometry.Box
	Size      geometry.Dimensions
	Crops     []media.Crop
}

// ComputeAll runs infer over the crops of req and returns one result per crop.
// Crops created here are disposed exactly once whether infer succeeds or fails. An
// inference error is always reported first, with disposal errors appended to it.
func ComputeAll[R any](ctx context.Context, req Request, infer func(context.Context, []media.Crop) ([]R, error)) (results []R, err error) {
	crops := req.Crops
	if crops == nil {
		if req.Extractor == nil {
			return nil, errors.New("inference: no extractor for regions")
		}
		crops, err = req.Extractor.Extract(ctx, req.Input, req.Regions, req.Size)
		if err != nil {
			return nil, fmt.Errorf("extract faces: %w", err)
		}
		defer func() {
			if derr := media.DisposeAll(crops); derr != nil {
				err = multierr.Append(err, fmt.Errorf("dispose crops: %w", derr))
				results = nil
			}
		}()
	}

	results, err = infer(ctx, crops)
	if err != nil {
		return nil, err
	}
	if len(results) != len(crops) {
		return nil, fmt.Errorf("%w: %d results for %d crops", ErrResultCount, len(results), len(crops))
	}
	return results, nil
}

// ComputeSingle is ComputeAll for exactly one region or crop
func ComputeSingle[R any](ctx context.Context, req Request, infer func(context.Context, media.Crop) (R, error)) (R, error) {
	var zero R
	if req.Crops == nil && len(req.Regions) != 1 {
		return zero, fmt.Errorf("inference: expected a single region, got %d", len(req.Regions))
	}
	if req.Crops != nil && len(req.Crops) != 1 {
		return zero, fmt.Errorf("inference: expected a single crop, got %d", len(req.Crops))
	}
	out, err := ComputeAll(ctx, req, func(ctx context.Context, crops []media.Crop) ([]R, error) {
		r, err := infer(ctx, crops[0])
		if err != nil {
			return nil, err
		}
		return []R{r}, nil
	})
	if err != nil {
		return zero, err
	}
	return out[0], nil
}

// ForEach calls fn for every crop with at most limit calls in flight (no limit when
// limit <= 0). Results keep crop order. The first error cancels the remaining calls.
func ForEach[R any](ctx context.Context, crops []media.Crop, limit int, fn func(context.Context, media.Crop) (R, error)) ([]R, error) {
	out := make([]R, len(crops))
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, crop := range crops {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := fn(gctx, crop)
			if err != nil {
				return fmt.Errorf("face %d: %w", i, err)
			}
			out[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
