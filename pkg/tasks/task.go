package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/menta2k/face-analyzer/pkg/media"
	"github.com/menta2k/face-analyzer/pkg/results"
)

// ErrCropCount is returned when caller supplied crops do not match the faces of a stage
var ErrCropCount = errors.New("crop count does not match face count")

// step transforms the results of the parent task. crops, when non-nil, are caller owned
// crops to run on instead of extracting new ones.
type step func(ctx context.Context, parents []results.Result, crops []media.Crop) ([]results.Result, error)

type stageConfig struct {
	crops []media.Crop
}

// StageOption configures a single stage of a chain
type StageOption func(*stageConfig)

// UsingCrops runs the stage on crops the caller already extracted, one per face in the
// order of the parent results. The caller keeps ownership: the stage never disposes them.
func UsingCrops(crops []media.Crop) StageOption {
	return func(c *stageConfig) {
		if crops == nil {
			crops = []media.Crop{}
		}
		c.crops = crops
	}
}

// task is the node shared by every chain type. run produces the results of the whole
// chain up to this node; resolve maps them to the chain's arity.
type task[O any] struct {
	p       *Pipeline
	input   media.Input
	run     func(ctx context.Context) ([]results.Result, error)
	resolve func([]results.Result) O
}

// Run executes the chain
func (t *task[O]) Run(ctx context.Context) (O, error) {
	rs, err := t.run(ctx)
	if err != nil {
		var zero O
		return zero, err
	}
	return t.resolve(rs), nil
}

// then returns a child task running s on the results of t. A child of a task that
// resolved to no faces runs nothing.
func (t *task[O]) then(stage string, available bool, s step, opts []StageOption) task[O] {
	var cfg stageConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	parent := t.run
	logger := t.p.logger
	return task[O]{
		p:       t.p,
		input:   t.input,
		resolve: t.resolve,
		run: func(ctx context.Context) ([]results.Result, error) {
			if !available {
				return nil, fmt.Errorf("%s: %w", stage, ErrNetUnavailable)
			}
			parents, err := parent(ctx)
			if err != nil {
				return nil, err
			}
			if len(parents) == 0 {
				logger.Debugw("no faces, skipping stage", "stage", stage)
				return []results.Result{}, nil
			}
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("%s: %w", stage, err)
			}
			if cfg.crops != nil && len(cfg.crops) != len(parents) {
				return nil, fmt.Errorf("%s: %w: %d crops for %d faces", stage, ErrCropCount, len(cfg.crops), len(parents))
			}
			out, err := s(ctx, parents, cfg.crops)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", stage, err)
			}
			logger.Debugw("stage complete", "stage", stage, "faces", len(out), "callerCrops", cfg.crops != nil)
			return out, nil
		},
	}
}

func resolveAll(rs []results.Result) []results.Result {
	if rs == nil {
		return []results.Result{}
	}
	return rs
}

func resolveSingle(rs []results.Result) *results.Result {
	if len(rs) == 0 {
		return nil
	}
	r := rs[0]
	return &r
}
