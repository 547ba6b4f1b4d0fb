package media

import (
	"context"
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/menta2k/face-analyzer/pkg/geometry"
)

// Extractor cuts one crop per region out of an input, in region order
type Extractor interface {
	Extract(ctx context.Context, in Input, regions []geometry.Box, size geometry.Dimensions) ([]Crop, error)
}

// RegionExtractor is the default Extractor for image and tensor inputs
type RegionExtractor struct {
	logger *zap.SugaredLogger
	filter imaging.ResampleFilter
}

// Option configures a RegionExtractor
type Option func(*RegionExtractor)

// WithLogger sets the logger used to report degenerate regions
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(e *RegionExtractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithResampleFilter sets the filter used to resize image crops
func WithResampleFilter(filter imaging.ResampleFilter) Option {
	return func(e *RegionExtractor) { e.filter = filter }
}

// NewRegionExtractor creates an extractor that resizes image crops with bilinear filtering
func NewRegionExtractor(opts ...Option) *RegionExtractor {
	e := &RegionExtractor{
		logger: zap.NewNop().Sugar(),
		filter: imaging.Linear,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ResampleFilterByName maps a config value onto an imaging filter
func ResampleFilterByName(name string) (imaging.ResampleFilter, error) {
	switch name {
	case "", "linear":
		return imaging.Linear, nil
	case "nearest":
		return imaging.NearestNeighbor, nil
	case "box":
		return imaging.Box, nil
	case "catmullrom":
		return imaging.CatmullRom, nil
	case "lanczos":
		return imaging.Lanczos, nil
	}
	return imaging.ResampleFilter{}, fmt.Errorf("unknown resample filter %q", name)
}

// Extract returns crops for every region. Regions are floored and clipped to the input;
// a region left empty by clipping produces a 1x1 crop so crops stay aligned with regions.
// When extraction fails part way, the crops already produced are disposed.
func (e *RegionExtractor) Extract(ctx context.Context, in Input, regions []geometry.Box, size geometry.Dimensions) (crops []Crop, err error) {
	crops = make([]Crop, 0, len(regions))
	defer func() {
		if err != nil {
			err = multierr.Append(err, DisposeAll(crops))
			crops = nil
		}
	}()

	dims := in.Dims()
	for i, r := range regions {
		if err := ctx.Err(); err != nil {
			return crops, err
		}
		region := e.normalizeRegion(i, r, dims)

		var crop Crop
		switch v := in.(type) {
		case *ImageInput:
			crop = e.cropImage(v, region, size)
		case *TensorInput:
			tc, cerr := cropTensor(v, region, size)
			if cerr != nil {
				return crops, fmt.Errorf("extract region %d: %w", i, cerr)
			}
			crop = tc
		default:
			return crops, fmt.Errorf("extract region %d: %w: %T", i, ErrUnsupportedInput, in)
		}
		crops = append(crops, crop)
	}

	e.logger.Debugw("extracted face regions", "count", len(crops), "size", size)
	return crops, nil
}

// normalizeRegion floors and clips r to the input. Empty and non-finite regions become a
// 1x1 region at the nearest valid corner.
func (e *RegionExtractor) normalizeRegion(i int, r geometry.Box, dims geometry.Dimensions) geometry.Box {
	finite := geometry.IsValidNumber(r.X) && geometry.IsValidNumber(r.Y) &&
		geometry.IsValidNumber(r.Width) && geometry.IsValidNumber(r.Height)
	if finite {
		if region := r.Floor().Clip(dims.Width, dims.Height); !region.IsEmpty() {
			return region
		}
	}
	e.logger.Warnw("degenerate face region, using a 1x1 crop", "index", i, "region", r, "dims", dims)
	return geometry.Box{X: clampCoord(r.X, dims.Width), Y: clampCoord(r.Y, dims.Height), Width: 1, Height: 1}
}

func clampCoord(v, size float64) float64 {
	if !geometry.IsValidNumber(v) {
		return 0
	}
	return math.Min(math.Max(math.Floor(v), 0), size-1)
}

func (e *RegionExtractor) cropImage(in *ImageInput, region geometry.Box, size geometry.Dimensions) *ImageCrop {
	b := in.img.Bounds()
	x0, y0 := b.Min.X+int(region.X), b.Min.Y+int(region.Y)
	rect := image.Rect(x0, y0, x0+int(region.Width), y0+int(region.Height))

	cropped := imaging.Crop(in.img, rect)
	if !size.IsZero() {
		w, h := int(size.Width), int(size.Height)
		if cropped.Bounds().Dx() != w || cropped.Bounds().Dy() != h {
			cropped = imaging.Resize(cropped, w, h, e.filter)
		}
	}
	return NewImageCrop(cropped, region)
}

// DisposeAll disposes every crop, continuing past failures, and returns the combined error
func DisposeAll(crops []Crop) error {
	var err error
	for _, c := range crops {
		if c == nil {
			continue
		}
		err = multierr.Append(err, c.Dispose())
	}
	return err
}
