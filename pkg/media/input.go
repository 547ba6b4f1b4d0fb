// Package media wraps the inputs a pipeline can run on and cuts face regions out of
// them. Image inputs are cropped with imaging; tensor inputs stay in the tensor domain.
package media

import (
	"errors"
	"fmt"
	"image"

	"gorgonia.org/tensor"

	"github.com/menta2k/face-analyzer/pkg/geometry"
)

var (
	// ErrUnsupportedInput is returned for media kinds or tensor layouts the extractor cannot crop
	ErrUnsupportedInput = errors.New("unsupported media input")
	// ErrAlreadyDisposed is returned when a crop is disposed twice
	ErrAlreadyDisposed = errors.New("crop already disposed")
)

// Input is any media a pipeline can run on
type Input interface {
	Dims() geometry.Dimensions
}

// ImageInput is a decoded image or video frame
type ImageInput struct {
	img image.Image
}

// FromImage wraps a decoded image
func FromImage(img image.Image) (*ImageInput, error) {
	if img == nil {
		return nil, fmt.Errorf("FromImage: %w: nil image", ErrUnsupportedInput)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("FromImage: %w: empty image bounds %v", ErrUnsupportedInput, b)
	}
	return &ImageInput{img: img}, nil
}

// Image returns the wrapped image
func (i *ImageInput) Image() image.Image { return i.img }

// Dims returns the image size
func (i *ImageInput) Dims() geometry.Dimensions {
	b := i.img.Bounds()
	return geometry.Dims(b.Dx(), b.Dy())
}

// TensorInput is an HWC tensor, optionally carrying a leading batch dimension of 1
type TensorInput struct {
	t        *tensor.Dense
	batched  bool
	height   int
	width    int
	channels int
}

// FromTensor wraps a tensor of shape [H, W, C] or [1, H, W, C]
func FromTensor(t *tensor.Dense) (*TensorInput, error) {
	if t == nil {
		return nil, fmt.Errorf("FromTensor: %w: nil tensor", ErrUnsupportedInput)
	}
	shape := t.Shape()
	in := &TensorInput{t: t}
	switch len(shape) {
	case 3:
		in.height, in.width, in.channels = shape[0], shape[1], shape[2]
	case 4:
		if shape[0] > 1 {
			return nil, fmt.Errorf("FromTensor: %w: batchSize > 1 not supported", ErrUnsupportedInput)
		}
		in.batched = true
		in.height, in.width, in.channels = shape[1], shape[2], shape[3]
	default:
		return nil, fmt.Errorf("FromTensor: %w: expected rank 3 or 4, got shape %v", ErrUnsupportedInput, shape)
	}
	if in.height <= 0 || in.width <= 0 || in.channels <= 0 {
		return nil, fmt.Errorf("FromTensor: %w: empty shape %v", ErrUnsupportedInput, shape)
	}
	switch t.Dtype() {
	case tensor.Float32, tensor.Float64, tensor.Uint8:
	default:
		return nil, fmt.Errorf("FromTensor: %w: dtype %v", ErrUnsupportedInput, t.Dtype())
	}
	return in, nil
}

// Tensor returns the wrapped tensor
func (i *TensorInput) Tensor() *tensor.Dense { return i.t }

// Channels returns the size of the channel dimension
func (i *TensorInput) Channels() int { return i.channels }

// Dims returns the spatial size of the tensor
func (i *TensorInput) Dims() geometry.Dimensions {
	return geometry.Dims(i.width, i.height)
}
