package media

import (
	"image"
	"sync/atomic"

	"gorgonia.org/tensor"

	"github.com/menta2k/face-analyzer/pkg/geometry"
)

// Crop is a face region cut out of an input. Crops hold memory and must be disposed
// exactly once by whoever created them.
type Crop interface {
	// Region is the source region in input coordinates after flooring and clipping
	Region() geometry.Box
	// Dims is the size of the crop after resizing
	Dims() geometry.Dimensions
	Dispose() error
}

// ImageCrop is a crop of an image input
type ImageCrop struct {
	img      *image.NRGBA
	region   geometry.Box
	disposed atomic.Bool
}

// NewImageCrop wraps an already cropped image
func NewImageCrop(img *image.NRGBA, region geometry.Box) *ImageCrop {
	return &ImageCrop{img: img, region: region}
}

// Image returns the crop pixels. It returns nil after Dispose.
func (c *ImageCrop) Image() *image.NRGBA {
	if c.disposed.Load() {
		return nil
	}
	return c.img
}

// Region returns the source region of the crop
func (c *ImageCrop) Region() geometry.Box { return c.region }

// Dims returns the crop size. It stays valid after Dispose.
func (c *ImageCrop) Dims() geometry.Dimensions {
	b := c.img.Bounds()
	return geometry.Dims(b.Dx(), b.Dy())
}

// Dispose drops the pixel buffer
func (c *ImageCrop) Dispose() error {
	if !c.disposed.CompareAndSwap(false, true) {
		return ErrAlreadyDisposed
	}
	c.img = &image.NRGBA{Rect: c.img.Rect}
	return nil
}

// TensorCrop is a crop of a tensor input, shaped [H, W, C] with float32 values
type TensorCrop struct {
	t        *tensor.Dense
	region   geometry.Box
	dims     geometry.Dimensions
	disposed atomic.Bool
}

// Tensor returns the crop tensor. It returns nil after Dispose.
func (c *TensorCrop) Tensor() *tensor.Dense {
	if c.disposed.Load() {
		return nil
	}
	return c.t
}

// Region returns the source region of the crop
func (c *TensorCrop) Region() geometry.Box { return c.region }

// Dims returns the crop size after resizing
func (c *TensorCrop) Dims() geometry.Dimensions { return c.dims }

// Dispose hands the tensor back to the tensor pool
func (c *TensorCrop) Dispose() error {
	if !c.disposed.CompareAndSwap(false, true) {
		return ErrAlreadyDisposed
	}
	tensor.ReturnTensor(c.t)
	c.t = nil
	return nil
}
