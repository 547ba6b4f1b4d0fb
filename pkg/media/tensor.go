package media

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"gorgonia.org/tensor"

	"github.com/menta2k/face-analyzer/pkg/geometry"
)

// cropTensor slices region out of in and resizes it to size with bilinear sampling.
// region must already be integral and inside the tensor bounds.
func cropTensor(in *TensorInput, region geometry.Box, size geometry.Dimensions) (*TensorCrop, error) {
	x0, y0 := int(region.X), int(region.Y)
	x1, y1 := x0+int(region.Width), y0+int(region.Height)

	var (
		view tensor.View
		err  error
	)
	if in.batched {
		view, err = in.t.Slice(tensor.S(0), tensor.S(y0, y1), tensor.S(x0, x1))
	} else {
		view, err = in.t.Slice(tensor.S(y0, y1), tensor.S(x0, x1))
	}
	if err != nil {
		return nil, fmt.Errorf("slice tensor region %v: %w", region, err)
	}

	src, err := float32Data(view.Materialize().Data())
	if err != nil {
		return nil, err
	}
	srcW, srcH, c := x1-x0, y1-y0, in.channels
	if len(src) != srcW*srcH*c {
		return nil, fmt.Errorf("slice tensor region %v: got %d values, expected %d", region, len(src), srcW*srcH*c)
	}

	dstW, dstH := srcW, srcH
	if !size.IsZero() {
		dstW, dstH = int(size.Width), int(size.Height)
	}
	var out []float32
	if dstW == srcW && dstH == srcH {
		out = src
	} else {
		out = resizeBilinear(src, srcW, srcH, c, dstW, dstH)
	}

	t := tensor.New(tensor.WithShape(dstH, dstW, c), tensor.WithBacking(out))
	return &TensorCrop{t: t, region: region, dims: geometry.Dims(dstW, dstH)}, nil
}

// float32Data copies the backing slice of a tensor into a fresh []float32
func float32Data(data interface{}) ([]float32, error) {
	switch d := data.(type) {
	case []float32:
		out := make([]float32, len(d))
		copy(out, d)
		return out, nil
	case []float64:
		out := make([]float32, len(d))
		for i, v := range d {
			out[i] = float32(v)
		}
		return out, nil
	case []uint8:
		out := make([]float32, len(d))
		for i, v := range d {
			out[i] = float32(v)
		}
		return out, nil
	case float32:
		return []float32{d}, nil
	case float64:
		return []float32{float32(d)}, nil
	case uint8:
		return []float32{float32(d)}, nil
	}
	return nil, fmt.Errorf("%w: tensor data of type %T", ErrUnsupportedInput, data)
}

// resizeBilinear resamples an HWC buffer using half-pixel centres
func resizeBilinear(src []float32, srcW, srcH, c, dstW, dstH int) []float32 {
	out := make([]float32, dstW*dstH*c)
	sx := float64(srcW) / float64(dstW)
	sy := float64(srcH) / float64(dstH)

	for y := 0; y < dstH; y++ {
		fy := math.Max(0, (float64(y)+0.5)*sy-0.5)
		y0 := int(fy)
		y1 := minInt(y0+1, srcH-1)
		wy := float32(fy - float64(y0))
		for x := 0; x < dstW; x++ {
			fx := math.Max(0, (float64(x)+0.5)*sx-0.5)
			x0 := int(fx)
			x1 := minInt(x0+1, srcW-1)
			wx := float32(fx - float64(x0))
			for ch := 0; ch < c; ch++ {
				tl := src[(y0*srcW+x0)*c+ch]
				tr := src[(y0*srcW+x1)*c+ch]
				bl := src[(y1*srcW+x0)*c+ch]
				br := src[(y1*srcW+x1)*c+ch]
				top := tl + (tr-tl)*wx
				bottom := bl + (br-bl)*wx
				out[(y*dstW+x)*c+ch] = top + (bottom-top)*wy
			}
		}
	}
	return out
}

// ToImage renders an input as an image. Tensor values are expected in [0, 255] with
// 1, 3 or 4 channels.
func ToImage(in Input) (image.Image, error) {
	switch v := in.(type) {
	case *ImageInput:
		return v.img, nil
	case *TensorInput:
		data, err := float32Data(v.t.Data())
		if err != nil {
			return nil, err
		}
		return hwcToImage(data, v.width, v.height, v.channels)
	}
	return nil, fmt.Errorf("ToImage: %w: %T", ErrUnsupportedInput, in)
}

// CropImage renders a crop as an image
func CropImage(c Crop) (image.Image, error) {
	switch v := c.(type) {
	case *ImageCrop:
		img := v.Image()
		if img == nil {
			return nil, ErrAlreadyDisposed
		}
		return img, nil
	case *TensorCrop:
		t := v.Tensor()
		if t == nil {
			return nil, ErrAlreadyDisposed
		}
		data, err := float32Data(t.Data())
		if err != nil {
			return nil, err
		}
		shape := t.Shape()
		return hwcToImage(data, shape[1], shape[0], shape[2])
	}
	return nil, fmt.Errorf("CropImage: %w: %T", ErrUnsupportedInput, c)
}

func hwcToImage(data []float32, w, h, c int) (*image.NRGBA, error) {
	if c != 1 && c != 3 && c != 4 {
		return nil, fmt.Errorf("%w: %d channels", ErrUnsupportedInput, c)
	}
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := (y*w + x) * c
			px := color.NRGBA{A: 255}
			switch c {
			case 1:
				g := toByte(data[i])
				px.R, px.G, px.B = g, g, g
			case 3:
				px.R, px.G, px.B = toByte(data[i]), toByte(data[i+1]), toByte(data[i+2])
			case 4:
				px.R, px.G, px.B, px.A = toByte(data[i]), toByte(data[i+1]), toByte(data[i+2]), toByte(data[i+3])
			}
			img.SetNRGBA(x, y, px)
		}
	}
	return img, nil
}

func toByte(v float32) uint8 {
	return uint8(math.Max(0, math.Min(255, math.Round(float64(v)))))
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
