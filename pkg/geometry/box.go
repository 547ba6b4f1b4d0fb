// Package geometry provides the value types used to describe regions of an image:
// points, dimensions, axis-aligned boxes and their labeled and scored variants.
//
// All transforms are pure; they return a new value and leave the receiver untouched.
package geometry

import (
	"math"
)

// Box is an axis-aligned rectangle with its origin at the top-left corner
type Box struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// NewBox validates and creates a box from its top-left corner and size
func NewBox(x, y, width, height float64) (Box, error) {
	return newBox("NewBox", x, y, width, height, false)
}

// NewBoxAllowNegative creates a box without rejecting negative dimensions.
// Coordinates must still be valid numbers.
func NewBoxAllowNegative(x, y, width, height float64) (Box, error) {
	return newBox("NewBoxAllowNegative", x, y, width, height, true)
}

// NewRect is an alias of NewBox named after the {x, y, width, height} shape
func NewRect(x, y, width, height float64) (Box, error) {
	return newBox("NewRect", x, y, width, height, false)
}

// NewBoundingBox creates a box from its left, top, right and bottom edges
func NewBoundingBox(left, top, right, bottom float64) (Box, error) {
	return newBox("NewBoundingBox", left, top, right-left, bottom-top, false)
}

// MustBox is like NewBox but panics on invalid input. Intended for constants and tests.
func MustBox(x, y, width, height float64) Box {
	b, err := NewBox(x, y, width, height)
	if err != nil {
		panic(err)
	}
	return b
}

func newBox(callee string, x, y, width, height float64, allowNegative bool) (Box, error) {
	props := []struct {
		name string
		v    float64
	}{{"x", x}, {"y", y}, {"width", width}, {"height", height}}
	for _, p := range props {
		if !IsValidNumber(p.v) {
			return Box{}, &ValidationError{Callee: callee, Property: p.name, Value: p.v, Reason: "a number"}
		}
	}
	if !allowNegative {
		if width < 0 {
			return Box{}, &ValidationError{Callee: callee, Property: "width", Value: width, Reason: "a positive number"}
		}
		if height < 0 {
			return Box{}, &ValidationError{Callee: callee, Property: "height", Value: height, Reason: "a positive number"}
		}
	}
	return Box{X: x, Y: y, Width: width, Height: height}, nil
}

// Validate checks the invariants NewBox enforces on an already built box
func (b Box) Validate(callee string) error {
	_, err := newBox(callee, b.X, b.Y, b.Width, b.Height, false)
	return err
}

// Left returns the x coordinate of the left edge
func (b Box) Left() float64 { return b.X }

// Top returns the y coordinate of the top edge
func (b Box) Top() float64 { return b.Y }

// Right returns the x coordinate of the right edge
func (b Box) Right() float64 { return b.X + b.Width }

// Bottom returns the y coordinate of the bottom edge
func (b Box) Bottom() float64 { return b.Y + b.Height }

// Area returns width * height
func (b Box) Area() float64 {
	return b.Width * b.Height
}

// TopLeft returns the top-left corner
func (b Box) TopLeft() Point { return Point{b.Left(), b.Top()} }

// TopRight returns the top-right corner
func (b Box) TopRight() Point { return Point{b.Right(), b.Top()} }

// BottomLeft returns the bottom-left corner
func (b Box) BottomLeft() Point { return Point{b.Left(), b.Bottom()} }

// BottomRight returns the bottom-right corner
func (b Box) BottomRight() Point { return Point{b.Right(), b.Bottom()} }

// Center returns the center point of the box
func (b Box) Center() Point {
	return Point{b.X + b.Width/2, b.Y + b.Height/2}
}

// Shift translates the box by (dx, dy)
func (b Box) Shift(dx, dy float64) Box {
	return Box{X: b.X + dx, Y: b.Y + dy, Width: b.Width, Height: b.Height}
}

// Rescale multiplies position and size by the given factors
func (b Box) Rescale(fx, fy float64) Box {
	return Box{X: b.X * fx, Y: b.Y * fy, Width: b.Width * fx, Height: b.Height * fy}
}

// RescaleDims rescales by the width and height of d
func (b Box) RescaleDims(d Dimensions) Box {
	return b.Rescale(d.Width, d.Height)
}

// Pad grows the box by px horizontally and py vertically, keeping it centred
func (b Box) Pad(px, py float64) Box {
	return Box{
		X:      b.X - px/2,
		Y:      b.Y - py/2,
		Width:  b.Width + px,
		Height: b.Height + py,
	}
}

// Clip clips the box at the borders of a maxWidth x maxHeight image. A box lying
// entirely outside the image collapses to zero width or height.
func (b Box) Clip(maxWidth, maxHeight float64) Box {
	x := math.Min(math.Max(b.X, 0), maxWidth)
	y := math.Min(math.Max(b.Y, 0), maxHeight)
	right := math.Min(b.Right(), maxWidth)
	bottom := math.Min(b.Bottom(), maxHeight)
	return Box{
		X:      x,
		Y:      y,
		Width:  math.Max(0, right-x),
		Height: math.Max(0, bottom-y),
	}
}

// Round rounds position and size to the nearest integer
func (b Box) Round() Box {
	return Box{X: math.Round(b.X), Y: math.Round(b.Y), Width: math.Round(b.Width), Height: math.Round(b.Height)}
}

// Floor floors position and size
func (b Box) Floor() Box {
	return Box{X: math.Floor(b.X), Y: math.Floor(b.Y), Width: math.Floor(b.Width), Height: math.Floor(b.Height)}
}

// ToSquare grows the shorter side to match the longer one, keeping the box centred
func (b Box) ToSquare() Box {
	out := b
	diff := math.Abs(b.Width - b.Height)
	if b.Width < b.Height {
		out.X -= diff / 2
		out.Width += diff
	}
	if b.Height < b.Width {
		out.Y -= diff / 2
		out.Height += diff
	}
	return out
}

// IsEmpty reports whether the box has no area
func (b Box) IsEmpty() bool {
	return b.Width <= 0 || b.Height <= 0
}

// MinBoundingBox returns the smallest box containing all pts
func MinBoundingBox(pts []Point) Box {
	if len(pts) == 0 {
		return Box{}
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, pt := range pts {
		minX = math.Min(minX, pt.X)
		minY = math.Min(minY, pt.Y)
		maxX = math.Max(maxX, pt.X)
		maxY = math.Max(maxY, pt.Y)
	}
	return Box{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}
