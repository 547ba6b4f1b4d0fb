package face

import (
	"fmt"
	"math"

	"github.com/menta2k/face-analyzer/pkg/geometry"
)

// Layout identifies the point model a set of landmarks follows
type Layout int

const (
	// Layout68 is the iBUG 68 point model
	Layout68 Layout = 68
	// Layout5 is the 5 point model (eyes, nose tip, mouth corners)
	Layout5 Layout = 5
)

// Alignment constants for the square eye/mouth crop
const (
	alignRelX     = 0.5
	alignRelY     = 0.43
	alignRelScale = 0.45
)

// DefaultMinBoxPadding is the padding ratio used by AlignMinBBox callers that have no preference
const DefaultMinBoxPadding = 0.2

// Landmarks is an ordered set of facial points. Positions are stored in the pixel space of
// ImageDims, translated by Shift.
type Landmarks struct {
	layout    Layout
	positions []geometry.Point
	imageDims geometry.Dimensions
	shift     geometry.Point
}

// NewLandmarks builds landmarks from points in [0,1] units relative to an image of size dims
func NewLandmarks(layout Layout, relative []geometry.Point, dims geometry.Dimensions, shift geometry.Point) (*Landmarks, error) {
	if len(relative) != int(layout) {
		return nil, fmt.Errorf("NewLandmarks - expected %d points, got %d", layout, len(relative))
	}
	scale := dims.AsPoint()
	positions := make([]geometry.Point, len(relative))
	for i, pt := range relative {
		if !geometry.IsValidNumber(pt.X) || !geometry.IsValidNumber(pt.Y) {
			return nil, &geometry.ValidationError{
				Callee: "NewLandmarks", Property: fmt.Sprintf("positions[%d]", i), Value: pt, Reason: "a valid point",
			}
		}
		positions[i] = pt.Mul(scale).Add(shift)
	}
	return &Landmarks{layout: layout, positions: positions, imageDims: dims, shift: shift}, nil
}

// NewLandmarks68 builds unshifted 68 point landmarks
func NewLandmarks68(relative []geometry.Point, dims geometry.Dimensions) (*Landmarks, error) {
	return NewLandmarks(Layout68, relative, dims, geometry.Point{})
}

// NewLandmarks5 builds unshifted 5 point landmarks
func NewLandmarks5(relative []geometry.Point, dims geometry.Dimensions) (*Landmarks, error) {
	return NewLandmarks(Layout5, relative, dims, geometry.Point{})
}

// Layout returns the point model of l
func (l *Landmarks) Layout() Layout { return l.layout }

// ImageDims returns the size of the space the points were predicted in
func (l *Landmarks) ImageDims() geometry.Dimensions { return l.imageDims }

// Shift returns the accumulated translation applied to the points
func (l *Landmarks) Shift() geometry.Point { return l.shift }

// Positions returns a copy of the absolute point positions
func (l *Landmarks) Positions() []geometry.Point {
	out := make([]geometry.Point, len(l.positions))
	copy(out, l.positions)
	return out
}

// RelativePositions returns the points in [0,1] units of ImageDims, without the shift
func (l *Landmarks) RelativePositions() []geometry.Point {
	scale := l.imageDims.AsPoint()
	out := make([]geometry.Point, len(l.positions))
	for i, pt := range l.positions {
		out[i] = pt.Sub(l.shift).Div(scale)
	}
	return out
}

// ShiftBy returns a copy of l with every point translated by (dx, dy)
func (l *Landmarks) ShiftBy(dx, dy float64) *Landmarks {
	delta := geometry.Point{X: dx, Y: dy}
	positions := make([]geometry.Point, len(l.positions))
	for i, pt := range l.positions {
		positions[i] = pt.Add(delta)
	}
	return &Landmarks{layout: l.layout, positions: positions, imageDims: l.imageDims, shift: l.shift.Add(delta)}
}

// ForSize returns unshifted landmarks rescaled to an image of the given size
func (l *Landmarks) ForSize(width, height float64) *Landmarks {
	dims := geometry.Dimensions{Width: width, Height: height}
	rel := l.RelativePositions()
	positions := make([]geometry.Point, len(rel))
	for i, pt := range rel {
		positions[i] = pt.Mul(dims.AsPoint())
	}
	return &Landmarks{layout: l.layout, positions: positions, imageDims: dims}
}

func (l *Landmarks) span(from, to int) []geometry.Point {
	if l.layout != Layout68 {
		return nil
	}
	out := make([]geometry.Point, to-from)
	copy(out, l.positions[from:to])
	return out
}

// JawOutline returns points 0-16 of a 68 point model
func (l *Landmarks) JawOutline() []geometry.Point { return l.span(0, 17) }

// RightEyeBrow returns points 17-21 of a 68 point model
func (l *Landmarks) RightEyeBrow() []geometry.Point { return l.span(17, 22) }

// LeftEyeBrow returns points 22-26 of a 68 point model
func (l *Landmarks) LeftEyeBrow() []geometry.Point { return l.span(22, 27) }

// Nose returns points 27-35 of a 68 point model
func (l *Landmarks) Nose() []geometry.Point { return l.span(27, 36) }

// RightEye returns points 36-41 of a 68 point model
func (l *Landmarks) RightEye() []geometry.Point { return l.span(36, 42) }

// LeftEye returns points 42-47 of a 68 point model
func (l *Landmarks) LeftEye() []geometry.Point { return l.span(42, 48) }

// Mouth returns points 48-67 of a 68 point model
func (l *Landmarks) Mouth() []geometry.Point { return l.span(48, 68) }

// RefPointsForAlignment returns the two eye centres and the mouth centre
func (l *Landmarks) RefPointsForAlignment() []geometry.Point {
	if l.layout == Layout5 {
		p := l.positions
		return []geometry.Point{p[0], p[1], geometry.CenterPoint([]geometry.Point{p[3], p[4]})}
	}
	return []geometry.Point{
		geometry.CenterPoint(l.RightEye()),
		geometry.CenterPoint(l.LeftEye()),
		geometry.CenterPoint(l.Mouth()),
	}
}

// Align returns a square box centred on the eyes and mouth, sized from the mean
// eye-to-mouth distance. Its top-left corner never goes below zero.
func (l *Landmarks) Align() geometry.Box {
	refs := l.RefPointsForAlignment()
	eye1, eye2, mouth := refs[0], refs[1], refs[2]
	eyeToMouth := (mouth.Sub(eye1).Magnitude() + mouth.Sub(eye2).Magnitude()) / 2
	size := math.Floor(eyeToMouth / alignRelScale)

	ref := geometry.CenterPoint(refs)
	x := math.Floor(math.Max(0, ref.X-alignRelX*size))
	y := math.Floor(math.Max(0, ref.Y-alignRelY*size))
	return geometry.Box{X: x, Y: y, Width: size, Height: size}
}

// AlignMinBBox returns the min bounding box of all points padded by padding times its size
func (l *Landmarks) AlignMinBBox(padding float64) geometry.Box {
	box := geometry.MinBoundingBox(l.positions)
	return box.Pad(box.Width*padding, box.Height*padding)
}
