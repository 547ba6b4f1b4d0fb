package geometry

import "math"

// Point is a 2D position in pixel or relative coordinates
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p + o
func (p Point) Add(o Point) Point {
	return Point{p.X + o.X, p.Y + o.Y}
}

// Sub returns p - o
func (p Point) Sub(o Point) Point {
	return Point{p.X - o.X, p.Y - o.Y}
}

// Mul scales p component-wise by o
func (p Point) Mul(o Point) Point {
	return Point{p.X * o.X, p.Y * o.Y}
}

// Div divides p component-wise by o
func (p Point) Div(o Point) Point {
	return Point{p.X / o.X, p.Y / o.Y}
}

// Magnitude returns the euclidean length of p
func (p Point) Magnitude() float64 {
	return math.Sqrt(p.X*p.X + p.Y*p.Y)
}

// Floor floors both coordinates
func (p Point) Floor() Point {
	return Point{math.Floor(p.X), math.Floor(p.Y)}
}

// CenterPoint returns the mean of pts. It returns the zero point for an empty slice.
func CenterPoint(pts []Point) Point {
	if len(pts) == 0 {
		return Point{}
	}
	var sum Point
	for _, pt := range pts {
		sum = sum.Add(pt)
	}
	n := float64(len(pts))
	return Point{sum.X / n, sum.Y / n}
}

// Dimensions is a width/height pair
type Dimensions struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Dims is a shorthand for building Dimensions from integer sizes
func Dims(width, height int) Dimensions {
	return Dimensions{Width: float64(width), Height: float64(height)}
}

// Reverse returns the reciprocal dimensions (1/width, 1/height)
func (d Dimensions) Reverse() Dimensions {
	return Dimensions{Width: 1 / d.Width, Height: 1 / d.Height}
}

// IsZero reports whether both sides are zero
func (d Dimensions) IsZero() bool {
	return d.Width == 0 && d.Height == 0
}

// AsPoint returns the dimensions as a point for component-wise math
func (d Dimensions) AsPoint() Point {
	return Point{d.Width, d.Height}
}
