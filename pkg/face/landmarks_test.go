package face

import (
	"math"
	"testing"

	"github.com/menta2k/face-analyzer/pkg/geometry"
)

// gridPoints returns n distinct relative points laid out row by row
func gridPoints(n int) []geometry.Point {
	pts := make([]geometry.Point, n)
	for i := range pts {
		pts[i] = geometry.Point{X: float64(i%10) / 10, Y: float64(i/10) / 10}
	}
	return pts
}

// frontalFace68 returns 68 relative points with eyes at y=0.4 and the mouth at y=0.75
func frontalFace68() []geometry.Point {
	pts := gridPoints(68)
	for i := 36; i < 42; i++ {
		pts[i] = geometry.Point{X: 0.3, Y: 0.4}
	}
	for i := 42; i < 48; i++ {
		pts[i] = geometry.Point{X: 0.7, Y: 0.4}
	}
	for i := 48; i < 68; i++ {
		pts[i] = geometry.Point{X: 0.5, Y: 0.75}
	}
	return pts
}

func TestNewLandmarksValidation(t *testing.T) {
	if _, err := NewLandmarks68(gridPoints(10), geometry.Dims(100, 100)); err == nil {
		t.Error("Expected error for wrong point count")
	}

	pts := gridPoints(5)
	pts[2].X = math.NaN()
	if _, err := NewLandmarks5(pts, geometry.Dims(100, 100)); err == nil {
		t.Error("Expected error for NaN point")
	}
}

func TestLandmarkRegions(t *testing.T) {
	lm, err := NewLandmarks68(gridPoints(68), geometry.Dims(100, 100))
	if err != nil {
		t.Fatalf("NewLandmarks68 failed: %v", err)
	}
	positions := lm.Positions()

	regions := []struct {
		name     string
		pts      []geometry.Point
		from, to int
	}{
		{"jaw", lm.JawOutline(), 0, 17},
		{"right eyebrow", lm.RightEyeBrow(), 17, 22},
		{"left eyebrow", lm.LeftEyeBrow(), 22, 27},
		{"nose", lm.Nose(), 27, 36},
		{"right eye", lm.RightEye(), 36, 42},
		{"left eye", lm.LeftEye(), 42, 48},
		{"mouth", lm.Mouth(), 48, 68},
	}

	for _, r := range regions {
		if len(r.pts) != r.to-r.from {
			t.Errorf("%s: expected %d points, got %d", r.name, r.to-r.from, len(r.pts))
			continue
		}
		for i, pt := range r.pts {
			if pt != positions[r.from+i] {
				t.Errorf("%s[%d]: expected %v, got %v", r.name, i, positions[r.from+i], pt)
			}
		}
	}
}

func TestLandmarkRegionsOnFivePoints(t *testing.T) {
	lm, err := NewLandmarks5(gridPoints(5), geometry.Dims(50, 50))
	if err != nil {
		t.Fatalf("NewLandmarks5 failed: %v", err)
	}
	if lm.Mouth() != nil {
		t.Error("Expected no mouth region on a 5 point model")
	}
	if got := len(lm.RefPointsForAlignment()); got != 3 {
		t.Errorf("Expected 3 reference points, got %d", got)
	}
}

func TestShiftBy(t *testing.T) {
	lm, err := NewLandmarks68(gridPoints(68), geometry.Dims(100, 100))
	if err != nil {
		t.Fatalf("NewLandmarks68 failed: %v", err)
	}
	shifted := lm.ShiftBy(10, 20)

	orig := lm.Positions()
	moved := shifted.Positions()
	for i := range orig {
		want := geometry.Point{X: orig[i].X + 10, Y: orig[i].Y + 20}
		if moved[i] != want {
			t.Fatalf("point %d: expected %v, got %v", i, want, moved[i])
		}
	}
	if shifted.Shift() != (geometry.Point{X: 10, Y: 20}) {
		t.Errorf("unexpected shift %v", shifted.Shift())
	}
	if lm.Shift() != (geometry.Point{}) {
		t.Error("ShiftBy mutated the source landmarks")
	}

	rel := shifted.RelativePositions()
	for i, pt := range lm.RelativePositions() {
		if math.Abs(pt.X-rel[i].X) > 1e-9 || math.Abs(pt.Y-rel[i].Y) > 1e-9 {
			t.Fatalf("relative point %d changed after shift: %v vs %v", i, pt, rel[i])
		}
	}
}

func TestAlignIsSquareAndCentred(t *testing.T) {
	lm, err := NewLandmarks68(frontalFace68(), geometry.Dims(200, 200))
	if err != nil {
		t.Fatalf("NewLandmarks68 failed: %v", err)
	}

	box := lm.Align()
	if box.Width != box.Height {
		t.Errorf("Expected square alignment box, got %vx%v", box.Width, box.Height)
	}
	if box.Width <= 0 {
		t.Fatalf("Expected positive alignment size, got %v", box.Width)
	}

	// eyes at (60,80) and (140,80), mouth at (100,150)
	eyeToMouth := math.Hypot(40, 70)
	wantSize := math.Floor(eyeToMouth / 0.45)
	if box.Width != wantSize {
		t.Errorf("Expected size %v, got %v", wantSize, box.Width)
	}
	center := box.Center()
	if math.Abs(center.X-100) > 1 {
		t.Errorf("Expected horizontally centred box, got center %v", center)
	}
}

func TestAlignClampsOrigin(t *testing.T) {
	lm, err := NewLandmarks68(frontalFace68(), geometry.Dims(20, 20))
	if err != nil {
		t.Fatalf("NewLandmarks68 failed: %v", err)
	}
	box := lm.Align()
	if box.X < 0 || box.Y < 0 {
		t.Errorf("Expected non-negative origin, got %v", box)
	}
}

func TestAlignMinBBox(t *testing.T) {
	lm, err := NewLandmarks5([]geometry.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0.5, Y: 0.5}, {X: 0, Y: 1}, {X: 1, Y: 1}}, geometry.Dims(100, 100))
	if err != nil {
		t.Fatalf("NewLandmarks5 failed: %v", err)
	}
	box := lm.AlignMinBBox(DefaultMinBoxPadding)
	want := geometry.Box{X: -10, Y: -10, Width: 120, Height: 120}
	if box != want {
		t.Errorf("Expected %v, got %v", want, box)
	}
}

func TestForSize(t *testing.T) {
	lm, err := NewLandmarks5(gridPoints(5), geometry.Dims(100, 100))
	if err != nil {
		t.Fatalf("NewLandmarks5 failed: %v", err)
	}
	resized := lm.ShiftBy(5, 5).ForSize(50, 50)
	if resized.Shift() != (geometry.Point{}) {
		t.Errorf("Expected ForSize to drop the shift, got %v", resized.Shift())
	}
	got := resized.Positions()[1]
	if got != (geometry.Point{X: 5, Y: 0}) {
		t.Errorf("Expected (5,0), got %v", got)
	}
}
