package results

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/menta2k/face-analyzer/pkg/face"
	"github.com/menta2k/face-analyzer/pkg/geometry"
)

// createTestLandmarks returns 68 crop-relative points with eyes at y=0.35 and the mouth at y=0.75
func createTestLandmarks(t *testing.T, dims geometry.Dimensions) *face.Landmarks {
	t.Helper()
	pts := make([]geometry.Point, 68)
	for i := range pts {
		pts[i] = geometry.Point{X: 0.1 + 0.8*float64(i%17)/16, Y: 0.5}
	}
	for i := 36; i < 42; i++ {
		pts[i] = geometry.Point{X: 0.3, Y: 0.35}
	}
	for i := 42; i < 48; i++ {
		pts[i] = geometry.Point{X: 0.7, Y: 0.35}
	}
	for i := 48; i < 68; i++ {
		pts[i] = geometry.Point{X: 0.4 + 0.2*float64(i-48)/19, Y: 0.75}
	}
	lm, err := face.NewLandmarks68(pts, dims)
	if err != nil {
		t.Fatalf("NewLandmarks68 failed: %v", err)
	}
	return lm
}

func createTestResult(t *testing.T) Result {
	t.Helper()
	det, err := face.NewDetection(0.9, geometry.MustBox(10, 10, 100, 100), geometry.Dims(200, 200))
	if err != nil {
		t.Fatalf("NewDetection failed: %v", err)
	}
	return WithFaceDetection(det)
}

func TestWithFaceLandmarksShiftsIntoImageSpace(t *testing.T) {
	r := createTestResult(t)
	unshifted := createTestLandmarks(t, geometry.Dims(100, 100))

	withLm, err := WithFaceLandmarks(r, unshifted)
	if err != nil {
		t.Fatalf("WithFaceLandmarks failed: %v", err)
	}
	if !IsWithFaceLandmarks(withLm) {
		t.Fatal("Expected result to carry landmarks")
	}

	mouth := withLm.Landmarks.Mouth()
	all := unshifted.Positions()
	if len(mouth) != 20 {
		t.Fatalf("Expected 20 mouth points, got %d", len(mouth))
	}
	for i, pt := range mouth {
		want := all[48+i].Add(geometry.Point{X: 10, Y: 10})
		if diff := cmp.Diff(want, pt, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
			t.Errorf("mouth point %d (-want +got):\n%s", i, diff)
		}
	}

	rect := withLm.AlignedRect.Box
	if rect.X < 0 || rect.Y < 0 || rect.Right() > 200 || rect.Bottom() > 200 {
		t.Errorf("aligned rect %v leaves the 200x200 image", rect)
	}
	if rect.IsEmpty() {
		t.Errorf("Expected non-empty aligned rect, got %v", rect)
	}
	if withLm.AlignedRect.Score != r.Detection.Score {
		t.Errorf("Expected aligned rect to keep the detection score")
	}
	if withLm.UnshiftedLandmarks != unshifted {
		t.Error("Expected unshifted landmarks to be kept as given")
	}
}

func TestWithFaceLandmarksClipsAlignedRect(t *testing.T) {
	det, err := face.NewDetection(0.8, geometry.MustBox(150, 150, 50, 50), geometry.Dims(200, 200))
	if err != nil {
		t.Fatalf("NewDetection failed: %v", err)
	}
	// an elongated face gives an alignment rect larger than the detection
	pts := make([]geometry.Point, 68)
	for i := range pts {
		pts[i] = geometry.Point{X: 0.5, Y: 0.5}
	}
	for i := 36; i < 48; i++ {
		pts[i] = geometry.Point{X: 0.5, Y: 0}
	}
	for i := 48; i < 68; i++ {
		pts[i] = geometry.Point{X: 0.5, Y: 1}
	}
	lm, err := face.NewLandmarks68(pts, geometry.Dims(50, 50))
	if err != nil {
		t.Fatalf("NewLandmarks68 failed: %v", err)
	}

	withLm, err := WithFaceLandmarks(WithFaceDetection(det), lm)
	if err != nil {
		t.Fatalf("WithFaceLandmarks failed: %v", err)
	}
	rect := withLm.AlignedRect.Box
	if rect.Right() > 200 || rect.Bottom() > 200 {
		t.Errorf("Expected aligned rect clipped to the image, got %v", rect)
	}
}

func TestExtendersDoNotMutate(t *testing.T) {
	r := createTestResult(t)
	orig := r

	_ = WithFaceDescriptor(r, face.Descriptor{1, 2, 3})
	_ = WithFaceExpressions(r, face.Expressions{Happy: 1})
	_ = WithAge(r, 30)
	_ = WithGender(r, face.Male, 0.9)
	if _, err := WithFaceLandmarks(r, createTestLandmarks(t, geometry.Dims(100, 100))); err != nil {
		t.Fatalf("WithFaceLandmarks failed: %v", err)
	}

	if diff := cmp.Diff(orig, r, cmp.AllowUnexported(face.Landmarks{})); diff != "" {
		t.Errorf("result mutated (-before +after):\n%s", diff)
	}
}

func TestPredicates(t *testing.T) {
	r := createTestResult(t)
	if !IsWithFaceDetection(r) {
		t.Error("Expected detection")
	}
	if IsWithFaceLandmarks(r) || IsWithFaceDescriptor(r) || IsWithFaceExpressions(r) || IsWithAge(r) || IsWithGender(r) {
		t.Error("Expected a bare detection result")
	}
	if IsWithFaceDetection(Result{}) {
		t.Error("Expected zero result to carry no detection")
	}

	full := WithFaceExpressions(WithFaceDescriptor(r, make(face.Descriptor, face.DescriptorSize)), face.Expressions{Neutral: 1})
	full, err := WithAgeAndGender(full, face.AgeAndGender{Age: 40, Gender: face.Female, GenderProbability: 0.7})
	if err != nil {
		t.Fatalf("WithAgeAndGender failed: %v", err)
	}
	if !IsWithFaceDescriptor(full) || !IsWithFaceExpressions(full) || !IsWithAge(full) || !IsWithGender(full) {
		t.Errorf("Expected all attributes, got %+v", full)
	}

	if IsWithGender(WithGender(r, "other", 0.5)) {
		t.Error("Expected unknown gender label to fail the predicate")
	}
	if IsWithGender(WithGender(r, face.Male, 1.5)) {
		t.Error("Expected out of range gender probability to fail the predicate")
	}
	if _, err := WithAgeAndGender(r, face.AgeAndGender{Age: 20, Gender: face.Male, GenderProbability: 2}); err == nil {
		t.Error("Expected invalid age/gender prediction to be rejected")
	}
}

func TestRegionPrefersAlignedRect(t *testing.T) {
	r := createTestResult(t)
	if r.Region() != r.Detection.Box {
		t.Errorf("Expected detection box, got %v", r.Region())
	}
	withLm, err := WithFaceLandmarks(r, createTestLandmarks(t, geometry.Dims(100, 100)))
	if err != nil {
		t.Fatalf("WithFaceLandmarks failed: %v", err)
	}
	if withLm.Region() != withLm.AlignedRect.Box {
		t.Errorf("Expected aligned rect, got %v", withLm.Region())
	}
}

func TestResize(t *testing.T) {
	r := createTestResult(t)
	withLm, err := WithFaceLandmarks(r, createTestLandmarks(t, geometry.Dims(100, 100)))
	if err != nil {
		t.Fatalf("WithFaceLandmarks failed: %v", err)
	}
	withLm = WithAge(withLm, 25)

	out, err := Resize([]Result{withLm}, 100, 100)
	if err != nil {
		t.Fatalf("Resize failed: %v", err)
	}
	got := out[0]

	wantBox := geometry.MustBox(5, 5, 50, 50)
	if diff := cmp.Diff(wantBox, got.Detection.Box, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("detection box (-want +got):\n%s", diff)
	}
	if got.Landmarks == nil || got.AlignedRect == nil {
		t.Fatal("Expected landmarks to be carried over")
	}
	origMouth := withLm.Landmarks.Mouth()[0]
	gotMouth := got.Landmarks.Mouth()[0]
	want := geometry.Point{X: origMouth.X / 2, Y: origMouth.Y / 2}
	if diff := cmp.Diff(want, gotMouth, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("mouth point (-want +got):\n%s", diff)
	}
	if got.Age == nil || *got.Age != 25 {
		t.Error("Expected age to survive resizing")
	}
	if withLm.Detection.Box != r.Detection.Box {
		t.Error("Resize mutated its input")
	}
}

func TestIsWithFaceExpressionsChecksProbabilities(t *testing.T) {
	r := WithFaceExpressions(createTestResult(t), face.Expressions{Happy: 0.6, Neutral: 0.4})
	if !IsWithFaceExpressions(r) {
		t.Error("Expected valid expressions")
	}
	bad := WithFaceExpressions(createTestResult(t), face.Expressions{Happy: 1.5})
	if IsWithFaceExpressions(bad) {
		t.Error("Expected a probability above 1 to fail the predicate")
	}
}

func TestWithFaceLandmarksInRegionUsesRegionOrigin(t *testing.T) {
	det, err := face.NewDetection(0.9, geometry.Box{X: -20, Y: 50, Width: 100, Height: 100}, geometry.Dims(400, 200))
	if err != nil {
		t.Fatalf("NewDetection failed: %v", err)
	}
	region := geometry.MustBox(0, 50, 80, 100)
	unshifted := createTestLandmarks(t, geometry.Dimensions{Width: region.Width, Height: region.Height})

	r, err := WithFaceLandmarksInRegion(WithFaceDetection(det), unshifted, region)
	if err != nil {
		t.Fatalf("WithFaceLandmarksInRegion failed: %v", err)
	}
	want := make([]geometry.Point, 0, 68)
	for _, pt := range unshifted.Positions() {
		want = append(want, pt.Add(region.TopLeft()))
	}
	if diff := cmp.Diff(want, r.Landmarks.Positions(), cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("landmarks (-want +got):\n%s", diff)
	}

	resized, err := Resize([]Result{r}, 200, 100)
	if err != nil {
		t.Fatalf("Resize failed: %v", err)
	}
	for i, pt := range resized[0].Landmarks.Positions() {
		orig := r.Landmarks.Positions()[i]
		if diff := cmp.Diff(geometry.Point{X: orig.X / 2, Y: orig.Y / 2}, pt, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
			t.Fatalf("resized landmark %d (-want +got):\n%s", i, diff)
		}
	}
}
