package faceanalyzer

import (
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/disintegration/imaging"
	"go.uber.org/zap/zaptest"

	"github.com/menta2k/face-analyzer/internal/config"
	"github.com/menta2k/face-analyzer/pkg/geometry"
	"github.com/menta2k/face-analyzer/pkg/inference"
	"github.com/menta2k/face-analyzer/pkg/media"
	"github.com/menta2k/face-analyzer/pkg/tasks"
	"github.com/menta2k/face-analyzer/pkg/types"
)

type fakeVision struct {
	describeCalls atomic.Int32
}

func (f *fakeVision) SimpleQuery(ctx context.Context, model, prompt, imgB64 string) (string, error) {
	return "a gradient", nil
}

func (f *fakeVision) LocateFaces(ctx context.Context, model, prompt, imgB64 string) (*types.FaceLocations, error) {
	return &types.FaceLocations{Faces: []types.FaceLocation{
		{Confidence: 0.9, Box: types.Box{X: 0.1, Y: 0.2, W: 0.25, H: 0.5}},
		{Confidence: 0.3, Box: types.Box{X: 0.6, Y: 0.1, W: 0.3, H: 0.6}},
	}}, nil
}

func (f *fakeVision) DescribeFace(ctx context.Context, model, prompt, imgB64 string) (*types.FaceAttributes, error) {
	f.describeCalls.Add(1)
	return &types.FaceAttributes{
		Age:               31,
		Gender:            " Female",
		GenderProbability: 0.8,
		Expressions:       map[string]float64{"happy": 2, "neutral": 2},
	}, nil
}

// createTestImage creates a 200x100 gradient image
func createTestImage() image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, 200, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 200; x++ {
			img.Set(x, y, color.NRGBA{uint8(x), uint8(y * 2), 128, 255})
		}
	}
	return img
}

func newTestAnalyzer(t *testing.T, cfg *config.Config, opts ...Option) (*Analyzer, *fakeVision) {
	t.Helper()
	fv := &fakeVision{}
	opts = append([]Option{WithVisionClient(fv), WithLogger(zaptest.NewLogger(t).Sugar())}, opts...)
	fa, err := New(cfg, opts...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return fa, fv
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Backend.Kind = "openai"
	if _, err := New(cfg); err == nil {
		t.Error("Expected invalid backend to be rejected")
	}
}

func TestNewVisionClient(t *testing.T) {
	for _, kind := range []string{"ollama", "llamacpp"} {
		cfg := config.Default().Backend
		cfg.Kind = kind
		if _, err := NewVisionClient(cfg); err != nil {
			t.Errorf("NewVisionClient(%s) failed: %v", kind, err)
		}
	}
}

func TestAnalyzeAttributes(t *testing.T) {
	fa, fv := newTestAnalyzer(t, nil)
	in, err := media.FromImage(createTestImage())
	if err != nil {
		t.Fatal(err)
	}

	rs, err := fa.Analyze(context.Background(), in, Features{Expressions: true, AgeGender: true})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if len(rs) != 1 {
		t.Fatalf("Expected low confidence face to be filtered, got %d results", len(rs))
	}
	if got := fv.describeCalls.Load(); got != 1 {
		t.Errorf("Expected both attribute stages to share one describe call, got %d", got)
	}

	report := Report("test.png", in.Dims(), rs)
	if report.Width != 200 || report.Height != 100 {
		t.Errorf("Expected 200x100 report, got %dx%d", report.Width, report.Height)
	}
	rec := report.Faces[0]
	if rec.Box != (types.Box{X: 20, Y: 20, W: 50, H: 50}) {
		t.Errorf("unexpected box %+v", rec.Box)
	}
	if rec.Age == nil || *rec.Age != 31 {
		t.Errorf("Expected age 31, got %v", rec.Age)
	}
	if rec.Gender != "female" || rec.GenderProb != 0.8 {
		t.Errorf("unexpected gender %q %f", rec.Gender, rec.GenderProb)
	}
	if rec.Expressions["happy"] != 0.5 || rec.Expression != "neutral" {
		t.Errorf("unexpected expressions %v dominant %q", rec.Expressions, rec.Expression)
	}
	if rec.AlignedBox != nil || rec.Landmarks != nil {
		t.Error("Expected no landmark data without the landmarks stage")
	}
}

func TestAnalyzeLandmarksNeedsBackend(t *testing.T) {
	fa, _ := newTestAnalyzer(t, nil)
	in, _ := media.FromImage(createTestImage())

	_, err := fa.Analyze(context.Background(), in, Features{Landmarks: true})
	if !errors.Is(err, tasks.ErrNetUnavailable) {
		t.Errorf("Expected ErrNetUnavailable, got %v", err)
	}
}

func TestAnalyzeWithLandmarkNet(t *testing.T) {
	landmarks := inference.LandmarkNetFunc(func(ctx context.Context, crop media.Crop) ([]geometry.Point, error) {
		pts := make([]geometry.Point, 68)
		for i := range pts {
			pts[i] = geometry.Point{X: 0.5, Y: 0.5}
		}
		for i := 36; i < 48; i++ {
			pts[i].Y = 0.35
		}
		for i := 48; i < 68; i++ {
			pts[i].Y = 0.75
		}
		return pts, nil
	})
	fa, _ := newTestAnalyzer(t, nil, WithNets(tasks.Nets{Landmarks: landmarks}))
	in, _ := media.FromImage(createTestImage())

	rs, err := fa.Analyze(context.Background(), in, Features{Landmarks: true, AgeGender: true})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	rec := Report("test.png", in.Dims(), rs).Faces[0]
	if len(rec.Landmarks) != 68 {
		t.Errorf("Expected 68 landmarks, got %d", len(rec.Landmarks))
	}
	if rec.AlignedBox == nil {
		t.Fatal("Expected aligned box")
	}
	if rec.AlignedBox.X+rec.AlignedBox.W > 200 || rec.AlignedBox.Y+rec.AlignedBox.H > 100 {
		t.Errorf("aligned box %+v leaves the image", *rec.AlignedBox)
	}
}

func TestAnalyzeSourceAndSaveCrops(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "group.png")
	if err := imaging.Save(createTestImage(), src); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.Output.OutputDir = filepath.Join(dir, "out")
	cfg.Output.Format = "png"
	cfg.Output.CropSize = 32
	fa, _ := newTestAnalyzer(t, cfg)

	ctx := context.Background()
	in, err := fa.LoadInput(ctx, src)
	if err != nil {
		t.Fatalf("LoadInput failed: %v", err)
	}
	rs, err := fa.Analyze(ctx, in, Features{})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	report := Report(src, in.Dims(), rs)
	if err := fa.SaveCrops(ctx, in, rs, &report); err != nil {
		t.Fatalf("SaveCrops failed: %v", err)
	}

	path := report.Faces[0].CropPath
	if path == "" {
		t.Fatal("Expected crop path in report")
	}
	img, err := imaging.Open(path)
	if err != nil {
		t.Fatalf("failed to open crop: %v", err)
	}
	if img.Bounds().Dx() != 32 || img.Bounds().Dy() != 32 {
		t.Errorf("Expected 32x32 crop, got %v", img.Bounds())
	}

	reportPath := filepath.Join(dir, "report.json")
	if err := WriteReport(&report, reportPath); err != nil {
		t.Fatalf("WriteReport failed: %v", err)
	}
	if _, err := os.Stat(reportPath); err != nil {
		t.Errorf("report not written: %v", err)
	}

	full, err := fa.AnalyzeSource(ctx, src, Features{AgeGender: true})
	if err != nil {
		t.Fatalf("AnalyzeSource failed: %v", err)
	}
	if len(full.Faces) != 1 || full.Faces[0].Gender != "female" {
		t.Errorf("unexpected report %+v", full)
	}
}

func TestLoadInputRejectsSmallImages(t *testing.T) {
	src := filepath.Join(t.TempDir(), "tiny.png")
	if err := imaging.Save(image.NewNRGBA(image.Rect(0, 0, 8, 8)), src); err != nil {
		t.Fatal(err)
	}
	fa, _ := newTestAnalyzer(t, nil)
	if _, err := fa.LoadInput(context.Background(), src); err == nil {
		t.Error("Expected image below min size to be rejected")
	}
}
