package inference

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/menta2k/face-analyzer/pkg/geometry"
	"github.com/menta2k/face-analyzer/pkg/media"
)

// countingCrop records how often it was disposed
type countingCrop struct {
	region   geometry.Box
	disposed atomic.Int32
	fail     bool
}

func (c *countingCrop) Region() geometry.Box { return c.region }
func (c *countingCrop) Dims() geometry.Dimensions {
	return geometry.Dimensions{Width: c.region.Width, Height: c.region.Height}
}
func (c *countingCrop) Dispose() error {
	c.disposed.Add(1)
	if c.fail {
		return errors.New("dispose failed")
	}
	return nil
}

// fakeExtractor hands out counting crops and remembers them
type fakeExtractor struct {
	mu        sync.Mutex
	crops     []*countingCrop
	failAfter int
	failing   map[int]bool
}

func (e *fakeExtractor) Extract(ctx context.Context, in media.Input, regions []geometry.Box, size geometry.Dimensions) ([]media.Crop, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]media.Crop, 0, len(regions))
	for i, r := range regions {
		if e.failAfter > 0 && i == e.failAfter {
			media.DisposeAll(out)
			return nil, errors.New("extraction failed")
		}
		c := &countingCrop{region: r, fail: e.failing[i]}
		e.crops = append(e.crops, c)
		out = append(out, c)
	}
	return out, nil
}

func (e *fakeExtractor) assertDisposedOnce(t *testing.T) {
	t.Helper()
	for i, c := range e.crops {
		if n := c.disposed.Load(); n != 1 {
			t.Errorf("crop %d disposed %d times, expected 1", i, n)
		}
	}
}

type fakeInput struct{}

func (fakeInput) Dims() geometry.Dimensions { return geometry.Dims(100, 100) }

func regions(n int) []geometry.Box {
	out := make([]geometry.Box, n)
	for i := range out {
		out[i] = geometry.MustBox(float64(i*10), 0, 10, 10)
	}
	return out
}

func regionX(ctx context.Context, crops []media.Crop) ([]float64, error) {
	out := make([]float64, len(crops))
	for i, c := range crops {
		out[i] = c.Region().X
	}
	return out, nil
}

func TestComputeAllDisposesOnSuccess(t *testing.T) {
	ext := &fakeExtractor{}
	got, err := ComputeAll(context.Background(), Request{Extractor: ext, Input: fakeInput{}, Regions: regions(3)}, regionX)
	if err != nil {
		t.Fatalf("ComputeAll failed: %v", err)
	}
	if diff := cmp.Diff([]float64{0, 10, 20}, got); diff != "" {
		t.Errorf("results (-want +got):\n%s", diff)
	}
	if len(ext.crops) != 3 {
		t.Fatalf("Expected 3 extracted crops, got %d", len(ext.crops))
	}
	ext.assertDisposedOnce(t)
}

func TestComputeAllDisposesOnFailure(t *testing.T) {
	ext := &fakeExtractor{}
	boom := errors.New("inference failed")

	_, err := ComputeAll(context.Background(), Request{Extractor: ext, Input: fakeInput{}, Regions: regions(3)},
		func(ctx context.Context, crops []media.Crop) ([]int, error) {
			return nil, boom
		})
	if !errors.Is(err, boom) {
		t.Fatalf("Expected inference error, got %v", err)
	}
	ext.assertDisposedOnce(t)
}

func TestComputeAllKeepsInferenceErrorFirst(t *testing.T) {
	ext := &fakeExtractor{failing: map[int]bool{0: true, 2: true}}
	boom := errors.New("inference failed")

	_, err := ComputeAll(context.Background(), Request{Extractor: ext, Input: fakeInput{}, Regions: regions(3)},
		func(ctx context.Context, crops []media.Crop) ([]int, error) {
			return nil, boom
		})
	if !errors.Is(err, boom) {
		t.Fatalf("Expected inference error to survive disposal failures, got %v", err)
	}
	ext.assertDisposedOnce(t)
}

func TestComputeAllReportsDisposalErrors(t *testing.T) {
	ext := &fakeExtractor{failing: map[int]bool{1: true}}
	got, err := ComputeAll(context.Background(), Request{Extractor: ext, Input: fakeInput{}, Regions: regions(3)}, regionX)
	if err == nil {
		t.Fatal("Expected disposal error")
	}
	if got != nil {
		t.Errorf("Expected no results with a disposal error, got %v", got)
	}
	ext.assertDisposedOnce(t)
}

func TestComputeAllExtractionFailure(t *testing.T) {
	ext := &fakeExtractor{failAfter: 2}
	called := false
	_, err := ComputeAll(context.Background(), Request{Extractor: ext, Input: fakeInput{}, Regions: regions(3)},
		func(ctx context.Context, crops []media.Crop) ([]int, error) {
			called = true
			return nil, nil
		})
	if err == nil {
		t.Fatal("Expected extraction error")
	}
	if called {
		t.Error("infer must not run when extraction fails")
	}
	ext.assertDisposedOnce(t)
}

func TestComputeAllCallerCropsNotDisposed(t *testing.T) {
	crops := []media.Crop{&countingCrop{region: geometry.MustBox(1, 0, 1, 1)}, &countingCrop{region: geometry.MustBox(2, 0, 1, 1)}}
	got, err := ComputeAll(context.Background(), Request{Crops: crops}, regionX)
	if err != nil {
		t.Fatalf("ComputeAll failed: %v", err)
	}
	if diff := cmp.Diff([]float64{1, 2}, got); diff != "" {
		t.Errorf("results (-want +got):\n%s", diff)
	}
	for i, c := range crops {
		if n := c.(*countingCrop).disposed.Load(); n != 0 {
			t.Errorf("caller crop %d disposed %d times", i, n)
		}
	}
}

func TestComputeAllResultCountMismatch(t *testing.T) {
	ext := &fakeExtractor{}
	_, err := ComputeAll(context.Background(), Request{Extractor: ext, Input: fakeInput{}, Regions: regions(2)},
		func(ctx context.Context, crops []media.Crop) ([]int, error) {
			return []int{1}, nil
		})
	if !errors.Is(err, ErrResultCount) {
		t.Errorf("Expected ErrResultCount, got %v", err)
	}
	ext.assertDisposedOnce(t)
}

func TestComputeSingle(t *testing.T) {
	ext := &fakeExtractor{}
	got, err := ComputeSingle(context.Background(), Request{Extractor: ext, Input: fakeInput{}, Regions: regions(1)},
		func(ctx context.Context, c media.Crop) (float64, error) {
			return c.Region().Width, nil
		})
	if err != nil {
		t.Fatalf("ComputeSingle failed: %v", err)
	}
	if got != 10 {
		t.Errorf("Expected 10, got %v", got)
	}
	ext.assertDisposedOnce(t)

	if _, err := ComputeSingle(context.Background(), Request{Extractor: ext, Regions: regions(2)},
		func(ctx context.Context, c media.Crop) (int, error) { return 0, nil }); err == nil {
		t.Error("Expected error for more than one region")
	}
}

func TestForEachKeepsOrder(t *testing.T) {
	crops := make([]media.Crop, 8)
	for i := range crops {
		crops[i] = &countingCrop{region: geometry.MustBox(float64(i), 0, 1, 1)}
	}

	got, err := ForEach(context.Background(), crops, 3, func(ctx context.Context, c media.Crop) (int, error) {
		// later crops finish first
		time.Sleep(time.Duration(8-int(c.Region().X)) * time.Millisecond)
		return int(c.Region().X), nil
	})
	if err != nil {
		t.Fatalf("ForEach failed: %v", err)
	}
	if diff := cmp.Diff([]int{0, 1, 2, 3, 4, 5, 6, 7}, got); diff != "" {
		t.Errorf("order (-want +got):\n%s", diff)
	}
}

func TestForEachRespectsLimit(t *testing.T) {
	crops := make([]media.Crop, 10)
	for i := range crops {
		crops[i] = &countingCrop{}
	}
	var inFlight, peak atomic.Int32

	_, err := ForEach(context.Background(), crops, 2, func(ctx context.Context, c media.Crop) (struct{}, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(time.Millisecond)
		inFlight.Add(-1)
		return struct{}{}, nil
	})
	if err != nil {
		t.Fatalf("ForEach failed: %v", err)
	}
	if peak.Load() > 2 {
		t.Errorf("Expected at most 2 concurrent calls, saw %d", peak.Load())
	}
}

func TestForEachFirstError(t *testing.T) {
	crops := []media.Crop{&countingCrop{}, &countingCrop{}}
	boom := errors.New("boom")
	_, err := ForEach(context.Background(), crops, 0, func(ctx context.Context, c media.Crop) (int, error) {
		return 0, boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("Expected boom, got %v", err)
	}
}

func TestInputSizeOf(t *testing.T) {
	if got := InputSizeOf(struct{}{}); !got.IsZero() {
		t.Errorf("Expected zero size, got %v", got)
	}
	if got := InputSizeOf(sizedNet{}); got != geometry.Dims(150, 150) {
		t.Errorf("Expected 150x150, got %v", got)
	}
}

type sizedNet struct{}

func (sizedNet) InputSize() geometry.Dimensions { return geometry.Dims(150, 150) }
