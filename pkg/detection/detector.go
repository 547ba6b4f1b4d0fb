package detection

import (
	"context"
	"fmt"
	"image"

	"github.com/menta2k/face-analyzer/pkg/client"
	"github.com/menta2k/face-analyzer/pkg/face"
	"github.com/menta2k/face-analyzer/pkg/geometry"
	"github.com/menta2k/face-analyzer/pkg/media"
	"github.com/menta2k/face-analyzer/pkg/types"
)

// SimpleTestPrompt for testing if the model can see images
const SimpleTestPrompt = `What do you see in this image? Describe it briefly.`

// DefaultPrompt is the default prompt for face localization
const DefaultPrompt = `You are a face locator.

Return JSON only:
{
  "faces": [
    {"confidence": 0.0, "box": {"x": 0.0, "y": 0.0, "w": 0.0, "h": 0.0}}
  ]
}

HARD RULES
- One entry per visible human face, frontal or profile.
- All coordinates are normalized to [0,1] (NOT pixels). x,y is the top-left corner.
- The box should tightly include forehead, chin and both cheeks; no hair or shoulders.
- confidence is your certainty that the box contains a face.
- Do not guess identities.
- If there are no faces, return {"faces": []}.
- JSON only. No markdown, no code fences, no comments, no trailing commas.`

// Encoder turns an image into the base64 payload sent to the model
type Encoder func(img image.Image) (string, error)

// Options control how images are sent to the model
type Options struct {
	Model  string
	Prompt string
	Encode Encoder
}

// Detector finds faces with a vision model. It implements inference.FaceDetector.
type Detector struct {
	client client.VisionClient
	opts   Options
}

// NewDetector creates a new detector with a vision client
func NewDetector(client client.VisionClient, opts Options) (*Detector, error) {
	if client == nil {
		return nil, fmt.Errorf("NewDetector: nil vision client")
	}
	if opts.Encode == nil {
		return nil, fmt.Errorf("NewDetector: nil encoder")
	}
	if opts.Prompt == "" {
		opts.Prompt = DefaultPrompt
	}
	return &Detector{client: client, opts: opts}, nil
}

// DetectFaces sends the whole input to the model and converts the reply into detections
func (d *Detector) DetectFaces(ctx context.Context, in media.Input) ([]face.Detection, error) {
	img, err := media.ToImage(in)
	if err != nil {
		return nil, err
	}
	imgB64, err := d.opts.Encode(img)
	if err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}

	locs, err := d.client.LocateFaces(ctx, d.opts.Model, d.opts.Prompt, imgB64)
	if err != nil {
		return nil, err
	}
	return toDetections(locs, in.Dims()), nil
}

// TestVision tests if the model can actually see the image with a simple prompt
func (d *Detector) TestVision(ctx context.Context, imageB64 string) (string, error) {
	return d.client.SimpleQuery(ctx, d.opts.Model, SimpleTestPrompt, imageB64)
}

// toDetections drops empty boxes and clamps the rest to the image
func toDetections(locs *types.FaceLocations, dims geometry.Dimensions) []face.Detection {
	out := make([]face.Detection, 0, len(locs.Faces))
	for _, loc := range locs.Faces {
		b := normalizeBox(loc.Box)
		if b.W <= 0 || b.H <= 0 {
			continue
		}
		rel := geometry.Box{X: b.X, Y: b.Y, Width: b.W, Height: b.H}
		det, err := face.NewDetectionFromRelative(clamp(loc.Confidence, 0, 1), rel, dims)
		if err != nil {
			continue
		}
		out = append(out, det)
	}
	return out
}

// clamp ensures a value is within the given bounds
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// normalizeBox ensures box coordinates are within [0,1] and the box does not leave the image
func normalizeBox(b types.Box) types.Box {
	x := clamp(b.X, 0, 1)
	y := clamp(b.Y, 0, 1)
	return types.Box{
		X: x,
		Y: y,
		W: clamp(b.W, 0, 1-x),
		H: clamp(b.H, 0, 1-y),
	}
}
