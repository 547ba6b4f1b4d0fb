package detection

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/menta2k/face-analyzer/pkg/client"
	"github.com/menta2k/face-analyzer/pkg/face"
	"github.com/menta2k/face-analyzer/pkg/media"
	"github.com/menta2k/face-analyzer/pkg/types"
)

// AttributePrompt asks for the attributes of a single cropped face
const AttributePrompt = `You are given a crop containing exactly one human face.

Return JSON only:
{
  "age": 0,
  "gender": "male|female",
  "gender_probability": 0.0,
  "expressions": {"neutral": 0.0, "happy": 0.0, "sad": 0.0, "angry": 0.0, "fearful": 0.0, "disgusted": 0.0, "surprised": 0.0}
}

HARD RULES
- age is your best estimate in years.
- gender_probability is your certainty in the chosen gender, in [0,1].
- expressions are probabilities in [0,1] that sum to 1.
- JSON only. No markdown, no code fences, no comments, no trailing commas.`

// maxPendingReplies bounds the replies waiting for their other half
const maxPendingReplies = 256

// AttributePredictor estimates age, gender and expressions of face crops with a vision
// model. It implements inference.AgeGenderNet and inference.ExpressionNet.
//
// One DescribeFace reply carries both attribute kinds, so a reply fetched for one kind
// is held until the other kind is requested for the same encoded crop. Each reply is
// handed out at most once per kind; asking for the same kind again queries the model.
type AttributePredictor struct {
	client client.VisionClient
	opts   Options

	mu      sync.Mutex
	pending map[string]*pendingReply
}

type attributeKind int

const (
	ageGenderKind attributeKind = iota
	expressionsKind
)

// pendingReply is a model reply that has served only some attribute kinds
type pendingReply struct {
	attrs  *types.FaceAttributes
	served [2]bool
}

// NewAttributePredictor creates a predictor; an empty prompt selects AttributePrompt
func NewAttributePredictor(client client.VisionClient, opts Options) (*AttributePredictor, error) {
	if client == nil {
		return nil, fmt.Errorf("NewAttributePredictor: nil vision client")
	}
	if opts.Encode == nil {
		return nil, fmt.Errorf("NewAttributePredictor: nil encoder")
	}
	if opts.Prompt == "" {
		opts.Prompt = AttributePrompt
	}
	return &AttributePredictor{client: client, opts: opts, pending: make(map[string]*pendingReply)}, nil
}

func (a *AttributePredictor) describe(ctx context.Context, crop media.Crop, kind attributeKind) (*types.FaceAttributes, error) {
	img, err := media.CropImage(crop)
	if err != nil {
		return nil, err
	}
	imgB64, err := a.opts.Encode(img)
	if err != nil {
		return nil, fmt.Errorf("encode crop: %w", err)
	}
	if attrs, ok := a.takePending(imgB64, kind); ok {
		return attrs, nil
	}
	attrs, err := a.client.DescribeFace(ctx, a.opts.Model, a.opts.Prompt, imgB64)
	if err != nil {
		return nil, err
	}
	a.storePending(imgB64, kind, attrs)
	return attrs, nil
}

// takePending returns a held reply that has not served kind yet
func (a *AttributePredictor) takePending(key string, kind attributeKind) (*types.FaceAttributes, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	p, ok := a.pending[key]
	if !ok || p.served[kind] {
		return nil, false
	}
	// every kind has been served now
	delete(a.pending, key)
	return p.attrs, true
}

func (a *AttributePredictor) storePending(key string, kind attributeKind, attrs *types.FaceAttributes) {
	if attrs == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.pending) >= maxPendingReplies {
		clear(a.pending)
	}
	p := &pendingReply{attrs: attrs}
	p.served[kind] = true
	a.pending[key] = p
}

// PredictAgeAndGender asks the model for age and gender
func (a *AttributePredictor) PredictAgeAndGender(ctx context.Context, crop media.Crop) (face.AgeAndGender, error) {
	attrs, err := a.describe(ctx, crop, ageGenderKind)
	if err != nil {
		return face.AgeAndGender{}, err
	}
	gender, err := face.ParseGender(strings.ToLower(strings.TrimSpace(attrs.Gender)))
	if err != nil {
		return face.AgeAndGender{}, err
	}
	return face.AgeAndGender{
		Age:               math.Max(0, attrs.Age),
		Gender:            gender,
		GenderProbability: clamp(attrs.GenderProbability, 0, 1),
	}, nil
}

// PredictExpressions asks the model for expression probabilities
func (a *AttributePredictor) PredictExpressions(ctx context.Context, crop media.Crop) (face.Expressions, error) {
	attrs, err := a.describe(ctx, crop, expressionsKind)
	if err != nil {
		return face.Expressions{}, err
	}
	return toExpressions(attrs.Expressions)
}

// toExpressions normalizes model scores so they sum to one
func toExpressions(scores map[string]float64) (face.Expressions, error) {
	probs := make([]float64, len(face.ExpressionLabels))
	var sum float64
	for i, label := range face.ExpressionLabels {
		probs[i] = math.Max(0, scores[label])
		sum += probs[i]
	}
	if sum == 0 {
		return face.Expressions{}, fmt.Errorf("model returned no expression scores")
	}
	for i := range probs {
		probs[i] /= sum
	}
	return face.NewExpressions(probs)
}
