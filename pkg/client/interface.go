package client

import (
	"context"

	"github.com/menta2k/face-analyzer/pkg/types"
)

// VisionClient is a chat-style vision model transport
type VisionClient interface {
	SimpleQuery(ctx context.Context, model, prompt, imgB64 string) (string, error)
	LocateFaces(ctx context.Context, model, prompt, imgB64 string) (*types.FaceLocations, error)
	DescribeFace(ctx context.Context, model, prompt, imgB64 string) (*types.FaceAttributes, error)
}
