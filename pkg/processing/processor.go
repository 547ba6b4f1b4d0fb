package processing

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/menta2k/face-analyzer/pkg/media"
	"github.com/menta2k/face-analyzer/pkg/types"
)

// maxDownloadSize caps the body read by LoadImageFromURL
const maxDownloadSize = 50 << 20

// Processor loads media and writes face crops
type Processor struct {
	httpClient *http.Client
	userAgent  string
}

// NewProcessor creates a processor whose downloads time out after 30 seconds
func NewProcessor() *Processor {
	return &Processor{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		userAgent:  "Face-Analyzer/1.0",
	}
}

// LoadImageFromURL downloads and decodes an image
func (p *Processor) LoadImageFromURL(ctx context.Context, imageURL string) (image.Image, error) {
	parsedURL, err := url.Parse(imageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, fmt.Errorf("unsupported URL scheme: %s (only http and https are supported)", parsedURL.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: HTTP %s", resp.Status)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "image/") {
		return nil, fmt.Errorf("URL does not point to an image (Content-Type: %s)", ct)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	return decodeImage(data)
}

// LoadImage loads an image file; jpeg, png and webp are supported
func (p *Processor) LoadImage(path string) (image.Image, error) {
	if img, err := imaging.Open(path); err == nil {
		return img, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image file: %w", err)
	}
	img, err := decodeImage(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// LoadImageSmart loads an image from either a file path or an http(s) URL
func (p *Processor) LoadImageSmart(ctx context.Context, source string) (image.Image, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return p.LoadImageFromURL(ctx, source)
	}
	return p.LoadImage(source)
}

// LoadInput loads source and wraps it as pipeline input
func (p *Processor) LoadInput(ctx context.Context, source string) (*media.ImageInput, error) {
	img, err := p.LoadImageSmart(ctx, source)
	if err != nil {
		return nil, err
	}
	return media.FromImage(img)
}

// decodeImage tries the registered decoders first and the cgo webp decoder last
func decodeImage(data []byte) (image.Image, error) {
	if img, _, err := image.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}
	if img, err := webp.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}
	return nil, fmt.Errorf("image: unknown or unsupported format")
}

// ValidateImage rejects images whose short side is below minSize pixels
func ValidateImage(img image.Image, minSize int) error {
	b := img.Bounds()
	if b.Dx() < minSize || b.Dy() < minSize {
		return fmt.Errorf("image too small: %dx%d (minimum %d px per side)", b.Dx(), b.Dy(), minSize)
	}
	return nil
}

// PrepareImageForModel downscales img so its long side is at most maxDim and encodes
// it as base64 for a vision model
func (p *Processor) PrepareImageForModel(img image.Image, format string, maxDim int, quality int) (string, error) {
	if maxDim > 0 {
		b := img.Bounds()
		w, h := b.Dx(), b.Dy()
		if w > maxDim || h > maxDim {
			if w >= h {
				img = imaging.Resize(img, maxDim, 0, imaging.Lanczos)
			} else {
				img = imaging.Resize(img, 0, maxDim, imaging.Lanczos)
			}
		}
	}

	var buf bytes.Buffer
	switch strings.ToLower(format) {
	case "png":
		enc := png.Encoder{CompressionLevel: png.BestSpeed}
		if err := enc.Encode(&buf, img); err != nil {
			return "", err
		}
	default:
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return "", err
		}
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// SaveImage saves an image to a file with the specified format and quality
func (p *Processor) SaveImage(img image.Image, path, format string, quality int, lossless bool) error {
	switch strings.ToLower(format) {
	case "webp":
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		return webp.Encode(f, img, &webp.Options{Lossless: lossless, Quality: float32(quality)})
	case "png":
		return imaging.Save(img, path)
	default:
		return imaging.Save(img, path, imaging.JPEGQuality(quality))
	}
}

// SaveCrop writes a face crop, filling cfg.Width x cfg.Height when both are set
func (p *Processor) SaveCrop(crop media.Crop, path string, cfg types.CropConfig) error {
	img, err := media.CropImage(crop)
	if err != nil {
		return fmt.Errorf("render crop: %w", err)
	}
	if cfg.Width > 0 && cfg.Height > 0 {
		img = imaging.Fill(img, cfg.Width, cfg.Height, imaging.Center, imaging.Lanczos)
	}
	ext := cfg.Extension
	if ext == "" {
		ext = "jpg"
	}
	quality := cfg.Quality
	if quality <= 0 {
		quality = 90
	}
	if err := p.SaveImage(img, path, ext, quality, cfg.Lossless); err != nil {
		return fmt.Errorf("save crop %s: %w", path, err)
	}
	return nil
}
