package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config holds the application configuration
type Config struct {
	Detection  DetectionConfig  `json:"detection"`
	Extraction ExtractionConfig `json:"extraction"`
	Pipeline   PipelineConfig   `json:"pipeline"`
	Backend    BackendConfig    `json:"backend"`
	Output     OutputConfig     `json:"output"`
}

// DetectionConfig holds the detection postprocessing settings
type DetectionConfig struct {
	MinConfidence float64 `json:"min_confidence"`
	MinFaceArea   float64 `json:"min_face_area"`
	MaxFaces      int     `json:"max_faces"`
}

// ExtractionConfig holds configuration for face crop extraction
type ExtractionConfig struct {
	ResampleFilter string `json:"resample_filter"`
	MinImageSize   int    `json:"min_image_size"`
}

// PipelineConfig holds configuration for stage execution
type PipelineConfig struct {
	Concurrency int `json:"concurrency"`
}

// BackendConfig selects and configures the vision model backend
type BackendConfig struct {
	Kind           string `json:"kind"`
	URL            string `json:"url"`
	Model          string `json:"model"`
	TimeoutSeconds int    `json:"timeout_seconds"`
	SendFormat     string `json:"send_format"`
	SendSize       int    `json:"send_size"`
	SendQuality    int    `json:"send_quality"`
}

// OutputConfig holds configuration for output generation
type OutputConfig struct {
	Format    string `json:"format"`
	Quality   int    `json:"quality"`
	Lossless  bool   `json:"lossless"`
	CropSize  int    `json:"crop_size"`
	OutputDir string `json:"output_dir"`
	Prefix    string `json:"prefix"`
	Suffix    string `json:"suffix"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Detection: DetectionConfig{
			MinConfidence: 0.5,
			MinFaceArea:   0,
			MaxFaces:      0,
		},
		Extraction: ExtractionConfig{
			ResampleFilter: "linear",
			MinImageSize:   32,
		},
		Pipeline: PipelineConfig{
			Concurrency: 2,
		},
		Backend: BackendConfig{
			Kind:           "ollama",
			URL:            "http://localhost:11434",
			Model:          "openbmb/minicpm-v4.5",
			TimeoutSeconds: 300,
			SendFormat:     "jpg",
			SendSize:       1536,
			SendQuality:    85,
		},
		Output: OutputConfig{
			Format:    "jpg",
			Quality:   90,
			CropSize:  0,
			OutputDir: "./output",
			Prefix:    "",
			Suffix:    "_face",
		},
	}
}

// LoadFromFile loads configuration from a JSON file on top of the defaults
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return config, nil
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Detection.MinConfidence < 0 || c.Detection.MinConfidence > 1 {
		return fmt.Errorf("detection.min_confidence must be between 0 and 1")
	}
	if c.Detection.MinFaceArea < 0 {
		return fmt.Errorf("detection.min_face_area cannot be negative")
	}
	if c.Detection.MaxFaces < 0 {
		return fmt.Errorf("detection.max_faces cannot be negative")
	}

	switch c.Extraction.ResampleFilter {
	case "", "linear", "nearest", "box", "catmullrom", "lanczos":
	default:
		return fmt.Errorf("extraction.resample_filter %q is not supported", c.Extraction.ResampleFilter)
	}
	if c.Extraction.MinImageSize < 1 {
		return fmt.Errorf("extraction.min_image_size must be positive")
	}

	if c.Pipeline.Concurrency < 0 {
		return fmt.Errorf("pipeline.concurrency cannot be negative")
	}

	switch c.Backend.Kind {
	case "ollama", "llamacpp":
	default:
		return fmt.Errorf("backend.kind must be ollama or llamacpp, got %q", c.Backend.Kind)
	}
	if c.Backend.Model == "" {
		return fmt.Errorf("backend.model cannot be empty")
	}
	if c.Backend.TimeoutSeconds < 0 {
		return fmt.Errorf("backend.timeout_seconds cannot be negative")
	}
	if c.Backend.SendQuality < 1 || c.Backend.SendQuality > 100 {
		return fmt.Errorf("backend.send_quality must be between 1 and 100")
	}

	switch c.Output.Format {
	case "jpg", "jpeg", "png", "webp":
	default:
		return fmt.Errorf("output.format must be jpg, png or webp, got %q", c.Output.Format)
	}
	if c.Output.Quality < 1 || c.Output.Quality > 100 {
		return fmt.Errorf("output.quality must be between 1 and 100")
	}
	if c.Output.CropSize < 0 {
		return fmt.Errorf("output.crop_size cannot be negative")
	}
	return nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "face-analyzer", "config.json")
}
