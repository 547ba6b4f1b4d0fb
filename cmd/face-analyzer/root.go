package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	faceanalyzer "github.com/menta2k/face-analyzer"
	"github.com/menta2k/face-analyzer/internal/config"
	"github.com/menta2k/face-analyzer/internal/utils"
)

// globalOptions holds the flags shared by every subcommand
type globalOptions struct {
	ConfigPath    string
	Debug         bool
	Backend       string
	URL           string
	Model         string
	Concurrency   int
	MinConfidence float64
}

var (
	opts globalOptions

	// cfg and analyzer are set up by the root PersistentPreRunE
	cfg      *config.Config
	analyzer *faceanalyzer.Analyzer
	logger   *zap.SugaredLogger
)

var rootCmd = &cobra.Command{
	Use:     "face-analyzer",
	Short:   "Detect faces and predict their attributes with a vision model",
	Version: faceanalyzer.Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if logger, err = newLogger(opts.Debug); err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		if cfg, err = loadConfig(cmd); err != nil {
			return err
		}
		if cmd.Annotations["skipAnalyzer"] == "true" {
			return nil
		}
		analyzer, err = faceanalyzer.New(cfg, faceanalyzer.WithLogger(logger))
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	SilenceUsage: true,
}

// Execute runs the root command until completion or SIGINT/SIGTERM
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(debug bool) (*zap.SugaredLogger, error) {
	var l *zap.Logger
	var err error
	if debug {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}

// loadConfig reads --config, or the default config path when it exists, and applies
// the flags the user set explicitly
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	c := config.Default()
	path := opts.ConfigPath
	if path == "" && utils.FileExists(config.GetConfigPath()) {
		path = config.GetConfigPath()
	}
	if path != "" {
		var err error
		if c, err = config.LoadFromFile(path); err != nil {
			return nil, err
		}
		logger.Debugw("loaded config", "path", path)
	}

	flags := cmd.Flags()
	if flags.Changed("backend") {
		c.Backend.Kind = opts.Backend
	}
	if flags.Changed("url") {
		c.Backend.URL = opts.URL
	}
	if flags.Changed("model") {
		c.Backend.Model = opts.Model
	}
	if flags.Changed("concurrency") {
		c.Pipeline.Concurrency = opts.Concurrency
	}
	if flags.Changed("min-confidence") {
		c.Detection.MinConfidence = opts.MinConfidence
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return c, nil
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "Path to JSON config (default: "+config.GetConfigPath()+" if present)")
	pf.BoolVar(&opts.Debug, "debug", false, "Enable development logging")
	pf.StringVar(&opts.Backend, "backend", "ollama", "Vision backend: ollama or llamacpp")
	pf.StringVar(&opts.URL, "url", "", "Backend server URL")
	pf.StringVarP(&opts.Model, "model", "m", "", "Vision model name")
	pf.IntVar(&opts.Concurrency, "concurrency", 2, "Per-face backend calls in flight (0 = unlimited)")
	pf.Float64Var(&opts.MinConfidence, "min-confidence", 0.5, "Drop detections scoring below this value")
}
