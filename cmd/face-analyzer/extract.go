package main

import (
	"github.com/spf13/cobra"

	faceanalyzer "github.com/menta2k/face-analyzer"
	"github.com/menta2k/face-analyzer/internal/utils"
)

// cropOptions are the output flags shared by extract and batch
type cropOptions struct {
	OutputDir  string
	Format     string
	Size       int
	Attributes bool
}

var extractOpts cropOptions

var extractCmd = &cobra.Command{
	Use:   "extract <image|url>",
	Short: "Save one crop per detected face next to a JSON report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := applyCropOptions(cmd, extractOpts); err != nil {
			return err
		}
		return extractOne(cmd, args[0], extractOpts.Attributes, true)
	},
}

// applyCropOptions copies the crop flags the user set into the loaded config
func applyCropOptions(cmd *cobra.Command, o cropOptions) error {
	flags := cmd.Flags()
	if flags.Changed("out") {
		cfg.Output.OutputDir = o.OutputDir
	}
	if flags.Changed("format") {
		cfg.Output.Format = o.Format
	}
	if flags.Changed("size") {
		cfg.Output.CropSize = o.Size
	}
	return cfg.Validate()
}

// extractOne analyzes source, optionally saves its crops and writes its report
func extractOne(cmd *cobra.Command, source string, attributes, saveCrops bool) error {
	ctx := cmd.Context()
	in, err := analyzer.LoadInput(ctx, source)
	if err != nil {
		return err
	}
	rs, err := analyzer.Analyze(ctx, in, features(attributes))
	if err != nil {
		return err
	}

	report := faceanalyzer.Report(source, in.Dims(), rs)
	if saveCrops {
		if err := analyzer.SaveCrops(ctx, in, rs, &report); err != nil {
			return err
		}
	}
	if err := utils.EnsureDir(cfg.Output.OutputDir); err != nil {
		return err
	}
	path := utils.ReportFilename(source, cfg.Output.OutputDir)
	if err := faceanalyzer.WriteReport(&report, path); err != nil {
		return err
	}
	logger.Infow("wrote report", "source", source, "faces", len(report.Faces), "report", path)
	return nil
}

func addCropFlags(cmd *cobra.Command, o *cropOptions) {
	cmd.Flags().StringVarP(&o.OutputDir, "out", "o", "./output", "Output directory for crops and reports")
	cmd.Flags().StringVar(&o.Format, "format", "jpg", "Crop format: jpg|png|webp")
	cmd.Flags().IntVar(&o.Size, "size", 0, "Fill crops to a size x size square (0 = keep face size)")
	cmd.Flags().BoolVarP(&o.Attributes, "attributes", "a", false, "Predict age, gender and expressions for every face")
}

func init() {
	rootCmd.AddCommand(extractCmd)
	addCropFlags(extractCmd, &extractOpts)
}
