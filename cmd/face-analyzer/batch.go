package main

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/menta2k/face-analyzer/internal/utils"
)

var (
	batchOpts  cropOptions
	batchCrops bool
)

var batchCmd = &cobra.Command{
	Use:   "batch <dir>",
	Short: "Analyze every image under a directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := applyCropOptions(cmd, batchOpts); err != nil {
			return err
		}

		files, err := utils.ListImageFiles(args[0])
		if err != nil {
			return fmt.Errorf("failed to list images: %w", err)
		}
		if len(files) == 0 {
			logger.Warnw("no images found", "dir", args[0])
			return nil
		}

		bar := progressbar.NewOptions(len(files),
			progressbar.OptionSetDescription("Analyzing"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
		)

		failed := 0
		for _, file := range files {
			if err := cmd.Context().Err(); err != nil {
				return err
			}
			if err := extractOne(cmd, file, batchOpts.Attributes, batchCrops); err != nil {
				failed++
				logger.Errorw("failed to analyze image", "file", file, "error", err)
			}
			_ = bar.Add(1)
		}
		_ = bar.Finish()
		fmt.Fprintln(os.Stderr)

		if failed > 0 {
			return fmt.Errorf("%d of %d images failed", failed, len(files))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(batchCmd)
	addCropFlags(batchCmd, &batchOpts)
	batchCmd.Flags().BoolVar(&batchCrops, "crops", false, "Save face crops as well as reports")
}
