package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/menta2k/face-analyzer/internal/config"
)

var queryCmd = &cobra.Command{
	Use:   "query <image|url>",
	Short: "Check that the vision model can see an image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := analyzer.LoadInput(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		answer, err := analyzer.TestVision(cmd.Context(), in.Image())
		if err != nil {
			return fmt.Errorf("vision test failed: %w", err)
		}
		fmt.Println(answer)
		return nil
	},
}

var initConfigCmd = &cobra.Command{
	Use:         "init-config [path]",
	Short:       "Write the effective configuration to a file",
	Args:        cobra.MaximumNArgs(1),
	Annotations: map[string]string{"skipAnalyzer": "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.GetConfigPath()
		if len(args) == 1 {
			path = args[0]
		}
		if err := cfg.SaveToFile(path); err != nil {
			return err
		}
		logger.Infow("wrote config", "path", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(queryCmd, initConfigCmd)
}
