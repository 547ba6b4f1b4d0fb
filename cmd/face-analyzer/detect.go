package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	faceanalyzer "github.com/menta2k/face-analyzer"
)

var (
	detectAttributes bool
	detectOutput     string
)

var detectCmd = &cobra.Command{
	Use:   "detect <image|url>",
	Short: "Detect faces and print a JSON report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := analyzer.AnalyzeSource(cmd.Context(), args[0], features(detectAttributes))
		if err != nil {
			return err
		}
		logger.Infow("detected faces", "source", args[0], "faces", len(report.Faces))

		if detectOutput != "" {
			return faceanalyzer.WriteReport(report, detectOutput)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		return nil
	},
}

// features maps the --attributes flag onto the stages run after detection
func features(attributes bool) faceanalyzer.Features {
	return faceanalyzer.Features{Expressions: attributes, AgeGender: attributes}
}

func init() {
	rootCmd.AddCommand(detectCmd)
	detectCmd.Flags().BoolVarP(&detectAttributes, "attributes", "a", false, "Predict age, gender and expressions for every face")
	detectCmd.Flags().StringVarP(&detectOutput, "output", "o", "", "Write the report to a file instead of stdout")
}
