package cli

import (
	"context"

	"resumescan/internal/common"
	"resumescan/internal/diff"
	"resumescan/internal/types"

	"github.com/spf13/cobra"
)

var diffConfig common.CommandConfig

var diffCmd = &cobra.Command{
	Use:     "diff [original-file] [revised-file]",
	Short:   "Show a word-level diff between two texts",
	Args:    cobra.ExactArgs(2),
	PreRunE: validateFormatFlag(&diffConfig),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := getConfigFromContext(ctx)
		logger := getLoggerFromContext(ctx)

		return common.RunFileCommand(ctx,
			common.NewFileProcessor(logger, cfg.App.MaxFileSize),
			common.NewOutputHandlerTo(cmd.OutOrStdout(), logger),
			diffConfig, args,
			func(_ context.Context, contents []string) ([]types.DiffChunk, error) {
				return diff.WordDiff(contents[0], contents[1]), nil
			})
	},
}

func init() {
	diffCmd.Flags().StringVarP(&diffConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	diffCmd.Flags().StringVar(&diffConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")
	registerFormatCompletion(diffCmd)
}
