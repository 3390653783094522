package cli

import (
	"context"
	"fmt"

	"resumescan/internal/common"
	"resumescan/internal/pipeline"

	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [resume-file] [job-posting-file]",
	Short: "Analyze a resume against a job posting",
	Long: `Analyze a resume against a job posting and print the ATS score,
keyword coverage, quantification density and judged edit suggestions.

Suggestions are persisted to the configured database so they can be
accepted or rejected through the HTTP API. Without a database URL the
run is kept in memory and discarded on exit.`,
	Args:    cobra.ExactArgs(2),
	PreRunE: validateFormatFlag(&analyzeConfig),
	RunE:    runAnalyze,
}

var (
	analyzeConfig    common.CommandConfig
	analyzePrincipal string
	analyzeJobTitle  string
	analyzeScores    struct {
		content, format, skills int
	}
)

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	analyzeCmd.Flags().StringVar(&analyzeConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")
	analyzeCmd.Flags().StringVar(&analyzePrincipal, "principal", "cli", "Owner id recorded on the scan")
	analyzeCmd.Flags().StringVar(&analyzeJobTitle, "job-title", "", "Job title stored with the scan")
	analyzeCmd.Flags().IntVar(&analyzeScores.content, "content-score", -1, "Content relevance score 0-100 (default: keyword match rate)")
	analyzeCmd.Flags().IntVar(&analyzeScores.format, "format-score", -1, "Format score 0-100 (default: derived from structure findings)")
	analyzeCmd.Flags().IntVar(&analyzeScores.skills, "skills-score", -1, "Skills coverage score 0-100 (default: keyword match rate)")

	registerFormatCompletion(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	app, err := buildComponents(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	files := common.NewFileProcessor(logger, cfg.App.MaxFileSize)
	out := common.NewOutputHandlerTo(cmd.OutOrStdout(), logger)

	err = common.RunFileCommand(ctx, files, out, analyzeConfig, args,
		func(ctx context.Context, contents []string) (*pipeline.AnalysisResult, error) {
			in := pipeline.Input{
				ResumeText:   contents[0],
				JobText:      contents[1],
				JobTitle:     analyzeJobTitle,
				ContentScore: optionalScore(cmd, "content-score", analyzeScores.content),
				FormatScore:  optionalScore(cmd, "format-score", analyzeScores.format),
				SkillsScore:  optionalScore(cmd, "skills-score", analyzeScores.skills),
			}
			logger.Info("Starting resume analysis",
				"resume_chars", len(in.ResumeText),
				"job_chars", len(in.JobText),
				"output_format", analyzeConfig.OutputFormat)
			return app.pipeline.Run(ctx, analyzePrincipal, in)
		})
	if err != nil {
		return fmt.Errorf("failed to analyze resume: %w", err)
	}

	logger.Info("Resume analysis completed successfully")
	return nil
}

// optionalScore returns nil unless the flag was set on the command line
func optionalScore(cmd *cobra.Command, flag string, v int) *int {
	if !cmd.Flags().Changed(flag) {
		return nil
	}
	return &v
}

// validateFormatFlag applies the default format and checks it is supported
func validateFormatFlag(cc *common.CommandConfig) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		cfg := getConfigFromContext(cmd.Context())
		if cc.OutputFormat == "" {
			cc.OutputFormat = cfg.App.DefaultFormat
		}
		return common.ValidateOutputFormat(cc.OutputFormat, cfg.App.SupportedFormats)
	}
}

func registerFormatCompletion(cmd *cobra.Command) {
	_ = cmd.RegisterFlagCompletionFunc("format", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{"json", "text", "markdown"}, cobra.ShellCompDirectiveNoFileComp
	})
}
