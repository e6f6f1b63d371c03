package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abdidvp/patchgate/internal/adapters/outbound/history"
	"github.com/abdidvp/patchgate/internal/adapters/outbound/loader"
	"github.com/abdidvp/patchgate/internal/adapters/outbound/tui"
	"github.com/abdidvp/patchgate/internal/bootstrap"
	"github.com/abdidvp/patchgate/internal/domain"
)

func newFixCmd() *cobra.Command {
	var (
		issuesPath    string
		truthpack     string
		logLevel      string
		jsonOutput    bool
		ciMode        bool
		dryRun        bool
		showDiff      bool
		maxLines      int
		maxFiles      int
		parallelism   int
		minConfidence float64
	)

	cmd := &cobra.Command{
		Use:   "fix [path]",
		Short: "Apply safety-gated fixes for scanner findings",
		Long: "Read the issues a scanner reported, generate a patch for each with the fix modules, " +
			"validate every patch against the project's fix policy and write the approved ones.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) > 0 {
				path = args[0]
			}

			eng, err := bootstrap.New(path, bootstrap.Options{
				Truthpack: truthpack,
				LogLevel:  logLevel,
				LogOutput: cmd.ErrOrStderr(),
			})
			if err != nil {
				return err
			}
			defer func() { _ = eng.Logger.Sync() }()

			// 1. Read issues
			var issues []domain.Issue
			if issuesPath == "" || issuesPath == "-" {
				issues, err = loader.ReadIssues(cmd.InOrStdin())
			} else {
				issues, err = loader.LoadIssues(issuesPath)
			}
			if err != nil {
				return fmt.Errorf("reading issues: %w", err)
			}

			// 2. Flags override the configured policy
			policy := eng.Config.Policy
			flags := cmd.Flags()
			if flags.Changed("dry-run") {
				policy.DryRun = dryRun
			}
			if flags.Changed("max-lines") {
				policy.MaxLinesPerFix = maxLines
			}
			if flags.Changed("max-files") {
				policy.MaxFilesPerFix = maxFiles
			}
			if flags.Changed("parallelism") {
				policy.Parallelism = parallelism
			}
			if flags.Changed("min-confidence") {
				policy.MinConfidence = domain.Float(minConfidence)
			}
			if err := policy.Validate(); err != nil {
				return fmt.Errorf("invalid policy flags: %w", err)
			}

			// 3. Run
			result := eng.Service.Process(cmd.Context(), issues, policy)

			// 4. Save to history
			if !result.DryRun {
				sum := result.Summary()
				entry := domain.RunEntry{
					Timestamp:  time.Now().Format(time.RFC3339),
					RunID:      result.RunID,
					CommitHash: result.CommitHash,
					Applied:    sum.Applied,
					Rejected:   sum.Rejected,
					Errors:     sum.Errors,
					Skipped:    sum.Skipped,
				}
				if err := history.New().Save(eng.Root, entry); err != nil {
					eng.Logger.Warn("saving run history", zap.Error(err))
				}
			}

			// 5. Report
			report := result.Report(showDiff)
			if jsonOutput {
				if err := renderJSON(cmd, report); err != nil {
					return err
				}
			} else {
				fmt.Fprint(cmd.OutOrStdout(), tui.RenderReport(report))
			}

			if ciMode && result.Partial() {
				return fmt.Errorf("run is partial: %d rejected, %d errors", len(result.Rejected), len(result.Errors))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&issuesPath, "issues", "", "Issues file (JSON or YAML); reads stdin when empty or -")
	cmd.Flags().StringVar(&truthpack, "truthpack", "", "Truthpack path (overrides .patchgate.yaml)")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the run report as JSON")
	cmd.Flags().BoolVar(&ciMode, "ci", false, "CI mode: exit 1 if any patch was rejected or failed")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate patches without writing them")
	cmd.Flags().BoolVar(&showDiff, "diff", false, "Include unified diffs in the report")
	cmd.Flags().IntVar(&maxLines, "max-lines", 0, "Maximum changed lines per patch")
	cmd.Flags().IntVar(&maxFiles, "max-files", 0, "Maximum files changed per run")
	cmd.Flags().IntVar(&parallelism, "parallelism", 0, "Concurrent patch generation limit")
	cmd.Flags().Float64Var(&minConfidence, "min-confidence", 0, "Reject patches below this confidence")

	return cmd
}

func renderJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
