package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abdidvp/patchgate/internal/bootstrap"
)

type validateOutput struct {
	File       string   `json:"file"`
	Approved   bool     `json:"approved"`
	Confidence float64  `json:"confidence"`
	Reasons    []string `json:"reasons,omitempty"`
	Warnings   []string `json:"warnings,omitempty"`
	Diff       string   `json:"diff,omitempty"`
}

func newValidateCmd() *cobra.Command {
	var (
		projectPath string
		proposal    string
		confidence  float64
	)

	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a proposed file rewrite against the fix policy",
		Long: "Validate an externally authored full-file change (for example from an AI assistant) " +
			"with the same rules applied to module patches. Nothing is written.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(proposal)
			if err != nil {
				return fmt.Errorf("reading proposal: %w", err)
			}

			eng, err := bootstrap.New(projectPath, bootstrap.Options{LogOutput: cmd.ErrOrStderr()})
			if err != nil {
				return err
			}

			p, verdict, err := eng.Service.ValidateProposal(args[0], string(content), confidence, eng.Config.Policy)
			if err != nil {
				return fmt.Errorf("validate failed: %w", err)
			}

			out := validateOutput{
				File:       p.FilePath,
				Approved:   verdict.Approved,
				Confidence: verdict.Confidence,
				Warnings:   verdict.Warnings,
				Diff:       p.UnifiedDiff(),
			}
			for _, r := range verdict.Reasons {
				out.Reasons = append(out.Reasons, r.Rule+": "+r.Message)
			}
			if err := renderJSON(cmd, out); err != nil {
				return err
			}

			if !verdict.Approved {
				return fmt.Errorf("proposal rejected: %d violation(s)", len(verdict.Reasons))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&projectPath, "path", ".", "Project path")
	cmd.Flags().StringVar(&proposal, "proposal", "", "File holding the proposed content")
	cmd.Flags().Float64Var(&confidence, "confidence", 0.5, "Author's confidence in the proposal")
	_ = cmd.MarkFlagRequired("proposal")

	return cmd
}
