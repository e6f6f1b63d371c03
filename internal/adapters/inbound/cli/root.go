package cli

import "github.com/spf13/cobra"

var (
	version = "dev"
	commit  = "none"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "patchgate",
		Short:         "Safety-gated fixes for scanner findings",
		Long:          "patchgate turns scanner findings into minimal patches, validates every patch against the project's fix policy and writes only what passes.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newFixCmd())
	cmd.AddCommand(newValidateCmd())
	cmd.AddCommand(newModulesCmd())
	cmd.AddCommand(newPolicyCmd())
	cmd.AddCommand(newHistoryCmd())
	cmd.AddCommand(newMCPCmd())
	return cmd
}

// NewRootCmdForTest returns the root command for testing.
func NewRootCmdForTest() *cobra.Command {
	return newRootCmd()
}

func Execute() error {
	return newRootCmd().Execute()
}
