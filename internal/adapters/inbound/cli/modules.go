package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/abdidvp/patchgate/internal/adapters/outbound/config"
	"github.com/abdidvp/patchgate/internal/adapters/outbound/tui"
	"github.com/abdidvp/patchgate/internal/bootstrap"
	"github.com/abdidvp/patchgate/internal/domain"
)

// ModuleInfo is the serialized view of a fix module.
type ModuleInfo struct {
	ID         string             `json:"id"`
	IssueTypes []domain.IssueType `json:"issue_types"`
	Confidence domain.Confidence  `json:"confidence"`
	Enabled    bool               `json:"enabled"`
}

func newModulesCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "modules [path]",
		Short: "List fix modules and whether the project enables them",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) > 0 {
				path = args[0]
			}
			absPath, err := filepath.Abs(path)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}
			cfg, err := config.New().Load(absPath)
			if err != nil {
				return err
			}

			modules := bootstrap.AllModules()
			if !jsonOutput {
				fmt.Fprint(cmd.OutOrStdout(), tui.RenderModules(modules, cfg.IsModuleDisabled))
				return nil
			}

			infos := make([]ModuleInfo, 0, len(modules))
			for _, m := range modules {
				infos = append(infos, ModuleInfo{
					ID:         m.ID(),
					IssueTypes: m.IssueTypes(),
					Confidence: m.Confidence(),
					Enabled:    !cfg.IsModuleDisabled(m.ID()),
				})
			}
			return renderJSON(cmd, infos)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
