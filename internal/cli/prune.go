package cli

import (
	"github.com/spf13/cobra"

	"github.com/rickgorman/ephemera/pkg/lifecycle"
	"github.com/rickgorman/ephemera/internal/ui"
)

func newPruneCmd(o *options) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove every container ephemera created",
		Long: `Removes all containers labelled as managed by ephemera, from any stack.
Use it to clean up after test runs that were killed before teardown.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			eng, err := newEngine(ctx)
			if err != nil {
				return err
			}
			defer eng.Close()

			names, err := eng.ListManaged(ctx, map[string]string{lifecycle.LabelManaged: "true"})
			if err != nil {
				return err
			}
			if len(names) == 0 {
				ui.Info("Nothing to prune")
				return nil
			}

			for _, name := range names {
				ui.DimMsg(name)
			}
			if !yes && !ui.AskYesNo("Remove these containers?", false) {
				ui.Warn("Aborted")
				return nil
			}

			removed, err := removeAll(cmd, eng, names)
			ui.Success("Removed %d container(s)", removed)
			return err
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}
