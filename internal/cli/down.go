package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/rickgorman/ephemera/pkg/lifecycle"
	"github.com/rickgorman/ephemera/internal/logger"
	"github.com/rickgorman/ephemera/internal/ui"
)

func newDownCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "down",
		Short: "Force-remove the stack's containers",
		Long: `Force-removes every container started from this stack definition,
whether it is running, stopped or still starting.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := o.open(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			names, err := s.eng.ListManaged(ctx, s.stackLabels())
			if err != nil {
				return err
			}
			if len(names) == 0 {
				ui.Info("No containers running for this stack")
				return nil
			}

			removed, err := removeAll(cmd, s.eng, names)
			ui.Success("Removed %d container(s)", removed)
			return err
		},
	}
}

// removeAll tears down every named container. Containers that vanished in
// the meantime are skipped.
func removeAll(cmd *cobra.Command, eng engine, names []string) (int, error) {
	var (
		removed int
		errs    []error
	)
	for _, name := range names {
		err := lifecycle.Teardown(cmd.Context(), eng, name)
		switch {
		case err == nil:
			removed++
			logger.Debug().Str("container", name).Msg("removed container")
		case errors.Is(err, lifecycle.ErrContainerNotFound):
			logger.Debug().Str("container", name).Msg("container already gone")
		default:
			errs = append(errs, err)
		}
	}
	return removed, errors.Join(errs...)
}
