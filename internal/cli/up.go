package cli

import (
	"github.com/spf13/cobra"

	"github.com/rickgorman/ephemera/internal/ui"
)

func newUpCmd(o *options) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "up",
		Short: "Start every service and wait until each is ready",
		Long: `Starts every service in dependency order. Each container gets a free
host port, its image is pulled if missing, and up returns once every
service has logged its ready marker.

The containers keep running until "ephemera down".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(format); err != nil {
				return err
			}

			ctx, stop := interruptible(cmd)
			defer stop()

			s, err := o.open(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			ui.Info("Starting %d service(s)", len(s.cfg.Services))
			stack, err := s.up(ctx)
			if err != nil {
				return err
			}
			end := ui.Section("up")
			for _, name := range stack.Services() {
				ui.Success("%s ready on %s", ui.Bold(name), stack.Get(name).Addr())
			}
			end()

			return writeStack(cmd.OutOrStdout(), format, s.stackID, stack)
		},
	}

	cmd.Flags().StringVarP(&format, "output", "o", formatText, "Output format: text, yaml, json or env")
	return cmd
}
