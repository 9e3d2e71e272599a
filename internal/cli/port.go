package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rickgorman/ephemera/pkg/container"
	"github.com/rickgorman/ephemera/pkg/lifecycle"
)

func newPortCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "port [SERVICE]",
		Short: "Print a running service's host port, or a free port",
		Long: `With SERVICE, prints the host port the running service is published on.
Without it, prints a host port that is free right now.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				port, err := container.AllocatePort()
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), port)
				return err
			}

			ctx := cmd.Context()
			s, err := o.open(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			service := args[0]
			labels := s.stackLabels()
			labels[lifecycle.LabelService] = service

			names, err := s.eng.ListManaged(ctx, labels)
			if err != nil {
				return err
			}
			if len(names) == 0 {
				return fmt.Errorf("service %s is not running", service)
			}

			port, err := s.eng.PublishedPort(ctx, names[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), port)
			return err
		},
	}
}
