package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rickgorman/ephemera/internal/probe"
	"github.com/rickgorman/ephemera/internal/ui"
)

func newCheckCmd(o *options) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Start the stack, probe health paths, then tear it down",
		Long: `Smoke-tests the stack definition: every service must become ready and
every service with a health_path must answer it with a 2xx status.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := interruptible(cmd)
			defer stop()

			s, err := o.open(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			stack, err := s.up(ctx)
			if err != nil {
				return err
			}
			defer func() {
				if terr := s.teardown(ctx, stack); terr != nil {
					ui.Warn("Teardown incomplete: %v", terr)
				}
			}()

			checker := probe.NewChecker(timeout)
			failed := 0
			end := ui.Section("check")
			for _, svc := range s.cfg.Services {
				inst := stack.Get(svc.Name)
				if svc.HealthPath == "" {
					ui.Success("%s ready", ui.Bold(svc.Name))
					continue
				}

				url, err := inst.URL(svc.HealthPath)
				if err != nil {
					return err
				}
				result, err := checker.Check(ctx, url)
				if err != nil {
					failed++
					ui.Fail("%s %s: %v", ui.Bold(svc.Name), svc.HealthPath, err)
					continue
				}
				ui.Success("%s %s %d %s", ui.Bold(svc.Name), svc.HealthPath, result.StatusCode, ui.Dim(result.Latency.Round(time.Millisecond)))
			}
			end()

			if failed > 0 {
				return fmt.Errorf("%d health check(s) failed", failed)
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", probe.DefaultTimeout, "Timeout for each health request")
	return cmd
}
