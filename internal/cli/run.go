package cli

import (
	"errors"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/rickgorman/ephemera/internal/logger"
	"github.com/rickgorman/ephemera/internal/ui"
)

func newRunCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "run -- COMMAND [ARGS...]",
		Short: "Run a command against a fresh stack, then tear it down",
		Long: `Starts the stack, runs COMMAND with <SERVICE>_HOST, <SERVICE>_PORT and
<SERVICE>_URL exported for every service, then force-removes the stack.
Teardown also happens when the command fails or ephemera is interrupted.
The command's exit status becomes ephemera's.`,
		Args: cobra.MinimumNArgs(1),
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
					return
				}
				ui.DimMsg("Stack removed")
			}()

			logger.Debug().Strs("command", args).Strs("env", stack.Env()).Msg("running command")

			child := exec.CommandContext(ctx, args[0], args[1:]...)
			child.Env = append(os.Environ(), stack.Env()...)
			child.Stdin = cmd.InOrStdin()
			child.Stdout = cmd.OutOrStdout()
			child.Stderr = cmd.ErrOrStderr()

			err = child.Run()
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				return &ExitError{Code: exitErr.ExitCode()}
			}
			return err
		},
	}
}
