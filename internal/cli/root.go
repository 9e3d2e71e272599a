package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/rickgorman/ephemera/internal/config"
	"github.com/rickgorman/ephemera/pkg/lifecycle"
	"github.com/rickgorman/ephemera/internal/logger"
	"github.com/rickgorman/ephemera/internal/ui"
	"github.com/rickgorman/ephemera/pkg/hash"
)

var (
	// Version is set at build time
	Version = "dev"
	// Commit is set at build time
	Commit = "none"
)

// options holds the global flags.
type options struct {
	configPath string
	debug      bool
}

// NewRootCmd builds the ephemera command tree.
func NewRootCmd() *cobra.Command {
	o := &options{}

	cmd := &cobra.Command{
		Use:   "ephemera",
		Short: "Ephemeral containers for integration tests",
		Long: `Ephemera starts throwaway containers for the services a test needs,
waits until each one reports it is ready, and force-removes them afterwards.

Quick start:
  ephemera up          # Start every service in ephemera.yaml
  ephemera run -- cmd  # Run cmd against a fresh stack, then tear it down
  ephemera down        # Remove the stack's containers`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.Init(o.debug)
			logger.Debug().
				Str("version", Version).
				Str("config", o.configPath).
				Bool("debug", o.debug).
				Msg("ephemera starting")
		},
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&o.configPath, "file", "f", config.ConfigFileName, "Stack definition file")
	cmd.PersistentFlags().BoolVarP(&o.debug, "debug", "d", false, "Enable debug logging")
	cmd.SetVersionTemplate(fmt.Sprintf("ephemera %s (commit: %s)\n", Version, Commit))

	cmd.AddCommand(
		newUpCmd(o),
		newDownCmd(o),
		newRunCmd(o),
		newCheckCmd(o),
		newPortCmd(o),
		newPruneCmd(o),
	)

	return cmd
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	err := NewRootCmd().Execute()
	if err == nil {
		return 0
	}
	reportError(err)
	return ExitCode(err)
}

// ExitError carries the exit status of a command started by "run".
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("command exited with status %d", e.Code)
}

// ExitCode maps err to a process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return 1
}

func reportError(err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return
	}

	var lerr *lifecycle.Error
	if errors.As(err, &lerr) {
		ui.Fail("%v", err)
		fmt.Fprint(ui.Out, lerr.FormatUserError())
		return
	}
	ui.Fail("%v", err)
}

// interruptible returns cmd's context, cancelled on SIGINT or SIGTERM, so
// an interrupted command still tears down what it started.
func interruptible(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}

// session is a loaded stack definition bound to a runtime.
type session struct {
	cfg     *config.Config
	eng     engine
	prov    *lifecycle.Provisioner
	stackID string
}

func (o *options) open(ctx context.Context) (*session, error) {
	cfg, err := config.NewLoader(o.configPath).Load()
	if err != nil {
		if config.IsConfigNotFound(err) {
			ui.Info("Create %s or pass %s", ui.Bold(config.ConfigFileName), ui.Bold("-f <file>"))
		}
		return nil, err
	}

	policy, err := lifecycle.ParsePullPolicy(cfg.PullPolicy)
	if err != nil {
		return nil, err
	}

	eng, err := newEngine(ctx)
	if err != nil {
		return nil, err
	}

	stackID := hash.StackID(cfg.Path)
	prov := lifecycle.NewProvisioner(eng)
	prov.PullPolicy = policy
	prov.PortRetries = cfg.PortRetries
	prov.Labels[lifecycle.LabelStack] = stackID
	prov.Labels[lifecycle.LabelRun] = uuid.NewString()

	logger.Debug().
		Str("config", cfg.Path).
		Str("stack", stackID).
		Int("services", len(cfg.Services)).
		Msg("loaded stack definition")

	return &session{cfg: cfg, eng: eng, prov: prov, stackID: stackID}, nil
}

func (s *session) Close() error {
	return s.eng.Close()
}

// up provisions every service in the stack.
func (s *session) up(ctx context.Context) (*lifecycle.Stack, error) {
	services, err := s.cfg.LifecycleServices(s.prov.Names)
	if err != nil {
		return nil, err
	}
	return s.prov.ProvisionStack(ctx, services)
}

// teardown removes stack even when ctx has been cancelled.
func (s *session) teardown(ctx context.Context, stack *lifecycle.Stack) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), teardownTimeout)
	defer cancel()
	return stack.Teardown(ctx)
}

// stackLabels selects this stack's containers.
func (s *session) stackLabels() map[string]string {
	return map[string]string{
		lifecycle.LabelManaged: "true",
		lifecycle.LabelStack:   s.stackID,
	}
}
