package cli

import (
	"context"
	"time"

	"github.com/rickgorman/ephemera/pkg/container"
	"github.com/rickgorman/ephemera/pkg/lifecycle"
)

const (
	pingTimeout     = 5 * time.Second
	teardownTimeout = 30 * time.Second
)

// engine is the runtime surface the commands use.
type engine interface {
	lifecycle.Runtime
	ListManaged(ctx context.Context, labels map[string]string) ([]string, error)
	PublishedPort(ctx context.Context, nameOrID string) (int, error)
	Close() error
}

var _ engine = (*container.Client)(nil)

// newEngine connects to the Docker daemon. Tests replace it.
var newEngine = func(ctx context.Context) (engine, error) {
	cli, err := container.NewClient()
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := cli.Ping(pingCtx); err != nil {
		_ = cli.Close()
		return nil, err
	}
	return cli, nil
}
