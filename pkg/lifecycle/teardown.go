package lifecycle

import (
	"context"
	"errors"

	"github.com/rickgorman/ephemera/pkg/container"
	"github.com/rickgorman/ephemera/internal/logger"
)

// Remover force-removes containers.
type Remover interface {
	Remove(ctx context.Context, nameOrID string) error
}

// Teardown force-removes a container whatever its state. Stopped and
// never-started containers are removed like running ones. A container that
// does not exist yields ErrContainerNotFound, so tearing down the same name
// twice fails only with "not found". Every other failure is
// ErrTeardownFailed.
func Teardown(ctx context.Context, rt Remover, name string) error {
	err := rt.Remove(ctx, name)
	switch {
	case err == nil:
		logger.Debug().Str("container", name).Msg("container removed")
		return nil
	case errors.Is(err, container.ErrNotFound):
		return newError(ErrContainerNotFound, "teardown", name, err)
	default:
		return newError(ErrTeardownFailed, "teardown", name, err)
	}
}
