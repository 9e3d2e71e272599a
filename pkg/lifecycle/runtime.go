package lifecycle

import (
	"context"
	"io"

	"github.com/rickgorman/ephemera/pkg/container"
)

// Runtime is the subset of the container runtime API the lifecycle needs.
// *container.Client implements it.
type Runtime interface {
	// ImageTags lists the repo tags of all local images.
	ImageTags(ctx context.Context) ([]string, error)
	// PullImage starts a pull and returns its JSON progress stream.
	PullImage(ctx context.Context, ref string) (io.ReadCloser, error)
	// Create creates a container and returns its id.
	Create(ctx context.Context, cfg container.RunConfig) (string, error)
	// Start starts a created container.
	Start(ctx context.Context, nameOrID string) error
	// Logs follows combined stdout/stderr until the container exits.
	Logs(ctx context.Context, nameOrID string) (io.ReadCloser, error)
	// Remove force-removes a container, wrapping container.ErrNotFound
	// when it does not exist.
	Remove(ctx context.Context, nameOrID string) error
	// Exists reports whether a container exists in any state.
	Exists(ctx context.Context, nameOrID string) (bool, error)
}

// PortAllocator hands out host ports that were free when allocated.
type PortAllocator interface {
	Allocate() (int, error)
}

// NameSource generates unique container names.
type NameSource interface {
	Generate() string
}

var _ Runtime = (*container.Client)(nil)
