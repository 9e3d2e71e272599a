package container

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
)

// ErrNotFound is returned when a container does not exist.
var ErrNotFound = errors.New("no such container")

// Client wraps the Docker client with our operations.
type Client struct {
	cli *client.Client
}

// NewClient creates a new Docker client wrapper.
func NewClient() (*Client, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, err
	}
	return &Client{cli: cli}, nil
}

// Close closes the underlying Docker client.
func (c *Client) Close() error {
	return c.cli.Close()
}

// Ping verifies the Docker daemon is reachable.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.cli.Ping(ctx); err != nil {
		return fmt.Errorf("cannot connect to docker daemon: %w", err)
	}
	return nil
}

// ImageTags returns the repo tags of every image known to the daemon.
func (c *Client) ImageTags(ctx context.Context) ([]string, error) {
	images, err := c.cli.ImageList(ctx, image.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}

	var tags []string
	for _, img := range images {
		tags = append(tags, img.RepoTags...)
	}
	return tags, nil
}

// PullImage starts pulling ref and returns the JSON progress stream.
// The caller must drain and close the stream; the pull is only complete
// once the stream reaches EOF.
func (c *Client) PullImage(ctx context.Context, ref string) (io.ReadCloser, error) {
	rc, err := c.cli.ImagePull(ctx, ref, image.PullOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to pull image %s: %w", ref, err)
	}
	return rc, nil
}

// ListManaged returns the names of all containers (running or stopped)
// carrying every label in labels.
func (c *Client) ListManaged(ctx context.Context, labels map[string]string) ([]string, error) {
	containers, err := c.cli.ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: labelFilter(labels),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list containers: %w", err)
	}

	var names []string
	for _, ctr := range containers {
		if len(ctr.Names) == 0 {
			names = append(names, ctr.ID)
			continue
		}
		names = append(names, trimName(ctr.Names[0]))
	}
	return names, nil
}
