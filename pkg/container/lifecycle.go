package container

import (
	"context"
	"fmt"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/go-connections/nat"
)

// RunConfig holds the configuration for running a container.
type RunConfig struct {
	Name       string
	Image      string
	Cmd        []string
	Env        []string
	Labels     map[string]string
	Ports      []PortMapping
	ExtraHosts []string
}

// PortMapping binds a container port to a host port on all interfaces.
type PortMapping struct {
	Host      int
	Container nat.Port
}

// Create creates a container without starting it and returns its id.
func (c *Client) Create(ctx context.Context, cfg RunConfig) (string, error) {
	resp, err := c.cli.ContainerCreate(
		ctx,
		buildContainerConfig(cfg),
		buildHostConfig(cfg),
		nil,
		nil,
		cfg.Name,
	)
	if err != nil {
		return "", fmt.Errorf("failed to create container: %w", err)
	}
	return resp.ID, nil
}

// Start starts a created container.
func (c *Client) Start(ctx context.Context, nameOrID string) error {
	if err := c.cli.ContainerStart(ctx, nameOrID, container.StartOptions{}); err != nil {
		return fmt.Errorf("failed to start container: %w", err)
	}
	return nil
}

// Remove force-removes a container whether it is running or not.
// A container that does not exist yields an error wrapping ErrNotFound.
// A removal that is already in progress counts as success.
func (c *Client) Remove(ctx context.Context, nameOrID string) error {
	options := container.RemoveOptions{
		Force:         true,
		RemoveVolumes: true,
	}

	err := c.cli.ContainerRemove(ctx, nameOrID, options)
	switch {
	case err == nil:
		return nil
	case isNotFoundError(err):
		return fmt.Errorf("%w: %s", ErrNotFound, nameOrID)
	case isRemovalInProgress(err):
		return nil
	default:
		return fmt.Errorf("failed to remove container: %w", err)
	}
}

// Exists checks if a container exists (running or stopped).
func (c *Client) Exists(ctx context.Context, nameOrID string) (bool, error) {
	_, err := c.cli.ContainerInspect(ctx, nameOrID)
	if err != nil {
		if isNotFoundError(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to inspect container: %w", err)
	}
	return true, nil
}

// PublishedPort returns the host port bound to a container's first
// published port.
func (c *Client) PublishedPort(ctx context.Context, nameOrID string) (int, error) {
	info, err := c.cli.ContainerInspect(ctx, nameOrID)
	if err != nil {
		if isNotFoundError(err) {
			return 0, fmt.Errorf("%w: %s", ErrNotFound, nameOrID)
		}
		return 0, fmt.Errorf("failed to inspect container: %w", err)
	}
	if info.NetworkSettings == nil {
		return 0, fmt.Errorf("container %s has no network settings", nameOrID)
	}

	port, ok := firstHostPort(info.NetworkSettings.Ports)
	if !ok {
		return 0, fmt.Errorf("container %s has no published ports", nameOrID)
	}
	return port, nil
}
