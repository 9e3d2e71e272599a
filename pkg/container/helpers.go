package container

import (
	"strconv"
	"strings"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/client"
	"github.com/docker/docker/errdefs"
	"github.com/docker/go-connections/nat"
)

// bindAllInterfaces is the host IP every port mapping is published on.
const bindAllInterfaces = "0.0.0.0"

// buildContainerConfig creates a container.Config from RunConfig.
func buildContainerConfig(cfg RunConfig) *container.Config {
	config := &container.Config{
		Image:  cfg.Image,
		Env:    cfg.Env,
		Labels: cfg.Labels,
	}

	if len(cfg.Cmd) > 0 {
		config.Cmd = cfg.Cmd
	}

	// Add exposed ports for port mappings
	if len(cfg.Ports) > 0 {
		exposedPorts := make(nat.PortSet)
		for _, pm := range cfg.Ports {
			exposedPorts[pm.Container] = struct{}{}
		}
		config.ExposedPorts = exposedPorts
	}

	return config
}

// buildHostConfig creates a container.HostConfig from RunConfig.
func buildHostConfig(cfg RunConfig) *container.HostConfig {
	hostConfig := &container.HostConfig{
		ExtraHosts: cfg.ExtraHosts,
	}

	if len(cfg.Ports) > 0 {
		portBindings := make(nat.PortMap)
		for _, pm := range cfg.Ports {
			portBindings[pm.Container] = append(portBindings[pm.Container], nat.PortBinding{
				HostIP:   bindAllInterfaces,
				HostPort: strconv.Itoa(pm.Host),
			})
		}
		hostConfig.PortBindings = portBindings
	}

	return hostConfig
}

// labelFilter creates filter args matching every label in labels.
func labelFilter(labels map[string]string) filters.Args {
	f := filters.NewArgs()
	for k, v := range labels {
		if v == "" {
			f.Add("label", k)
			continue
		}
		f.Add("label", k+"="+v)
	}
	return f
}

// trimName strips the leading "/" Docker puts on container names.
func trimName(name string) string {
	return strings.TrimPrefix(name, "/")
}

// isNotFoundError checks if an error is a "not found" error from Docker.
func isNotFoundError(err error) bool {
	return client.IsErrNotFound(err)
}

// isRemovalInProgress reports whether err is the daemon refusing a removal
// because another removal of the same container is running.
func isRemovalInProgress(err error) bool {
	return errdefs.IsConflict(err) && strings.Contains(err.Error(), "already in progress")
}

// IsPortConflict reports whether a start error was caused by the host port
// being taken between allocation and container start.
func IsPortConflict(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "port is already allocated") ||
		strings.Contains(msg, "address already in use")
}

// firstHostPort returns the lowest-numbered container port's first valid
// host binding.
func firstHostPort(ports nat.PortMap) (int, bool) {
	keys := make([]nat.Port, 0, len(ports))
	for p := range ports {
		keys = append(keys, p)
	}
	nat.Sort(keys, func(a, b nat.Port) bool { return a.Int() < b.Int() })

	for _, p := range keys {
		for _, b := range ports[p] {
			if port, err := strconv.Atoi(b.HostPort); err == nil && port > 0 {
				return port, true
			}
		}
	}
	return 0, false
}
