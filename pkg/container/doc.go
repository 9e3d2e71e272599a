// Package container wraps the Docker Engine API for ephemeral test containers.
//
// The package provides four main components:
//
// 1. Docker Client Wrapper (docker.go)
//   - Simplified interface to the Docker SDK
//   - Image listing and pulling
//   - Managed container discovery by label
//
// 2. Container Lifecycle (lifecycle.go)
//   - Create, start and force-remove containers
//   - Existence checks by name or id
//
// 3. Log Streaming (logs.go)
//   - Follow-mode stdout/stderr, demultiplexed into one stream
//
// 4. Ports and Names (ports.go, names.go)
//   - Free host port discovery on loopback
//   - Internal port parsing ("8080", "8080/tcp", "53/udp")
//   - Random lowercase container names
//
// Basic usage:
//
//	client, err := container.NewClient()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	hostPort, err := container.AllocatePort()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	port, _ := container.ParsePort("8080/tcp")
//	cfg := container.RunConfig{
//	    Name:  container.NewNameGenerator(nil).Generate(),
//	    Image: "echo-server",
//	    Env:   []string{"MODE=test"},
//	    Ports: []container.PortMapping{{Host: hostPort, Container: port}},
//	}
//
//	id, err := client.Create(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := client.Start(ctx, id); err != nil {
//	    _ = client.Remove(ctx, cfg.Name)
//	    log.Fatal(err)
//	}
//
// Host ports returned by AllocatePort are hints, not reservations: another
// process may bind the port before the container starts.
package container
