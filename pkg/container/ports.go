package container

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/docker/go-connections/nat"
)

// ErrNoPortAvailable is returned when the OS cannot hand out a free port.
var ErrNoPortAvailable = errors.New("no free host port available")

// AllocatePort asks the OS for a free TCP port on loopback and releases it
// immediately. The port is a hint, not a reservation: another process can
// bind it before the caller does, and callers must treat a later bind
// failure as a provisioning error.
func AllocatePort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrNoPortAvailable, err)
	}
	defer l.Close()

	addr, ok := l.Addr().(*net.TCPAddr)
	if !ok || addr.Port < 1 || addr.Port > 65535 {
		return 0, fmt.Errorf("%w: unexpected listener address %s", ErrNoPortAvailable, l.Addr())
	}
	return addr.Port, nil
}

// PortAllocatorFunc adapts a function to an allocator.
type PortAllocatorFunc func() (int, error)

// Allocate calls f.
func (f PortAllocatorFunc) Allocate() (int, error) {
	return f()
}

// LoopbackAllocator hands out ports with AllocatePort.
var LoopbackAllocator = PortAllocatorFunc(AllocatePort)

// ParsePort parses an internal container port like "8080", "8080/tcp" or
// "53/udp". The protocol defaults to tcp.
func ParsePort(s string) (nat.Port, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("empty port")
	}

	proto, port := nat.SplitProtoPort(s)
	if port == "" {
		return "", fmt.Errorf("invalid port: %s", s)
	}

	p, err := nat.NewPort(proto, port)
	if err != nil {
		return "", fmt.Errorf("invalid port %s: %w", s, err)
	}

	// nat.ParsePort rejects ranges, which NewPort accepts.
	if _, err := nat.ParsePort(p.Port()); err != nil {
		return "", fmt.Errorf("port ranges are not supported: %s", s)
	}
	if p.Int() < 1 {
		return "", fmt.Errorf("port out of range: %s", s)
	}

	return p, nil
}
