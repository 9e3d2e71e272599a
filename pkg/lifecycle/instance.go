package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
)

// Instance is a provisioned container. It is owned by the scenario that
// provisioned it and must not be shared with concurrent scenarios.
type Instance struct {
	ID       string
	Name     string
	Image    string
	HostPort int
	State    ReadinessState

	runtime Remover

	mu       sync.Mutex
	tornDown bool
	teardown error
}

// Ready reports whether the readiness marker was seen.
func (i *Instance) Ready() bool {
	return i.State == Ready
}

// Addr returns the host-facing address, e.g. "localhost:49153".
func (i *Instance) Addr() string {
	return net.JoinHostPort("localhost", strconv.Itoa(i.HostPort))
}

// URL returns http://localhost:<port><path>. It fails for instances that
// are not ready, which must not be sent traffic.
func (i *Instance) URL(path string) (string, error) {
	if !i.Ready() {
		return "", fmt.Errorf("instance %s is %s, not ready", i.Name, i.State)
	}
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return "http://" + i.Addr() + path, nil
}

// Teardown removes the container. Once a call succeeds or finds the
// container gone, later calls return that result without reaching the
// runtime. A failed removal can be retried.
func (i *Instance) Teardown(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.tornDown {
		return i.teardown
	}

	err := Teardown(ctx, i.runtime, i.Name)
	if err == nil || errors.Is(err, ErrContainerNotFound) {
		i.tornDown = true
		i.teardown = err
	}
	return err
}
