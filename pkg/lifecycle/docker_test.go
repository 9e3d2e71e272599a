package lifecycle

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickgorman/ephemera/pkg/container"
)

// dockerProvisioner returns a Provisioner backed by the local daemon,
// skipping the test in -short mode or when no daemon is reachable.
func dockerProvisioner(t *testing.T) (*Provisioner, *container.Client) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping docker test in short mode")
	}

	cli, err := container.NewClient()
	if err != nil {
		t.Skipf("docker client unavailable: %v", err)
	}
	t.Cleanup(func() { _ = cli.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := cli.Ping(ctx); err != nil {
		t.Skipf("docker daemon unavailable: %v", err)
	}

	p := NewProvisioner(cli)
	p.Labels[LabelRun] = t.Name()
	return p, cli
}

func TestDocker_Lifecycle(t *testing.T) {
	p, cli := dockerProvisioner(t)
	ctx := context.Background()

	spec, err := p.NewSpec("alpine:3.20", "8080")
	require.NoError(t, err)
	spec.Cmd = []string{"sh", "-c", "echo booting; sleep 1; echo listening; nc -lk -p 8080 -e echo ok"}

	inst, err := p.Up(ctx, spec, "listening", 60*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = inst.Teardown(context.Background()) })

	assert.True(t, inst.Ready())
	conn, err := net.DialTimeout("tcp", inst.Addr(), 5*time.Second)
	if assert.NoError(t, err) {
		_ = conn.Close()
	}

	port, err := cli.PublishedPort(ctx, inst.Name)
	require.NoError(t, err)
	assert.Equal(t, inst.HostPort, port)

	names, err := cli.ListManaged(ctx, map[string]string{LabelRun: t.Name()})
	require.NoError(t, err)
	assert.Equal(t, []string{inst.Name}, names)

	require.NoError(t, Teardown(ctx, cli, inst.Name))

	exists, err := cli.Exists(ctx, inst.Name)
	require.NoError(t, err)
	assert.False(t, exists)

	err = Teardown(ctx, cli, inst.Name)
	assert.True(t, errors.Is(err, ErrContainerNotFound), "second teardown: %v", err)
}

func TestDocker_StreamEnded(t *testing.T) {
	p, cli := dockerProvisioner(t)
	ctx := context.Background()

	spec, err := p.NewSpec("alpine:3.20", "8080")
	require.NoError(t, err)
	spec.Cmd = []string{"sh", "-c", "echo crashing; exit 1"}

	_, err = p.Up(ctx, spec, "listening", 60*time.Second)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrReadinessStreamEnded), "got %v", err)

	exists, err := cli.Exists(ctx, spec.Name)
	require.NoError(t, err)
	assert.False(t, exists, "a container that never became ready is removed")
}
