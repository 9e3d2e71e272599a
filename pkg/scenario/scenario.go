// Package scenario wires ephemeral containers into Go tests.
//
// A scenario provisions its dependencies, waits for them to log their
// readiness marker and registers teardown with t.Cleanup, so every
// container is force-removed when the test ends whether it passed,
// failed or panicked:
//
//	func TestShortener(t *testing.T) {
//		p := scenario.Provisioner(t)
//		spec, _ := p.NewSpec("url_shortener_rust", "8080")
//		inst := scenario.Start(t, p, spec, "listening")
//		url, _ := inst.URL("/health")
//		...
//	}
package scenario

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/rickgorman/ephemera/pkg/container"
	"github.com/rickgorman/ephemera/pkg/lifecycle"
)

const (
	pingTimeout     = 5 * time.Second
	teardownTimeout = 30 * time.Second
)

// Provisioner connects to the local Docker daemon and returns a
// Provisioner whose containers carry a run label unique to t. The test is
// skipped when the daemon is unreachable.
func Provisioner(t testing.TB) *lifecycle.Provisioner {
	t.Helper()

	cli, err := container.NewClient()
	if err != nil {
		t.Skipf("docker client unavailable: %v", err)
	}
	t.Cleanup(func() { _ = cli.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := cli.Ping(ctx); err != nil {
		t.Skipf("docker daemon unavailable: %v", err)
	}

	return WithRunLabel(lifecycle.NewProvisioner(cli))
}

// WithRunLabel tags every container p creates with a fresh run ID.
func WithRunLabel(p *lifecycle.Provisioner) *lifecycle.Provisioner {
	labels := make(map[string]string, len(p.Labels)+1)
	for k, v := range p.Labels {
		labels[k] = v
	}
	labels[lifecycle.LabelRun] = uuid.NewString()
	p.Labels = labels
	return p
}

// Start provisions spec, waits for marker and registers teardown. It fails
// the test if the container does not become ready.
func Start(t testing.TB, p *lifecycle.Provisioner, spec lifecycle.Spec, marker string) *lifecycle.Instance {
	t.Helper()

	inst, err := p.Up(context.Background(), spec, marker, 0)
	if err != nil {
		t.Fatalf("failed to start %s: %s", spec.Image, describe(err))
		return nil
	}
	t.Cleanup(func() { teardown(t, inst) })
	return inst
}

// StartStack provisions services in dependency order and registers
// teardown of the whole stack.
func StartStack(t testing.TB, p *lifecycle.Provisioner, services ...lifecycle.Service) *lifecycle.Stack {
	t.Helper()

	stack, err := p.ProvisionStack(context.Background(), services)
	if err != nil {
		t.Fatalf("failed to start stack: %s", describe(err))
		return nil
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), teardownTimeout)
		defer cancel()
		if err := stack.Teardown(ctx); err != nil {
			t.Errorf("stack teardown: %v", err)
		}
	})
	return stack
}

func teardown(t testing.TB, inst *lifecycle.Instance) {
	ctx, cancel := context.WithTimeout(context.Background(), teardownTimeout)
	defer cancel()

	err := inst.Teardown(ctx)
	if err != nil && !errors.Is(err, lifecycle.ErrContainerNotFound) {
		t.Errorf("teardown %s: %v", inst.Name, err)
	}
}

func describe(err error) string {
	var lerr *lifecycle.Error
	if errors.As(err, &lerr) {
		return lerr.FormatUserError()
	}
	return err.Error()
}
