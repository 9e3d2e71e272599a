package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/rickgorman/ephemera/pkg/container"
	"github.com/rickgorman/ephemera/internal/logger"
)

const (
	// DefaultReadyTimeout bounds the readiness wait when none is given.
	DefaultReadyTimeout = 4 * time.Second

	// cleanupTimeout bounds best-effort removal after a failed stage.
	cleanupTimeout = 10 * time.Second

	// HostGateway lets containers reach ports published on the host.
	HostGateway = "host.docker.internal"
)

// Provisioner runs the provisioning pipeline against a container runtime.
// Its fields are the shared ambient state of a test run; a Provisioner is
// safe for concurrent use as long as its Runtime, Ports and Names are.
type Provisioner struct {
	Runtime    Runtime
	Ports      PortAllocator
	Names      NameSource
	PullPolicy PullPolicy

	// PortRetries is how many times a start that fails because the host
	// port was taken is retried with a freshly allocated port. Zero
	// disables retries.
	PortRetries int

	// Labels are added to every container.
	Labels map[string]string

	// ExtraHosts are added to every container's /etc/hosts.
	ExtraHosts []string
}

// NewProvisioner returns a Provisioner with loopback port allocation,
// random names and the auto-pull policy.
func NewProvisioner(rt Runtime) *Provisioner {
	return &Provisioner{
		Runtime:    rt,
		Ports:      container.LoopbackAllocator,
		Names:      container.NewNameGenerator(nil),
		PullPolicy: PullMissing,
		Labels:     map[string]string{LabelManaged: "true"},
		ExtraHosts: []string{HostGateway + ":host-gateway"},
	}
}

// NewSpec builds a validated Spec with a freshly generated container name.
func (p *Provisioner) NewSpec(image, port string, env ...string) (Spec, error) {
	spec := Spec{
		Image: image,
		Port:  port,
		Env:   env,
		Name:  p.Names.Generate(),
	}
	if err := spec.Validate(); err != nil {
		return Spec{}, err
	}
	return spec.clone(), nil
}

// Provision allocates a host port, ensures the image is present, then
// creates and starts the container. The returned Instance is Pending; call
// WaitReady before sending it traffic. If start fails the created container
// is removed before the error is returned.
func (p *Provisioner) Provision(ctx context.Context, spec Spec) (*Instance, error) {
	if err := spec.Validate(); err != nil {
		return nil, newError(ErrContainerCreateFailed, "validate", spec.Name, err)
	}
	spec = spec.clone()
	if spec.Name == "" {
		spec.Name = p.Names.Generate()
	}

	port, _ := container.ParsePort(spec.Port)
	ref, _ := imageRef(spec.Image)

	hostPort, err := p.allocate(spec.Name)
	if err != nil {
		return nil, err
	}

	if err := p.EnsureImage(ctx, spec.Image); err != nil {
		var lerr *Error
		if errors.As(err, &lerr) {
			lerr.Container = spec.Name
		}
		return nil, err
	}

	log := logger.Log.With().Str("container", spec.Name).Str("image", ref).Logger()

	for attempt := 0; ; attempt++ {
		cfg := container.RunConfig{
			Name:       spec.Name,
			Image:      ref,
			Cmd:        spec.Cmd,
			Env:        spec.Env,
			Labels:     p.labels(spec),
			Ports:      []container.PortMapping{{Host: hostPort, Container: port}},
			ExtraHosts: p.ExtraHosts,
		}

		id, err := p.Runtime.Create(ctx, cfg)
		if err != nil {
			// The daemon may have created the container even though the
			// request failed, e.g. when ctx was cancelled mid-call.
			p.cleanup(ctx, spec.Name)
			return nil, newError(ErrContainerCreateFailed, "create", spec.Name, err)
		}
		log.Debug().Str("id", id).Int("port", hostPort).Msg("container created")

		err = p.Runtime.Start(ctx, id)
		if err == nil {
			log.Debug().Int("port", hostPort).Msg("container started")
			return &Instance{
				ID:       id,
				Name:     spec.Name,
				Image:    ref,
				HostPort: hostPort,
				State:    Pending,
				runtime:  p.Runtime,
			}, nil
		}

		p.cleanup(ctx, spec.Name)

		if !container.IsPortConflict(err) || attempt >= p.PortRetries {
			return nil, newError(ErrContainerStartFailed, "start", spec.Name, err)
		}

		log.Warn().Err(err).Int("port", hostPort).Msg("host port taken, reallocating")
		if hostPort, err = p.allocate(spec.Name); err != nil {
			return nil, err
		}
	}
}

// Up provisions spec and waits for marker. If the container never becomes
// ready it is torn down and the readiness error is returned.
func (p *Provisioner) Up(ctx context.Context, spec Spec, marker string, timeout time.Duration) (*Instance, error) {
	inst, err := p.Provision(ctx, spec)
	if err != nil {
		return nil, err
	}

	if err := p.WaitReady(ctx, inst, marker, timeout); err != nil {
		p.cleanup(ctx, inst.Name)
		return nil, err
	}
	return inst, nil
}

// WaitReady waits for marker on inst's log stream and records the outcome
// in inst.State.
func (p *Provisioner) WaitReady(ctx context.Context, inst *Instance, marker string, timeout time.Duration) error {
	if inst.State.Terminal() {
		return fmt.Errorf("instance %s already %s", inst.Name, inst.State)
	}

	state, err := WaitReady(ctx, p.Runtime, inst.Name, marker, timeout)
	inst.State = state
	if err != nil {
		return err
	}

	logger.Debug().Str("container", inst.Name).Int("port", inst.HostPort).Msg("container ready")
	return nil
}

func (p *Provisioner) allocate(name string) (int, error) {
	port, err := p.Ports.Allocate()
	if err != nil {
		return 0, newError(ErrNoPortAvailable, "allocate", name, err)
	}
	if port < 1 || port > 65535 {
		return 0, newError(ErrNoPortAvailable, "allocate", name, fmt.Errorf("port %d out of range", port))
	}
	return port, nil
}

func (p *Provisioner) labels(spec Spec) map[string]string {
	labels := maps.Clone(p.Labels)
	if labels == nil {
		labels = make(map[string]string)
	}
	maps.Copy(labels, spec.Labels)
	labels[LabelManaged] = "true"
	return labels
}

// cleanup removes a partially provisioned container. It runs even when ctx
// is already cancelled and only logs failures.
func (p *Provisioner) cleanup(ctx context.Context, name string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()

	if err := p.Runtime.Remove(ctx, name); err != nil && !errors.Is(err, container.ErrNotFound) {
		logger.Warn().Err(err).Str("container", name).Msg("failed to remove container after failed provisioning")
	}
}
