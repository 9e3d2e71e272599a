package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rickgorman/ephemera/internal/logger"
)

// Service is one named member of a stack.
type Service struct {
	Name         string
	Spec         Spec
	Marker       string
	ReadyTimeout time.Duration
	// DependsOn names services that must be ready before this one starts.
	DependsOn []string
}

// Stack is a set of running services, torn down together.
type Stack struct {
	order     []string
	instances map[string]*Instance
}

// Get returns the instance for a service, or nil.
func (s *Stack) Get(name string) *Instance {
	return s.instances[name]
}

// Instances returns the instances in provisioning order.
func (s *Stack) Instances() []*Instance {
	out := make([]*Instance, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.instances[name])
	}
	return out
}

// Services returns service names in provisioning order.
func (s *Stack) Services() []string {
	return slices.Clone(s.order)
}

// Env returns <NAME>_HOST, <NAME>_PORT and <NAME>_URL variables for every
// service, as seen from the host.
func (s *Stack) Env() []string {
	var env []string
	for _, name := range s.order {
		inst := s.instances[name]
		prefix := EnvPrefix(name)
		env = append(env,
			prefix+"_HOST=localhost",
			prefix+"_PORT="+strconv.Itoa(inst.HostPort),
			prefix+"_URL=http://"+inst.Addr(),
		)
	}
	return env
}

// Teardown removes every service in reverse provisioning order and joins
// the failures. Already-removed services are not an error.
func (s *Stack) Teardown(ctx context.Context) error {
	var errs []error
	for i := len(s.order) - 1; i >= 0; i-- {
		if err := s.instances[s.order[i]].Teardown(ctx); err != nil && !errors.Is(err, ErrContainerNotFound) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Stack) add(name string, inst *Instance) {
	s.order = append(s.order, name)
	s.instances[name] = inst
}

// ProvisionStack brings services up in dependency order. Services whose
// dependencies are all ready are provisioned concurrently. Each dependant
// receives <DEP>_HOST and <DEP>_PORT for each dependency, and ${dep.host},
// ${dep.port} and ${dep.name} references in its env values are expanded.
// If any service fails, everything already provisioned is torn down before
// the error is returned.
func (p *Provisioner) ProvisionStack(ctx context.Context, services []Service) (*Stack, error) {
	levels, err := planLevels(services)
	if err != nil {
		return nil, err
	}

	stack := &Stack{instances: make(map[string]*Instance)}

	for _, level := range levels {
		results := make([]*Instance, len(level))

		g, gctx := errgroup.WithContext(ctx)
		for i, svc := range level {
			spec := p.withDependencies(svc, stack)
			g.Go(func() error {
				log := logger.WithService(svc.Name)
				log.Debug().Str("container", spec.Name).Msg("provisioning service")

				inst, err := p.Up(gctx, spec, svc.Marker, svc.ReadyTimeout)
				if err != nil {
					return fmt.Errorf("service %s: %w", svc.Name, err)
				}
				results[i] = inst
				log.Debug().Int("port", inst.HostPort).Msg("service ready")
				return nil
			})
		}

		err := g.Wait()
		for i, inst := range results {
			if inst != nil {
				stack.add(level[i].Name, inst)
			}
		}

		if err != nil {
			cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
			if terr := stack.Teardown(cleanupCtx); terr != nil {
				logger.Warn().Err(terr).Msg("failed to tear down partially provisioned stack")
			}
			cancel()
			return nil, err
		}
	}

	return stack, nil
}

// withDependencies returns svc's spec with dependency variables added.
func (p *Provisioner) withDependencies(svc Service, stack *Stack) Spec {
	spec := svc.Spec.clone()
	if spec.Name == "" {
		spec.Name = p.Names.Generate()
	}
	if len(svc.DependsOn) == 0 {
		return spec
	}

	refs := make(map[string]*Instance, len(svc.DependsOn))
	var env []string
	for _, dep := range svc.DependsOn {
		inst := stack.Get(dep)
		refs[dep] = inst
		prefix := EnvPrefix(dep)
		env = append(env,
			prefix+"_HOST="+HostGateway,
			prefix+"_PORT="+strconv.Itoa(inst.HostPort),
		)
	}

	for _, kv := range spec.Env {
		env = append(env, expandRefs(kv, refs))
	}
	spec.Env = env
	return spec
}

var refPattern = regexp.MustCompile(`\$\{([A-Za-z0-9_-]+)\.(host|port|name)\}`)

// expandRefs replaces ${svc.host}, ${svc.port} and ${svc.name} for known
// services and leaves every other character untouched.
func expandRefs(s string, refs map[string]*Instance) string {
	return refPattern.ReplaceAllStringFunc(s, func(m string) string {
		parts := refPattern.FindStringSubmatch(m)
		inst, ok := refs[parts[1]]
		if !ok {
			return m
		}
		switch parts[2] {
		case "host":
			return HostGateway
		case "port":
			return strconv.Itoa(inst.HostPort)
		default:
			return inst.Name
		}
	})
}

// EnvPrefix converts a service name to an environment variable prefix:
// upper case, every non-alphanumeric rune replaced by '_'.
func EnvPrefix(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r - 'a' + 'A'
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, name)
}

// planLevels groups services into levels: every service's dependencies are
// in earlier levels. Declaration order is kept within a level.
func planLevels(services []Service) ([][]Service, error) {
	index := make(map[string]int, len(services))
	for i, svc := range services {
		if svc.Name == "" {
			return nil, fmt.Errorf("service %d: name is required", i)
		}
		if _, dup := index[svc.Name]; dup {
			return nil, fmt.Errorf("duplicate service %q", svc.Name)
		}
		index[svc.Name] = i
	}

	for _, svc := range services {
		for _, dep := range svc.DependsOn {
			if dep == svc.Name {
				return nil, fmt.Errorf("service %q depends on itself", svc.Name)
			}
			if _, ok := index[dep]; !ok {
				return nil, fmt.Errorf("service %q depends on unknown service %q", svc.Name, dep)
			}
		}
	}

	placed := make(map[string]bool, len(services))
	var levels [][]Service
	for len(placed) < len(services) {
		var level []Service
		for _, svc := range services {
			if placed[svc.Name] {
				continue
			}
			ready := true
			for _, dep := range svc.DependsOn {
				if !placed[dep] {
					ready = false
					break
				}
			}
			if ready {
				level = append(level, svc)
			}
		}

		if len(level) == 0 {
			var stuck []string
			for _, svc := range services {
				if !placed[svc.Name] {
					stuck = append(stuck, svc.Name)
				}
			}
			return nil, fmt.Errorf("dependency cycle between services: %s", strings.Join(stuck, ", "))
		}

		for _, svc := range level {
			placed[svc.Name] = true
		}
		levels = append(levels, level)
	}

	return levels, nil
}
