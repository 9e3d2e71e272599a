// Package config loads stack definitions from ephemera.yaml.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rickgorman/ephemera/pkg/container"
	"github.com/rickgorman/ephemera/pkg/lifecycle"
)

const (
	// ConfigFileName is the default configuration file name
	ConfigFileName = "ephemera.yaml"

	// EnvPrefix prefixes environment overrides, e.g. EPHEMERA_READY_TIMEOUT.
	EnvPrefix = "EPHEMERA"
)

// Config is a stack definition.
type Config struct {
	ReadyTimeout time.Duration `mapstructure:"ready_timeout"`
	PullPolicy   string        `mapstructure:"pull_policy"`
	PortRetries  int           `mapstructure:"port_retries"`
	Services     []Service     `mapstructure:"services"`

	// Path is the absolute path of the loaded file.
	Path string `mapstructure:"-"`
}

// Service is one container in the stack.
type Service struct {
	Name         string        `mapstructure:"name"`
	Image        string        `mapstructure:"image"`
	Port         string        `mapstructure:"port"`
	Env          []string      `mapstructure:"env"`
	EnvFile      string        `mapstructure:"env_file"`
	Cmd          []string      `mapstructure:"cmd"`
	ReadyMarker  string        `mapstructure:"ready_marker"`
	ReadyTimeout time.Duration `mapstructure:"ready_timeout"`
	DependsOn    []string      `mapstructure:"depends_on"`
	HealthPath   string        `mapstructure:"health_path"`
}

// DefaultConfig returns the defaults applied before the file is read.
func DefaultConfig() *Config {
	return &Config{
		ReadyTimeout: lifecycle.DefaultReadyTimeout,
		PullPolicy:   string(lifecycle.PullMissing),
	}
}

// Validate checks the stack definition before anything is provisioned.
func (c *Config) Validate() error {
	if len(c.Services) == 0 {
		return errors.New("no services defined")
	}
	if _, err := lifecycle.ParsePullPolicy(c.PullPolicy); err != nil {
		return err
	}
	if c.PortRetries < 0 {
		return fmt.Errorf("port_retries must not be negative")
	}

	var errs []error
	seen := make(map[string]bool, len(c.Services))
	for i, svc := range c.Services {
		label := svc.Name
		if label == "" {
			label = fmt.Sprintf("#%d", i+1)
		}

		if svc.Name == "" {
			errs = append(errs, fmt.Errorf("service %s: name is required", label))
		} else if seen[svc.Name] {
			errs = append(errs, fmt.Errorf("service %s: duplicate name", label))
		}
		seen[svc.Name] = true

		if svc.Image == "" {
			errs = append(errs, fmt.Errorf("service %s: image is required", label))
		}
		if _, err := container.ParsePort(svc.Port); err != nil {
			errs = append(errs, fmt.Errorf("service %s: %w", label, err))
		}
		if svc.ReadyMarker == "" {
			errs = append(errs, fmt.Errorf("service %s: ready_marker is required", label))
		}
		if svc.ReadyTimeout < 0 {
			errs = append(errs, fmt.Errorf("service %s: ready_timeout must not be negative", label))
		}
	}

	for _, svc := range c.Services {
		for _, dep := range svc.DependsOn {
			if !seen[dep] {
				errs = append(errs, fmt.Errorf("service %s: depends on undefined service %q", svc.Name, dep))
			}
		}
	}

	return errors.Join(errs...)
}

// Timeout returns the service's readiness deadline, falling back to the
// stack default.
func (c *Config) Timeout(svc Service) time.Duration {
	if svc.ReadyTimeout > 0 {
		return svc.ReadyTimeout
	}
	return c.ReadyTimeout
}

// ServiceEnv returns the service's environment: env_file entries first,
// then inline env, in declaration order.
func (c *Config) ServiceEnv(svc Service) ([]string, error) {
	var env []string
	if svc.EnvFile != "" {
		path := svc.EnvFile
		if !filepath.IsAbs(path) && c.Path != "" {
			path = filepath.Join(filepath.Dir(c.Path), path)
		}
		fileEnv, err := loadEnvFile(path)
		if err != nil {
			return nil, fmt.Errorf("service %s: failed to read env_file: %w", svc.Name, err)
		}
		env = append(env, fileEnv...)
	}
	return append(env, svc.Env...), nil
}

// loadEnvFile reads KEY=VALUE lines, skipping blanks and comments and
// stripping an export prefix and surrounding quotes.
func loadEnvFile(path string) ([]string, error) {
	var env []string

	file, err := os.Open(path)
	if err != nil {
		return env, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip comments and empty lines
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Strip export prefix
		line = strings.TrimPrefix(line, "export ")

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Strip quotes
		value = strings.Trim(value, "\"'")

		env = append(env, key+"="+value)
	}

	return env, scanner.Err()
}

// LifecycleServices converts the stack into lifecycle services with fresh
// container names drawn from names.
func (c *Config) LifecycleServices(names lifecycle.NameSource) ([]lifecycle.Service, error) {
	services := make([]lifecycle.Service, 0, len(c.Services))
	for _, svc := range c.Services {
		env, err := c.ServiceEnv(svc)
		if err != nil {
			return nil, err
		}

		spec := lifecycle.Spec{
			Image:  svc.Image,
			Port:   svc.Port,
			Env:    env,
			Cmd:    svc.Cmd,
			Labels: map[string]string{lifecycle.LabelService: svc.Name},
			Name:   names.Generate(),
		}
		if err := spec.Validate(); err != nil {
			return nil, fmt.Errorf("service %s: %w", svc.Name, err)
		}

		services = append(services, lifecycle.Service{
			Name:         svc.Name,
			Spec:         spec,
			Marker:       svc.ReadyMarker,
			ReadyTimeout: c.Timeout(svc),
			DependsOn:    svc.DependsOn,
		})
	}
	return services, nil
}
