package lifecycle

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/distribution/reference"
	"github.com/rickgorman/ephemera/pkg/container"
)

// Labels applied to every provisioned container.
const (
	LabelManaged = "ephemera.managed"
	LabelStack   = "ephemera.stack"
	LabelService = "ephemera.service"
	LabelRun     = "ephemera.run"
)

// Spec describes one container to provision. Build it with
// Provisioner.NewSpec; a Spec is passed by value and never mutated after
// construction.
type Spec struct {
	// Image is the image name, optionally with a tag. Without a tag the
	// latest tag is used.
	Image string
	// Port is the container-facing port, e.g. "8080/tcp" or "8080".
	Port string
	// Env holds KEY=VALUE strings forwarded verbatim, in order.
	Env []string
	// Cmd overrides the image command when set.
	Cmd []string
	// Labels are added to the managed labels.
	Labels map[string]string
	// Name is the unique container name.
	Name string
}

// Validate checks the fields required to provision the spec.
func (s Spec) Validate() error {
	if s.Image == "" {
		return errors.New("image is required")
	}
	if _, err := imageRef(s.Image); err != nil {
		return err
	}
	if _, err := container.ParsePort(s.Port); err != nil {
		return fmt.Errorf("invalid port: %w", err)
	}
	return nil
}

// clone returns a copy that shares no slices or maps with s.
func (s Spec) clone() Spec {
	s.Env = slices.Clone(s.Env)
	s.Cmd = slices.Clone(s.Cmd)
	s.Labels = maps.Clone(s.Labels)
	return s
}

// imageRef normalizes an image name to a pullable reference, adding the
// latest tag when none is given.
func imageRef(image string) (string, error) {
	named, err := reference.ParseNormalizedNamed(image)
	if err != nil {
		return "", fmt.Errorf("invalid image name %q: %w", image, err)
	}
	return reference.FamiliarString(reference.TagNameOnly(named)), nil
}
