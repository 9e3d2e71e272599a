package lifecycle

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Every failed provisioning, readiness or teardown step
// matches exactly one of these with errors.Is. Invalid arguments (a bad
// Spec, an empty marker, a malformed service graph, waiting on an instance
// that already settled) and caller cancellation of WaitReady are returned
// without a kind.
var (
	ErrNoPortAvailable       = errors.New("no host port available")
	ErrImageNotFound         = errors.New("image not found")
	ErrImagePullFailed       = errors.New("image pull failed")
	ErrContainerCreateFailed = errors.New("container create failed")
	ErrContainerStartFailed  = errors.New("container start failed")
	ErrReadinessTimeout      = errors.New("timed out waiting for readiness marker")
	ErrReadinessStreamEnded  = errors.New("log stream ended before readiness marker")
	ErrTeardownFailed        = errors.New("teardown failed")
	ErrContainerNotFound     = errors.New("container not found")
)

// Error is a lifecycle failure with the stage that failed, the container
// involved and suggested remediation steps.
type Error struct {
	Kind      error    // One of the Err* kinds
	Op        string   // Stage that failed (e.g., "allocate", "pull", "start")
	Container string   // Container name, empty before one is chosen
	Err       error    // Underlying error, may be nil
	NextSteps []string // Suggested remediation steps
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Kind.Error())
	if e.Container != "" {
		sb.WriteString(" [")
		sb.WriteString(e.Container)
		sb.WriteString("]")
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// FormatUserError formats the error for display to users with next steps.
func (e *Error) FormatUserError() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Error: %s\n", e.Kind))

	if e.Container != "" {
		sb.WriteString(fmt.Sprintf("  Container: %s\n", e.Container))
	}
	if e.Err != nil {
		sb.WriteString(fmt.Sprintf("  Details: %s\n", e.Err.Error()))
	}

	if len(e.NextSteps) > 0 {
		sb.WriteString("\nNext Steps:\n")
		for i, step := range e.NextSteps {
			sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, step))
		}
	}

	return sb.String()
}

// nextSteps holds the default remediation advice per kind.
var nextSteps = map[error][]string{
	ErrNoPortAvailable: {
		"Check for exhausted ephemeral ports: ss -s",
	},
	ErrImageNotFound: {
		"Build or load the image locally: docker images",
		"Allow pulling missing images (pull_policy: missing)",
	},
	ErrImagePullFailed: {
		"Check the image name and tag are correct",
		"Verify you have network access to the registry",
	},
	ErrContainerCreateFailed: {
		"Check that the Docker daemon is running: docker info",
		"Check for a container with the same name: docker ps -a",
	},
	ErrContainerStartFailed: {
		"Check for port conflicts on the host",
		"Inspect the image entrypoint: docker image inspect <image>",
	},
	ErrReadinessTimeout: {
		"Increase ready_timeout for slow services",
		"Confirm the readiness marker matches the service log exactly (case-sensitive)",
	},
	ErrReadinessStreamEnded: {
		"The service exited during startup; run the image manually to see its output",
	},
	ErrTeardownFailed: {
		"Remove leftover containers: ephemera prune",
	},
}

func newError(kind error, op, name string, err error) *Error {
	return &Error{
		Kind:      kind,
		Op:        op,
		Container: name,
		Err:       err,
		NextSteps: nextSteps[kind],
	}
}
