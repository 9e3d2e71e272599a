// Package lifecycle provisions ephemeral service containers for black-box
// acceptance tests and guarantees their teardown.
//
// Provisioning one container runs a fixed, fail-fast pipeline:
//
//	allocate host port → ensure image → create → start → wait for log marker
//
// Any failing stage aborts the pipeline, removes whatever was created, and
// returns a *Error whose Kind is one of the Err* sentinels, so callers can
// branch with errors.Is:
//
//	inst, err := p.Up(ctx, spec, "listening", 4*time.Second)
//	if errors.Is(err, lifecycle.ErrReadinessStreamEnded) {
//	    // the service crashed during startup
//	}
//	defer inst.Teardown(context.Background())
//
// Readiness is decided by following the container's combined stdout/stderr
// and waiting for a line that contains the marker. The wait ends in one of
// three terminal states: Ready, TimedOut (deadline passed) or StreamEnded
// (the log stream closed first, which usually means the process exited).
//
// An Instance belongs to the scenario that provisioned it and must be torn
// down exactly once, from a hook that runs even when the scenario fails.
// Stacks generalize this to several services with declared dependencies:
// dependencies are provisioned and ready before their dependants start, and
// their host ports are passed to dependants as environment variables.
package lifecycle
