// Package cli implements the ephemera command line.
//
// Commands operate on the stack defined in ephemera.yaml (or the file given
// with -f):
//   - up: provision every service and wait until each logs its marker
//   - down: force-remove the stack's containers
//   - run: bring the stack up, run a command against it, tear it down
//   - check: bring the stack up, probe health paths, tear it down
//   - port: print a running service's host port
//   - prune: remove every container ephemera ever created
//
// Example usage:
//
//	ephemera up -o json
//	ephemera run -- go test ./integration/...
//	ephemera down
package cli
