// Package ui provides terminal output formatting for ephemera.
//
// This package handles all user-facing output with consistent styling:
//   - Colored output (cyan, green, red, yellow)
//   - Titled sections framed with box-drawing characters
//   - Info, success, failure, and warning messages
//   - Dimmed text for secondary information
//   - Yes/no confirmation prompts
//
// All output goes to ui.Out (defaults to os.Stderr) so that stdout stays
// free for machine-readable output such as `ephemera up -o json`.
//
// Example usage:
//
//	end := ui.Section("up")
//	ui.Info("Provisioning %d services", 2)
//	ui.Success("db ready on port %d", 49153)
//	end()
//
// Output styling:
//   - Info:    → Cyan arrow
//   - Success: ✔ Green checkmark
//   - Fail:    ✘ Red X
//   - Warn:    ○ Yellow circle
package ui
