// Package hash provides hashing utilities for path-based identifiers.
package hash

import (
	"crypto/md5"
	"encoding/hex"
	"io"
	"path/filepath"
)

// PathHash generates an 8-character hash from a path string.
func PathHash(path string) string {
	hasher := md5.New()
	_, _ = io.WriteString(hasher, path)
	return hex.EncodeToString(hasher.Sum(nil))[:8]
}

// StackID returns the stack identifier for a config file. Relative and
// absolute spellings of the same file map to the same ID.
func StackID(configPath string) string {
	if abs, err := filepath.Abs(configPath); err == nil {
		configPath = abs
	}
	return PathHash(filepath.Clean(configPath))
}
