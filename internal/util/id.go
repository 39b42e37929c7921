// Package util holds small internal helpers shared across packages.
package util

import (
	"strings"

	"github.com/google/uuid"
)

// NewID generates a unique identifier for events and runs.
func NewID() string { return uuid.NewString() }

// NewSessionID generates a compact 12-hex-character session identifier,
// short enough to paste into a chat while keeping collisions implausible for
// the session cardinality this system sees.
func NewSessionID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
