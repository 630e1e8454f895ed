// Package modkit provides module wiring and core deps
package modkit

import (
	phttp "helix/internal/platform/net/http"
)

// Module is the common surface for service modules that can mount routes and expose ports
type Module interface {
	// MountRoutes mounts HTTP routes under the provided router seam; worker-only modules mount nothing
	MountRoutes(r phttp.Router)
	// Ports returns a module specific port set for cross wiring
	Ports() any
	// Name returns the module name
	Name() string
}
