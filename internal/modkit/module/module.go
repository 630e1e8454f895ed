// Package module holds the module contract, a bootstrap registry and port lookup
package module

import (
	"context"

	phttp "helix/internal/platform/net/http"
)

// Module defines the minimal contract used by modkit
// kept as a sibling package to avoid import knots when a module also exports its own ports type
type Module interface {
	MountRoutes(r phttp.Router)
	Ports() any
	Name() string
}

// Runner is a blocking loop owned by a module. Run returns nil once ctx is done
type Runner interface {
	Run(ctx context.Context) error
}
