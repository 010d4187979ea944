package health

import "context"

// Pinger reports whether a dependency answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Component is one dependency probed by Check. A failing critical component
// makes the service unhealthy; any other failure only degrades it.
type Component struct {
	Name     string
	Pinger   Pinger
	Critical bool
}
