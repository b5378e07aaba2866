package component

import "context"

// HealthStatus represents the health state of a component.
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusUnhealthy HealthStatus = "unhealthy"
	StatusDegraded  HealthStatus = "degraded"
)

// Health holds health information for a component.
type Health struct {
	Name    string       `json:"name"`
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// Component is a unit with a managed lifecycle: a pipeline run, the status
// server and so on.
type Component interface {
	// Name returns the unique name of the component for registration.
	Name() string

	// Start launches the component. It must not block for the lifetime of
	// the component.
	Start(ctx context.Context) error

	// Stop shuts the component down, returning early with an error when ctx
	// is done first.
	Stop(ctx context.Context) error

	// Health returns the current health status of the component.
	Health(ctx context.Context) Health
}

// Description holds summary information about a running component.
type Description struct {
	// Name is the display name. If empty, the component's Name() is used.
	Name string `json:"name"`
	// Type categorizes the component: "pipeline", "server".
	Type string `json:"type"`
	// Details is a one-liner such as "workers=4 backoff=semaphore".
	Details string `json:"details,omitempty"`
	// Port is the primary port, 0 if not applicable.
	Port int `json:"port,omitempty"`
}

// Describable is optionally implemented by components that can report what
// they are and how they are configured.
type Describable interface {
	Describe() Description
}
