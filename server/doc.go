// Package server runs the optional HTTP status endpoint of a slotpipe binary.
//
// The server is a Gin engine behind an h2c handler, managed as a
// component.Component so it starts before the pipeline and stops after it.
//
// # Endpoints
//
//   - /health: aggregated component health, 503 when any component is unhealthy
//   - /alive: liveness probe
//   - /status: pipeline progress as reported by the binary
package server
