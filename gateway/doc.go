// Package gateway exposes the relay core over the wire: a websocket
// endpoint carrying the bidirectional per-session event channel, and a
// small HTTP surface for registration, login, health and metrics.
//
// The gateway owns all transport concerns the core is agnostic to:
// envelope validation, per-identity rate limiting, write timeouts, and
// translating core errors into error events for the initiating session.
package gateway
