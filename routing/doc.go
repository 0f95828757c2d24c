// Package routing delivers point-to-point chat traffic: it persists
// messages before any delivery is attempted, pushes them to whichever of
// the two parties is reachable, serves history fetches, and relays
// best-effort typing notices and status-post fan-outs.
package routing
