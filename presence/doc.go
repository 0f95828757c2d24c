// Package presence tracks which users are reachable and fans presence
// transitions out to their accepted friends.
//
// The Registry is the single source of truth for "is this user online":
// every other component looks sessions up here instead of caching
// presence. The Broadcaster recomputes friend sets live from the
// directory and the registry at broadcast time; nothing is persisted.
package presence
