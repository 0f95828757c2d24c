// Package friends implements the friend-request workflow: the lifecycle
// of a friendship edge from none to pending to accepted, or straight back
// to none on rejection, together with its notification side effects.
package friends
