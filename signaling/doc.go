// Package signaling relays call-setup control traffic between two peers
// without interpreting it: offers, answers and ICE candidates pass
// through opaquely while the package tracks only the control-plane state
// of each call attempt.
//
// One call session is tracked per ordered (caller, callee) pair; there is
// no call waiting. A detaching party sweeps every call naming them.
package signaling
