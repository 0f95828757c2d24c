// Package auth is the credential collaborator of the relay core: account
// registration, login verification and password changes over the
// directory's user store. Token issuance and session cookies live outside
// this repository.
package auth
