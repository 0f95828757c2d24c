// Package directory implements the durable store behind the relay core:
// users, friendship edges, messages, and status posts.
//
// The store contracts are split per concern so higher layers depend only
// on the queries they actually issue. The SQLite implementation mirrors
// the product's original schema and is the single write-serialization
// point the router relies on for history ordering.
package directory
