// Package inmemorystore provides an ephemeral, thread-safe, in-memory
// implementation of the store.Store interface. It backs tests and the
// "memory" storage driver.
package inmemorystore
