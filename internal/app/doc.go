// Package app contains the core application wiring. It builds the store,
// suggester, change feed and services from configuration and exposes them
// over HTTP, decoupled from any specific entrypoint like a CLI.
package app
