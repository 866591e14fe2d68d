// Package config defines the format-agnostic configuration model for the
// application and the Loader interface that fills it.
//
// The `config.Model` is the single source of truth for storage, the working
// window, the suggestion provider, the HTTP server and the change feed.
// Concrete loaders, such as the HCL one, live in separate packages.
package config
