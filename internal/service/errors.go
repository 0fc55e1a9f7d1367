package service

import "errors"

// Errors returned at the service boundary. The transport layer maps these to
// HTTP status codes; nothing here is fatal to the process.
var (
	// ErrPluginNotFound indicates the requested plugin does not exist or is
	// not registered with the directory.
	ErrPluginNotFound = errors.New("plugin not found")

	// ErrVersionMismatch indicates the plugin is registered but speaks an
	// incompatible protocol version. Surfaced as a server error and not
	// retried automatically.
	ErrVersionMismatch = errors.New("plugin protocol version mismatch")

	// ErrNoDemo indicates the plugin does not provide a demo configuration.
	ErrNoDemo = errors.New("plugin does not provide a demo")

	// ErrUnknownCorrelation indicates the correlation ID was never issued by
	// this gateway. Callers surface this as a 404, never as a default state.
	ErrUnknownCorrelation = errors.New("unknown correlation")

	// ErrIconNotFound indicates the plugin has no icon asset in the store.
	ErrIconNotFound = errors.New("icon not found")

	// ErrArtifactNotFound indicates the requested artifact does not exist.
	ErrArtifactNotFound = errors.New("artifact not found")
)
