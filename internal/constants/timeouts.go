package constants

import "time"

// Timeout constants used throughout the application
const (
	// FetchHeaderTimeout bounds the wait for the response headers of a
	// source fetch. The body itself is not bound, it is streamed.
	FetchHeaderTimeout = 30 * time.Second

	// SSHConnectionTimeout is the timeout for SSH connection attempts
	SSHConnectionTimeout = 30 * time.Second

	// ShutdownGracePeriod is how long the CLI waits after a termination
	// signal before forcing the exit.
	ShutdownGracePeriod = 5 * time.Second

	// InterruptTimeout is the window for a second Ctrl+C to stop the CLI.
	InterruptTimeout = 3 * time.Second
)
