package constants

// Numeric limits and configuration values
const (
	// DefaultMaxLineLength is the default bound of a pending line. 0 means
	// unbounded, so no matching line is ever dropped.
	DefaultMaxLineLength = 0

	// DefaultConcurrency is the default number of sources the grep command
	// filters at the same time.
	DefaultConcurrency = 4

	// DefaultSSHPort is the port used for ssh:// sources without an explicit port.
	DefaultSSHPort = 22

	// SuccessStatus is returned to the platform after a successful invocation.
	SuccessStatus = 200
)
