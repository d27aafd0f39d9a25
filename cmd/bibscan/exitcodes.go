package main

// Exit codes.
const (
	ExitSuccess            = 0 // Success
	ExitError              = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError        = 2 // Configuration error (unreadable config, no roots)
	ExitServiceUnavailable = 3 // GROBID is not reachable
	ExitNothingWritten     = 4 // No root produced an output file
)
