// Package emoji provides symbol constants for CLI output.
package emoji

// Status symbols.
const (
	// Success marks a source that returned every record.
	Success = "✓"

	// Error marks a failed source or operation.
	Error = "✗"

	// Stop marks shutdowns.
	Stop = "✗"

	// Warning marks partial results.
	Warning = "!"

	// Pending marks a source with no structured API.
	Pending = "…"
)
