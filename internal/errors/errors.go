// Package apperrors provides domain-specific error types for the launcher.
// These error types include contextual information to aid debugging and error reporting.
package apperrors

import "fmt"

// ConfigurationError represents configuration-related errors.
// It includes the configuration file path and specific key that caused the error.
type ConfigurationError struct {
	ConfigPath string // Path to the configuration file
	Key        string // Configuration key that caused the error
	Err        error  // Underlying error
}

// Error implements the error interface for ConfigurationError.
func (e *ConfigurationError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("configuration error in %s (key: %s): %v", e.ConfigPath, e.Key, e.Err)
	}
	return fmt.Sprintf("configuration error in %s: %v", e.ConfigPath, e.Err)
}

// Unwrap returns the underlying error for error wrapping chains.
func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// EnvironmentError represents a failed process environment adjustment.
type EnvironmentError struct {
	Var string // Environment variable or search path being edited (e.g., PATH)
	Op  string // Operation that failed (e.g., "prepend", "unset", "chdir")
	Err error  // Underlying error
}

// Error implements the error interface for EnvironmentError.
func (e *EnvironmentError) Error() string {
	if e.Var != "" {
		return fmt.Sprintf("environment %s failed (var: %s): %v", e.Op, e.Var, e.Err)
	}
	return fmt.Sprintf("environment %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error wrapping chains.
func (e *EnvironmentError) Unwrap() error {
	return e.Err
}

// StreamError represents a failure while redirecting a standard stream.
type StreamError struct {
	Path string // Target file path
	Op   string // Operation that failed (e.g., "mkdir", "open", "dup")
	Err  error  // Underlying error
}

// Error implements the error interface for StreamError.
func (e *StreamError) Error() string {
	return fmt.Sprintf("stream %s failed (path: %s): %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error for error wrapping chains.
func (e *StreamError) Unwrap() error {
	return e.Err
}
