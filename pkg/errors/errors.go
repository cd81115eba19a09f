// Package errors provides the error taxonomy for permitmap.
// Connector failures never escape to callers as Go errors; instead they are
// classified with Kind and recorded on the failed source result. The typed
// errors here let connectors, the transport and the registry report failures
// that can still be checked programmatically with errors.Is and errors.As.
package errors

import (
	"context"
	"errors"
	"fmt"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Is, As and Join are re-exported so callers need a single errors import.
var (
	Is   = errors.Is
	As   = errors.As
	Join = errors.Join
)

// Sentinel errors.
var (
	// ErrNetwork indicates the upstream endpoint could not be reached or
	// answered with a non-success status.
	ErrNetwork = errors.New("network error")

	// ErrRateLimited indicates the upstream answered 429.
	ErrRateLimited = errors.New("rate limited")

	// ErrSourceUnavailable indicates the upstream answered with a 5xx status.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrParse indicates an upstream body was not in any recognized shape.
	ErrParse = errors.New("parse error")

	// ErrInvalidInput indicates that a record or input failed validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConfiguration indicates a missing or malformed registry entry.
	ErrConfiguration = errors.New("configuration error")

	// ErrNotFound indicates that a requested resource was not found.
	ErrNotFound = errors.New("not found")

	// ErrTimeout indicates that an operation timed out.
	ErrTimeout = errors.New("operation timed out")

	// ErrCanceled indicates that an operation was canceled.
	ErrCanceled = errors.New("operation canceled")

	// ErrScrapeRequired marks a municipality without a structured API.
	ErrScrapeRequired = errors.New("scrape required")

	// ErrInternal indicates a connector crashed.
	ErrInternal = errors.New("internal error")

	// ErrNoData indicates that no selected source responded.
	ErrNoData = errors.New("no source responded")
)

// Error kinds recorded on failed source results.
const (
	KindNetwork        = "network"
	KindTimeout        = "timeout"
	KindCanceled       = "canceled"
	KindParse          = "parse"
	KindValidation     = "validation"
	KindConfiguration  = "configuration"
	KindScrapeRequired = "scrape_required"
	KindInternal       = "internal"
)

// NetworkError represents a transport failure or non-success HTTP status
// from a municipal endpoint.
type NetworkError struct {
	City       string
	Endpoint   string
	StatusCode int
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("network error from %s (status %d): %s", e.City, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("network error from %s: %s", e.City, e.Message)
}

// Unwrap implements errors.Unwrap.
func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support.
func (e *NetworkError) Is(target error) bool {
	switch target {
	case ErrNetwork:
		return true
	case ErrRateLimited:
		return e.StatusCode == 429
	case ErrSourceUnavailable:
		return e.StatusCode >= 500
	}
	return false
}

// NewNetworkError creates a new NetworkError.
func NewNetworkError(city, endpoint string, statusCode int, message string) *NetworkError {
	return &NetworkError{
		City:       city,
		Endpoint:   endpoint,
		StatusCode: statusCode,
		Message:    message,
	}
}

// ParseError represents a response body that could not be decoded.
type ParseError struct {
	Format  string // "json", "yaml", "arcgis", ...
	Source  string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("%s parse error from %s: %s", e.Format, e.Source, e.Message)
	}
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
}

// Unwrap implements errors.Unwrap.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support.
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

// NewParseError creates a new ParseError.
func NewParseError(format, source, message string, err error) *ParseError {
	return &ParseError{
		Format:  format,
		Source:  source,
		Message: message,
		Err:     err,
	}
}

// ValidationError represents a single-record validation failure.
type ValidationError struct {
	Field    string
	Value    any
	Message  string
	RecordID string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	switch {
	case e.Field != "" && e.RecordID != "":
		return fmt.Sprintf("validation failed for record %s field %s: %s", e.RecordID, e.Field, e.Message)
	case e.Field != "":
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// ConfigError represents a configuration error.
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support.
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfiguration
}

// NewConfigError creates a new ConfigError.
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{
		Component: component,
		Message:   message,
		Err:       err,
	}
}

// NotFoundError represents an error when a resource is not found.
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// Is implements errors.Is support.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// TimeoutError represents an operation timeout.
type TimeoutError struct {
	Operation string
	Duration  string
	Message   string
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	if e.Duration != "" {
		return fmt.Sprintf("operation %s timed out after %s: %s", e.Operation, e.Duration, e.Message)
	}
	return fmt.Sprintf("operation %s timed out: %s", e.Operation, e.Message)
}

// Is implements errors.Is support.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// NewTimeoutError creates a new TimeoutError.
func NewTimeoutError(operation, duration, message string) *TimeoutError {
	return &TimeoutError{
		Operation: operation,
		Duration:  duration,
		Message:   message,
	}
}

// ScrapeRequiredError is reported by placeholder connectors for
// municipalities that publish permits only as HTML.
type ScrapeRequiredError struct {
	City string
}

// Error implements the error interface.
func (e *ScrapeRequiredError) Error() string {
	return fmt.Sprintf("scrape required: %s", e.City)
}

// Is implements errors.Is support.
func (e *ScrapeRequiredError) Is(target error) bool {
	return target == ErrScrapeRequired
}

// PanicError wraps a value recovered from a crashed connector.
type PanicError struct {
	City  string
	Value any
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("connector %s panicked: %v", e.City, e.Value)
}

// Is implements errors.Is support.
func (e *PanicError) Is(target error) bool {
	return target == ErrInternal
}

// Helper functions for error checking

// IsNetwork checks if an error is a network error.
func IsNetwork(err error) bool {
	return errors.Is(err, ErrNetwork)
}

// IsParse checks if an error is a parse error.
func IsParse(err error) bool {
	return errors.Is(err, ErrParse)
}

// IsValidationError checks if an error is a validation error.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsConfiguration checks if an error is a configuration error.
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// IsNotFound checks if an error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsRateLimited checks if an error is a rate limit error.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// IsTimeout checks if an error is a timeout error, including a bare
// context deadline.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, context.DeadlineExceeded)
}

// IsCanceled checks if an error is a cancellation error.
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled) || errors.Is(err, context.Canceled)
}

// IsScrapeRequired checks if an error marks a scrape-pending source.
func IsScrapeRequired(err error) bool {
	return errors.Is(err, ErrScrapeRequired)
}

// Kind classifies err into the vocabulary recorded on failed source
// results. It returns "" for a nil error.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case IsScrapeRequired(err):
		return KindScrapeRequired
	case IsTimeout(err):
		return KindTimeout
	case IsCanceled(err):
		return KindCanceled
	case IsConfiguration(err):
		return KindConfiguration
	case IsParse(err):
		return KindParse
	case IsValidationError(err):
		return KindValidation
	case IsNetwork(err):
		return KindNetwork
	}
	return KindInternal
}

// Helper wrapping functions for common patterns

// WrapParse wraps an error as a ParseError.
func WrapParse(format, source string, err error) error {
	if err == nil {
		return nil
	}
	return NewParseError(format, source, err.Error(), err)
}

// WrapNetwork wraps a transport error as a NetworkError.
func WrapNetwork(city, endpoint string, err error) error {
	if err == nil {
		return nil
	}
	return &NetworkError{
		City:     city,
		Endpoint: endpoint,
		Message:  err.Error(),
		Err:      err,
	}
}

// WrapConfig wraps an error as a ConfigError.
func WrapConfig(component string, err error) error {
	if err == nil {
		return nil
	}
	return NewConfigError(component, err.Error(), err)
}
