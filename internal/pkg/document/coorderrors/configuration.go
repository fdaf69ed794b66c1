// Package coorderrors defines typed errors for document coordination failures.
//
// Structural mismatches are intentionally not represented here: an operation
// whose target has the wrong shape reports a soft false result, not an error.
package coorderrors

import (
	"fmt"
)

// ConfigurationError signals an invalid manager or document configuration,
// for example a centralized-store document requested without an etcd client.
type ConfigurationError struct {
	message string
}

func NewConfigurationError(format string, a ...any) ConfigurationError {
	return ConfigurationError{message: fmt.Sprintf(format, a...)}
}

func (e ConfigurationError) ErrorName() string {
	return "configuration"
}

func (e ConfigurationError) Error() string {
	return e.message
}
