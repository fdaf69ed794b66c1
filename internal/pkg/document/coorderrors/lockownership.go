package coorderrors

import (
	"fmt"
)

// LockOwnershipError signals an operation with a missing or mismatched
// transaction token: release without holding, double acquisition by the same
// holder, or a mutation presented with a foreign token.
type LockOwnershipError struct {
	reason string
}

func NewLockOwnershipError(format string, a ...any) LockOwnershipError {
	return LockOwnershipError{reason: fmt.Sprintf(format, a...)}
}

func (e LockOwnershipError) ErrorName() string {
	return "lockOwnership"
}

func (e LockOwnershipError) Error() string {
	return e.reason
}
