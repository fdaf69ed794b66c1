package coorderrors

import (
	"fmt"
	"time"
)

// LockAcquisitionError signals that a bounded wait for a lock ran out,
// either for the explicit transaction token or for the distributed mutex.
type LockAcquisitionError struct {
	name    string
	timeout time.Duration
	message string
}

func NewLockAcquisitionError(name string, timeout time.Duration) LockAcquisitionError {
	return LockAcquisitionError{name: name, timeout: timeout}
}

// NewLockAcquisitionErrorFromMessage restores the error from its wire form.
func NewLockAcquisitionErrorFromMessage(message string) LockAcquisitionError {
	return LockAcquisitionError{message: message}
}

func (e LockAcquisitionError) ErrorName() string {
	return "lockAcquisition"
}

func (e LockAcquisitionError) Error() string {
	if e.message != "" {
		return e.message
	}
	return fmt.Sprintf(`cannot acquire lock "%s": timeout after %s`, e.name, e.timeout)
}
