package errors

import (
	"strings"
	"sync"
)

// MultiError collects zero or more errors, it is safe for concurrent use.
type MultiError struct {
	lock sync.Mutex
	errs []error
}

func NewMultiError() *MultiError {
	return &MultiError{}
}

func (e *MultiError) Append(errs ...error) {
	e.lock.Lock()
	defer e.lock.Unlock()
	for _, err := range errs {
		if err != nil {
			e.errs = append(e.errs, err)
		}
	}
}

func (e *MultiError) Len() int {
	e.lock.Lock()
	defer e.lock.Unlock()
	return len(e.errs)
}

func (e *MultiError) WrappedErrors() []error {
	e.lock.Lock()
	defer e.lock.Unlock()
	out := make([]error, len(e.errs))
	copy(out, e.errs)
	return out
}

// ErrorOrNil returns nil if no error was appended.
func (e *MultiError) ErrorOrNil() error {
	e.lock.Lock()
	defer e.lock.Unlock()
	if len(e.errs) == 0 {
		return nil
	}
	return e
}

func (e *MultiError) Unwrap() []error {
	return e.WrappedErrors()
}

func (e *MultiError) Error() string {
	e.lock.Lock()
	defer e.lock.Unlock()
	switch len(e.errs) {
	case 0:
		return ""
	case 1:
		return e.errs[0].Error()
	default:
		var b strings.Builder
		for i, err := range e.errs {
			if i > 0 {
				b.WriteString("; ")
			}
			b.WriteString(err.Error())
		}
		return b.String()
	}
}
