package coorderrors

import (
	"fmt"
	"time"
)

// TransportTimeoutError signals that no response arrived within the bound,
// the pending call is discarded.
type TransportTimeoutError struct {
	correlationID string
	timeout       time.Duration
}

func NewTransportTimeoutError(correlationID string, timeout time.Duration) TransportTimeoutError {
	return TransportTimeoutError{correlationID: correlationID, timeout: timeout}
}

func (e TransportTimeoutError) ErrorName() string {
	return "transportTimeout"
}

func (e TransportTimeoutError) Error() string {
	return fmt.Sprintf(`no response for request "%s" within %s`, e.correlationID, e.timeout)
}

// TransportClosedError signals that the message channel is gone,
// it is fatal to the pending operation.
type TransportClosedError struct{}

func NewTransportClosedError() TransportClosedError {
	return TransportClosedError{}
}

func (e TransportClosedError) ErrorName() string {
	return "transportClosed"
}

func (e TransportClosedError) Error() string {
	return "transport channel is closed"
}
