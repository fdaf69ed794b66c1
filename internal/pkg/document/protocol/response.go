package protocol

import (
	"github.com/docwire/docwire/internal/pkg/document/coorderrors"
	"github.com/docwire/docwire/internal/pkg/utils/errors"
)

func NewResultResponse(correlationID string, ok bool, result any) *Response {
	return &Response{CorrelationID: correlationID, Finished: true, OK: ok, Result: result}
}

func NewErrorResponse(correlationID string, err error) *Response {
	out := &Response{CorrelationID: correlationID, Finished: true, Error: err.Error()}
	var named interface{ ErrorName() string }
	if errors.As(err, &named) {
		out.ErrorName = named.ErrorName()
	}
	return out
}

// Err reconstructs a typed error from an error response, or returns nil.
func (r *Response) Err() error {
	if r.Error == "" {
		return nil
	}
	switch r.ErrorName {
	case coorderrors.ConfigurationError{}.ErrorName():
		return coorderrors.NewConfigurationError("%s", r.Error)
	case coorderrors.LockOwnershipError{}.ErrorName():
		return coorderrors.NewLockOwnershipError("%s", r.Error)
	case coorderrors.LockAcquisitionError{}.ErrorName():
		return coorderrors.NewLockAcquisitionErrorFromMessage(r.Error)
	case coorderrors.DocumentNotFoundError{}.ErrorName():
		return coorderrors.NewDocumentNotFoundErrorFromMessage(r.Error)
	default:
		return errors.New(r.Error)
	}
}
