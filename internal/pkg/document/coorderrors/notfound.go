package coorderrors

import (
	"fmt"
)

// DocumentNotFoundError signals a request addressed to an identity
// for which the authority hosts no document.
type DocumentNotFoundError struct {
	identity string
	message  string
}

func NewDocumentNotFoundError(identity string) DocumentNotFoundError {
	return DocumentNotFoundError{identity: identity}
}

// NewDocumentNotFoundErrorFromMessage restores the error from its wire form.
func NewDocumentNotFoundErrorFromMessage(message string) DocumentNotFoundError {
	return DocumentNotFoundError{message: message}
}

func (e DocumentNotFoundError) ErrorName() string {
	return "documentNotFound"
}

func (e DocumentNotFoundError) Error() string {
	if e.message != "" {
		return e.message
	}
	return fmt.Sprintf(`no document with identity "%s"`, e.identity)
}
