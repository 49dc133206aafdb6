package imposters

import "fmt"

// ErrorKind classifies structural-validation failures.
type ErrorKind string

const (
	// UnrecognizedShape means no known document shape matched during dispatch.
	UnrecognizedShape ErrorKind = "unrecognized shape"
	// InvalidEnumValue means a wire tag does not map to a known enum member.
	InvalidEnumValue ErrorKind = "invalid enum value"
	// MissingRequiredField means a required key is absent from the document.
	MissingRequiredField ErrorKind = "missing required field"
)

// StructureError is the failure raised when a document does not satisfy the
// wire contract. Malformed input is a contract violation between this library
// and the server, not a transient condition: there is no retry or recovery.
type StructureError struct {
	Kind    ErrorKind
	Message string
	Source  interface{}
}

// Error implements the error interface.
func (e *StructureError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func newUnrecognizedShapeError(message string, source interface{}) *StructureError {
	return &StructureError{
		Kind:    UnrecognizedShape,
		Message: message,
		Source:  source,
	}
}

func newInvalidEnumError(message string, source interface{}) *StructureError {
	return &StructureError{
		Kind:    InvalidEnumValue,
		Message: message,
		Source:  source,
	}
}

func newMissingFieldError(field string, source interface{}) *StructureError {
	return &StructureError{
		Kind:    MissingRequiredField,
		Message: fmt.Sprintf("document has no %q key", field),
		Source:  source,
	}
}
