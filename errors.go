package searchindex

import (
	"errors"
	"fmt"
)

// Sentinel errors for invalid input records.
var (
	// ErrNoResourceType is returned when the record carries no resourceType.
	ErrNoResourceType = errors.New("resource has no resourceType")

	// ErrNoResourceID is returned when the record carries no id.
	ErrNoResourceID = errors.New("resource has no id")
)

// ContractError reports a record value that is internally inconsistent
// with its declared datatype, e.g. non-numeric text in a decimal field.
// This indicates an upstream parsing bug: indexing of the record aborts
// and the error propagates to the caller.
type ContractError struct {
	// ResourceType of the record being indexed.
	ResourceType string

	// Path is the dotted element path of the offending value.
	Path string

	// Detail describes the inconsistency.
	Detail string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *ContractError) Error() string {
	msg := fmt.Sprintf("contract violation at %s: %s", e.Path, e.Detail)
	if e.ResourceType != "" {
		msg = e.ResourceType + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *ContractError) Unwrap() error {
	return e.Err
}

// NewContractError creates a ContractError for the given element path.
func NewContractError(path, detail string, err error) *ContractError {
	return &ContractError{Path: path, Detail: detail, Err: err}
}

// IsContractError reports whether err is (or wraps) a ContractError.
func IsContractError(err error) bool {
	var ce *ContractError
	return errors.As(err, &ce)
}
