package revision

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes revision log errors.
type ErrorCode string

const (
	// ErrCodeNotFound indicates the file or revision does not exist.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodeConflict indicates an optimistic lock mismatch or an invalid
	// lifecycle transition.
	ErrCodeConflict ErrorCode = "CONFLICT"

	// ErrCodeBadRequest indicates field validation failed.
	ErrCodeBadRequest ErrorCode = "BAD_REQUEST"

	// ErrCodeCannotHideLatestRevision indicates a redaction targeted the head.
	ErrCodeCannotHideLatestRevision ErrorCode = "CANNOT_HIDE_LATEST_REVISION"

	// ErrCodeInternal indicates a consistency failure caused by the caller
	// or the storage layer, not by user input.
	ErrCodeInternal ErrorCode = "INTERNAL"
)

// Error is returned by every Service operation that rejects a request.
//
// Errors are detected before any write, so a returned *Error always means
// nothing was persisted and no cascade ran.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// FileID identifies the affected file, when known.
	FileID string

	// Details contains additional context.
	Details map[string]string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.FileID != "" {
		msg = fmt.Sprintf("%s (file=%s)", msg, e.FileID)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// CodeOf returns the ErrorCode carried by err, or "" if err is not an *Error.
// Uses errors.As to handle wrapped errors.
func CodeOf(err error) ErrorCode {
	var re *Error
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

// IsNotFound returns true if err is a NOT_FOUND error.
func IsNotFound(err error) bool { return CodeOf(err) == ErrCodeNotFound }

// IsConflict returns true if err is a CONFLICT error.
func IsConflict(err error) bool { return CodeOf(err) == ErrCodeConflict }

// IsBadRequest returns true if err is a BAD_REQUEST error.
func IsBadRequest(err error) bool { return CodeOf(err) == ErrCodeBadRequest }

// IsCannotHideLatestRevision returns true if err is a CANNOT_HIDE_LATEST_REVISION error.
func IsCannotHideLatestRevision(err error) bool {
	return CodeOf(err) == ErrCodeCannotHideLatestRevision
}

// IsInternal returns true if err is an INTERNAL error.
func IsInternal(err error) bool { return CodeOf(err) == ErrCodeInternal }

// NewNotFoundError creates a NOT_FOUND error.
func NewNotFoundError(fileID, message string, cause error) *Error {
	return &Error{Code: ErrCodeNotFound, Message: message, FileID: fileID, Err: cause}
}

// NewStaleRevisionError creates a CONFLICT error for an optimistic lock mismatch.
func NewStaleRevisionError(fileID string, expected, actual int64) *Error {
	return &Error{
		Code:    ErrCodeConflict,
		Message: "last revision id does not match the current head",
		FileID:  fileID,
		Details: map[string]string{
			"last_revision_id": fmt.Sprintf("%d", expected),
			"head_revision_id": fmt.Sprintf("%d", actual),
		},
	}
}

// NewTransitionError creates a CONFLICT error for a disallowed lifecycle transition.
func NewTransitionError(fileID string, from, to string) *Error {
	return &Error{
		Code:    ErrCodeConflict,
		Message: fmt.Sprintf("cannot apply %s to a file whose head is %s", to, from),
		FileID:  fileID,
		Details: map[string]string{
			"from": from,
			"to":   to,
		},
	}
}

// NewBadRequestError creates a BAD_REQUEST error for a field validation failure.
func NewBadRequestError(fileID, field, message string) *Error {
	return &Error{
		Code:    ErrCodeBadRequest,
		Message: message,
		FileID:  fileID,
		Details: map[string]string{"field": field},
	}
}

// NewCannotHideLatestError creates a CANNOT_HIDE_LATEST_REVISION error.
func NewCannotHideLatestError(fileID string, revisionID int64) *Error {
	return &Error{
		Code:    ErrCodeCannotHideLatestRevision,
		Message: "the latest revision cannot be hidden; supersede it first",
		FileID:  fileID,
		Details: map[string]string{"revision_id": fmt.Sprintf("%d", revisionID)},
	}
}

// NewInternalError creates an INTERNAL error.
func NewInternalError(fileID, message string) *Error {
	return &Error{Code: ErrCodeInternal, Message: message, FileID: fileID}
}
