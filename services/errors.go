package services

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindNotFound   ErrorKind = "not_found"
	KindConflict   ErrorKind = "conflict"
	KindForbidden  ErrorKind = "forbidden"
	KindStore      ErrorKind = "store"
)

// Store implementations return these so services can classify failures
// without knowing the driver.
var (
	ErrRecordNotFound = errors.New("record not found")
	ErrSlotTaken      = errors.New("slot already taken")
)

// AppError is the typed error every core operation returns. Reason is a
// short machine-readable code such as "limit-reached" or "booking".
type AppError struct {
	Kind    ErrorKind
	Reason  string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func ValidationError(reason, message string) *AppError {
	return &AppError{Kind: KindValidation, Reason: reason, Message: message}
}

func NotFoundError(reason, message string) *AppError {
	return &AppError{Kind: KindNotFound, Reason: reason, Message: message}
}

func ConflictError(reason, message string) *AppError {
	return &AppError{Kind: KindConflict, Reason: reason, Message: message}
}

func ForbiddenError(reason, message string) *AppError {
	return &AppError{Kind: KindForbidden, Reason: reason, Message: message}
}

func StoreError(op string, err error) *AppError {
	return &AppError{Kind: KindStore, Reason: "store", Message: op + " failed", Err: err}
}

// KindOf reports the kind of err, treating unknown errors as store failures.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindStore
}

// IsReason reports whether err is an AppError carrying the given reason.
func IsReason(err error, reason string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Reason == reason
}
