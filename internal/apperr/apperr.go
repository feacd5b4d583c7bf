package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error so transport layers can map it to a status code
// without inspecting message text.
type Kind string

const (
	KindInvalidRequest     Kind = "INVALID_REQUEST"
	KindNotFound           Kind = "NOT_FOUND"
	KindProductsNotFound   Kind = "PRODUCTS_NOT_FOUND"
	KindStoreNotFound      Kind = "STORE_NOT_FOUND"
	KindUserNotFound       Kind = "USER_NOT_FOUND"
	KindDuplicateOrderID   Kind = "DUPLICATE_ORDER_ID"
	KindStorageUnavailable Kind = "STORAGE_UNAVAILABLE"
)

// Error carries a kind alongside a human-readable message and an optional
// wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates an error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying error.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the kind from an error chain. Errors without a kind are
// treated as storage/internal failures.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStorageUnavailable
}

// IsNotFound reports whether the error is any of the not-found kinds.
func IsNotFound(err error) bool {
	switch KindOf(err) {
	case KindNotFound, KindProductsNotFound, KindStoreNotFound, KindUserNotFound:
		return true
	}
	return false
}
