package core

import (
	"errors"
	"fmt"
)

// Kind is the machine-readable classification of a domain failure.
// It is what the web adapter serializes into the "code" field.
type Kind string

const (
	KindUnknownMedicine   Kind = "UNKNOWN_MEDICINE"
	KindUnknownUnit       Kind = "UNKNOWN_UNIT"
	KindInsufficientStock Kind = "INSUFFICIENT_STOCK"
	KindOverReceipt       Kind = "OVER_RECEIPT"
	KindPOMismatch        Kind = "PO_MISMATCH"
	KindLockTimeout       Kind = "LOCK_TIMEOUT"
	KindValidation        Kind = "VALIDATION_ERROR"
	KindNotFound          Kind = "NOT_FOUND"
	KindConflict          Kind = "CONFLICT"
)

// Error is a domain failure carrying a Kind. Domain services return either
// an *Error or an infrastructure error wrapped with %w; nothing in the core
// is fatal to the process.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// E builds a domain error with a formatted message.
func E(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// KindOf extracts the Kind from an error chain, or "" for plain errors.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}
