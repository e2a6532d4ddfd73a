package apperrors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

// Kind classifies failures surfaced to the worker.
type Kind string

const (
	KindRemoteUnavailable Kind = "REMOTE_UNAVAILABLE"
	KindValidation        Kind = "VALIDATION_FAILURE"
	KindNotFound          Kind = "NOT_FOUND"
	KindInvalidScan       Kind = "INVALID_SCAN"
	KindOverScanned       Kind = "OVER_SCANNED"
	KindAlreadyFinalized  Kind = "ALREADY_FINALIZED"
	KindInternal          Kind = "INTERNAL_ERROR"
)

// Metadata describes how a kind is presented.
type Metadata struct {
	HTTPStatus int
	// Transient messages are shown briefly and auto-dismissed.
	Transient     bool
	PublicMessage string
}

var metadataByKind = map[Kind]Metadata{
	KindRemoteUnavailable: {
		HTTPStatus:    http.StatusServiceUnavailable,
		Transient:     true,
		PublicMessage: "record store unavailable",
	},
	KindValidation: {
		HTTPStatus:    http.StatusBadRequest,
		PublicMessage: "validation failed",
	},
	KindNotFound: {
		HTTPStatus:    http.StatusNotFound,
		PublicMessage: "resource not found",
	},
	KindInvalidScan: {
		HTTPStatus:    http.StatusUnprocessableEntity,
		PublicMessage: "invalid scan",
	},
	KindOverScanned: {
		HTTPStatus:    http.StatusUnprocessableEntity,
		PublicMessage: "upc already scanned the required number of times",
	},
	KindAlreadyFinalized: {
		HTTPStatus:    http.StatusOK,
		PublicMessage: "container has already been checked",
	},
	KindInternal: {
		HTTPStatus:    http.StatusInternalServerError,
		PublicMessage: "internal error",
	},
}

// MetadataFor returns presentation metadata, defaulting to internal.
func MetadataFor(kind Kind) Metadata {
	if meta, ok := metadataByKind[kind]; ok {
		return meta
	}
	return metadataByKind[KindInternal]
}

// Error is a classified failure carrying an optional cause.
type Error struct {
	kind    Kind
	message string
	cause   error
}

// New builds a classified error.
func New(kind Kind, message string) *Error {
	return &Error{kind: kind, message: message}
}

// Newf builds a classified error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{kind: kind, message: fmt.Sprintf(format, args...)}
}

// Wrap classifies cause under kind.
func Wrap(kind Kind, cause error, message string) *Error {
	return &Error{kind: kind, message: message, cause: cause}
}

func (e *Error) Kind() Kind {
	if e == nil {
		return ""
	}
	return e.kind
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.kind, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.kind, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// As extracts the outermost classified error from the chain.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// KindOf returns the kind of err, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	if typed := As(err); typed != nil {
		return typed.kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
