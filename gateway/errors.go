package gateway

import "errors"

// Kind is a stable category for programmatic error handling.
//
// Callers should branch on Kind (or Code) rather than matching error strings.
type Kind string

const (
	KindCollectionAlreadyInitialized Kind = "CollectionAlreadyInitialized"
	KindCollectionNotInitialized     Kind = "CollectionNotInitialized"
	KindNotAuthorized                Kind = "NotAuthorized"
	KindInvalidCollection            Kind = "InvalidCollection"
	KindExternalCallFailed           Kind = "ExternalCallFailed"
	KindAuthorityNotFound            Kind = "AuthorityNotFound"
	KindInvalidAuthorityRecord       Kind = "InvalidAuthorityRecord"
	KindInvalidRequest               Kind = "InvalidRequest"
	KindInternal                     Kind = "Internal"
)

// Custom program error codes, numbered from 6000.
var codes = map[Kind]uint32{
	KindCollectionAlreadyInitialized: 6000,
	KindCollectionNotInitialized:     6001,
	KindNotAuthorized:                6002,
	KindInvalidCollection:            6003,
	KindExternalCallFailed:           6004,
	KindAuthorityNotFound:            6005,
	KindInvalidAuthorityRecord:       6006,
	KindInvalidRequest:               6007,
	KindInternal:                     6008,
}

// Error is the gateway's structured error type.
//
// Message is intended for humans; do not match on it. Cause is kept so that
// errors.Is still reaches store, runtime and program sentinels.
type Error struct {
	Kind    Kind
	Code    uint32
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func newError(kind Kind, msg string) error {
	return &Error{Kind: kind, Code: codes[kind], Message: msg}
}

func wrapError(kind Kind, msg string, cause error) error {
	if cause == nil {
		return newError(kind, msg)
	}
	return &Error{Kind: kind, Code: codes[kind], Message: msg, Cause: cause}
}

// IsKind reports whether err is (or wraps) a *Error with the given Kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// KindOf returns the Kind of a structured error, or "" if err is not one.
func KindOf(err error) Kind {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.Kind
}

// CodeOf returns the program error code of a structured error, or 0.
func CodeOf(err error) uint32 {
	var e *Error
	if !errors.As(err, &e) {
		return 0
	}
	return e.Code
}

// KindForCode maps a program error code back to its Kind.
func KindForCode(code uint32) (Kind, bool) {
	for k, c := range codes {
		if c == code {
			return k, true
		}
	}
	return "", false
}
