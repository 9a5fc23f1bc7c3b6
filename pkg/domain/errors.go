package domain

import (
	"errors"
	"fmt"
)

// Code is a machine-readable error code.
type Code string

// Registry error codes. Every rejected precondition maps to exactly one code.
const (
	CodeUnknown Code = "UNKNOWN"

	// Capacity
	CodeKittiesCountOverflow Code = "KITTIES_COUNT_OVERFLOW"

	// Input validity
	CodeIdenticalParents     Code = "IDENTICAL_PARENTS"
	CodePriceMustBePositive  Code = "PRICE_MUST_BE_POSITIVE"
	CodeCannotTransferToSelf Code = "CANNOT_TRANSFER_TO_SELF"
	CodeInvalidAccount       Code = "INVALID_ACCOUNT"

	// Referential integrity
	CodeUnknownKitty Code = "UNKNOWN_KITTY"

	// Authorization
	CodeNotOwner  Code = "NOT_OWNER"
	CodeBadOrigin Code = "BAD_ORIGIN"

	// Economic preconditions
	CodeNoPriceSet         Code = "NO_PRICE_SET"
	CodeInsufficientFunds  Code = "INSUFFICIENT_FUNDS"
	CodeKeepAlive          Code = "KEEP_ALIVE"
	CodeExistentialDeposit Code = "EXISTENTIAL_DEPOSIT"
)

// Error is the registry error type with structured metadata.
type Error struct {
	Code     Code              // Machine-readable error code
	Message  string            // Internal message (for logs/telemetry)
	Metadata map[string]string // Additional context
	Cause    error             // Wrapped underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// NewError creates a simple registry error with a code and message.
func NewError(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError creates a registry error that wraps an underlying cause.
func WrapError(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// Sentinels for errors.Is comparisons. Matching is by code, so errors built
// with extra metadata still match.
var (
	ErrKittiesCountOverflow = NewError(CodeKittiesCountOverflow, "kitties count overflow")
	ErrIdenticalParents     = NewError(CodeIdenticalParents, "parents must be distinct kitties")
	ErrPriceMustBePositive  = NewError(CodePriceMustBePositive, "price must be positive")
	ErrCannotTransferToSelf = NewError(CodeCannotTransferToSelf, "cannot transfer to self")
	ErrInvalidAccount       = NewError(CodeInvalidAccount, "account id must not be empty")
	ErrUnknownKitty         = NewError(CodeUnknownKitty, "unknown kitty")
	ErrNotOwner             = NewError(CodeNotOwner, "caller is not the owner")
	ErrBadOrigin            = NewError(CodeBadOrigin, "unsigned or invalid origin")
	ErrNoPriceSet           = NewError(CodeNoPriceSet, "kitty has no price set")
	ErrInsufficientFunds    = NewError(CodeInsufficientFunds, "insufficient funds")
	ErrKeepAlive            = NewError(CodeKeepAlive, "transfer would kill the payer account")
	ErrExistentialDeposit   = NewError(CodeExistentialDeposit, "value too low to create account")
)

// UnknownKittyError reports a lookup miss for id.
func UnknownKittyError(id KittyID) *Error {
	return &Error{
		Code:     CodeUnknownKitty,
		Message:  fmt.Sprintf("kitty %s not found", id),
		Metadata: map[string]string{"kitty_id": id.String()},
	}
}

// CodeOf extracts the registry code from err, or CodeUnknown.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}
