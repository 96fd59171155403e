package application

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed account operation.
type ErrorKind int

const (
	KindValidation ErrorKind = iota + 1
	KindConflict
	KindAuth
	KindPersistence
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindAuth:
		return "auth"
	case KindPersistence:
		return "persistence"
	default:
		return "unknown"
	}
}

// Error is returned by every Service operation. Message is safe to show to
// the end user; Err keeps the internal cause for logs.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func validationError(msg string) *Error { return &Error{Kind: KindValidation, Message: msg} }
func conflictError(msg string) *Error   { return &Error{Kind: KindConflict, Message: msg} }
func authError(msg string) *Error       { return &Error{Kind: KindAuth, Message: msg} }
func persistenceError(msg string, cause error) *Error {
	return &Error{Kind: KindPersistence, Message: msg, Err: cause}
}

// KindOf returns the kind of err, or 0 when err is not an *Error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// PublicMessage returns the user-facing message for err.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return MsgUnexpected
}

// User-facing messages.
const (
	MsgFieldsRequired    = "All fields are required"
	MsgInvalidEmail      = "Invalid email format"
	MsgPasswordTooShort  = "Password must be at least 6 characters"
	MsgInvalidType       = "Invalid account type"
	MsgEmailTaken        = "An account with this email already exists"
	MsgCreateFailed      = "Unable to create account, please try again"
	MsgBadCredentials    = "Invalid email or password"
	MsgDeactivated       = "This account has been deactivated"
	MsgTypeMismatch      = "Invalid account type selected"
	MsgSigninFailed      = "Unable to sign in, please try again"
	MsgUnexpected        = "An unexpected error occurred"
	MsgDashboardFailed   = "Unable to load dashboard statistics"
	MsgAccountNotFound   = "Account not found"
	MsgInvalidAvatar     = "Avatar must be an image"
	MsgAvatarUnavailable = "Avatar storage is not configured"
	MsgAvatarFailed      = "Unable to store avatar"
)
