package checkin

import (
	"errors"
	"fmt"

	"github.com/KakraGeek/churchsuitegh/internal/models"
	"github.com/KakraGeek/churchsuitegh/internal/store"
)

type Kind int

const (
	KindInvalidInput Kind = iota + 1
	KindNotFound
	KindExpired
	KindInactive
	KindLimitReached
	KindConflict
	KindStorage
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindNotFound:
		return "not_found"
	case KindExpired:
		return "expired"
	case KindInactive:
		return "inactive"
	case KindLimitReached:
		return "limit_reached"
	case KindConflict:
		return "conflict"
	case KindStorage:
		return "storage"
	default:
		return "unknown"
	}
}

const (
	msgEmptyCode    = "Please enter a check-in code"
	msgCodeNotFound = "QR code not found"
	msgCodeExpired  = "This QR code has expired"
	msgCodeInactive = "This QR code is no longer active"
	msgCodeLimit    = "This QR code has reached its usage limit"
	msgStorage      = "Something went wrong, please try again"
)

// Error is the failure half of every check-in operation. Message is safe to
// show to the person at the kiosk; Err keeps the cause for logs.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// KindOf returns the kind of err, or KindStorage when err is not an *Error.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindStorage
}

func statusError(st models.CodeStatus) *Error {
	switch st {
	case models.CodeExpired:
		return newError(KindExpired, msgCodeExpired)
	case models.CodeInactive:
		return newError(KindInactive, msgCodeInactive)
	case models.CodeExhausted:
		return newError(KindLimitReached, msgCodeLimit)
	default:
		return nil
	}
}

// translate maps store errors onto the check-in taxonomy. notFoundMsg is
// used for store.ErrNotFound since only the caller knows what was missing.
func translate(err error, notFoundMsg string) error {
	var unusable *store.UnusableCodeError
	switch {
	case err == nil:
		return nil
	case errors.As(err, new(*Error)):
		return err
	case errors.Is(err, store.ErrNotFound):
		return &Error{Kind: KindNotFound, Message: notFoundMsg, Err: err}
	case errors.As(err, &unusable):
		ce := statusError(unusable.Status)
		ce.Err = err
		return ce
	case errors.Is(err, store.ErrDuplicateCheckIn):
		return &Error{Kind: KindConflict, Message: "This member is already checked in for this service", Err: err}
	case errors.Is(err, store.ErrOpenCheckIn):
		return &Error{Kind: KindConflict, Message: "This child is already checked in", Err: err}
	case errors.Is(err, store.ErrAlreadyCheckedOut):
		return &Error{Kind: KindConflict, Message: "This child has already been checked out", Err: err}
	case errors.Is(err, store.ErrDuplicateCode):
		return &Error{Kind: KindConflict, Message: "That code is already in use", Err: err}
	default:
		return &Error{Kind: KindStorage, Message: msgStorage, Err: err}
	}
}
