package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidState      = errors.New("invalid state")
	ErrIllegalTransition = errors.New("illegal transition")
	ErrForbidden         = errors.New("forbidden")
	ErrDuplicateBid      = errors.New("duplicate bid")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidRating     = errors.New("invalid rating")
	ErrNotEligible       = errors.New("not eligible")
	ErrInvalidInput      = errors.New("invalid input")
	ErrUnavailable       = errors.New("unavailable")
)

// Kind names a failure category independently of its message.
type Kind string

const (
	KindNotFound          Kind = "not_found"
	KindInvalidState      Kind = "invalid_state"
	KindIllegalTransition Kind = "illegal_transition"
	KindForbidden         Kind = "forbidden"
	KindDuplicateBid      Kind = "duplicate_bid"
	KindInvalidAmount     Kind = "invalid_amount"
	KindInvalidRating     Kind = "invalid_rating"
	KindNotEligible       Kind = "not_eligible"
	KindInvalidInput      Kind = "invalid_input"
	KindUnavailable       Kind = "unavailable"
	KindInternal          Kind = "internal"
)

// Checked in order: IllegalTransition also matches InvalidState, so it must come first.
var kinds = []struct {
	kind     Kind
	sentinel error
}{
	{KindIllegalTransition, ErrIllegalTransition},
	{KindInvalidState, ErrInvalidState},
	{KindForbidden, ErrForbidden},
	{KindDuplicateBid, ErrDuplicateBid},
	{KindInvalidAmount, ErrInvalidAmount},
	{KindInvalidRating, ErrInvalidRating},
	{KindNotEligible, ErrNotEligible},
	{KindNotFound, ErrNotFound},
	{KindInvalidInput, ErrInvalidInput},
	{KindUnavailable, ErrUnavailable},
}

// KindOf reports the kind of err. Errors outside the taxonomy are KindInternal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.sentinel) {
			return k.kind
		}
	}
	return KindInternal
}

// Error is a business-rule rejection carrying a sentinel kind plus context for callers.
type Error struct {
	Sentinel error
	Message  string
	Details  map[string]any
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Sentinel.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Sentinel }

// New builds an *Error of the sentinel's kind.
func New(sentinel error, format string, args ...any) *Error {
	return &Error{Sentinel: sentinel, Message: fmt.Sprintf(format, args...)}
}

// WithDetails attaches structured context surfaced by the transport.
func (e *Error) WithDetails(details map[string]any) *Error {
	e.Details = details
	return e
}

// DetailsOf returns the details of the first *Error in err's chain.
func DetailsOf(err error) map[string]any {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Details
	}
	var d interface{ Details() map[string]any }
	if errors.As(err, &d) {
		return d.Details()
	}
	return nil
}

// Unavailable marks a collaborator fault as retryable, keeping the cause in the chain.
func Unavailable(err error) error {
	if err == nil || errors.Is(err, ErrUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}

func NotFound(entity, id string) *Error {
	return New(ErrNotFound, "%s %s not found", entity, id).WithDetails(map[string]any{"entity": entity, "id": id})
}

func Forbidden(action, reason string) *Error {
	return New(ErrForbidden, "%s: %s", action, reason).WithDetails(map[string]any{"action": action})
}

func InvalidInput(format string, args ...any) *Error {
	return New(ErrInvalidInput, format, args...)
}
