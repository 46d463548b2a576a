package game

import (
	"errors"
	"fmt"
)

// Kind classifies engine failures so the transport layer can map them to
// status codes without matching on message strings.
type Kind int

const (
	// KindValidation: caller-supplied data or a start precondition is invalid.
	KindValidation Kind = iota
	// KindStateConflict: the operation is illegal in the game's current
	// status/sub_status. The error carries the actual state so the caller
	// can resynchronize.
	KindStateConflict
	// KindNotFound: game, player, team, phrase, or turn id is unknown.
	KindNotFound
	// KindForbidden: the actor is not the player the operation belongs to.
	KindForbidden
	// KindIntegrity: the turn-order ring is corrupted. Indicates a bug or a
	// broken prior transaction, never a normal user mistake.
	KindIntegrity
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindStateConflict:
		return "state_conflict"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindIntegrity:
		return "integrity"
	}
	return "unknown"
}

// Error is the structured rejection returned by every engine operation.
// Current and Expected are set for state conflicts.
type Error struct {
	Kind     Kind
	Reason   string
	Current  string
	Expected string
}

func (e *Error) Error() string {
	if e.Current != "" || e.Expected != "" {
		return fmt.Sprintf("%s: %s (current %q, expected %q)", e.Kind, e.Reason, e.Current, e.Expected)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

// KindOf extracts the Kind from err, or KindIntegrity if err is not an
// engine error (store failures are treated as internal).
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindIntegrity
}

func validationf(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Reason: fmt.Sprintf(format, args...)}
}

func conflictf(current, expected string, format string, args ...any) *Error {
	return &Error{Kind: KindStateConflict, Reason: fmt.Sprintf(format, args...), Current: current, Expected: expected}
}

func notFoundf(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Reason: fmt.Sprintf(format, args...)}
}

func forbiddenf(format string, args ...any) *Error {
	return &Error{Kind: KindForbidden, Reason: fmt.Sprintf(format, args...)}
}

func integrityf(format string, args ...any) *Error {
	return &Error{Kind: KindIntegrity, Reason: fmt.Sprintf(format, args...)}
}

// ErrNoEligiblePlayer is the distinguishable outcome of a ring traversal
// that finds no connected player. It is a valid result, not a corruption:
// callers decide whether to pause or reject.
var ErrNoEligiblePlayer = errors.New("no eligible player")
