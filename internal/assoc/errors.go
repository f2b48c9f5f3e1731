package assoc

import (
	"errors"
	"io/fs"
)

// AccessDeniedMessage is printed before a permission failure is returned.
const AccessDeniedMessage = "Access denied.  Make sure you run this command from an administrator prompt."

// Kind classifies a failed operation.
type Kind int

const (
	// KindIO is any store or filesystem failure not covered below.
	KindIO Kind = iota
	// KindNotFound means the companion launcher is missing.
	KindNotFound
	// KindPermission means the OS rejected a write.
	KindPermission
	// KindInvalid means the launcher path cannot be embedded in a command line.
	KindInvalid
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindPermission:
		return "permission denied"
	case KindInvalid:
		return "invalid"
	default:
		return "i/o error"
	}
}

// Blame says who has to act on an error.
type Blame int

const (
	// BlameSystem points at the machine or this program.
	BlameSystem Blame = iota
	// BlameHuman points at something the user can fix.
	BlameHuman
)

// Error is returned by the orchestrators.
type Error struct {
	Kind  Kind
	Blame Blame
	Op    string
	Err   error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// BlameOf returns the blame recorded in err, or BlameSystem.
func BlameOf(err error) Blame {
	var e *Error
	if errors.As(err, &e) {
		return e.Blame
	}
	return BlameSystem
}

// KindOf returns the kind recorded in err, or KindIO.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindIO
}

func classify(op string, err error) *Error {
	if errors.Is(err, fs.ErrPermission) {
		return &Error{Kind: KindPermission, Blame: BlameHuman, Op: op, Err: err}
	}
	return &Error{Kind: KindIO, Blame: BlameSystem, Op: op, Err: err}
}
