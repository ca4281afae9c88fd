// Package errs carries operation-scoped errors tagged with a sentinel kind.
//
// A kind is a package-level sentinel (numlist.ErrParse, grading.ErrValidation,
// repository.ErrStorage, ...). Handlers branch on the kind with errors.Is and
// show Message to the user.
package errs

import (
	"errors"
	"strings"
)

// Error is an error raised by operation Op, classified by Kind, with an
// optional underlying cause Err.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.detail())
	return b.String()
}

// detail is the message without the operation prefix.
func (e *Error) detail() string {
	switch {
	case e.Kind == nil && e.Err == nil:
		return "unknown error"
	case e.Kind == nil:
		return e.Err.Error()
	case e.Err == nil:
		return e.Kind.Error()
	default:
		return e.Kind.Error() + ": " + e.Err.Error()
	}
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// NewKind returns an error of the given kind with no cause.
func NewKind(op string, kind error) error {
	return &Error{Op: op, Kind: kind}
}

// WrapKind tags err with kind. A nil err yields NewKind(op, kind).
func WrapKind(op string, kind, err error) error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// Wrap records op on err and keeps the kind of err, if any.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Kind: KindOf(err), Err: stripKind(err)}
}

// KindOf returns the kind of the outermost *Error in err's chain, or nil.
func KindOf(err error) error {
	var e *Error
	for errors.As(err, &e) {
		if e.Kind != nil {
			return e.Kind
		}
		if e.Err == nil {
			return nil
		}
		err = e.Err
	}
	return nil
}

// Message returns a human readable text for err without operation prefixes.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		if e.Kind == nil && e.Err != nil {
			return Message(e.Err)
		}
		if e.Err != nil {
			return e.Kind.Error() + ": " + Message(e.Err)
		}
		return e.detail()
	}
	return err.Error()
}

// stripKind drops the outer kind of err so Wrap does not repeat it in Error().
func stripKind(err error) error {
	var e *Error
	if errors.As(err, &e) && e == err {
		if e.Err == nil {
			return nil
		}
		if e.Op == "" {
			return e.Err
		}
		return &Error{Op: e.Op, Err: e.Err}
	}
	return err
}
