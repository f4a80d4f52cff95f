package tarblock

import (
	"errors"
	"fmt"

	"golang.org/x/xerrors"

	"github.com/tarblock/tarblock/internal/header"
)

// ErrorKind classifies an *Error.
type ErrorKind int

const (
	// KindInvalid covers caller-supplied garbage: forbidden path
	// components, empty target path, archiving the archive's own output
	// path, a Contiguous entry, or a name ustar prefix-splitting cannot
	// represent.
	KindInvalid ErrorKind = iota
	// KindNotFound means the source path does not exist.
	KindNotFound
	// KindUnsupported means the entry kind cannot be represented in the
	// writer's active Format, or the source is a socket or other
	// unrecognized filesystem object.
	KindUnsupported
	// KindIllegalState means the method was called in a state that
	// forbids it: admission during Streaming, streaming in Callback
	// mode, a double stream_begin, stream_data/stream_complete with no
	// stream in progress, use of a closed writer, or a duplicate
	// regular-file name.
	KindIllegalState
	// KindIo means the underlying sink, source file, or host capability
	// reported an I/O failure.
	KindIo
	// KindCodec means the compressor reported a failure.
	KindCodec
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalid:
		return "Invalid"
	case KindNotFound:
		return "NotFound"
	case KindUnsupported:
		return "Unsupported"
	case KindIllegalState:
		return "IllegalState"
	case KindIo:
		return "Io"
	case KindCodec:
		return "Codec"
	default:
		return "ErrorKind(?)"
	}
}

// Error is the single error type returned from every exported function in
// this package. Its Kind classifies the failure; callers
// that only care about the kind can use errors.Is with the matching
// ErrKind sentinel below, or errors.As to recover the *Error itself and
// inspect Unwrap() for the underlying cause.
type Error struct {
	Kind ErrorKind
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		// e.err already has msg baked in as its xerrors.Errorf prefix
		// (see newError), so formatting it alongside e.msg here again
		// would print the message twice.
		return fmt.Sprintf("tarblock: %v", e.err)
	}
	return fmt.Sprintf("tarblock: %s", e.msg)
}

// Unwrap exposes the wrapped cause, if any, for errors.Is/errors.As.
func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is the sentinel for e.Kind, so that
// errors.Is(err, tarblock.ErrInvalid) works without requiring callers to
// type-assert *Error themselves.
func (e *Error) Is(target error) bool {
	sentinel, ok := target.(*kindSentinel)
	return ok && sentinel.kind == e.Kind
}

// kindSentinel is the comparison target for errors.Is(err, ErrXxx).
type kindSentinel struct {
	kind ErrorKind
}

func (s *kindSentinel) Error() string { return "tarblock: " + s.kind.String() }

// Sentinels for errors.Is, one per ErrorKind.
var (
	ErrInvalid      error = &kindSentinel{KindInvalid}
	ErrNotFound     error = &kindSentinel{KindNotFound}
	ErrUnsupported  error = &kindSentinel{KindUnsupported}
	ErrIllegalState error = &kindSentinel{KindIllegalState}
	ErrIo           error = &kindSentinel{KindIo}
	ErrCodec        error = &kindSentinel{KindCodec}
)

func newError(kind ErrorKind, cause error, format string, args ...interface{}) *Error {
	msg := fmt.Sprintf(format, args...)
	if cause != nil {
		return &Error{Kind: kind, msg: msg, err: xerrors.Errorf("%s: %w", msg, cause)}
	}
	return &Error{Kind: kind, msg: msg}
}

func invalidf(format string, args ...interface{}) *Error {
	return newError(KindInvalid, nil, format, args...)
}

func notFoundf(cause error, format string, args ...interface{}) *Error {
	return newError(KindNotFound, cause, format, args...)
}

func unsupportedf(format string, args ...interface{}) *Error {
	return newError(KindUnsupported, nil, format, args...)
}

func illegalStatef(format string, args ...interface{}) *Error {
	return newError(KindIllegalState, nil, format, args...)
}

func ioErrorf(cause error, format string, args ...interface{}) *Error {
	return newError(KindIo, cause, format, args...)
}

func codecf(cause error, format string, args ...interface{}) *Error {
	return newError(KindCodec, cause, format, args...)
}

// wrapHeaderErr maps the sentinel errors from internal/header onto the
// matching Error kinds.
func wrapHeaderErr(err error, name string) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, header.ErrContiguous):
		return invalidf("entry %q: contiguous-file entries are not supported", name)
	case errors.Is(err, header.ErrNameTooLong):
		return invalidf("entry %q: name too long for this format", name)
	case errors.Is(err, header.ErrUnsupportedKind):
		return unsupportedf("entry %q: kind not representable in this format", name)
	default:
		return ioErrorf(err, "building header for %q", name)
	}
}
