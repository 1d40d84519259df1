// Package bserr defines the error kinds every BinSchema component raises.
//
// The core never recovers from a failure (spec §7): every error aborts the
// current encode or decode and is returned to the caller carrying a type
// path such as "Message.answer.name[2]".
package bserr

import "fmt"

// Kind is one of the closed set of error kinds a BinSchema operation can fail
// with. Kinds are matched by callers with Is or KindOf, never by parsing the
// message text.
type Kind string

const (
	KindSchemaInvalid          Kind = "schema_invalid"
	KindTypeNotFound            Kind = "type_not_found"
	KindReservedFieldName       Kind = "reserved_field_name"
	KindLengthFieldMissing      Kind = "length_field_missing"
	KindConstMismatch           Kind = "const_mismatch"
	KindComputedFieldSet        Kind = "computed_field_set"
	KindUnexpectedEndOfStream   Kind = "unexpected_end_of_stream"
	KindMisalignedRead          Kind = "misaligned_read"
	KindUTF8DecodeError         Kind = "utf8_decode_error"
	KindASCIIOutOfRange         Kind = "ascii_out_of_range"
	KindDiscriminatorNoMatch    Kind = "discriminator_no_match"
	KindPointerTargetMissing    Kind = "pointer_target_missing"
	KindLengthExceedsPrefixRange Kind = "length_exceeds_prefix_range"
	KindExpressionError         Kind = "expression_error"
	KindPositionOutOfBounds     Kind = "position_out_of_bounds"
	KindCycleWithoutPointer     Kind = "cycle_without_pointer"
)

// Error is the concrete error type every core package returns. Path is a
// dotted/indexed field path (TypeName.field[.subfield][index]) pointing at
// the field that failed; it is empty only for schema-wide failures that
// precede any field being visited.
type Error struct {
	Kind Kind
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s at %s: %v", e.Kind, e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an *Error from a kind, a field path and a formatted message.
func New(kind Kind, path string, format string, args ...any) *Error {
	return &Error{Kind: kind, Path: path, Err: fmt.Errorf(format, args...)}
}

// Wrap attaches a kind and path to an existing error without discarding it.
func Wrap(kind Kind, path string, err error) *Error {
	return &Error{Kind: kind, Path: path, Err: err}
}

// WithPath returns a copy of err re-rooted under prefix, so that a failure
// deep in a nested type accumulates its full path as it unwinds. Non-*Error
// values are returned unchanged, with no kind and no path attached; callers
// that need a specific kind should use Wrap instead.
func WithPath(prefix string, err error) error {
	if err == nil {
		return nil
	}
	var be *Error
	if asError(err, &be) {
		joined := be.Path
		if prefix != "" {
			if joined == "" {
				joined = prefix
			} else {
				joined = prefix + "." + joined
			}
		}
		return &Error{Kind: be.Kind, Path: joined, Err: be.Err}
	}
	return err
}

func asError(err error, target **Error) bool {
	for err != nil {
		if be, ok := err.(*Error); ok {
			*target = be
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// KindOf reports the Kind carried by err, walking Unwrap chains, and whether
// err (or something it wraps) is a *Error at all.
func KindOf(err error) (Kind, bool) {
	var be *Error
	if asError(err, &be) {
		return be.Kind, true
	}
	return "", false
}

// Is reports whether err (or something it wraps) is a *Error whose Kind
// equals kind — shorthand for checking the result of KindOf.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
