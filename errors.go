package excelei

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrFormat reports text that could not be parsed into the requested type.
	ErrFormat = errors.New("format error")
	// ErrInvalidCast reports a non-text value that is incompatible with the requested type.
	ErrInvalidCast = errors.New("invalid cast")
	// ErrConfiguration reports caller misuse: unknown columns, bad members, duplicate indices.
	ErrConfiguration = errors.New("configuration error")
	// ErrIndexOutOfRange reports a row index outside the logical table.
	ErrIndexOutOfRange = errors.New("index out of range")
)

func configErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}

// ConversionError describes a failed cell value conversion.
// Kind is either ErrFormat or ErrInvalidCast.
type ConversionError struct {
	Value  any
	Target reflect.Type
	Kind   error
	Err    error
}

func (e *ConversionError) Error() string {
	msg := fmt.Sprintf("%v: cannot convert %T(%v) to %s", e.Kind, e.Value, e.Value, e.Target)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConversionError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func formatError(value any, target reflect.Type, err error) error {
	return &ConversionError{Value: value, Target: target, Kind: ErrFormat, Err: err}
}

func castError(value any, target reflect.Type, err error) error {
	return &ConversionError{Value: value, Target: target, Kind: ErrInvalidCast, Err: err}
}

// MappingError is returned when a row cannot be mapped onto the target type.
type MappingError struct {
	Row    int    // 0-based ordinal of the row within the read
	Column string // source column, empty for whole-row failures
	Member string // target member, empty for whole-row failures
	Err    error
}

func (e *MappingError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("row %d: %v", e.Row, e.Err)
	}
	return fmt.Sprintf("row %d: column %q -> %s: %v", e.Row, e.Column, e.Member, e.Err)
}

func (e *MappingError) Unwrap() error { return e.Err }
