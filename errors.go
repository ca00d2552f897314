package fastenum

import (
	"errors"
	"fmt"
)

// ErrNotRegistered is returned when an operation needs the member table of
// a type that no generated code registered.
var ErrNotRegistered = errors.New("fastenum: enumeration not registered")

// ParseError reports text that names no member of an enumeration and is
// not a number in the range of its underlying type.
type ParseError struct {
	Type  string // enumeration type name
	Input string
	Err   error // optional cause
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fastenum: cannot parse %q as %s: %v", e.Input, e.Type, e.Err)
	}
	return fmt.Sprintf("fastenum: cannot parse %q as %s", e.Input, e.Type)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
