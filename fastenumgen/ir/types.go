// Package ir defines the descriptor model shared by every stage of the
// enumeration generator.
//
// Descriptors are plain values: they hold no references into go/types or
// go/ast, compare by content, and are never mutated after construction.
// That is what lets the pipeline cache each stage by the structural key of
// its input.
package ir

import (
	"fmt"
	"strings"
)

// Source represents a location in Go source code.
type Source struct {
	File   string
	Line   int
	Column int
}

// IsZero returns true if the source location is empty.
func (s Source) IsZero() bool {
	return s.File == "" && s.Line == 0 && s.Column == 0
}

func (s Source) String() string {
	if s.IsZero() {
		return "-"
	}
	return fmt.Sprintf("%s:%d:%d", s.File, s.Line, s.Column)
}

// NumericKind is the underlying integer type of an enumeration.
type NumericKind string

const (
	Int8   NumericKind = "int8"
	Int16  NumericKind = "int16"
	Int32  NumericKind = "int32"
	Int64  NumericKind = "int64"
	Uint8  NumericKind = "uint8"
	Uint16 NumericKind = "uint16"
	Uint32 NumericKind = "uint32"
	Uint64 NumericKind = "uint64"

	// Int and Uint are the platform-sized kinds.
	Int  NumericKind = "int"
	Uint NumericKind = "uint"
)

var kindBits = map[NumericKind]int{
	Int8: 8, Int16: 16, Int32: 32, Int64: 64,
	Uint8: 8, Uint16: 16, Uint32: 32, Uint64: 64,
	Int: 0, Uint: 0,
}

// ParseNumericKind maps a Go basic type name to a NumericKind.
// The aliases byte and rune are accepted.
func ParseNumericKind(name string) (NumericKind, bool) {
	switch name {
	case "byte":
		return Uint8, true
	case "rune":
		return Int32, true
	}
	k := NumericKind(name)
	_, ok := kindBits[k]
	return k, ok
}

// Signed reports whether values of the kind carry a sign.
func (k NumericKind) Signed() bool {
	return strings.HasPrefix(string(k), "int")
}

// Bits returns the bit size to pass to strconv. Platform-sized kinds
// return 0, which strconv treats as the native int size.
func (k NumericKind) Bits() int {
	return kindBits[k]
}

// GoType returns the Go spelling of the kind.
func (k NumericKind) GoType() string {
	return string(k)
}

// Visibility is the accessibility of an enumeration outside its package.
type Visibility string

const (
	// Public enumerations have an exported type name.
	Public Visibility = "public"
	// Restricted enumerations are unexported and only usable in their package.
	Restricted Visibility = "restricted"
)

// MetadataSource selects which member directive supplies display labels.
type MetadataSource string

const (
	MetadataNone        MetadataSource = "none"
	MetadataDescription MetadataSource = "description"
	MetadataDisplay     MetadataSource = "display"
	MetadataJSON        MetadataSource = "json"
)

// DefaultMetadataSource applies when neither the marker nor the project
// configuration selects a source.
const DefaultMetadataSource = MetadataDisplay

// ParseMetadataSource validates a metadata source name.
func ParseMetadataSource(s string) (MetadataSource, bool) {
	switch m := MetadataSource(s); m {
	case MetadataNone, MetadataDescription, MetadataDisplay, MetadataJSON:
		return m, true
	}
	return "", false
}

// ResolveMetadataSource picks the active source for one enumeration: an
// explicit marker override, else the project default, else
// DefaultMetadataSource. Empty or unknown values fall through.
func ResolveMetadataSource(override, project string) MetadataSource {
	if m, ok := ParseMetadataSource(override); ok {
		return m
	}
	if m, ok := ParseMetadataSource(project); ok {
		return m
	}
	return DefaultMetadataSource
}

// SanitizeName turns a qualified name such as "example.com/paint.Color"
// into a string usable in file names and Go identifiers.
func SanitizeName(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
