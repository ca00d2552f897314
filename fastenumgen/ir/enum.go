package ir

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/broady/fastenum/internal/keys"
)

// Value is a member value widened to 64 bits. Signed kinds use Int,
// unsigned kinds use Uint, so values compare by number rather than by the
// text they were declared with.
type Value struct {
	Unsigned bool
	Int      int64
	Uint     uint64
}

// ParseValue converts the exact decimal text of a constant into a Value of
// the given kind, rejecting text outside the kind's range.
func ParseValue(kind NumericKind, exact string) (Value, error) {
	if kind.Signed() {
		n, err := strconv.ParseInt(exact, 10, bitSize(kind))
		if err != nil {
			return Value{}, fmt.Errorf("value %s out of range for %s: %w", exact, kind, err)
		}
		return Value{Int: n}, nil
	}
	n, err := strconv.ParseUint(exact, 10, bitSize(kind))
	if err != nil {
		return Value{}, fmt.Errorf("value %s out of range for %s: %w", exact, kind, err)
	}
	return Value{Unsigned: true, Uint: n}, nil
}

// bitSize resolves platform-sized kinds to 64 so that every value the
// compiler accepted on a 64-bit host can be represented.
func bitSize(k NumericKind) int {
	if b := k.Bits(); b != 0 {
		return b
	}
	return 64
}

// String returns the value in decimal.
func (v Value) String() string {
	if v.Unsigned {
		return strconv.FormatUint(v.Uint, 10)
	}
	return strconv.FormatInt(v.Int, 10)
}

// MemberDescriptor describes one constant of an enumeration.
type MemberDescriptor struct {
	// Name is the constant identifier.
	Name string

	// Value is the constant value.
	Value Value

	// Label is the display text taken from the active metadata source.
	// Meaningful only when HasLabel is set.
	Label string

	// HasLabel is true when the active metadata source labelled this member.
	HasLabel bool

	// FirstWithLabel is true when HasLabel is set and no earlier member
	// carries the same label. Only such members take part in label lookups.
	FirstWithLabel bool

	// FirstWithValue is true when no earlier member has the same value.
	// Only such members answer value-to-name lookups.
	FirstWithValue bool
}

// DisplayName returns the label when present, else the constant name.
func (m MemberDescriptor) DisplayName() string {
	if m.HasLabel {
		return m.Label
	}
	return m.Name
}

// EnumDescriptor is the canonical description of one enumeration and of the
// extension unit generated for it.
type EnumDescriptor struct {
	// Name is the type name, e.g. "Color".
	Name string

	// Package is the import path of the package declaring the type.
	Package string

	// PackageName is the package clause name of Package.
	PackageName string

	// FullName is Package + "." + Name.
	FullName string

	// Underlying is the integer kind of the type.
	Underlying NumericKind

	// Flags enables bitwise generation.
	Flags bool

	Visibility Visibility

	// Metadata is the metadata source that produced member labels.
	Metadata MetadataSource

	// UnitName is the identifier of the generated extension value,
	// "<Name>Extensions" unless overridden.
	UnitName string

	// UnitPackage is the import path of the package receiving the unit.
	UnitPackage string

	// UnitPackageName is the package clause name of UnitPackage.
	UnitPackageName string

	// Members lists every constant in declaration order, duplicates included.
	Members []MemberDescriptor

	// UsesLabels is true when at least one member has a label.
	UsesLabels bool
}

// Equal reports whether two descriptors are structurally identical,
// members compared in order.
func (d *EnumDescriptor) Equal(o *EnumDescriptor) bool {
	if d == nil || o == nil {
		return d == o
	}
	return d.Name == o.Name &&
		d.Package == o.Package &&
		d.PackageName == o.PackageName &&
		d.FullName == o.FullName &&
		d.Underlying == o.Underlying &&
		d.Flags == o.Flags &&
		d.Visibility == o.Visibility &&
		d.Metadata == o.Metadata &&
		d.UnitName == o.UnitName &&
		d.UnitPackage == o.UnitPackage &&
		d.UnitPackageName == o.UnitPackageName &&
		d.UsesLabels == o.UsesLabels &&
		slices.Equal(d.Members, o.Members)
}

// Key returns the structural cache key of the descriptor. Equal
// descriptors have equal keys.
func (d *EnumDescriptor) Key() string {
	return keys.Of(d)
}

// FileName returns the name of the generated extension unit file.
func (d *EnumDescriptor) FileName() string {
	return SanitizeName(d.FullName) + "_fastenum.go"
}

// Foreign reports whether the unit is generated outside the enum's package.
func (d *EnumDescriptor) Foreign() bool {
	return d.UnitPackage != d.Package
}
