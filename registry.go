// Package fastenum is the reflection-based enumeration API.
//
// Every function here looks the enumeration up by its reflect.Type in a
// member table that generated code registers from an init function. The
// generator in fastenumgen emits the same operations as plain switch
// statements and can redirect calls to this package to those fast paths.
package fastenum

import (
	"reflect"
	"strconv"
	"sync"

	"golang.org/x/exp/constraints"
)

// Enum is satisfied by any defined integer type.
type Enum interface {
	constraints.Integer
}

// Member is one named constant of an enumeration, as registered by
// generated code. Label is empty when the constant carries no display text.
type Member[T Enum] struct {
	Name  string
	Label string
	Value T
}

type member struct {
	name  string
	label string
	bits  uint64 // value widened to 64 bits, sign-extended for signed kinds
}

func (m member) display() string {
	if m.label != "" {
		return m.label
	}
	return m.name
}

type table struct {
	typ     reflect.Type
	flags   bool
	members []member
}

var registry = struct {
	mu     sync.RWMutex
	tables map[reflect.Type]*table
}{tables: make(map[reflect.Type]*table)}

// Register records the members of T in declaration order. Duplicate values
// are kept; lookups by value resolve to the first member declared with it.
// Registering the same type again replaces the previous table.
func Register[T Enum](flags bool, members ...Member[T]) {
	t := &table{
		typ:     reflect.TypeFor[T](),
		flags:   flags,
		members: make([]member, 0, len(members)),
	}
	for _, m := range members {
		t.members = append(t.members, member{
			name:  m.Name,
			label: m.Label,
			bits:  bitsOf(reflect.ValueOf(m.Value)),
		})
	}

	registry.mu.Lock()
	registry.tables[t.typ] = t
	registry.mu.Unlock()
}

// IsFlags reports whether T was registered as a flags enumeration.
func IsFlags[T Enum]() bool {
	t, err := lookup(reflect.TypeFor[T]())
	return err == nil && t.flags
}

func lookup(typ reflect.Type) (*table, error) {
	registry.mu.RLock()
	t, ok := registry.tables[typ]
	registry.mu.RUnlock()
	if !ok {
		return nil, ErrNotRegistered
	}
	return t, nil
}

func (t *table) byBits(bits uint64) (member, bool) {
	for _, m := range t.members {
		if m.bits == bits {
			return m, true
		}
	}
	return member{}, false
}

func signed(typ reflect.Type) bool {
	switch typ.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return false
}

func bitsOf(v reflect.Value) uint64 {
	if signed(v.Type()) {
		return uint64(v.Int())
	}
	return v.Uint()
}

func fromBits[T Enum](typ reflect.Type, bits uint64) T {
	v := reflect.New(typ).Elem()
	if signed(typ) {
		v.SetInt(int64(bits))
	} else {
		v.SetUint(bits)
	}
	return v.Interface().(T)
}

func formatBits(typ reflect.Type, bits uint64) string {
	if signed(typ) {
		return strconv.FormatInt(int64(bits), 10)
	}
	return strconv.FormatUint(bits, 10)
}

// parseBits parses decimal text into the value range of typ.
func parseBits(typ reflect.Type, s string) (uint64, bool) {
	size := typ.Bits()
	if signed(typ) {
		n, err := strconv.ParseInt(s, 10, size)
		if err != nil {
			return 0, false
		}
		return uint64(n), true
	}
	n, err := strconv.ParseUint(s, 10, size)
	if err != nil {
		return 0, false
	}
	return n, true
}

var underlyingTypes = map[reflect.Kind]reflect.Type{
	reflect.Int:     reflect.TypeFor[int](),
	reflect.Int8:    reflect.TypeFor[int8](),
	reflect.Int16:   reflect.TypeFor[int16](),
	reflect.Int32:   reflect.TypeFor[int32](),
	reflect.Int64:   reflect.TypeFor[int64](),
	reflect.Uint:    reflect.TypeFor[uint](),
	reflect.Uint8:   reflect.TypeFor[uint8](),
	reflect.Uint16:  reflect.TypeFor[uint16](),
	reflect.Uint32:  reflect.TypeFor[uint32](),
	reflect.Uint64:  reflect.TypeFor[uint64](),
	reflect.Uintptr: reflect.TypeFor[uintptr](),
}
