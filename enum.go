package fastenum

import (
	"reflect"
	"strconv"
	"strings"
)

// Name returns the display name of v: the label registered for the first
// member with the value of v, else that member's name, else v in decimal.
func Name[T Enum](v T) string {
	typ := reflect.TypeFor[T]()
	bits := bitsOf(reflect.ValueOf(v))
	if t, err := lookup(typ); err == nil {
		if m, ok := t.byBits(bits); ok {
			return m.display()
		}
	}
	return formatBits(typ, bits)
}

// AppendName appends the display name of v to dst.
func AppendName[T Enum](dst []byte, v T) []byte {
	return append(dst, Name(v)...)
}

// Format renders v according to format:
//
//	"", "G", "g"  same as Name
//	"D", "d"      decimal value
//	"X", "x"      hexadecimal, zero-padded to the size of T
//	"F", "f"      Name, or the names of its set bits joined by ", "
//
// Any other format is treated as "G".
func Format[T Enum](v T, format string) string {
	typ := reflect.TypeFor[T]()
	bits := bitsOf(reflect.ValueOf(v))
	switch format {
	case "D", "d":
		return formatBits(typ, bits)
	case "X", "x":
		width := typ.Bits() / 4
		masked := bits
		if typ.Bits() < 64 {
			masked &= 1<<typ.Bits() - 1
		}
		s := strconv.FormatUint(masked, 16)
		if format == "X" {
			s = strings.ToUpper(s)
		}
		if len(s) < width {
			s = strings.Repeat("0", width-len(s)) + s
		}
		return s
	case "F", "f":
		return formatFlags(typ, bits)
	}
	return Name(v)
}

func formatFlags(typ reflect.Type, bits uint64) string {
	t, err := lookup(typ)
	if err != nil {
		return formatBits(typ, bits)
	}
	if m, ok := t.byBits(bits); ok {
		return m.display()
	}
	var parts []string
	rest := bits
	for _, m := range t.members {
		if m.bits == 0 || m.bits&bits != m.bits || rest&m.bits == 0 {
			continue
		}
		parts = append(parts, m.display())
		rest &^= m.bits
	}
	if rest != 0 || len(parts) == 0 {
		return formatBits(typ, bits)
	}
	return strings.Join(parts, ", ")
}

// HasFlag reports whether every bit of flag is set in v. A zero flag is
// always set.
func HasFlag[T Enum](v, flag T) bool {
	return flag == 0 || v&flag == flag
}

// IsDefined reports whether some member of T has the value v.
func IsDefined[T Enum](v T) bool {
	t, err := lookup(reflect.TypeFor[T]())
	if err != nil {
		return false
	}
	_, ok := t.byBits(bitsOf(reflect.ValueOf(v)))
	return ok
}

// IsDefinedName reports whether name is the exact name of a member of T,
// or decimal text for a value some member has. Labels are not consulted.
func IsDefinedName[T Enum](name string) bool {
	typ := reflect.TypeFor[T]()
	t, err := lookup(typ)
	if err != nil {
		return false
	}
	for _, m := range t.members {
		if m.name == name {
			return true
		}
	}
	if bits, ok := parseBits(typ, name); ok {
		_, ok = t.byBits(bits)
		return ok
	}
	return false
}

// Parse converts a member name, or decimal text in the range of the
// underlying type, to a value of T. Labels are not consulted.
func Parse[T Enum](s string, ignoreCase bool) (T, error) {
	typ := reflect.TypeFor[T]()
	t, err := lookup(typ)
	if err != nil {
		return 0, &ParseError{Type: typ.Name(), Input: s, Err: err}
	}
	for _, m := range t.members {
		if m.name == s || ignoreCase && strings.EqualFold(m.name, s) {
			return fromBits[T](typ, m.bits), nil
		}
	}
	if bits, ok := parseBits(typ, s); ok {
		return fromBits[T](typ, bits), nil
	}
	return 0, &ParseError{Type: typ.Name(), Input: s}
}

// TryParse is Parse without the error.
func TryParse[T Enum](s string, ignoreCase bool) (T, bool) {
	v, err := Parse[T](s, ignoreCase)
	return v, err == nil
}

// Names returns the member names of T in declaration order.
func Names[T Enum]() []string {
	t, err := lookup(reflect.TypeFor[T]())
	if err != nil {
		return nil
	}
	names := make([]string, len(t.members))
	for i, m := range t.members {
		names[i] = m.name
	}
	return names
}

// Values returns the member values of T in declaration order.
func Values[T Enum]() []T {
	typ := reflect.TypeFor[T]()
	t, err := lookup(typ)
	if err != nil {
		return nil
	}
	values := make([]T, len(t.members))
	for i, m := range t.members {
		values[i] = fromBits[T](typ, m.bits)
	}
	return values
}

// UnderlyingValues returns the member values of T converted to the
// underlying integer type of T.
func UnderlyingValues[T Enum]() []any {
	typ := reflect.TypeFor[T]()
	t, err := lookup(typ)
	if err != nil {
		return nil
	}
	base := underlyingTypes[typ.Kind()]
	values := make([]any, len(t.members))
	for i, m := range t.members {
		values[i] = reflect.ValueOf(fromBits[T](typ, m.bits)).Convert(base).Interface()
	}
	return values
}
