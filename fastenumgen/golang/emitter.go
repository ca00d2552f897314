// Package golang synthesizes the Go source of extension units.
//
// Emit is a pure function of its descriptor: equal descriptors produce
// byte-identical files, which is what lets the pipeline skip synthesis for
// enumerations whose descriptor did not change.
package golang

import (
	"bytes"
	"fmt"
	"go/format"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/broady/fastenum/fastenumgen/ir"
)

// RuntimePath is the import path of the reflection-based runtime package.
const RuntimePath = "github.com/broady/fastenum"

// Header starts every generated file.
const Header = "// Code generated by fastenum. DO NOT EDIT.\n"

// Emit returns the formatted extension unit for d.
func Emit(d *ir.EnumDescriptor) ([]byte, error) {
	if d == nil {
		return nil, fmt.Errorf("nil descriptor")
	}
	e := newEmitter(d)
	var buf bytes.Buffer
	e.emitFile(&buf)
	out, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("format unit for %s: %w", d.FullName, err)
	}
	return out, nil
}

// UnitType returns the unexported type name backing the extension value.
func UnitType(unitName string) string {
	r, size := utf8.DecodeRuneInString(unitName)
	lower := string(unicode.ToLower(r)) + unitName[size:]
	if lower == unitName {
		return unitName + "Impl"
	}
	return lower
}

// PackageAlias returns the import name used for the enumeration package in
// a unit placed in another package. It avoids the names the unit itself
// imports or declares.
func PackageAlias(d *ir.EnumDescriptor) string {
	alias := d.PackageName
	switch alias {
	case "strconv", "strings", "fastenum", d.UnitPackageName:
		alias += "pkg"
	}
	return alias
}

type emitter struct {
	d        *ir.EnumDescriptor
	typ      string // enum type as spelled inside the unit
	qual     string // qualifier for enum package identifiers, with dot
	unitType string
}

func newEmitter(d *ir.EnumDescriptor) *emitter {
	e := &emitter{d: d, unitType: UnitType(d.UnitName)}
	if d.Foreign() {
		e.qual = PackageAlias(d) + "."
	}
	e.typ = e.qual + d.Name
	return e
}

func (e *emitter) emitFile(buf *bytes.Buffer) {
	d := e.d
	buf.WriteString(Header)
	buf.WriteString("\n")
	fmt.Fprintf(buf, "package %s\n\n", d.UnitPackageName)

	buf.WriteString("import (\n")
	buf.WriteString("\t\"strconv\"\n")
	if len(d.Members) > 0 {
		buf.WriteString("\t\"strings\"\n")
	}
	buf.WriteString("\n")
	fmt.Fprintf(buf, "\t%q\n", RuntimePath)
	if d.Foreign() {
		fmt.Fprintf(buf, "\t%s %q\n", PackageAlias(d), d.Package)
	}
	buf.WriteString(")\n\n")

	fmt.Fprintf(buf, "// %s provides reflection-free operations for %s.\n", d.UnitName, d.Name)
	fmt.Fprintf(buf, "var %s %s\n\n", d.UnitName, e.unitType)
	fmt.Fprintf(buf, "type %s struct{}\n\n", e.unitType)

	e.emitRegister(buf)
	e.emitToString(buf)
	e.emitAppendString(buf)
	e.emitIsDefined(buf)
	e.emitIsDefinedName(buf)
	e.emitTryParse(buf)
	e.emitParse(buf)
	if d.Flags {
		e.emitHasFlag(buf)
	}
	e.emitLists(buf)
}

// locals are the parameter, receiver and variable names declared by unit
// methods. A same-package constant with one of these names is shadowed.
var locals = map[string]bool{
	"v": true, "dst": true, "flag": true, "name": true, "ignoreCase": true,
	"allowLabelMatch": true, "x": true, "n": true, "err": true, "ok": true,
}

// ref returns an expression for member m usable inside the unit.
func (e *emitter) ref(m ir.MemberDescriptor) string {
	if !e.d.Foreign() {
		if locals[m.Name] {
			return e.typ + "(" + m.Value.String() + ")"
		}
		return m.Name
	}
	if r, _ := utf8.DecodeRuneInString(m.Name); unicode.IsUpper(r) {
		return e.qual + m.Name
	}
	return e.typ + "(" + m.Value.String() + ")"
}

// valueMembers are the members answering lookups by value.
func (e *emitter) valueMembers() []ir.MemberDescriptor {
	var ms []ir.MemberDescriptor
	for _, m := range e.d.Members {
		if m.FirstWithValue {
			ms = append(ms, m)
		}
	}
	return ms
}

// labelMembers are the members answering lookups by label.
func (e *emitter) labelMembers() []ir.MemberDescriptor {
	var ms []ir.MemberDescriptor
	for _, m := range e.d.Members {
		if m.FirstWithLabel {
			ms = append(ms, m)
		}
	}
	return ms
}

func (e *emitter) formatNumber(expr string) string {
	if e.d.Underlying.Signed() {
		return fmt.Sprintf("strconv.FormatInt(int64(%s), 10)", expr)
	}
	return fmt.Sprintf("strconv.FormatUint(uint64(%s), 10)", expr)
}

func (e *emitter) appendNumber(dst, expr string) string {
	if e.d.Underlying.Signed() {
		return fmt.Sprintf("strconv.AppendInt(%s, int64(%s), 10)", dst, expr)
	}
	return fmt.Sprintf("strconv.AppendUint(%s, uint64(%s), 10)", dst, expr)
}

func (e *emitter) parseNumber(expr string) string {
	if e.d.Underlying.Signed() {
		return fmt.Sprintf("strconv.ParseInt(%s, 10, %d)", expr, e.d.Underlying.Bits())
	}
	return fmt.Sprintf("strconv.ParseUint(%s, 10, %d)", expr, e.d.Underlying.Bits())
}

func (e *emitter) emitRegister(buf *bytes.Buffer) {
	buf.WriteString("func init() {\n")
	fmt.Fprintf(buf, "\tfastenum.Register[%s](%t,\n", e.typ, e.d.Flags)
	for _, m := range e.d.Members {
		fmt.Fprintf(buf, "\t\tfastenum.Member[%s]{Name: %s, ", e.typ, strconv.Quote(m.Name))
		if m.HasLabel {
			fmt.Fprintf(buf, "Label: %s, ", strconv.Quote(m.Label))
		}
		fmt.Fprintf(buf, "Value: %s},\n", e.ref(m))
	}
	buf.WriteString("\t)\n}\n\n")
}

func (e *emitter) emitToString(buf *bytes.Buffer) {
	buf.WriteString("// ToStringFast returns the label of v, or its constant name, or its\n")
	buf.WriteString("// decimal value when v matches no constant.\n")
	fmt.Fprintf(buf, "func (%s) ToStringFast(v %s) string {\n", e.unitType, e.typ)
	if ms := e.valueMembers(); len(ms) > 0 {
		buf.WriteString("\tswitch v {\n")
		for _, m := range ms {
			fmt.Fprintf(buf, "\tcase %s:\n\t\treturn %s\n", e.ref(m), strconv.Quote(m.DisplayName()))
		}
		buf.WriteString("\t}\n")
	}
	fmt.Fprintf(buf, "\treturn %s\n}\n\n", e.formatNumber("v"))
}

func (e *emitter) emitAppendString(buf *bytes.Buffer) {
	buf.WriteString("// AppendString appends the result of ToStringFast to dst.\n")
	fmt.Fprintf(buf, "func (%s) AppendString(dst []byte, v %s) []byte {\n", e.unitType, e.typ)
	if ms := e.valueMembers(); len(ms) > 0 {
		buf.WriteString("\tswitch v {\n")
		for _, m := range ms {
			fmt.Fprintf(buf, "\tcase %s:\n\t\treturn append(dst, %s...)\n", e.ref(m), strconv.Quote(m.DisplayName()))
		}
		buf.WriteString("\t}\n")
	}
	fmt.Fprintf(buf, "\treturn %s\n}\n\n", e.appendNumber("dst", "v"))
}

func (e *emitter) emitIsDefined(buf *bytes.Buffer) {
	buf.WriteString("// IsDefined reports whether a constant has the value v.\n")
	fmt.Fprintf(buf, "func (%s) IsDefined(v %s) bool {\n", e.unitType, e.typ)
	if ms := e.valueMembers(); len(ms) > 0 {
		refs := make([]string, len(ms))
		for i, m := range ms {
			refs[i] = e.ref(m)
		}
		buf.WriteString("\tswitch v {\n")
		fmt.Fprintf(buf, "\tcase %s:\n\t\treturn true\n", strings.Join(refs, ", "))
		buf.WriteString("\t}\n")
	}
	buf.WriteString("\treturn false\n}\n\n")
}

func quoteAll(ss []string) string {
	q := make([]string, len(ss))
	for i, s := range ss {
		q[i] = strconv.Quote(s)
	}
	return strings.Join(q, ", ")
}

func (e *emitter) names() []string {
	names := make([]string, len(e.d.Members))
	for i, m := range e.d.Members {
		names[i] = m.Name
	}
	return names
}

func (e *emitter) emitIsDefinedName(buf *bytes.Buffer) {
	buf.WriteString("// IsDefinedName reports whether name is a label (when allowLabelMatch is\n")
	buf.WriteString("// set), a constant name, or the decimal value of a constant.\n")
	fmt.Fprintf(buf, "func (x %s) IsDefinedName(name string, allowLabelMatch bool) bool {\n", e.unitType)
	if e.d.UsesLabels {
		labels := make([]string, 0, len(e.d.Members))
		for _, m := range e.labelMembers() {
			labels = append(labels, m.Label)
		}
		buf.WriteString("\tif allowLabelMatch {\n\t\tswitch name {\n")
		fmt.Fprintf(buf, "\t\tcase %s:\n\t\t\treturn true\n", quoteAll(labels))
		buf.WriteString("\t\t}\n\t}\n")
	}
	if len(e.d.Members) > 0 {
		buf.WriteString("\tswitch name {\n")
		fmt.Fprintf(buf, "\tcase %s:\n\t\treturn true\n", quoteAll(e.names()))
		buf.WriteString("\t}\n")
	}
	fmt.Fprintf(buf, "\tif n, err := %s; err == nil {\n", e.parseNumber("name"))
	fmt.Fprintf(buf, "\t\treturn x.IsDefined(%s(n))\n\t}\n", e.typ)
	buf.WriteString("\treturn false\n}\n\n")
}

// emitMatch writes a switch returning the value of the first member whose
// text equals name, honoring ignoreCase.
func (e *emitter) emitMatch(buf *bytes.Buffer, indent string, ms []ir.MemberDescriptor, text func(ir.MemberDescriptor) string) {
	fmt.Fprintf(buf, "%sif ignoreCase {\n%s\tswitch {\n", indent, indent)
	for _, m := range ms {
		fmt.Fprintf(buf, "%s\tcase strings.EqualFold(name, %s):\n%s\t\treturn %s, true\n", indent, strconv.Quote(text(m)), indent, e.ref(m))
	}
	fmt.Fprintf(buf, "%s\t}\n%s} else {\n%s\tswitch name {\n", indent, indent, indent)
	for _, m := range ms {
		fmt.Fprintf(buf, "%s\tcase %s:\n%s\t\treturn %s, true\n", indent, strconv.Quote(text(m)), indent, e.ref(m))
	}
	fmt.Fprintf(buf, "%s\t}\n%s}\n", indent, indent)
}

func (e *emitter) emitTryParse(buf *bytes.Buffer) {
	buf.WriteString("// TryParse resolves name by label (when allowLabelMatch is set), then by\n")
	buf.WriteString("// constant name, then as a decimal number. ignoreCase uses simple Unicode\n")
	buf.WriteString("// case folding.\n")
	fmt.Fprintf(buf, "func (%s) TryParse(name string, ignoreCase, allowLabelMatch bool) (%s, bool) {\n", e.unitType, e.typ)
	if e.d.UsesLabels {
		buf.WriteString("\tif allowLabelMatch {\n")
		e.emitMatch(buf, "\t\t", e.labelMembers(), func(m ir.MemberDescriptor) string { return m.Label })
		buf.WriteString("\t}\n")
	}
	if len(e.d.Members) > 0 {
		e.emitMatch(buf, "\t", e.d.Members, func(m ir.MemberDescriptor) string { return m.Name })
	}
	fmt.Fprintf(buf, "\tif n, err := %s; err == nil {\n", e.parseNumber("name"))
	fmt.Fprintf(buf, "\t\treturn %s(n), true\n\t}\n", e.typ)
	buf.WriteString("\treturn 0, false\n}\n\n")
}

func (e *emitter) emitParse(buf *bytes.Buffer) {
	buf.WriteString("// Parse is TryParse returning a *fastenum.ParseError on failure.\n")
	fmt.Fprintf(buf, "func (x %s) Parse(name string, ignoreCase, allowLabelMatch bool) (%s, error) {\n", e.unitType, e.typ)
	buf.WriteString("\tif v, ok := x.TryParse(name, ignoreCase, allowLabelMatch); ok {\n\t\treturn v, nil\n\t}\n")
	fmt.Fprintf(buf, "\treturn 0, &fastenum.ParseError{Type: %s, Input: name}\n}\n\n", strconv.Quote(e.d.Name))
}

func (e *emitter) emitHasFlag(buf *bytes.Buffer) {
	buf.WriteString("// HasFlag reports whether every bit of flag is set in v. A zero flag is\n")
	buf.WriteString("// always set.\n")
	fmt.Fprintf(buf, "func (%s) HasFlag(v, flag %s) bool {\n", e.unitType, e.typ)
	buf.WriteString("\treturn flag == 0 || v&flag == flag\n}\n\n")
}

func (e *emitter) emitLists(buf *bytes.Buffer) {
	d := e.d

	buf.WriteString("// Names returns a new slice of the constant names in declaration order.\n")
	fmt.Fprintf(buf, "func (%s) Names() []string {\n", e.unitType)
	fmt.Fprintf(buf, "\treturn []string{%s}\n}\n\n", quoteAll(e.names()))

	labels := make([]string, len(d.Members))
	for i, m := range d.Members {
		labels[i] = m.DisplayName()
	}
	buf.WriteString("// Labels returns a new slice of the ToStringFast text of each constant.\n")
	fmt.Fprintf(buf, "func (%s) Labels() []string {\n", e.unitType)
	fmt.Fprintf(buf, "\treturn []string{%s}\n}\n\n", quoteAll(labels))

	refs := make([]string, len(d.Members))
	nums := make([]string, len(d.Members))
	for i, m := range d.Members {
		refs[i] = e.ref(m)
		nums[i] = m.Value.String()
	}
	buf.WriteString("// Values returns a new slice of the constants in declaration order.\n")
	fmt.Fprintf(buf, "func (%s) Values() []%s {\n", e.unitType, e.typ)
	fmt.Fprintf(buf, "\treturn []%s{%s}\n}\n\n", e.typ, strings.Join(refs, ", "))

	fmt.Fprintf(buf, "// UnderlyingValues returns a new slice of the constants as %s.\n", d.Underlying.GoType())
	fmt.Fprintf(buf, "func (%s) UnderlyingValues() []%s {\n", e.unitType, d.Underlying.GoType())
	fmt.Fprintf(buf, "\treturn []%s{%s}\n}\n\n", d.Underlying.GoType(), strings.Join(nums, ", "))

	buf.WriteString("// Len returns the number of constants.\n")
	fmt.Fprintf(buf, "func (%s) Len() int {\n\treturn %d\n}\n", e.unitType, len(d.Members))
}
