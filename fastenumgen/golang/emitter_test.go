package golang

import (
	"bytes"
	"go/ast"
	"go/parser"
	"go/token"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/broady/fastenum/fastenumgen/ir"
)

func color() *ir.EnumDescriptor {
	return &ir.EnumDescriptor{
		Name:            "Color",
		Package:         "example.com/paint",
		PackageName:     "paint",
		FullName:        "example.com/paint.Color",
		Underlying:      ir.Int32,
		Visibility:      ir.Public,
		Metadata:        ir.MetadataDisplay,
		UnitName:        "ColorExtensions",
		UnitPackage:     "example.com/paint",
		UnitPackageName: "paint",
		Members: []ir.MemberDescriptor{
			{Name: "Red", Value: ir.Value{Int: 0}, FirstWithValue: true},
			{Name: "Green", Value: ir.Value{Int: 1}, Label: "Lime", HasLabel: true, FirstWithLabel: true, FirstWithValue: true},
			{Name: "Blue", Value: ir.Value{Int: 2}, Label: "Lime", HasLabel: true, FirstWithValue: true},
			{Name: "Crimson", Value: ir.Value{Int: 0}},
		},
		UsesLabels: true,
	}
}

func perm() *ir.EnumDescriptor {
	return &ir.EnumDescriptor{
		Name:            "Perm",
		Package:         "example.com/fs",
		PackageName:     "fs",
		FullName:        "example.com/fs.Perm",
		Underlying:      ir.Uint8,
		Flags:           true,
		Visibility:      ir.Public,
		Metadata:        ir.MetadataDisplay,
		UnitName:        "PermExtensions",
		UnitPackage:     "example.com/fs",
		UnitPackageName: "fs",
		Members: []ir.MemberDescriptor{
			{Name: "None", Value: ir.Value{Unsigned: true}, FirstWithValue: true},
			{Name: "Read", Value: ir.Value{Unsigned: true, Uint: 1}, FirstWithValue: true},
			{Name: "Write", Value: ir.Value{Unsigned: true, Uint: 2}, FirstWithValue: true},
		},
	}
}

func emit(t *testing.T, d *ir.EnumDescriptor) (string, *ast.File) {
	t.Helper()
	src, err := Emit(d)
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	f, err := parser.ParseFile(token.NewFileSet(), d.FileName(), src, parser.ParseComments)
	if err != nil {
		t.Fatalf("generated code does not parse: %v\n%s", err, src)
	}
	return string(src), f
}

func methods(f *ast.File) []string {
	var names []string
	for _, decl := range f.Decls {
		if fd, ok := decl.(*ast.FuncDecl); ok && fd.Recv != nil {
			names = append(names, fd.Name.Name)
		}
	}
	slices.Sort(names)
	return names
}

func TestEmitDeterministic(t *testing.T) {
	a, err := Emit(color())
	if err != nil {
		t.Fatal(err)
	}
	for range 5 {
		b, err := Emit(color())
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(a, b) {
			t.Fatal("equal descriptors produced different output")
		}
	}
	other := color()
	other.Members[0].Name = "Scarlet"
	c, _ := Emit(other)
	if bytes.Equal(a, c) {
		t.Error("different descriptors produced identical output")
	}
}

func TestEmitSurface(t *testing.T) {
	_, f := emit(t, color())
	want := []string{"AppendString", "IsDefined", "IsDefinedName", "Labels", "Len", "Names", "Parse", "ToStringFast", "TryParse", "UnderlyingValues", "Values"}
	if diff := cmp.Diff(want, methods(f)); diff != "" {
		t.Errorf("methods mismatch (-want +got):\n%s", diff)
	}

	_, f = emit(t, perm())
	want = append(want, "HasFlag")
	slices.Sort(want)
	if diff := cmp.Diff(want, methods(f)); diff != "" {
		t.Errorf("flags methods mismatch (-want +got):\n%s", diff)
	}
}

func TestEmitContent(t *testing.T) {
	src, f := emit(t, color())
	if !strings.HasPrefix(src, Header) {
		t.Error("missing generated header")
	}
	if f.Name.Name != "paint" {
		t.Errorf("package = %s", f.Name.Name)
	}

	fragments := []string{
		"var ColorExtensions colorExtensions",
		"func (colorExtensions) ToStringFast(v Color) string {",
		"case Green:\n\t\treturn \"Lime\"",
		"case Blue:\n\t\treturn \"Lime\"",
		"return strconv.FormatInt(int64(v), 10)",
		"return strconv.AppendInt(dst, int64(v), 10)",
		"case Red, Green, Blue:\n\t\treturn true",
		"case \"Red\", \"Green\", \"Blue\", \"Crimson\":\n\t\treturn true",
		"case strings.EqualFold(name, \"Crimson\"):\n\t\t\treturn Crimson, true",
		"strconv.ParseInt(name, 10, 32)",
		"&fastenum.ParseError{Type: \"Color\", Input: name}",
		"return []string{\"Red\", \"Green\", \"Blue\", \"Crimson\"}",
		"return []string{\"Red\", \"Lime\", \"Lime\", \"Crimson\"}",
		"return []Color{Red, Green, Blue, Crimson}",
		"return []int32{0, 1, 2, 0}",
		"fastenum.Member[Color]{Name: \"Green\", Label: \"Lime\", Value: Green},",
		"fastenum.Register[Color](false,",
	}
	for _, frag := range fragments {
		if !strings.Contains(src, frag) {
			t.Errorf("output missing %q", frag)
		}
	}

	// Only the first member with a value or label may appear in lookups
	// keyed by that value or label.
	forbidden := []string{
		"case Crimson:",
		"case \"Lime\", \"Lime\"",
		"func (colorExtensions) HasFlag",
	}
	for _, frag := range forbidden {
		if strings.Contains(src, frag) {
			t.Errorf("output unexpectedly contains %q", frag)
		}
	}
}

func TestEmitFlags(t *testing.T) {
	src, _ := emit(t, perm())
	for _, frag := range []string{
		"func (permExtensions) HasFlag(v, flag Perm) bool {\n\treturn flag == 0 || v&flag == flag\n}",
		"fastenum.Register[Perm](true,",
		"strconv.FormatUint(uint64(v), 10)",
		"strconv.ParseUint(name, 10, 8)",
		"return []uint8{0, 1, 2}",
	} {
		if !strings.Contains(src, frag) {
			t.Errorf("output missing %q", frag)
		}
	}
	if strings.Contains(src, "allowLabelMatch {") {
		t.Error("label lookups emitted for an enumeration without labels")
	}
}

func TestEmitForeignUnit(t *testing.T) {
	d := color()
	d.UnitPackage = "example.com/app/ext"
	d.UnitPackageName = "ext"
	d.Members = append(d.Members, ir.MemberDescriptor{Name: "hidden", Value: ir.Value{Int: 9}, FirstWithValue: true})

	src, f := emit(t, d)
	if f.Name.Name != "ext" {
		t.Errorf("package = %s", f.Name.Name)
	}
	for _, frag := range []string{
		"paint \"example.com/paint\"",
		"func (colorExtensions) ToStringFast(v paint.Color) string {",
		"case paint.Green:",
		"case paint.Color(9):\n\t\treturn \"hidden\"",
		"return []paint.Color{paint.Red, paint.Green, paint.Blue, paint.Crimson, paint.Color(9)}",
	} {
		if !strings.Contains(src, frag) {
			t.Errorf("output missing %q", frag)
		}
	}
}

func TestEmitShadowedMembers(t *testing.T) {
	d := &ir.EnumDescriptor{
		Name:            "Mode",
		Package:         "example.com/modes",
		PackageName:     "modes",
		FullName:        "example.com/modes.Mode",
		Underlying:      ir.Int,
		Visibility:      ir.Public,
		Metadata:        ir.MetadataNone,
		UnitName:        "ModeExtensions",
		UnitPackage:     "example.com/modes",
		UnitPackageName: "modes",
		Members: []ir.MemberDescriptor{
			{Name: "A", Value: ir.Value{Int: 0}, FirstWithValue: true},
			{Name: "v", Value: ir.Value{Int: 1}, FirstWithValue: true},
			{Name: "name", Value: ir.Value{Int: 2}, FirstWithValue: true},
			{Name: "err", Value: ir.Value{Int: -3}, FirstWithValue: true},
		},
	}
	src, f := emit(t, d)

	var cases []string
	ast.Inspect(f, func(n ast.Node) bool {
		if cc, ok := n.(*ast.CaseClause); ok {
			for _, e := range cc.List {
				if id, ok := e.(*ast.Ident); ok {
					cases = append(cases, id.Name)
				}
			}
		}
		return true
	})
	for _, name := range cases {
		if locals[name] {
			t.Errorf("case clause refers to shadowed identifier %s", name)
		}
	}
	for _, frag := range []string{
		"case Mode(1):\n\t\treturn \"v\"",
		"case A, Mode(1), Mode(2), Mode(-3):\n\t\treturn true",
		"return Mode(2), true",
		"return []Mode{A, Mode(1), Mode(2), Mode(-3)}",
		"fastenum.Member[Mode]{Name: \"v\", Value: Mode(1)}",
	} {
		if !strings.Contains(src, frag) {
			t.Errorf("output missing %q:\n%s", frag, src)
		}
	}
}

func TestEmitEmpty(t *testing.T) {
	d := perm()
	d.Members = nil
	src, f := emit(t, d)
	for _, imp := range f.Imports {
		if imp.Path.Value == `"strings"` {
			t.Error("strings imported without members")
		}
	}
	if !strings.Contains(src, "return []string{}") || !strings.Contains(src, "return 0\n}") {
		t.Errorf("unexpected empty output:\n%s", src)
	}
}

func TestUnitType(t *testing.T) {
	tests := map[string]string{
		"ColorExtensions": "colorExtensions",
		"fast":            "fastImpl",
		"X":               "x",
	}
	for in, want := range tests {
		if got := UnitType(in); got != want {
			t.Errorf("UnitType(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPackageAlias(t *testing.T) {
	d := color()
	d.UnitPackageName = "paint"
	d.UnitPackage = "example.com/other/paint"
	if got := PackageAlias(d); got != "paintpkg" {
		t.Errorf("alias = %q", got)
	}
}
