// Package builder turns marked declarations into enumeration descriptors.
package builder

import (
	"path"
	"strings"
	"unicode"

	"github.com/broady/fastenum/fastenumgen/diag"
	"github.com/broady/fastenum/fastenumgen/host"
	"github.com/broady/fastenum/fastenumgen/ir"
	"github.com/broady/fastenum/internal/conf"
)

// Result is the outcome of building one declaration.
type Result struct {
	// Enum is nil when the declaration produces no extension unit.
	Enum *ir.EnumDescriptor

	// Intercept is false when the marker disables interception.
	Intercept bool

	Diagnostics []diag.Diagnostic
}

// Build creates the descriptor for decl. It returns a nil Enum for
// declarations without a marker and for function-local declarations,
// which the checker reports. Invalid marker configuration yields a nil
// Enum and a diagnostic.
func Build(decl host.Declaration, settings conf.Settings) Result {
	if decl.Marker.Name == "" || len(decl.Enclosing) > 0 {
		return Result{}
	}

	fail := func(format string, args ...any) Result {
		return Result{Diagnostics: []diag.Diagnostic{
			diag.InvalidConfig.At(decl.Marker.Pos, "%s: "+format, append([]any{decl.Name}, args...)...),
		}}
	}

	opts, err := conf.DecodeMarker(decl.Marker.Values(), conf.MarkerOptions{Intercept: decl.Kind == host.DeclLocal})
	if err != nil {
		return fail("%v", err)
	}
	kind, ok := ir.ParseNumericKind(decl.Underlying)
	if !ok {
		return fail("underlying type %s is not a supported integer type", decl.Underlying)
	}

	source := ir.ResolveMetadataSource(opts.Metadata, settings.MetadataSource)

	d := &ir.EnumDescriptor{
		Name:        decl.Name,
		Package:     decl.Package,
		PackageName: decl.PackageName,
		FullName:    decl.FullName(),
		Underlying:  kind,
		Flags:       decl.Flags || opts.Flags,
		Visibility:  ir.Public,
		Metadata:    source,
		UnitName:    opts.Name,
		UnitPackage: opts.Package,
		Members:     make([]ir.MemberDescriptor, 0, len(decl.Constants)),
	}
	if !decl.Exported {
		d.Visibility = ir.Restricted
	}
	if d.UnitName == "" {
		d.UnitName = decl.Name + "Extensions"
	}
	if d.UnitPackage == "" {
		d.UnitPackage = decl.DeclPackage
	}
	switch d.UnitPackage {
	case decl.Package:
		d.UnitPackageName = decl.PackageName
	case decl.DeclPackage:
		d.UnitPackageName = decl.DeclPackageName
	default:
		d.UnitPackageName = PackageName(d.UnitPackage)
	}
	if d.Visibility == ir.Restricted && d.Foreign() {
		return fail("unexported type cannot be extended from package %s", d.UnitPackage)
	}

	seenValues := make(map[ir.Value]bool)
	seenLabels := make(map[string]bool)
	for _, c := range decl.Constants {
		v, err := ir.ParseValue(kind, c.Value)
		if err != nil {
			return fail("constant %s: %v", c.Name, err)
		}
		m := ir.MemberDescriptor{
			Name:           c.Name,
			Value:          v,
			FirstWithValue: !seenValues[v],
		}
		seenValues[v] = true
		if label, ok := c.ActiveLabel(source); ok {
			m.Label = label
			m.HasLabel = true
			m.FirstWithLabel = !seenLabels[label]
			seenLabels[label] = true
			d.UsesLabels = true
		}
		d.Members = append(d.Members, m)
	}

	return Result{Enum: d, Intercept: opts.Intercept}
}

// PackageName guesses the package clause name for an import path that is
// not loaded: the last path element, without a major version suffix,
// reduced to identifier characters.
func PackageName(importPath string) string {
	base := path.Base(importPath)
	if len(base) > 1 && base[0] == 'v' && strings.Trim(base[1:], "0123456789") == "" {
		base = path.Base(path.Dir(importPath))
	}
	base = strings.TrimPrefix(base, "go-")
	var b strings.Builder
	for _, r := range base {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			b.WriteRune(r)
		}
	}
	name := b.String()
	if name == "" || unicode.IsDigit(rune(name[0])) {
		name = "pkg" + name
	}
	return strings.ToLower(name)
}
