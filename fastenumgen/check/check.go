// Package check reports duplicate and invalid enumeration declarations.
//
// Every check is advisory except nesting inside a function, which blocks
// generation of the affected declaration only.
package check

import (
	"cmp"
	"slices"
	"strings"

	"github.com/broady/fastenum/fastenumgen/diag"
	"github.com/broady/fastenum/fastenumgen/host"
	"github.com/broady/fastenum/fastenumgen/ir"
	"github.com/broady/fastenum/internal/conf"
)

// Declaration runs the per-declaration checks.
func Declaration(decl host.Declaration, settings conf.Settings) []diag.Diagnostic {
	if len(decl.Enclosing) > 0 {
		return []diag.Diagnostic{nesting(decl)}
	}
	var ds []diag.Diagnostic
	ds = append(ds, duplicateValues(decl)...)
	ds = append(ds, duplicateLabels(decl, settings)...)
	ds = append(ds, metadataMismatch(decl, settings)...)
	return ds
}

func nesting(decl host.Declaration) diag.Diagnostic {
	names := make([]string, len(decl.Enclosing))
	for i, s := range decl.Enclosing {
		names[i] = s.Func
	}
	chain := strings.Join(names, " > ")
	if decl.Generic() {
		return diag.GenericNesting.At(decl.Marker.Pos,
			"%s is declared inside generic function %s; generated code cannot refer to its type parameters",
			decl.Name, chain)
	}
	return diag.FunctionLocal.At(decl.Marker.Pos,
		"%s is declared inside function %s; move it to package scope to generate code for it",
		decl.Name, chain)
}

func duplicateValues(decl host.Declaration) []diag.Diagnostic {
	var ds []diag.Diagnostic
	first := make(map[string]string)
	for _, c := range decl.Constants {
		if prev, ok := first[c.Value]; ok {
			ds = append(ds, diag.DuplicateValue.At(c.Pos,
				"%s.%s has the same value (%s) as %s; lookups by value resolve to %s",
				decl.Name, c.Name, c.Value, prev, prev))
			continue
		}
		first[c.Value] = c.Name
	}
	return ds
}

func activeSource(decl host.Declaration, settings conf.Settings) ir.MetadataSource {
	override, _ := decl.Marker.Arg("metadata")
	return ir.ResolveMetadataSource(override, settings.MetadataSource)
}

func duplicateLabels(decl host.Declaration, settings conf.Settings) []diag.Diagnostic {
	source := activeSource(decl, settings)
	if source == ir.MetadataNone {
		return nil
	}
	var ds []diag.Diagnostic
	first := make(map[string]string)
	for _, c := range decl.Constants {
		text, ok := c.ActiveLabel(source)
		if !ok {
			continue
		}
		if prev, ok := first[text]; ok {
			ds = append(ds, diag.DuplicateLabel.At(c.Pos,
				"%s.%s reuses the %s label %q of %s; lookups by label resolve to %s",
				decl.Name, c.Name, source, text, prev, prev))
			continue
		}
		first[text] = c.Name
	}
	return ds
}

func metadataMismatch(decl host.Declaration, settings conf.Settings) []diag.Diagnostic {
	source := activeSource(decl, settings)
	var ds []diag.Diagnostic
	for _, c := range decl.Constants {
		var ignored []string
		for _, l := range c.Labels {
			if l.Source != source && !slices.Contains(ignored, string(l.Source)) {
				ignored = append(ignored, string(l.Source))
			}
		}
		if len(ignored) == 0 {
			continue
		}
		ds = append(ds, diag.MetadataSource.At(c.Pos,
			"%s.%s has %s metadata but the active metadata source is %s",
			decl.Name, c.Name, strings.Join(ignored, " and "), source))
	}
	return ds
}

// Unit is the identity of one extension unit: the package it is generated
// into and the name of its extension value.
type Unit struct {
	Package string
	Name    string

	// Enum is the FullName of the enumeration.
	Enum string
	Pos  ir.Source
}

// Units reports every unit whose identity collides with another. All
// colliding units are reported, in an order independent of the input.
func Units(units []Unit) []diag.Diagnostic {
	groups := make(map[[2]string][]Unit)
	for _, u := range units {
		k := [2]string{u.Package, u.Name}
		groups[k] = append(groups[k], u)
	}
	var ds []diag.Diagnostic
	for k, us := range groups {
		if len(us) < 2 {
			continue
		}
		slices.SortFunc(us, func(a, b Unit) int {
			return cmp.Or(cmp.Compare(a.Enum, b.Enum), cmp.Compare(a.Pos.File, b.Pos.File), cmp.Compare(a.Pos.Line, b.Pos.Line))
		})
		for _, u := range us {
			others := make([]string, 0, len(us)-1)
			for _, o := range us {
				if o != u {
					others = append(others, o.Enum)
				}
			}
			ds = append(ds, diag.DuplicateUnit.At(u.Pos,
				"extension unit %s.%s for %s collides with %s",
				k[0], k[1], u.Enum, strings.Join(others, ", ")))
		}
	}
	diag.Sort(ds)
	return ds
}

// UnitOf returns the identity of the unit generated for d.
func UnitOf(d *ir.EnumDescriptor, pos ir.Source) Unit {
	return Unit{Package: d.UnitPackage, Name: d.UnitName, Enum: d.FullName, Pos: pos}
}
