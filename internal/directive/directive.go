// Package directive parses fastenum directives from Go source files.
//
// Directives are line comments in the form:
//
//	//fastenum:generate [name=X] [package=path] [metadata=source] [intercept=bool]
//	//fastenum:flags
//	//fastenum:external path.Type [key=value...]
//	//fastenum:intercept path.Type
//	//fastenum:description text
//	//fastenum:display text
//	//fastenum:json text
//
// generate and flags belong in the doc comment of a type declaration.
// external and intercept may appear in any comment of a file. The label
// directives belong in the doc or line comment of a constant.
package directive

import (
	"fmt"
	"go/ast"
	"go/token"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/broady/fastenum/fastenumgen/host"
	"github.com/broady/fastenum/fastenumgen/ir"
)

// Prefix starts every directive comment.
const Prefix = "//fastenum:"

const (
	KindGenerate    = "generate"
	KindFlags       = "flags"
	KindExternal    = "external"
	KindIntercept   = "intercept"
	KindDescription = "description"
	KindDisplay     = "display"
	KindJSON        = "json"

	// KindIntercepts marks redirect functions in generated interception
	// units. It is recognized and skipped.
	KindIntercepts = "intercepts"
)

// Error is a malformed or misplaced directive.
type Error struct {
	Pos ir.Source
	Msg string
}

func (e Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
}

// Result contains the directives of one file.
type Result struct {
	// Types maps marked type declarations, package-level or local, to
	// their generate and flags directives.
	Types map[*ast.TypeSpec][]host.Directive

	External  []host.Directive
	Intercept []host.Directive

	Errors []Error
}

// Position converts p to a source location relative to base. An empty
// base or a file outside it leaves the file name as reported by fset.
func Position(fset *token.FileSet, p token.Pos, base string) ir.Source {
	pos := fset.Position(p)
	file := pos.Filename
	if base != "" {
		if rel, err := filepath.Rel(base, file); err == nil && !strings.HasPrefix(rel, "..") {
			file = filepath.ToSlash(rel)
		}
	}
	return ir.Source{File: file, Line: pos.Line, Column: pos.Column}
}

// ParseComment parses a single comment. It returns false for comments that
// are not directives.
func ParseComment(text string, pos ir.Source) (host.Directive, bool, error) {
	if !strings.HasPrefix(text, Prefix) {
		return host.Directive{}, false, nil
	}
	rest := strings.TrimPrefix(text, Prefix)
	name, args, _ := strings.Cut(rest, " ")
	d := host.Directive{Name: name, Pos: pos}

	switch name {
	case KindDescription, KindDisplay, KindJSON:
		d.Text = strings.TrimSpace(args)
		return d, true, nil
	case KindIntercepts:
		return d, true, nil
	case KindGenerate, KindFlags, KindExternal, KindIntercept:
	default:
		return d, true, fmt.Errorf("unknown directive %s%s", Prefix, name)
	}

	fields := strings.Fields(args)
	if name == KindExternal || name == KindIntercept {
		if len(fields) == 0 || strings.Contains(fields[0], "=") {
			return d, true, fmt.Errorf("%s%s requires a type reference such as example.com/pkg.Type", Prefix, name)
		}
		d.Target = fields[0]
		fields = fields[1:]
		if _, _, ok := SplitTarget(d.Target); !ok {
			return d, true, fmt.Errorf("malformed type reference %q", d.Target)
		}
	}
	for _, f := range fields {
		k, v, ok := strings.Cut(f, "=")
		if !ok || k == "" {
			return d, true, fmt.Errorf("malformed argument %q, want key=value", f)
		}
		if uq, err := strconv.Unquote(v); err == nil {
			v = uq
		}
		d.Args = append(d.Args, host.Arg{Key: k, Value: v})
	}
	if name == KindFlags && len(d.Args) > 0 {
		return d, true, fmt.Errorf("%s%s takes no arguments", Prefix, name)
	}
	return d, true, nil
}

// SplitTarget splits "example.com/pkg.Type" into its import path and type
// name.
func SplitTarget(ref string) (path, name string, ok bool) {
	i := strings.LastIndex(ref, ".")
	if i <= 0 || i == len(ref)-1 {
		return "", "", false
	}
	path, name = ref[:i], ref[i+1:]
	if strings.Contains(name, "/") || !token.IsIdentifier(name) {
		return "", "", false
	}
	return path, name, true
}

// ParseFile extracts directives from a single file.
func ParseFile(fset *token.FileSet, f *ast.File, base string) *Result {
	r := &Result{Types: make(map[*ast.TypeSpec][]host.Directive)}

	// Directives are matched to declarations by the end of their comment
	// group.
	byGroup := make(map[token.Pos][]host.Directive)
	var order []token.Pos

	for _, cg := range f.Comments {
		for _, c := range cg.List {
			pos := Position(fset, c.Pos(), base)
			d, ok, err := ParseComment(c.Text, pos)
			if !ok {
				continue
			}
			if err != nil {
				r.Errors = append(r.Errors, Error{Pos: pos, Msg: err.Error()})
				continue
			}
			switch d.Name {
			case KindExternal:
				r.External = append(r.External, d)
			case KindIntercept:
				r.Intercept = append(r.Intercept, d)
			case KindGenerate, KindFlags:
				if _, seen := byGroup[cg.End()]; !seen {
					order = append(order, cg.End())
				}
				byGroup[cg.End()] = append(byGroup[cg.End()], d)
			}
		}
	}

	ast.Inspect(f, func(n ast.Node) bool {
		gd, ok := n.(*ast.GenDecl)
		if !ok || gd.Tok != token.TYPE {
			return true
		}
		for _, spec := range gd.Specs {
			ts := spec.(*ast.TypeSpec)
			doc := ts.Doc
			if doc == nil && len(gd.Specs) == 1 {
				doc = gd.Doc
			}
			if doc == nil {
				continue
			}
			if ds, ok := byGroup[doc.End()]; ok {
				r.Types[ts] = ds
				delete(byGroup, doc.End())
			}
		}
		return true
	})

	for _, end := range order {
		for _, d := range byGroup[end] {
			r.Errors = append(r.Errors, Error{
				Pos: d.Pos,
				Msg: fmt.Sprintf("%s%s directive must be followed by a type declaration", Prefix, d.Name),
			})
		}
	}
	return r
}

// Labels returns the metadata directives in the doc and line comments of a
// constant spec, doc comment first.
func Labels(spec *ast.ValueSpec) []host.Label {
	var labels []host.Label
	for _, cg := range []*ast.CommentGroup{spec.Doc, spec.Comment} {
		if cg == nil {
			continue
		}
		for _, c := range cg.List {
			d, ok, err := ParseComment(c.Text, ir.Source{})
			if !ok || err != nil {
				continue
			}
			if src, ok := ir.ParseMetadataSource(d.Name); ok && src != ir.MetadataNone {
				labels = append(labels, host.Label{Source: src, Text: d.Text})
			}
		}
	}
	return labels
}

// Has reports whether ds contains a directive with the given name.
func Has(ds []host.Directive, name string) bool {
	for _, d := range ds {
		if d.Name == name {
			return true
		}
	}
	return false
}

// Find returns the first directive with the given name.
func Find(ds []host.Directive, name string) (host.Directive, bool) {
	for _, d := range ds {
		if d.Name == name {
			return d, true
		}
	}
	return host.Directive{}, false
}
