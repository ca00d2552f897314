// Package host defines the snapshot of a program that the generator works
// from.
//
// A Snapshot is materialized once per run by a provider and is read-only
// afterwards. Every value in it is a plain copy: nothing refers back to the
// type checker or the syntax tree, so snapshot pieces can be compared and
// hashed to decide what changed between runs.
package host

import (
	"slices"

	"github.com/broady/fastenum/fastenumgen/diag"
	"github.com/broady/fastenum/fastenumgen/ir"
)

// Directive is a parsed //fastenum: comment.
type Directive struct {
	// Name is the word after "//fastenum:", e.g. "generate".
	Name string

	// Target is the positional type reference of external and intercept
	// directives, e.g. "example.com/paint.Color".
	Target string

	// Args are the key=value arguments in source order.
	Args []Arg

	// Text is the free text after the name for member label directives.
	Text string

	Pos ir.Source
}

// Arg is one key=value directive argument.
type Arg struct {
	Key   string
	Value string
}

// Arg returns the value of the named argument.
func (d Directive) Arg(key string) (string, bool) {
	for _, a := range d.Args {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

// Values returns the arguments as a form-style map, the shape expected by
// gorilla/schema. A repeated key keeps every value in order.
func (d Directive) Values() map[string][]string {
	m := make(map[string][]string, len(d.Args))
	for _, a := range d.Args {
		m[a.Key] = append(m[a.Key], a.Value)
	}
	return m
}

// DeclKind distinguishes locally marked types from external references.
type DeclKind string

const (
	DeclLocal    DeclKind = "local"
	DeclExternal DeclKind = "external"
)

// Scope is one enclosing construct of a declaration. Package-level types
// have no scopes.
type Scope struct {
	// Func is the name of the enclosing function, "Recv.Method" for methods.
	Func string

	// TypeParams counts the type parameters of the function or of the
	// generic receiver type.
	TypeParams int
}

// Label is a member metadata directive: //fastenum:description, display or json.
type Label struct {
	Source ir.MetadataSource
	Text   string
}

// Constant is one typed constant of an enumeration.
type Constant struct {
	Name string

	// Value is the exact decimal text of the constant value.
	Value string

	// Labels are the metadata directives attached to the constant, in order.
	Labels []Label

	Pos ir.Source
}

// ActiveLabel returns the text of the first non-empty label from source.
// It reports false when source is MetadataNone or no such label exists.
func (c Constant) ActiveLabel(source ir.MetadataSource) (string, bool) {
	if source == ir.MetadataNone {
		return "", false
	}
	for _, l := range c.Labels {
		if l.Source == source && l.Text != "" {
			return l.Text, true
		}
	}
	return "", false
}

// Declaration is a marked enumeration type, local or external.
type Declaration struct {
	Kind DeclKind

	// Marker is the //fastenum:generate directive, or the
	// //fastenum:external directive for external declarations.
	Marker Directive

	// Flags is set by //fastenum:flags on local declarations.
	Flags bool

	Name        string
	Package     string
	PackageName string

	// DeclPackage is the package holding the marker. It equals Package
	// except for external declarations.
	DeclPackage     string
	DeclPackageName string

	// Underlying is the Go spelling of the underlying basic type.
	Underlying string

	Exported bool

	// Enclosing lists the functions the type is declared in, outermost first.
	Enclosing []Scope

	Constants []Constant

	Pos ir.Source
}

// FullName returns the qualified type name.
func (d Declaration) FullName() string {
	return d.Package + "." + d.Name
}

// ID identifies the declaration within a snapshot. External references
// are keyed by the package holding the directive, so the same type
// referenced twice yields two declarations.
func (d Declaration) ID() string {
	if d.Kind == DeclExternal {
		return "external:" + d.DeclPackage + ":" + d.FullName()
	}
	return d.FullName()
}

// Generic reports whether any enclosing function is generic.
func (d Declaration) Generic() bool {
	return slices.ContainsFunc(d.Enclosing, func(s Scope) bool { return s.TypeParams > 0 })
}

// Call is one call to the reflection-based fastenum API.
type Call struct {
	// Func is the called API function, e.g. "Name" or "Parse".
	Func string

	// Target is the FullName of the enumeration type argument.
	Target string

	// File is the module-relative path of the containing file.
	File string

	// Anchor names the enclosing top-level declaration.
	Anchor string

	// Ordinal counts API calls within Anchor in source order, from 0.
	Ordinal int

	// Text is the call expression printed in normalized form.
	Text string

	// Format is the constant format argument of Format calls.
	Format string

	// FormatConst is false when the format argument is not a constant.
	FormatConst bool

	Package     string
	PackageName string

	// Span locates the call in its file for rewriting.
	Span Span
}

// Span holds byte offsets of a call and its arguments. Spans change on any
// edit earlier in the file and are excluded from cache keys.
type Span struct {
	AbsFile string
	Start   int
	End     int
	Args    [][2]int
}

// Package describes one loaded package.
type Package struct {
	Path string
	Name string

	// Dir is the absolute package directory.
	Dir string
}

// OptIn is a //fastenum:intercept directive enabling interception of an
// external enumeration.
type OptIn struct {
	Target string
	Pos    ir.Source
}

// Snapshot is the complete generator input for one run.
type Snapshot struct {
	ModulePath string

	// ModuleDir is the absolute module root.
	ModuleDir string

	// GoVersion is the go directive of the module's go.mod, e.g. "1.22".
	GoVersion string

	// Settings are the raw key/value pairs of the project configuration.
	Settings map[string]string

	// SettingsPos locates the configuration file.
	SettingsPos ir.Source

	Packages     []Package
	Declarations []Declaration
	Calls        []Call
	OptIns       []OptIn

	// Diagnostics are problems found while materializing the snapshot,
	// such as malformed directives or unresolvable external types.
	Diagnostics []diag.Diagnostic
}

// Package returns the package with the given import path.
func (s *Snapshot) Package(path string) (Package, bool) {
	for _, p := range s.Packages {
		if p.Path == path {
			return p, true
		}
	}
	return Package{}, false
}
