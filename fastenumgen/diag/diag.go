// Package diag defines the diagnostics reported by the generator.
package diag

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/broady/fastenum/fastenumgen/ir"
)

// Severity represents the severity level of a diagnostic.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalText encodes the severity by name.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Rule describes one kind of diagnostic.
type Rule struct {
	Code     string
	Severity Severity
	Title    string

	// Blocking rules suppress generation for the item they are reported on.
	Blocking bool
}

var (
	GenericNesting = Rule{"FE0001", SeverityError, "enumeration declared inside a generic function", true}
	FunctionLocal  = Rule{"FE0002", SeverityError, "enumeration declared inside a function", true}
	DuplicateValue = Rule{"FE0003", SeverityInfo, "duplicate enumeration value", false}
	DuplicateLabel = Rule{"FE0004", SeverityInfo, "duplicate member label", false}
	MetadataSource = Rule{"FE0005", SeverityWarning, "member label ignored by the active metadata source", false}
	DuplicateUnit  = Rule{"FE0006", SeverityWarning, "duplicate extension unit", false}
	InvalidConfig  = Rule{"FE0007", SeverityError, "invalid generator configuration", true}
	Unavailable    = Rule{"FE0008", SeverityInfo, "call interception unavailable", false}
	InternalFault  = Rule{"FE0009", SeverityError, "internal generator fault", true}
	Unresolved     = Rule{"FE0010", SeverityError, "unresolvable external enumeration", true}
)

// Rules lists every rule in code order.
var Rules = []Rule{
	GenericNesting, FunctionLocal, DuplicateValue, DuplicateLabel, MetadataSource,
	DuplicateUnit, InvalidConfig, Unavailable, InternalFault, Unresolved,
}

// Diagnostic is one reported problem.
type Diagnostic struct {
	Code     string
	Severity Severity
	Pos      ir.Source
	Message  string
	Blocking bool `json:",omitzero"`
}

// At creates a diagnostic for the rule.
func (r Rule) At(pos ir.Source, format string, args ...any) Diagnostic {
	return Diagnostic{
		Code:     r.Code,
		Severity: r.Severity,
		Pos:      pos,
		Message:  fmt.Sprintf(format, args...),
		Blocking: r.Blocking,
	}
}

// String formats the diagnostic for display.
func (d Diagnostic) String() string {
	var sb strings.Builder
	if !d.Pos.IsZero() {
		sb.WriteString(d.Pos.String())
		sb.WriteString(": ")
	}
	sb.WriteString(d.Severity.String())
	sb.WriteString(" ")
	sb.WriteString(d.Code)
	sb.WriteString(": ")
	sb.WriteString(d.Message)
	return sb.String()
}

// Sort orders diagnostics by position, then code, then message, so reports
// do not depend on the order items were evaluated in.
func Sort(ds []Diagnostic) {
	slices.SortStableFunc(ds, func(a, b Diagnostic) int {
		return cmp.Or(
			cmp.Compare(a.Pos.File, b.Pos.File),
			cmp.Compare(a.Pos.Line, b.Pos.Line),
			cmp.Compare(a.Pos.Column, b.Pos.Column),
			cmp.Compare(a.Code, b.Code),
			cmp.Compare(a.Message, b.Message),
		)
	})
}

// HasBlocking reports whether any diagnostic is blocking.
func HasBlocking(ds []Diagnostic) bool {
	return slices.ContainsFunc(ds, func(d Diagnostic) bool { return d.Blocking })
}

// Count returns the number of diagnostics at or above the severity.
func Count(ds []Diagnostic, min Severity) int {
	n := 0
	for _, d := range ds {
		if d.Severity >= min {
			n++
		}
	}
	return n
}
