// Package intercept synthesizes interception units: Go files added to a
// calling package whose redirect functions forward reflection-based API
// calls to a generated extension unit.
//
// Each redirect function is preceded by one marker per call site it
// serves:
//
//	//fastenum:intercepts v1 <fingerprint>
//
// Call sites are rewritten to call the redirect by Plan, which prepares
// the files for a go build -overlay document.
package intercept

import (
	"bytes"
	"fmt"
	"go/format"
	"strconv"
	"text/template"

	"github.com/broady/fastenum/fastenumgen/golang"
	"github.com/broady/fastenum/fastenumgen/ir"
	"github.com/broady/fastenum/fastenumgen/scan"
)

// redirect describes the generated function serving one operation.
type redirect struct {
	op     ir.OperationKind
	byName bool
	suffix string

	// fn renders the function given a redirectData.
	fn *template.Template
}

// redirectData is what redirect templates are executed with.
type redirectData struct {
	Func string // function name
	Type string // enumeration type as spelled in the unit
	Unit string // extension value as spelled in the unit
}

func newRedirect(op ir.OperationKind, byName bool, suffix, params, results, body string) redirect {
	src := "func {{.Func}}(" + params + ") " + results + " {\n\t" + body + "\n}\n"
	return redirect{op: op, byName: byName, suffix: suffix, fn: template.Must(template.New(suffix).Parse(src))}
}

// redirects lists every operation in emission order.
var redirects = []redirect{
	newRedirect(ir.OpStringify, false, "Name", "v {{.Type}}", "string", "return {{.Unit}}.ToStringFast(v)"),
	newRedirect(ir.OpAppendBuffer, false, "AppendName", "dst []byte, v {{.Type}}", "[]byte", "return {{.Unit}}.AppendString(dst, v)"),
	newRedirect(ir.OpFlagTest, false, "HasFlag", "v, flag {{.Type}}", "bool", "return {{.Unit}}.HasFlag(v, flag)"),
	newRedirect(ir.OpParse, false, "Parse", "name string, ignoreCase bool", "({{.Type}}, error)", "return {{.Unit}}.Parse(name, ignoreCase, false)"),
	newRedirect(ir.OpTryParse, false, "TryParse", "name string, ignoreCase bool", "({{.Type}}, bool)", "return {{.Unit}}.TryParse(name, ignoreCase, false)"),
	newRedirect(ir.OpIsDefined, false, "IsDefined", "v {{.Type}}", "bool", "return {{.Unit}}.IsDefined(v)"),
	newRedirect(ir.OpIsDefined, true, "IsDefinedName", "name string", "bool", "return {{.Unit}}.IsDefinedName(name, false)"),
	newRedirect(ir.OpNames, false, "Names", "", "[]string", "return {{.Unit}}.Names()"),
	newRedirect(ir.OpValues, false, "Values", "", "[]{{.Type}}", "return {{.Unit}}.Values()"),
	newRedirect(ir.OpUnderlyingValues, false, "UnderlyingValues", "", "[]any",
		"vs := {{.Unit}}.UnderlyingValues()\n\tout := make([]any, len(vs))\n\tfor i, v := range vs {\n\t\tout[i] = v\n\t}\n\treturn out"),
}

func (r redirect) name(target string) string {
	return "fastenum_" + ir.SanitizeName(target) + "_" + r.suffix
}

func (r redirect) matches(c ir.CallSiteCandidate) bool {
	return c.Op == r.op && c.Args.ByName == r.byName
}

// FuncName returns the redirect function serving c in the interception
// unit for target.
func FuncName(target string, c ir.CallSiteCandidate) string {
	for _, r := range redirects {
		if r.matches(c) {
			return r.name(target)
		}
	}
	return ""
}

// Redirects maps the fingerprint of every site in req to its redirect
// function.
func Redirects(req ir.InterceptionRequest) map[string]string {
	m := make(map[string]string, len(req.Sites))
	for _, s := range req.Sites {
		if name := FuncName(req.Target, s); name != "" {
			m[s.Fingerprint] = name
		}
	}
	return m
}

// KeepArgs returns how many leading arguments of the original call the
// redirect takes. Format calls drop their constant format.
func KeepArgs(c ir.CallSiteCandidate, n int) int {
	if c.Op == ir.OpStringify && n > 1 {
		return 1
	}
	return n
}

// Emit returns the formatted interception unit for req.
func Emit(req ir.InterceptionRequest) ([]byte, error) {
	d := req.Enum
	if d == nil {
		return nil, fmt.Errorf("request %s has no descriptor", req.ID())
	}

	var buf bytes.Buffer
	buf.WriteString(golang.Header)
	buf.WriteString("\n")
	fmt.Fprintf(&buf, "package %s\n\n", req.HostPackageName)

	typ, unit := d.Name, d.UnitName
	enumAlias, unitAlias := aliases(req)
	if enumAlias != "" {
		typ = enumAlias + "." + d.Name
	}
	if unitAlias != "" {
		unit = unitAlias + "." + d.UnitName
	}
	if enumAlias != "" || unitAlias != "" {
		buf.WriteString("import (\n")
		if enumAlias != "" {
			fmt.Fprintf(&buf, "\t%s %s\n", enumAlias, strconv.Quote(d.Package))
		}
		if unitAlias != "" && d.UnitPackage != d.Package {
			fmt.Fprintf(&buf, "\t%s %s\n", unitAlias, strconv.Quote(d.UnitPackage))
		}
		buf.WriteString(")\n\n")
	}

	for _, r := range redirects {
		var sites []string
		for _, s := range req.Sites {
			if r.matches(s) {
				sites = append(sites, s.Fingerprint)
			}
		}
		if len(sites) == 0 {
			continue
		}
		for _, fp := range sites {
			fmt.Fprintf(&buf, "//fastenum:intercepts %s %s\n", scan.ShapeVersion, fp)
		}
		data := redirectData{Func: r.name(req.Target), Type: typ, Unit: unit}
		if err := r.fn.Execute(&buf, data); err != nil {
			return nil, fmt.Errorf("render %s for %s: %w", r.suffix, req.ID(), err)
		}
		buf.WriteString("\n")
	}

	out, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("format interception unit %s: %w", req.ID(), err)
	}
	return out, nil
}

// aliases returns the import names for the enumeration package and the
// unit package, empty when the calling package is that package.
func aliases(req ir.InterceptionRequest) (enumAlias, unitAlias string) {
	d := req.Enum
	if req.HostPackage != d.Package {
		enumAlias = "fe" + ir.SanitizeName(d.PackageName)
	}
	if req.HostPackage != d.UnitPackage {
		if d.UnitPackage == d.Package {
			unitAlias = enumAlias
		} else {
			unitAlias = "feunit" + ir.SanitizeName(d.UnitPackageName)
		}
	}
	return enumAlias, unitAlias
}
