package directive

import (
	"go/ast"
	"go/parser"
	"go/token"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/broady/fastenum/fastenumgen/host"
	"github.com/broady/fastenum/fastenumgen/ir"
)

func parse(t *testing.T, src string) (*token.FileSet, *ast.File) {
	t.Helper()
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "/mod/paint/color.go", src, parser.ParseComments)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return fset, f
}

func typeDirectives(r *Result) map[string][]string {
	m := make(map[string][]string)
	for ts, ds := range r.Types {
		for _, d := range ds {
			m[ts.Name.Name] = append(m[ts.Name.Name], d.Name)
		}
	}
	return m
}

func TestParseFile(t *testing.T) {
	tests := []struct {
		name      string
		src       string
		wantTypes map[string][]string
		wantErr   string // expected error substring, empty if none
	}{
		{
			name: "marked type",
			src: `package paint

//fastenum:generate
type Color int
`,
			wantTypes: map[string][]string{"Color": {"generate"}},
		},
		{
			name: "marker with flags and doc text",
			src: `package paint

// Perm is a permission set.
//
//fastenum:generate name=PermFast
//fastenum:flags
type Perm uint8
`,
			wantTypes: map[string][]string{"Perm": {"generate", "flags"}},
		},
		{
			name: "grouped type declaration",
			src: `package paint

type (
	//fastenum:generate
	Shade int

	Plain int
)
`,
			wantTypes: map[string][]string{"Shade": {"generate"}},
		},
		{
			name: "function-local type",
			src: `package paint

func f() {
	//fastenum:generate
	type Local int
	_ = Local(0)
}
`,
			wantTypes: map[string][]string{"Local": {"generate"}},
		},
		{
			name: "directive not on type",
			src: `package paint

//fastenum:generate
var x = 1
`,
			wantTypes: map[string][]string{},
			wantErr:   "must be followed by a type declaration",
		},
		{
			name: "unknown directive",
			src: `package paint

//fastenum:unknown
type Color int
`,
			wantTypes: map[string][]string{},
			wantErr:   "unknown directive //fastenum:unknown",
		},
		{
			name: "malformed argument",
			src: `package paint

//fastenum:generate name
type Color int
`,
			wantTypes: map[string][]string{},
			wantErr:   "malformed argument",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fset, f := parse(t, tt.src)
			r := ParseFile(fset, f, "/mod")

			if diff := cmp.Diff(tt.wantTypes, typeDirectives(r)); diff != "" {
				t.Errorf("types mismatch (-want +got):\n%s", diff)
			}
			if tt.wantErr == "" {
				if len(r.Errors) > 0 {
					t.Fatalf("unexpected errors: %v", r.Errors)
				}
				return
			}
			if len(r.Errors) == 0 {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(r.Errors[0].Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", r.Errors[0], tt.wantErr)
			}
			if r.Errors[0].Pos.File != "paint/color.go" {
				t.Errorf("error position %v not module-relative", r.Errors[0].Pos)
			}
		})
	}
}

func TestParseFileExternal(t *testing.T) {
	fset, f := parse(t, `package paint

//fastenum:external example.com/tones.Tone flags=true name=ToneFast
//fastenum:intercept example.com/tones.Tone

import "fmt"

var _ = fmt.Sprint
`)
	r := ParseFile(fset, f, "/mod")
	if len(r.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", r.Errors)
	}
	if len(r.External) != 1 || len(r.Intercept) != 1 {
		t.Fatalf("got %d external, %d intercept", len(r.External), len(r.Intercept))
	}
	ext := r.External[0]
	if ext.Target != "example.com/tones.Tone" {
		t.Errorf("target = %q", ext.Target)
	}
	want := []host.Arg{{Key: "flags", Value: "true"}, {Key: "name", Value: "ToneFast"}}
	if diff := cmp.Diff(want, ext.Args); diff != "" {
		t.Errorf("args mismatch (-want +got):\n%s", diff)
	}
	if ext.Pos != (ir.Source{File: "paint/color.go", Line: 3, Column: 1}) {
		t.Errorf("pos = %v", ext.Pos)
	}
}

func TestParseComment(t *testing.T) {
	tests := []struct {
		text    string
		want    host.Directive
		isDir   bool
		wantErr bool
	}{
		{text: "// plain comment"},
		{text: "//fastenum:display Lime green", want: host.Directive{Name: "display", Text: "Lime green"}, isDir: true},
		{text: `//fastenum:generate name="Fast"`, want: host.Directive{Name: "generate", Args: []host.Arg{{Key: "name", Value: "Fast"}}}, isDir: true},
		{text: "//fastenum:intercepts v1 abc", want: host.Directive{Name: "intercepts"}, isDir: true},
		{text: "//fastenum:external", want: host.Directive{Name: "external"}, isDir: true, wantErr: true},
		{text: "//fastenum:external pkg.", want: host.Directive{Name: "external", Target: "pkg."}, isDir: true, wantErr: true},
		{text: "//fastenum:flags x=1", want: host.Directive{Name: "flags", Args: []host.Arg{{Key: "x", Value: "1"}}}, isDir: true, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok, err := ParseComment(tt.text, ir.Source{})
			if ok != tt.isDir {
				t.Fatalf("directive = %v, want %v", ok, tt.isDir)
			}
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSplitTarget(t *testing.T) {
	tests := []struct {
		ref        string
		path, name string
		ok         bool
	}{
		{"example.com/tones.Tone", "example.com/tones", "Tone", true},
		{"time.Month", "time", "Month", true},
		{"example.com/tones", "", "", false},
		{".Tone", "", "", false},
		{"Tone", "", "", false},
	}
	for _, tt := range tests {
		path, name, ok := SplitTarget(tt.ref)
		if path != tt.path || name != tt.name || ok != tt.ok {
			t.Errorf("SplitTarget(%q) = %q, %q, %v", tt.ref, path, name, ok)
		}
	}
}

func TestLabels(t *testing.T) {
	_, f := parse(t, `package paint

const (
	// Red is red.
	//fastenum:display Bright red
	//fastenum:description The colour red
	Red Color = iota
	Green //fastenum:json green
	Blue
)
`)
	specs := f.Decls[0].(*ast.GenDecl).Specs
	got := map[string][]host.Label{}
	for _, s := range specs {
		vs := s.(*ast.ValueSpec)
		if ls := Labels(vs); ls != nil {
			got[vs.Names[0].Name] = ls
		}
	}
	want := map[string][]host.Label{
		"Red": {
			{Source: ir.MetadataDisplay, Text: "Bright red"},
			{Source: ir.MetadataDescription, Text: "The colour red"},
		},
		"Green": {{Source: ir.MetadataJSON, Text: "green"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("labels mismatch (-want +got):\n%s", diff)
	}
}
