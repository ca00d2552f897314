package check

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/broady/fastenum/fastenumgen/diag"
	"github.com/broady/fastenum/fastenumgen/host"
	"github.com/broady/fastenum/fastenumgen/ir"
	"github.com/broady/fastenum/internal/conf"
)

func pos(line int) ir.Source {
	return ir.Source{File: "paint/color.go", Line: line, Column: 2}
}

func codes(ds []diag.Diagnostic) []string {
	var out []string
	for _, d := range ds {
		out = append(out, d.Code)
	}
	return out
}

func TestDuplicateValues(t *testing.T) {
	decl := host.Declaration{
		Name:   "Color",
		Marker: host.Directive{Name: "generate", Pos: pos(1)},
		Constants: []host.Constant{
			{Name: "A", Value: "0", Pos: pos(3)},
			{Name: "B", Value: "0", Pos: pos(4)},
			{Name: "C", Value: "1", Pos: pos(5)},
			{Name: "D", Value: "0", Pos: pos(6)},
		},
	}
	ds := Declaration(decl, conf.DefaultSettings())
	if diff := cmp.Diff([]string{"FE0003", "FE0003"}, codes(ds)); diff != "" {
		t.Fatalf("codes mismatch (-want +got):\n%s", diff)
	}
	if ds[0].Pos != pos(4) || !strings.Contains(ds[0].Message, "Color.B") || !strings.Contains(ds[0].Message, "resolve to A") {
		t.Errorf("first diagnostic = %v", ds[0])
	}
	if ds[1].Pos != pos(6) || !strings.Contains(ds[1].Message, "resolve to A") {
		t.Errorf("second diagnostic = %v", ds[1])
	}
	if diag.HasBlocking(ds) {
		t.Error("duplicate values must not block generation")
	}
}

func TestNesting(t *testing.T) {
	tests := []struct {
		name      string
		enclosing []host.Scope
		wantCode  string
	}{
		{"generic function", []host.Scope{{Func: "Outer", TypeParams: 1}}, "FE0001"},
		{"method of generic type", []host.Scope{{Func: "Box.Open", TypeParams: 2}}, "FE0001"},
		{"closure in generic function", []host.Scope{{Func: "Outer", TypeParams: 1}, {Func: "Outer.func1"}}, "FE0001"},
		{"plain function", []host.Scope{{Func: "helper"}}, "FE0002"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decl := host.Declaration{
				Name:      "Inner",
				Marker:    host.Directive{Name: "generate", Pos: pos(10)},
				Enclosing: tt.enclosing,
				Constants: []host.Constant{{Name: "X", Value: "0"}, {Name: "Y", Value: "0"}},
			}
			ds := Declaration(decl, conf.DefaultSettings())
			if len(ds) != 1 {
				t.Fatalf("got %d diagnostics, want 1: %v", len(ds), ds)
			}
			if ds[0].Code != tt.wantCode || !ds[0].Blocking || ds[0].Pos != pos(10) {
				t.Errorf("diagnostic = %+v", ds[0])
			}
		})
	}
}

func TestLabels(t *testing.T) {
	decl := host.Declaration{
		Name:   "Color",
		Marker: host.Directive{Name: "generate", Pos: pos(1)},
		Constants: []host.Constant{
			{Name: "Red", Value: "0", Pos: pos(3), Labels: []host.Label{{Source: ir.MetadataDisplay, Text: "Warm"}}},
			{Name: "Orange", Value: "1", Pos: pos(4), Labels: []host.Label{
				{Source: ir.MetadataDisplay, Text: "Warm"},
				{Source: ir.MetadataDescription, Text: "orange"},
			}},
			{Name: "Blue", Value: "2", Pos: pos(5), Labels: []host.Label{{Source: ir.MetadataJSON, Text: "blue"}}},
		},
	}

	tests := []struct {
		name     string
		args     []host.Arg
		settings conf.Settings
		want     []string
	}{
		{"display default", nil, conf.DefaultSettings(), []string{"FE0004", "FE0005", "FE0005"}},
		{"project json", nil, conf.Settings{MetadataSource: "json"}, []string{"FE0005", "FE0005"}},
		{"marker none", []host.Arg{{Key: "metadata", Value: "none"}}, conf.Settings{MetadataSource: "json"}, []string{"FE0005", "FE0005", "FE0005"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := decl
			d.Marker.Args = tt.args
			ds := Declaration(d, tt.settings)
			if diff := cmp.Diff(tt.want, codes(ds)); diff != "" {
				t.Errorf("codes mismatch (-want +got):\n%s\n%v", diff, ds)
			}
		})
	}

	ds := Declaration(decl, conf.DefaultSettings())
	if !strings.Contains(ds[0].Message, `label "Warm" of Red`) {
		t.Errorf("label diagnostic = %q", ds[0].Message)
	}
	if !strings.Contains(ds[1].Message, "Color.Orange has description metadata") {
		t.Errorf("mismatch diagnostic = %q", ds[1].Message)
	}
}

func TestEmptyLabels(t *testing.T) {
	display := func(texts ...string) []host.Label {
		var ls []host.Label
		for _, text := range texts {
			ls = append(ls, host.Label{Source: ir.MetadataDisplay, Text: text})
		}
		return ls
	}
	decl := host.Declaration{
		Name:   "Color",
		Marker: host.Directive{Name: "generate", Pos: pos(1)},
		Constants: []host.Constant{
			{Name: "A", Value: "0", Pos: pos(3), Labels: display("")},
			{Name: "B", Value: "1", Pos: pos(4), Labels: display("")},
			{Name: "C", Value: "2", Pos: pos(5), Labels: display("", "Cool")},
			{Name: "D", Value: "3", Pos: pos(6), Labels: display("Cool")},
		},
	}
	ds := Declaration(decl, conf.DefaultSettings())
	if diff := cmp.Diff([]string{"FE0004"}, codes(ds)); diff != "" {
		t.Fatalf("codes mismatch (-want +got):\n%s\n%v", diff, ds)
	}
	if ds[0].Pos != pos(6) || !strings.Contains(ds[0].Message, `label "Cool" of C`) {
		t.Errorf("label diagnostic = %v", ds[0])
	}
}

func TestUnits(t *testing.T) {
	a := Unit{Package: "example.com/paint", Name: "Fast", Enum: "example.com/paint.Color", Pos: pos(1)}
	b := Unit{Package: "example.com/paint", Name: "Fast", Enum: "example.com/paint.Shade", Pos: pos(20)}
	c := Unit{Package: "example.com/paint", Name: "ToneExtensions", Enum: "example.com/tones.Tone", Pos: pos(30)}

	forward := Units([]Unit{a, b, c})
	backward := Units([]Unit{c, b, a})
	if diff := cmp.Diff(forward, backward); diff != "" {
		t.Errorf("result depends on input order (-forward +backward):\n%s", diff)
	}
	if len(forward) != 2 {
		t.Fatalf("got %d diagnostics, want both colliding declarations: %v", len(forward), forward)
	}
	if forward[0].Pos != a.Pos || !strings.Contains(forward[0].Message, "collides with example.com/paint.Shade") {
		t.Errorf("first = %v", forward[0])
	}
	if forward[1].Pos != b.Pos || !strings.Contains(forward[1].Message, "collides with example.com/paint.Color") {
		t.Errorf("second = %v", forward[1])
	}
	if forward[0].Code != diag.DuplicateUnit.Code || forward[0].Blocking {
		t.Errorf("unexpected rule %v", forward[0])
	}
}
