package host

import (
	"testing"

	"github.com/broady/fastenum/fastenumgen/ir"
)

func TestActiveLabel(t *testing.T) {
	c := Constant{Name: "Green", Labels: []Label{
		{Source: ir.MetadataDescription, Text: "grass"},
		{Source: ir.MetadataDisplay, Text: ""},
		{Source: ir.MetadataDisplay, Text: "Lime"},
		{Source: ir.MetadataJSON, Text: ""},
	}}
	tests := []struct {
		source ir.MetadataSource
		want   string
		wantOK bool
	}{
		{ir.MetadataDisplay, "Lime", true},
		{ir.MetadataDescription, "grass", true},
		{ir.MetadataJSON, "", false},
		{ir.MetadataNone, "", false},
	}
	for _, tt := range tests {
		t.Run(string(tt.source), func(t *testing.T) {
			got, ok := c.ActiveLabel(tt.source)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ActiveLabel(%s) = %q, %t, want %q, %t", tt.source, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
