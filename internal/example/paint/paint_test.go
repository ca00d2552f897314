package paint_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/broady/fastenum"
	"github.com/broady/fastenum/fastenumgen"
	"github.com/broady/fastenum/internal/example/paint"
)

func TestNameMatchesRuntime(t *testing.T) {
	for _, v := range []paint.Color{paint.Red, paint.Green, paint.Blue, paint.Crimson, 3, -1, 1 << 30} {
		if got, want := paint.ColorExtensions.ToStringFast(v), fastenum.Name(v); got != want {
			t.Errorf("ToStringFast(%d) = %q, runtime %q", v, got, want)
		}
		if got, want := string(paint.ColorExtensions.AppendString([]byte("c="), v)), string(fastenum.AppendName([]byte("c="), v)); got != want {
			t.Errorf("AppendString(%d) = %q, runtime %q", v, got, want)
		}
		if got, want := paint.ColorExtensions.IsDefined(v), fastenum.IsDefined(v); got != want {
			t.Errorf("IsDefined(%d) = %v, runtime %v", v, got, want)
		}
	}
}

func TestLabels(t *testing.T) {
	tests := []struct {
		v    paint.Color
		want string
	}{
		{paint.Red, "Red"},
		{paint.Green, "Lime green"},
		// description is not the active metadata source
		{paint.Blue, "Blue"},
		// duplicates resolve to the first constant with the value
		{paint.Crimson, "Red"},
	}
	for _, tt := range tests {
		if got := paint.ColorExtensions.ToStringFast(tt.v); got != tt.want {
			t.Errorf("ToStringFast(%d) = %q, want %q", tt.v, got, tt.want)
		}
	}
}

func TestParseMatchesRuntime(t *testing.T) {
	inputs := []string{"Red", "red", "GREEN", "Crimson", "Lime green", "2", "7", "-1", "2147483648", "", "Sky"}
	for _, in := range inputs {
		for _, ignoreCase := range []bool{false, true} {
			got, gotOK := paint.ColorExtensions.TryParse(in, ignoreCase, false)
			want, wantOK := fastenum.TryParse[paint.Color](in, ignoreCase)
			if got != want || gotOK != wantOK {
				t.Errorf("TryParse(%q, %v) = %d, %v; runtime %d, %v", in, ignoreCase, got, gotOK, want, wantOK)
			}
		}
		if got, want := paint.ColorExtensions.IsDefinedName(in, false), fastenum.IsDefinedName[paint.Color](in); got != want {
			t.Errorf("IsDefinedName(%q) = %v, runtime %v", in, got, want)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	for _, v := range paint.ColorExtensions.Values() {
		s := paint.ColorExtensions.ToStringFast(v)
		got, err := paint.ColorExtensions.Parse(s, false, true)
		if err != nil {
			t.Errorf("Parse(%q): %v", s, err)
			continue
		}
		if got != v {
			t.Errorf("Parse(ToStringFast(%d)) = %d", v, got)
		}
	}

	if _, err := paint.ColorExtensions.Parse("Lime green", false, false); err == nil {
		t.Error("labels matched without allowLabelMatch")
	}
	if v, ok := paint.ColorExtensions.TryParse("lime GREEN", true, true); !ok || v != paint.Green {
		t.Errorf("TryParse ignoring case = %d, %v", v, ok)
	}
}

func TestFlags(t *testing.T) {
	for v := range paint.Perm(8) {
		for flag := range paint.Perm(8) {
			if got, want := paint.PermExtensions.HasFlag(v, flag), fastenum.HasFlag(v, flag); got != want {
				t.Errorf("HasFlag(%d, %d) = %v, runtime %v", v, flag, got, want)
			}
		}
	}
	if !fastenum.IsFlags[paint.Perm]() || fastenum.IsFlags[paint.Color]() {
		t.Error("flags registration mismatch")
	}
	if got := fastenum.Format(paint.Read|paint.Exec, "F"); got != "Read, Exec" {
		t.Errorf("Format(Read|Exec, F) = %q", got)
	}
}

func TestLists(t *testing.T) {
	if diff := cmp.Diff(fastenum.Names[paint.Color](), paint.ColorExtensions.Names()); diff != "" {
		t.Errorf("Names (-runtime +unit):\n%s", diff)
	}
	if diff := cmp.Diff(fastenum.Values[paint.Color](), paint.ColorExtensions.Values()); diff != "" {
		t.Errorf("Values (-runtime +unit):\n%s", diff)
	}
	var underlying []any
	for _, v := range paint.PermExtensions.UnderlyingValues() {
		underlying = append(underlying, v)
	}
	if diff := cmp.Diff(fastenum.UnderlyingValues[paint.Perm](), underlying); diff != "" {
		t.Errorf("UnderlyingValues (-runtime +unit):\n%s", diff)
	}
	if n := paint.ColorExtensions.Len(); n != 4 {
		t.Errorf("Len() = %d", n)
	}
}

// TestUnitsUpToDate fails when the checked-in units differ from what the
// generator produces for this package.
func TestUnitsUpToDate(t *testing.T) {
	res, err := fastenumgen.In(".").
		Patterns(".").
		Logger(slog.New(slog.NewTextHandler(io.Discard, nil))).
		Check(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	var codes []string
	for _, d := range res.Diagnostics {
		codes = append(codes, d.Code)
	}
	// Blue carries a description that is not shown; Crimson duplicates Red.
	if diff := cmp.Diff([]string{"FE0005", "FE0003"}, codes); diff != "" {
		t.Errorf("diagnostic codes (-want +got):\n%s\n%v", diff, res.Diagnostics)
	}
	if len(res.Files) != 2 {
		t.Fatalf("generated %d units, want 2", len(res.Files))
	}
	for _, f := range res.Files {
		disk, err := os.ReadFile(filepath.Join(res.Snapshot.ModuleDir, filepath.FromSlash(f.Path)))
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(string(disk), string(f.Content)); diff != "" {
			t.Errorf("%s is stale; regenerate it (-disk +generated):\n%s", f.Path, diff)
		}
	}
}
