package intercept

import (
	"bytes"
	"cmp"
	"fmt"
	"go/format"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"golang.org/x/tools/go/ast/astutil"

	"github.com/broady/fastenum/fastenumgen/golang"
	"github.com/broady/fastenum/fastenumgen/host"
	"github.com/broady/fastenum/fastenumgen/ir"
	"github.com/broady/fastenum/fastenumgen/scan"
)

// OverlayFile is the name of the document written by Overlay.Write.
const OverlayFile = "overlay.json"

// Unit is a synthesized interception unit placed in the calling package.
type Unit struct {
	Request ir.InterceptionRequest
	Source  []byte

	// Dir is the absolute directory of the calling package.
	Dir string
}

// Path returns where the unit appears in the build.
func (u Unit) Path() string {
	return filepath.Join(u.Dir, u.Request.FileName())
}

// Overlay is the set of files a build must see in place of, or in
// addition to, the files on disk.
type Overlay struct {
	// Files maps absolute source paths to their replacement content.
	Files map[string][]byte
}

// Paths returns the overlaid paths in sorted order.
func (o *Overlay) Paths() []string {
	paths := make([]string, 0, len(o.Files))
	for p := range o.Files {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	return paths
}

type edit struct {
	start, end int
	args       [][2]int
	keep       int
	fn         string
}

// Plan prepares an overlay for units. Every call among calls whose
// fingerprint is served by a unit is rewritten to call its redirect
// function; files with no such call are left alone.
func Plan(units []Unit, calls []host.Call) (*Overlay, error) {
	o := &Overlay{Files: make(map[string][]byte)}

	funcs := make(map[string]string)
	for _, u := range units {
		o.Files[u.Path()] = u.Source
		for fp, fn := range Redirects(u.Request) {
			funcs[fp] = fn
		}
	}

	byFile := make(map[string][]edit)
	for _, c := range calls {
		if c.Span.AbsFile == "" {
			continue
		}
		fn, ok := funcs[scan.Fingerprint(c)]
		if !ok {
			continue
		}
		cand, _ := scan.Candidate(c)
		byFile[c.Span.AbsFile] = append(byFile[c.Span.AbsFile], edit{
			start: c.Span.Start,
			end:   c.Span.End,
			args:  c.Span.Args,
			keep:  KeepArgs(cand, len(c.Span.Args)),
			fn:    fn,
		})
	}

	for path, edits := range byFile {
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		out, err := rewrite(path, src, edits)
		if err != nil {
			return nil, err
		}
		o.Files[path] = out
	}
	return o, nil
}

// rewrite applies edits to the Go file src and reformats it. An import of
// the runtime package left unused by the edits is removed.
func rewrite(path string, src []byte, edits []edit) ([]byte, error) {
	slices.SortFunc(edits, func(a, b edit) int {
		return cmp.Or(cmp.Compare(a.start, b.start), cmp.Compare(b.end, a.end))
	})
	for _, e := range edits {
		if e.start < 0 || e.end > len(src) || e.start > e.end {
			return nil, fmt.Errorf("%s: call span [%d,%d) outside file", path, e.start, e.end)
		}
	}
	rewritten := apply(src, 0, len(src), edits)

	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, path, rewritten, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("rewrite %s: %w", path, err)
	}
	if !astutil.UsesImport(f, golang.RuntimePath) {
		astutil.DeleteImport(fset, f, golang.RuntimePath)
	}
	var buf bytes.Buffer
	if err := format.Node(&buf, fset, f); err != nil {
		return nil, fmt.Errorf("format %s: %w", path, err)
	}
	return buf.Bytes(), nil
}

// apply renders src[start:end] with edits applied. Edits are sorted by
// start; an edit nested in another one's kept arguments is applied inside
// it, and one nested in a dropped argument disappears with it.
func apply(src []byte, start, end int, edits []edit) []byte {
	var out bytes.Buffer
	pos := start
	for i := 0; i < len(edits); {
		e := edits[i]
		j := i + 1
		for j < len(edits) && edits[j].start < e.end {
			j++
		}
		nested := edits[i+1 : j]

		out.Write(src[pos:e.start])
		out.WriteString(e.fn)
		out.WriteByte('(')
		for k, a := range e.args[:e.keep] {
			if k > 0 {
				out.WriteString(", ")
			}
			var inner []edit
			for _, n := range nested {
				if n.start >= a[0] && n.end <= a[1] {
					inner = append(inner, n)
				}
			}
			out.Write(apply(src, a[0], a[1], inner))
		}
		out.WriteByte(')')
		pos = e.end
		i = j
	}
	out.Write(src[pos:end])
	return out.Bytes()
}

// Document is the go build -overlay file format.
type Document struct {
	Replace map[string]string
}

// Write stores the overlaid files in dir and writes the overlay document
// referring to them. It returns the document path.
func (o *Overlay) Write(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create overlay dir: %w", err)
	}
	doc := Document{Replace: make(map[string]string, len(o.Files))}
	for i, p := range o.Paths() {
		dst := filepath.Join(dir, strconv.Itoa(i)+"_"+filepath.Base(p))
		if err := os.WriteFile(dst, o.Files[p], 0o644); err != nil {
			return "", fmt.Errorf("write overlay file: %w", err)
		}
		doc.Replace[p] = dst
	}

	data, err := json.Marshal(doc, json.Deterministic(true), jsontext.WithIndent("\t"))
	if err != nil {
		return "", fmt.Errorf("encode overlay: %w", err)
	}
	path := filepath.Join(dir, OverlayFile)
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("write overlay: %w", err)
	}
	return path, nil
}
