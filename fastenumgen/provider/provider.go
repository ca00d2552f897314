// Package provider materializes host snapshots from Go source code.
package provider

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"go/ast"
	"go/constant"
	"go/parser"
	"go/token"
	"go/types"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/mod/modfile"
	"golang.org/x/tools/go/ast/astutil"
	"golang.org/x/tools/go/packages"

	"github.com/broady/fastenum/fastenumgen/diag"
	"github.com/broady/fastenum/fastenumgen/golang"
	"github.com/broady/fastenum/fastenumgen/host"
	"github.com/broady/fastenum/fastenumgen/ir"
	"github.com/broady/fastenum/fastenumgen/scan"
	"github.com/broady/fastenum/internal/conf"
	"github.com/broady/fastenum/internal/directive"
)

// GeneratedSuffix ends the name of every file the generator writes.
const GeneratedSuffix = "_fastenum.go"

// SourceProvider builds snapshots by loading packages with go/packages.
type SourceProvider struct{}

// Options configures snapshot loading.
type Options struct {
	// Dir is the directory patterns are resolved in. It must be inside a
	// module. Empty means the current directory.
	Dir string

	// Patterns are go/packages patterns. Defaults to "./...".
	Patterns []string

	// BuildFlags are passed to the go command, e.g. -tags.
	BuildFlags []string
}

const loadMode = packages.NeedName |
	packages.NeedFiles |
	packages.NeedCompiledGoFiles |
	packages.NeedImports |
	packages.NeedTypes |
	packages.NeedSyntax |
	packages.NeedTypesInfo |
	packages.NeedModule

// Snapshot loads the packages matched by opts and returns everything the
// generator needs from them. Problems confined to a directive or a
// declaration become snapshot diagnostics; errors are returned for load
// failures only.
func (p *SourceProvider) Snapshot(ctx context.Context, opts Options) (*host.Snapshot, error) {
	patterns := opts.Patterns
	if len(patterns) == 0 {
		patterns = []string{"./..."}
	}

	l := &loader{ctx: ctx, opts: opts}
	pkgs, err := l.load(patterns...)
	if err != nil {
		return nil, err
	}
	if err := checkErrors(pkgs); err != nil {
		return nil, err
	}
	if len(pkgs) == 0 {
		return nil, fmt.Errorf("no packages found")
	}

	var mod *packages.Module
	for _, pkg := range pkgs {
		if pkg.Module != nil {
			mod = pkg.Module
			break
		}
	}
	if mod == nil {
		return nil, fmt.Errorf("packages are not in a module")
	}

	b := &snapshotBuilder{
		loader: l,
		snap: &host.Snapshot{
			ModulePath: mod.Path,
			ModuleDir:  mod.Dir,
		},
		pkgs:   make(map[string]*packages.Package),
		consts: make(map[*types.TypeName][]host.Constant),
	}
	if err := b.readModule(mod); err != nil {
		return nil, err
	}
	if err := b.readSettings(); err != nil {
		return nil, err
	}

	slices.SortFunc(pkgs, func(a, b *packages.Package) int { return cmp.Compare(a.PkgPath, b.PkgPath) })
	for _, pkg := range pkgs {
		b.pkgs[pkg.PkgPath] = pkg
	}
	var externals []external
	for _, pkg := range pkgs {
		externals = append(externals, b.scanPackage(pkg)...)
	}
	if err := b.resolveExternals(externals); err != nil {
		return nil, err
	}

	s := b.snap
	slices.SortFunc(s.Declarations, func(a, b host.Declaration) int { return cmp.Compare(a.ID(), b.ID()) })
	slices.SortFunc(s.Calls, func(a, b host.Call) int {
		return cmp.Or(cmp.Compare(a.File, b.File), cmp.Compare(a.Anchor, b.Anchor), cmp.Compare(a.Ordinal, b.Ordinal))
	})
	slices.SortFunc(s.OptIns, func(a, b host.OptIn) int { return cmp.Compare(a.Target, b.Target) })
	diag.Sort(s.Diagnostics)
	return s, nil
}

type loader struct {
	ctx  context.Context
	opts Options
}

func (l *loader) load(patterns ...string) ([]*packages.Package, error) {
	cfg := &packages.Config{
		Context:    l.ctx,
		Dir:        l.opts.Dir,
		Mode:       loadMode,
		BuildFlags: l.opts.BuildFlags,
		ParseFile:  parseFile,
	}
	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("failed to load packages: %w", err)
	}
	return pkgs, nil
}

// checkErrors fails on packages that could not be listed or parsed. Type
// errors are tolerated: generated units may be stale or missing, and code
// referring to them is checked by the compiler later.
func checkErrors(pkgs []*packages.Package) error {
	for _, pkg := range pkgs {
		if loadFailed(pkg) {
			return fmt.Errorf("package %s has errors: %v", pkg.PkgPath, pkg.Errors)
		}
	}
	return nil
}

func loadFailed(pkg *packages.Package) bool {
	return slices.ContainsFunc(pkg.Errors, func(e packages.Error) bool { return e.Kind != packages.TypeError })
}

// parseFile reads generated units as empty files, so that stale units do
// not hide the declarations they were generated from.
func parseFile(fset *token.FileSet, filename string, src []byte) (*ast.File, error) {
	if strings.HasSuffix(filename, GeneratedSuffix) {
		return parser.ParseFile(fset, filename, src, parser.PackageClauseOnly)
	}
	return parser.ParseFile(fset, filename, src, parser.AllErrors|parser.ParseComments)
}

type snapshotBuilder struct {
	loader *loader
	snap   *host.Snapshot
	pkgs   map[string]*packages.Package

	// consts indexes the typed constants of every scanned package.
	consts map[*types.TypeName][]host.Constant
}

// external is an unresolved //fastenum:external directive.
type external struct {
	directive host.Directive
	pkg       *packages.Package
}

func (b *snapshotBuilder) report(r diag.Rule, pos ir.Source, format string, args ...any) {
	b.snap.Diagnostics = append(b.snap.Diagnostics, r.At(pos, format, args...))
}

func (b *snapshotBuilder) readModule(mod *packages.Module) error {
	if mod.GoMod == "" {
		b.snap.GoVersion = mod.GoVersion
		return nil
	}
	data, err := os.ReadFile(mod.GoMod)
	if err != nil {
		return fmt.Errorf("read go.mod: %w", err)
	}
	f, err := modfile.ParseLax(mod.GoMod, data, nil)
	if err != nil {
		return fmt.Errorf("parse go.mod: %w", err)
	}
	if f.Go != nil {
		b.snap.GoVersion = f.Go.Version
	}
	return nil
}

func (b *snapshotBuilder) readSettings() error {
	path := filepath.Join(b.snap.ModuleDir, conf.FileName)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", conf.FileName, err)
	}
	b.snap.SettingsPos = ir.Source{File: conf.FileName, Line: 1, Column: 1}
	f, err := conf.Parse(b.loader.ctx, string(data))
	if err != nil {
		b.report(diag.InvalidConfig, b.snap.SettingsPos, "%v", err)
		return nil
	}
	b.snap.Settings = f.Values
	return nil
}

func (b *snapshotBuilder) pos(pkg *packages.Package, p token.Pos) ir.Source {
	return directive.Position(pkg.Fset, p, b.snap.ModuleDir)
}

// files returns the syntax of pkg ordered by file name, without generated
// units. With inModule set, files outside the module, such as cgo output,
// are left out too.
func (b *snapshotBuilder) files(pkg *packages.Package, inModule bool) []*ast.File {
	var files []*ast.File
	for _, f := range pkg.Syntax {
		name := fileName(pkg.Fset, f)
		if strings.HasSuffix(name, GeneratedSuffix) {
			continue
		}
		if rel, err := filepath.Rel(b.snap.ModuleDir, name); inModule && (err != nil || strings.HasPrefix(rel, "..")) {
			continue
		}
		files = append(files, f)
	}
	slices.SortFunc(files, func(x, y *ast.File) int {
		return cmp.Compare(fileName(pkg.Fset, x), fileName(pkg.Fset, y))
	})
	return files
}

// fileName is the name of the file on disk, ignoring //line directives.
func fileName(fset *token.FileSet, f *ast.File) string {
	return fset.PositionFor(f.Package, false).Filename
}

func (b *snapshotBuilder) scanPackage(pkg *packages.Package) []external {
	dir := ""
	if len(pkg.GoFiles) > 0 {
		dir = filepath.Dir(pkg.GoFiles[0])
	}
	b.snap.Packages = append(b.snap.Packages, host.Package{Path: pkg.PkgPath, Name: pkg.Name, Dir: dir})

	b.indexConstants(pkg)

	var externals []external
	for _, f := range b.files(pkg, true) {
		r := directive.ParseFile(pkg.Fset, f, b.snap.ModuleDir)
		for _, e := range r.Errors {
			b.report(diag.InvalidConfig, e.Pos, "%s", e.Msg)
		}
		for _, d := range r.External {
			externals = append(externals, external{directive: d, pkg: pkg})
		}
		for _, d := range r.Intercept {
			b.snap.OptIns = append(b.snap.OptIns, host.OptIn{Target: d.Target, Pos: d.Pos})
		}
		for ts, ds := range r.Types {
			b.localDeclaration(pkg, f, ts, ds)
		}
		b.scanCalls(pkg, f)
	}
	return externals
}

// indexConstants records the typed constants declared at package level, in
// file then source order.
func (b *snapshotBuilder) indexConstants(pkg *packages.Package) {
	for _, f := range b.files(pkg, false) {
		for _, decl := range f.Decls {
			gd, ok := decl.(*ast.GenDecl)
			if !ok || gd.Tok != token.CONST {
				continue
			}
			for _, spec := range gd.Specs {
				vs := spec.(*ast.ValueSpec)
				labels := directive.Labels(vs)
				for _, name := range vs.Names {
					c, ok := pkg.TypesInfo.Defs[name].(*types.Const)
					if !ok || name.Name == "_" {
						continue
					}
					named, ok := types.Unalias(c.Type()).(*types.Named)
					if !ok || c.Val().Kind() != constant.Int {
						continue
					}
					tn := named.Obj()
					b.consts[tn] = append(b.consts[tn], host.Constant{
						Name:   c.Name(),
						Value:  c.Val().ExactString(),
						Labels: labels,
						Pos:    b.pos(pkg, name.Pos()),
					})
				}
			}
		}
	}
}

func (b *snapshotBuilder) localDeclaration(pkg *packages.Package, f *ast.File, ts *ast.TypeSpec, ds []host.Directive) {
	gen, ok := directive.Find(ds, directive.KindGenerate)
	if !ok {
		b.report(diag.InvalidConfig, ds[0].Pos, "%s%s requires %s%s on the same type",
			directive.Prefix, directive.KindFlags, directive.Prefix, directive.KindGenerate)
		return
	}
	tn, ok := pkg.TypesInfo.Defs[ts.Name].(*types.TypeName)
	if !ok {
		b.report(diag.InvalidConfig, gen.Pos, "%s is not a type", ts.Name.Name)
		return
	}
	if ts.Assign.IsValid() || ts.TypeParams != nil {
		b.report(diag.InvalidConfig, gen.Pos, "%s must be a non-generic defined type", ts.Name.Name)
		return
	}
	enclosing := enclosingScopes(f, ts)
	decl := host.Declaration{
		Kind:            host.DeclLocal,
		Marker:          gen,
		Flags:           directive.Has(ds, directive.KindFlags),
		Name:            tn.Name(),
		Package:         pkg.PkgPath,
		PackageName:     pkg.Name,
		DeclPackage:     pkg.PkgPath,
		DeclPackageName: pkg.Name,
		Underlying:      underlying(tn),
		Exported:        tn.Exported(),
		Enclosing:       enclosing,
		Pos:             b.pos(pkg, ts.Name.Pos()),
	}
	if len(enclosing) == 0 {
		decl.Constants = b.consts[tn]
	}
	b.snap.Declarations = append(b.snap.Declarations, decl)
}

// underlying spells the underlying type of tn. Types that are not basic
// integers are spelled in full and rejected by the builder.
func underlying(tn *types.TypeName) string {
	u := tn.Type().Underlying()
	if basic, ok := u.(*types.Basic); ok && basic.Info()&types.IsInteger != 0 {
		return basic.Name()
	}
	return types.TypeString(u, nil)
}

// enclosingScopes lists the functions ts is declared in, outermost first.
func enclosingScopes(f *ast.File, ts *ast.TypeSpec) []host.Scope {
	path, _ := astutil.PathEnclosingInterval(f, ts.Pos(), ts.End())
	var scopes []host.Scope
	for i := len(path) - 1; i >= 0; i-- {
		switch n := path[i].(type) {
		case *ast.FuncDecl:
			s := host.Scope{Func: n.Name.Name, TypeParams: n.Type.TypeParams.NumFields()}
			if n.Recv != nil && len(n.Recv.List) > 0 {
				recv, params := receiver(n.Recv.List[0].Type)
				s.Func = recv + "." + s.Func
				s.TypeParams += params
			}
			scopes = append(scopes, s)
		case *ast.FuncLit:
			scopes = append(scopes, host.Scope{Func: "func literal"})
		}
	}
	return scopes
}

// receiver returns the base type name of a method receiver and the number
// of type parameters it binds.
func receiver(expr ast.Expr) (string, int) {
	if star, ok := expr.(*ast.StarExpr); ok {
		expr = star.X
	}
	switch x := expr.(type) {
	case *ast.IndexExpr:
		name, _ := receiver(x.X)
		return name, 1
	case *ast.IndexListExpr:
		name, _ := receiver(x.X)
		return name, len(x.Indices)
	case *ast.Ident:
		return x.Name, 0
	}
	return types.ExprString(expr), 0
}

func (b *snapshotBuilder) resolveExternals(externals []external) error {
	var missing []string
	for _, e := range externals {
		path, _, _ := directive.SplitTarget(e.directive.Target)
		if _, ok := b.pkgs[path]; !ok && !slices.Contains(missing, path) {
			missing = append(missing, path)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		pkgs, err := b.loader.load(missing...)
		if err != nil {
			return err
		}
		for _, pkg := range pkgs {
			if loadFailed(pkg) || pkg.Types == nil || pkg.TypesInfo == nil {
				continue
			}
			b.pkgs[pkg.PkgPath] = pkg
			b.indexConstants(pkg)
		}
	}

	for _, e := range externals {
		path, name, _ := directive.SplitTarget(e.directive.Target)
		pkg, ok := b.pkgs[path]
		if !ok || pkg.Types == nil {
			b.report(diag.Unresolved, e.directive.Pos, "cannot load package %s for %s", path, e.directive.Target)
			continue
		}
		tn, ok := pkg.Types.Scope().Lookup(name).(*types.TypeName)
		if !ok {
			b.report(diag.Unresolved, e.directive.Pos, "package %s has no type %s", path, name)
			continue
		}
		b.snap.Declarations = append(b.snap.Declarations, host.Declaration{
			Kind:            host.DeclExternal,
			Marker:          e.directive,
			Name:            tn.Name(),
			Package:         pkg.PkgPath,
			PackageName:     pkg.Name,
			DeclPackage:     e.pkg.PkgPath,
			DeclPackageName: e.pkg.Name,
			Underlying:      underlying(tn),
			Exported:        tn.Exported(),
			Constants:       b.consts[tn],
			Pos:             b.pos(pkg, tn.Pos()),
		})
	}
	return nil
}

// scanCalls records every call to the reflection-based API in f.
func (b *snapshotBuilder) scanCalls(pkg *packages.Package, f *ast.File) {
	absFile := fileName(pkg.Fset, f)
	file := b.pos(pkg, f.Package).File

	visit := func(anchor string, root ast.Node) {
		ordinal := 0
		ast.Inspect(root, func(n ast.Node) bool {
			call, ok := n.(*ast.CallExpr)
			if !ok {
				return true
			}
			fn, id, ok := apiFunc(pkg.TypesInfo, call)
			if !ok {
				return true
			}
			c := host.Call{
				Func:        fn,
				Target:      target(pkg.TypesInfo, id),
				File:        file,
				Anchor:      anchor,
				Ordinal:     ordinal,
				Text:        types.ExprString(call),
				Package:     pkg.PkgPath,
				PackageName: pkg.Name,
				Span:        span(pkg.Fset, absFile, call),
			}
			ordinal++
			if fn == "Format" && len(call.Args) == 2 {
				if tv, ok := pkg.TypesInfo.Types[call.Args[1]]; ok && tv.Value != nil && tv.Value.Kind() == constant.String {
					c.Format = constant.StringVal(tv.Value)
					c.FormatConst = true
				}
			}
			b.snap.Calls = append(b.snap.Calls, c)
			return true
		})
	}

	for _, decl := range f.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			anchor := d.Name.Name
			if d.Recv != nil && len(d.Recv.List) > 0 {
				recv, _ := receiver(d.Recv.List[0].Type)
				anchor = recv + "." + anchor
			}
			visit(anchor, d)
		case *ast.GenDecl:
			for _, spec := range d.Specs {
				visit(d.Tok.String()+" "+specName(spec), spec)
			}
		}
	}
}

func specName(spec ast.Spec) string {
	switch s := spec.(type) {
	case *ast.ValueSpec:
		names := make([]string, len(s.Names))
		for i, n := range s.Names {
			names[i] = n.Name
		}
		return strings.Join(names, ",")
	case *ast.TypeSpec:
		return s.Name.Name
	case *ast.ImportSpec:
		return s.Path.Value
	}
	return ""
}

// apiFunc reports whether call calls a function of the runtime package
// handled by the scanner, and returns its name and identifier.
func apiFunc(info *types.Info, call *ast.CallExpr) (string, *ast.Ident, bool) {
	fun := ast.Unparen(call.Fun)
	switch x := fun.(type) {
	case *ast.IndexExpr:
		fun = x.X
	case *ast.IndexListExpr:
		fun = x.X
	}
	sel, ok := fun.(*ast.SelectorExpr)
	if !ok {
		return "", nil, false
	}
	pkgID, ok := sel.X.(*ast.Ident)
	if !ok {
		return "", nil, false
	}
	pn, ok := info.Uses[pkgID].(*types.PkgName)
	if !ok || pn.Imported().Path() != golang.RuntimePath {
		return "", nil, false
	}
	if _, ok := scan.Operations[sel.Sel.Name]; !ok {
		return "", nil, false
	}
	return sel.Sel.Name, sel.Sel, true
}

// target returns the FullName of the enumeration a call instantiates the
// API with, or "" when it is not a named type, such as a type parameter.
func target(info *types.Info, id *ast.Ident) string {
	inst, ok := info.Instances[id]
	if !ok || inst.TypeArgs.Len() == 0 {
		return ""
	}
	named, ok := types.Unalias(inst.TypeArgs.At(0)).(*types.Named)
	if !ok || named.Obj().Pkg() == nil || named.TypeArgs().Len() > 0 {
		return ""
	}
	return named.Obj().Pkg().Path() + "." + named.Obj().Name()
}

func span(fset *token.FileSet, absFile string, call *ast.CallExpr) host.Span {
	off := func(p token.Pos) int { return fset.Position(p).Offset }
	s := host.Span{AbsFile: absFile, Start: off(call.Pos()), End: off(call.End())}
	for _, a := range call.Args {
		s.Args = append(s.Args, [2]int{off(a.Pos()), off(a.End())})
	}
	return s
}
