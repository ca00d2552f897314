// Package fastenumgen generates fast, reflection-free operations for
// enumerations and redirects calls to the reflection-based API in package
// fastenum to them.
//
// Enumerations opt in with a directive on the type:
//
//	//fastenum:generate
//	type Color int
//
// Generate writes one extension unit per enumeration next to its
// declaration. Overlay prepares a go build -overlay document that adds
// interception units to calling packages and rewrites the calls.
package fastenumgen

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/broady/fastenum/fastenumgen/diag"
	"github.com/broady/fastenum/fastenumgen/host"
	"github.com/broady/fastenum/fastenumgen/intercept"
	"github.com/broady/fastenum/fastenumgen/pipeline"
	"github.com/broady/fastenum/fastenumgen/provider"
	"github.com/broady/fastenum/fastenumgen/sink"
)

// GenerateResult contains the outcome of a run.
type GenerateResult struct {
	// Files are the extension units, with module-relative paths.
	Files []sink.File

	// Written lists the paths handed to the sink.
	Written []string

	Diagnostics []diag.Diagnostic

	// Steps report what each pipeline stage did.
	Steps []pipeline.Step

	// Interceptions are the interception units for the run.
	Interceptions []pipeline.Interception

	// Snapshot is the program the run worked from.
	Snapshot *host.Snapshot
}

// Blocking reports whether any diagnostic suppressed generation.
func (r *GenerateResult) Blocking() bool {
	return diag.HasBlocking(r.Diagnostics)
}

// engine ties a provider to a long-lived pipeline.
type engine struct {
	mu       sync.Mutex
	cfg      *Config
	provider *provider.SourceProvider
	pipeline *pipeline.Pipeline
}

func (g *Generator) get() *engine {
	if g.engine == nil {
		cfg := applyConfigDefaults(&g.cfg)
		g.engine = &engine{
			cfg:      cfg,
			provider: &provider.SourceProvider{},
			pipeline: pipeline.New(cfg.Logger),
		}
	}
	return g.engine
}

func (e *engine) run(ctx context.Context) (*GenerateResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap, err := e.provider.Snapshot(ctx, provider.Options{
		Dir:        e.cfg.Dir,
		Patterns:   e.cfg.Patterns,
		BuildFlags: e.cfg.BuildFlags,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load packages: %w", err)
	}
	out, err := e.pipeline.Run(ctx, snap)
	if err != nil {
		return nil, err
	}

	res := &GenerateResult{
		Diagnostics:   out.Diagnostics,
		Steps:         out.Steps,
		Interceptions: out.Interceptions,
		Snapshot:      snap,
	}
	for _, u := range out.Units {
		path, err := unitPath(snap, u.Package, u.File)
		if err != nil {
			return nil, err
		}
		res.Files = append(res.Files, sink.File{Path: path, Content: u.Source})
	}
	e.log(res)
	return res, nil
}

// unitPath returns the module-relative path of a file in pkg.
func unitPath(snap *host.Snapshot, pkg, file string) (string, error) {
	dir, err := packageDir(snap, pkg)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(snap.ModuleDir, filepath.Join(dir, file))
	if err != nil {
		return "", fmt.Errorf("place %s: %w", file, err)
	}
	return filepath.ToSlash(rel), nil
}

func packageDir(snap *host.Snapshot, pkg string) (string, error) {
	p, ok := snap.Package(pkg)
	if !ok || p.Dir == "" {
		return "", fmt.Errorf("package %s is not loaded; add it to the package patterns", pkg)
	}
	return p.Dir, nil
}

func (e *engine) log(res *GenerateResult) {
	l := e.cfg.Logger
	for _, d := range res.Diagnostics {
		level := slog.LevelInfo
		switch d.Severity {
		case diag.SeverityWarning:
			level = slog.LevelWarn
		case diag.SeverityError:
			level = slog.LevelError
		}
		l.Log(context.Background(), level, d.Message,
			slog.String("code", d.Code),
			slog.String("pos", d.Pos.String()))
	}
	l.Debug("generated",
		slog.Int("units", len(res.Files)),
		slog.Int("interceptions", len(res.Interceptions)),
		slog.Int("diagnostics", len(res.Diagnostics)))
}

// Check runs the generator without writing anything.
func (g *Generator) Check(ctx context.Context) (*GenerateResult, error) {
	return g.get().run(ctx)
}

// Generate runs the generator and writes the extension units to the sink.
// Write failures are combined into the returned error; the result is
// returned alongside.
func (g *Generator) Generate(ctx context.Context) (*GenerateResult, error) {
	e := g.get()
	res, err := e.run(ctx)
	if err != nil {
		return nil, err
	}
	s := e.cfg.Sink
	if s == nil {
		s = sink.NewFilesystemSink(res.Snapshot.ModuleDir)
	}
	res.Written, err = sink.WriteAll(ctx, s, res.Files)
	if err != nil {
		return res, fmt.Errorf("failed to write units: %w", err)
	}
	return res, nil
}

// Overlay runs the generator and writes a go build -overlay document to
// dir. The overlay adds the extension units and interception units and
// replaces each file with intercepted calls by its rewritten copy; the
// source tree is not modified. It returns the document path.
func (g *Generator) Overlay(ctx context.Context, dir string) (string, *GenerateResult, error) {
	res, err := g.get().run(ctx)
	if err != nil {
		return "", nil, err
	}
	snap := res.Snapshot

	units := make([]intercept.Unit, 0, len(res.Interceptions))
	for _, ic := range res.Interceptions {
		pkgDir, err := packageDir(snap, ic.Request.HostPackage)
		if err != nil {
			return "", res, err
		}
		units = append(units, intercept.Unit{Request: ic.Request, Source: ic.Source, Dir: pkgDir})
	}
	o, err := intercept.Plan(units, snap.Calls)
	if err != nil {
		return "", res, fmt.Errorf("failed to plan overlay: %w", err)
	}
	for _, f := range res.Files {
		o.Files[filepath.Join(snap.ModuleDir, filepath.FromSlash(f.Path))] = f.Content
	}
	path, err := o.Write(dir)
	if err != nil {
		return "", res, err
	}
	return path, res, nil
}
