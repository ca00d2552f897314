// Package pipeline runs the generator stages over a host snapshot and
// remembers their results between runs.
//
// Stages are named and every run reports, per stage and item, whether the
// item was computed for the first time, answered from the memo, recomputed
// with a changed or unchanged result, or dropped:
//
//	extract     declaration -> builder result
//	filter      builder result -> descriptor or nothing
//	validate    declaration -> checker diagnostics
//	group       extension unit identity -> collision diagnostics
//	synthesize  descriptor -> extension unit source
//	scan        API call -> call site candidate
//	intercept   interception request -> interception unit source
//
// An item whose input is structurally equal to the one seen on the previous
// run is not recomputed.
package pipeline

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/broady/fastenum/fastenumgen/builder"
	"github.com/broady/fastenum/fastenumgen/check"
	"github.com/broady/fastenum/fastenumgen/diag"
	"github.com/broady/fastenum/fastenumgen/golang"
	"github.com/broady/fastenum/fastenumgen/host"
	"github.com/broady/fastenum/fastenumgen/intercept"
	"github.com/broady/fastenum/fastenumgen/ir"
	"github.com/broady/fastenum/fastenumgen/scan"
	"github.com/broady/fastenum/internal/conf"
)

// Stage names a pipeline stage.
type Stage string

const (
	StageExtract    Stage = "extract"
	StageFilter     Stage = "filter"
	StageValidate   Stage = "validate"
	StageGroup      Stage = "group"
	StageSynthesize Stage = "synthesize"
	StageScan       Stage = "scan"
	StageIntercept  Stage = "intercept"
)

// Stages lists the stages in evaluation order.
var Stages = []Stage{StageExtract, StageFilter, StageValidate, StageGroup, StageSynthesize, StageScan, StageIntercept}

// Reason tells why a stage produced its output for an item.
type Reason string

const (
	// New items had no previous output.
	ReasonNew Reason = "new"
	// Cached items had the same input as on the previous run.
	ReasonCached Reason = "cached"
	// Modified items were recomputed and produced a different output.
	ReasonModified Reason = "modified"
	// Unchanged items were recomputed and produced the same output.
	ReasonUnchanged Reason = "unchanged"
	// Removed items existed on the previous run only.
	ReasonRemoved Reason = "removed"
)

// Step records what one stage did for one item.
type Step struct {
	Stage  Stage
	Item   string
	Reason Reason
}

// MinInterceptVersion is the oldest go directive for which interception
// output is produced.
const MinInterceptVersion = "1.21"

// Unit is a synthesized extension unit.
type Unit struct {
	// Enum is the FullName of the enumeration.
	Enum string

	// Package is the import path of the package the unit belongs to.
	Package string

	// File is the unit's file name within Package.
	File string

	Source []byte
}

// Interception is a synthesized interception unit.
type Interception struct {
	Request ir.InterceptionRequest
	Source  []byte
}

// Output is the result of one run.
type Output struct {
	// Units are ordered by enumeration then package.
	Units []Unit

	// Interceptions are ordered by request ID.
	Interceptions []Interception

	Diagnostics []diag.Diagnostic

	// Steps are ordered by stage then item.
	Steps []Step
}

// Reason returns the step reason recorded for item in stage.
func (o *Output) Reason(stage Stage, item string) (Reason, bool) {
	for _, s := range o.Steps {
		if s.Stage == stage && s.Item == item {
			return s.Reason, true
		}
	}
	return "", false
}

// Pipeline holds the memo of every stage. Run must not be called
// concurrently.
type Pipeline struct {
	logger *slog.Logger

	extract    *memo[declInput, builder.Result]
	filter     *memo[builder.Result, filtered]
	validate   *memo[declInput, validated]
	group      *memo[[]check.Unit, []diag.Diagnostic]
	synthesize *memo[*ir.EnumDescriptor, Unit]
	scan       *memo[host.Call, scanned]
	intercept  *memo[ir.InterceptionRequest, Interception]
}

type declInput struct {
	Decl     host.Declaration
	Settings conf.Settings
}

type filtered struct {
	Enum      *ir.EnumDescriptor
	Intercept bool
}

// validated is the checker result. A zero value means the check faulted.
type validated struct {
	Diagnostics []diag.Diagnostic
	OK          bool
}

type scanned struct {
	Candidate ir.CallSiteCandidate
	OK        bool
}

// New returns an empty pipeline. A nil logger uses slog.Default.
func New(logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		logger:     logger,
		extract:    newMemo[declInput, builder.Result](StageExtract),
		filter:     newMemo[builder.Result, filtered](StageFilter),
		validate:   newMemo[declInput, validated](StageValidate),
		group:      newMemo[[]check.Unit, []diag.Diagnostic](StageGroup),
		synthesize: newMemo[*ir.EnumDescriptor, Unit](StageSynthesize),
		scan:       newMemo[host.Call, scanned](StageScan),
		intercept:  newMemo[ir.InterceptionRequest, Interception](StageIntercept),
	}
}

// run accumulates the output of one Run.
type run struct {
	out *Output
}

func (r *run) collect(faults []diag.Diagnostic, steps []Step) {
	r.out.Diagnostics = append(r.out.Diagnostics, faults...)
	r.out.Steps = append(r.out.Steps, steps...)
}

// live is a descriptor that passed extraction and validation.
type live struct {
	decl      host.Declaration
	enum      *ir.EnumDescriptor
	intercept bool
}

// Run evaluates every stage over snap. Problems with individual items
// become diagnostics; the error is non-nil only when ctx is done.
func (p *Pipeline) Run(ctx context.Context, snap *host.Snapshot) (*Output, error) {
	r := &run{out: &Output{}}
	r.out.Diagnostics = append(r.out.Diagnostics, snap.Diagnostics...)

	settings, err := conf.DecodeSettings(snap.Settings)
	if err != nil {
		r.out.Diagnostics = append(r.out.Diagnostics, diag.InvalidConfig.At(snap.SettingsPos, "%s: %v", conf.FileName, err))
	}

	lives, err := p.runDeclarations(ctx, r, snap, settings)
	if err != nil {
		return nil, err
	}
	if err := p.runGroup(ctx, r, lives); err != nil {
		return nil, err
	}
	if err := p.runSynthesize(ctx, r, lives); err != nil {
		return nil, err
	}
	if err := p.runInterception(ctx, r, snap, settings, lives); err != nil {
		return nil, err
	}

	diag.Sort(r.out.Diagnostics)
	slices.SortFunc(r.out.Steps, func(a, b Step) int {
		return cmp.Or(cmp.Compare(slices.Index(Stages, a.Stage), slices.Index(Stages, b.Stage)), cmp.Compare(a.Item, b.Item))
	})
	p.logSteps(r.out.Steps)
	return r.out, nil
}

func (p *Pipeline) runDeclarations(ctx context.Context, r *run, snap *host.Snapshot, settings conf.Settings) ([]live, error) {
	decls := slices.Clone(snap.Declarations)
	slices.SortFunc(decls, func(a, b host.Declaration) int { return cmp.Compare(a.ID(), b.ID()) })
	decls = slices.CompactFunc(decls, func(a, b host.Declaration) bool { return a.ID() == b.ID() })

	items := make([]item[declInput], len(decls))
	for i, d := range decls {
		items[i] = item[declInput]{id: d.ID(), pos: d.Marker.Pos, in: declInput{Decl: d, Settings: settings}}
	}

	built, faults, steps, err := p.extract.run(ctx, items, func(in declInput) (builder.Result, error) {
		return builder.Build(in.Decl, in.Settings), nil
	})
	if err != nil {
		return nil, err
	}
	r.collect(faults, steps)

	filterItems := make([]item[builder.Result], len(built))
	for i, b := range built {
		filterItems[i] = item[builder.Result]{id: items[i].id, pos: items[i].pos, in: b}
		r.out.Diagnostics = append(r.out.Diagnostics, b.Diagnostics...)
	}
	kept, faults, steps, err := p.filter.run(ctx, filterItems, func(b builder.Result) (filtered, error) {
		if b.Enum == nil || diag.HasBlocking(b.Diagnostics) {
			return filtered{}, nil
		}
		return filtered{Enum: b.Enum, Intercept: b.Intercept}, nil
	})
	if err != nil {
		return nil, err
	}
	r.collect(faults, steps)

	checked, faults, steps, err := p.validate.run(ctx, items, func(in declInput) (validated, error) {
		return validated{Diagnostics: check.Declaration(in.Decl, in.Settings), OK: true}, nil
	})
	if err != nil {
		return nil, err
	}
	r.collect(faults, steps)

	var lives []live
	for i, d := range decls {
		r.out.Diagnostics = append(r.out.Diagnostics, checked[i].Diagnostics...)
		if kept[i].Enum == nil || !checked[i].OK || diag.HasBlocking(checked[i].Diagnostics) {
			continue
		}
		lives = append(lives, live{decl: d, enum: kept[i].Enum, intercept: kept[i].Intercept})
	}
	return lives, nil
}

func (p *Pipeline) runGroup(ctx context.Context, r *run, lives []live) error {
	groups := make(map[string][]check.Unit)
	for _, l := range lives {
		u := check.UnitOf(l.enum, l.decl.Marker.Pos)
		id := u.Package + "." + u.Name
		groups[id] = append(groups[id], u)
	}
	ids := slices.Sorted(maps.Keys(groups))
	items := make([]item[[]check.Unit], len(ids))
	for i, id := range ids {
		items[i] = item[[]check.Unit]{id: id, pos: groups[id][0].Pos, in: groups[id]}
	}
	collisions, faults, steps, err := p.group.run(ctx, items, func(us []check.Unit) ([]diag.Diagnostic, error) {
		return check.Units(us), nil
	})
	if err != nil {
		return err
	}
	r.collect(faults, steps)
	for _, ds := range collisions {
		r.out.Diagnostics = append(r.out.Diagnostics, ds...)
	}
	return nil
}

func (p *Pipeline) runSynthesize(ctx context.Context, r *run, lives []live) error {
	items := make([]item[*ir.EnumDescriptor], len(lives))
	for i, l := range lives {
		items[i] = item[*ir.EnumDescriptor]{id: l.decl.ID(), pos: l.decl.Marker.Pos, in: l.enum}
	}
	units, faults, steps, err := p.synthesize.run(ctx, items, func(d *ir.EnumDescriptor) (Unit, error) {
		src, err := golang.Emit(d)
		if err != nil {
			return Unit{}, err
		}
		return Unit{Enum: d.FullName, Package: d.UnitPackage, File: d.FileName(), Source: src}, nil
	})
	if err != nil {
		return err
	}
	r.collect(faults, steps)
	for _, u := range units {
		if u.Source != nil {
			r.out.Units = append(r.out.Units, u)
		}
	}
	slices.SortStableFunc(r.out.Units, func(a, b Unit) int {
		return cmp.Or(cmp.Compare(a.Enum, b.Enum), cmp.Compare(a.Package, b.Package))
	})
	// Colliding units were reported by the group stage; the first wins.
	r.out.Units = slices.CompactFunc(r.out.Units, func(a, b Unit) bool {
		return a.Package == b.Package && a.File == b.File
	})
	return nil
}

// InterceptionSupported reports whether a module declaring goVersion in
// its go directive can build interception output.
func InterceptionSupported(goVersion string) bool {
	// Prereleases such as 1.21rc1 count as their release.
	if i := strings.IndexFunc(goVersion, func(r rune) bool { return (r < '0' || r > '9') && r != '.' }); i >= 0 {
		goVersion = goVersion[:i]
	}
	v := "v" + goVersion
	return semver.IsValid(v) && semver.Compare(v, "v"+MinInterceptVersion) >= 0
}

func (p *Pipeline) runInterception(ctx context.Context, r *run, snap *host.Snapshot, settings conf.Settings, lives []live) error {
	if !settings.Intercept {
		return nil
	}
	if !InterceptionSupported(snap.GoVersion) {
		version := snap.GoVersion
		if version == "" {
			version = "no go directive"
		} else {
			version = "go " + version
		}
		r.out.Diagnostics = append(r.out.Diagnostics, diag.Unavailable.At(ir.Source{File: "go.mod"},
			"call interception requires go %s or later; module declares %s", MinInterceptVersion, version))
		return nil
	}

	targets := interceptTargets(snap, lives)

	calls := make([]item[host.Call], len(snap.Calls))
	for i, c := range snap.Calls {
		c.Span = host.Span{}
		calls[i] = item[host.Call]{
			id:  c.File + ":" + c.Anchor + ":" + strconv.Itoa(c.Ordinal),
			pos: ir.Source{File: c.File},
			in:  c,
		}
	}
	slices.SortFunc(calls, func(a, b item[host.Call]) int { return cmp.Compare(a.id, b.id) })
	calls = slices.CompactFunc(calls, func(a, b item[host.Call]) bool { return a.id == b.id })

	found, faults, steps, err := p.scan.run(ctx, calls, func(c host.Call) (scanned, error) {
		cand, ok := scan.Candidate(c)
		return scanned{Candidate: cand, OK: ok}, nil
	})
	if err != nil {
		return err
	}
	r.collect(faults, steps)

	byTarget := make(map[string][]ir.CallSiteCandidate)
	for _, s := range found {
		if s.OK {
			byTarget[s.Candidate.Target] = append(byTarget[s.Candidate.Target], s.Candidate)
		}
	}
	var items []item[ir.InterceptionRequest]
	for _, l := range targets {
		for _, req := range scan.Group(l.enum, byTarget[l.enum.FullName]) {
			items = append(items, item[ir.InterceptionRequest]{id: req.ID(), pos: l.decl.Marker.Pos, in: req})
		}
	}
	slices.SortFunc(items, func(a, b item[ir.InterceptionRequest]) int { return cmp.Compare(a.id, b.id) })

	units, faults, steps, err := p.intercept.run(ctx, items, func(req ir.InterceptionRequest) (Interception, error) {
		src, err := intercept.Emit(req)
		if err != nil {
			return Interception{}, err
		}
		return Interception{Request: req, Source: src}, nil
	})
	if err != nil {
		return err
	}
	r.collect(faults, steps)
	for _, u := range units {
		if u.Source != nil {
			r.out.Interceptions = append(r.out.Interceptions, u)
		}
	}
	return nil
}

// interceptTargets picks, per enumeration, the descriptor whose extension
// unit call sites are redirected to. Interception must be enabled on the
// marker or by an opt-in directive. A local declaration wins over external
// references to the same type; among those, the first by ID wins.
func interceptTargets(snap *host.Snapshot, lives []live) []live {
	optIn := make(map[string]bool)
	for _, o := range snap.OptIns {
		optIn[o.Target] = true
	}
	chosen := make(map[string]live)
	for _, l := range lives {
		// The opt-in only re-enables external enumerations.
		optedIn := l.decl.Kind == host.DeclExternal && optIn[l.enum.FullName]
		if !l.intercept && !optedIn {
			continue
		}
		prev, ok := chosen[l.enum.FullName]
		if ok && (prev.decl.Kind == host.DeclLocal || l.decl.Kind != host.DeclLocal) {
			continue
		}
		chosen[l.enum.FullName] = l
	}
	targets := make([]live, 0, len(chosen))
	for _, l := range chosen {
		targets = append(targets, l)
	}
	slices.SortFunc(targets, func(a, b live) int { return cmp.Compare(a.enum.FullName, b.enum.FullName) })
	return targets
}

func (p *Pipeline) logSteps(steps []Step) {
	counts := make(map[Stage]map[Reason]int)
	for _, s := range steps {
		if counts[s.Stage] == nil {
			counts[s.Stage] = make(map[Reason]int)
		}
		counts[s.Stage][s.Reason]++
	}
	for _, stage := range Stages {
		c := counts[stage]
		if c == nil {
			continue
		}
		p.logger.Debug("stage",
			slog.String("stage", string(stage)),
			slog.Int("new", c[ReasonNew]),
			slog.Int("cached", c[ReasonCached]),
			slog.Int("modified", c[ReasonModified]),
			slog.Int("unchanged", c[ReasonUnchanged]),
			slog.Int("removed", c[ReasonRemoved]))
	}
}

func (s Step) String() string {
	return fmt.Sprintf("%s %s: %s", s.Stage, s.Item, s.Reason)
}
