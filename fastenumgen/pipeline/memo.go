package pipeline

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/broady/fastenum/fastenumgen/diag"
	"github.com/broady/fastenum/fastenumgen/ir"
	"github.com/broady/fastenum/internal/keys"
)

// item is one unit of work for a stage.
type item[In any] struct {
	id  string
	pos ir.Source
	in  In
}

type entry[Out any] struct {
	in, out string
	val     Out
}

// memo is a stage whose outputs are remembered across runs, keyed by the
// structural key of each item's input.
type memo[In, Out any] struct {
	stage   Stage
	entries map[string]entry[Out]
}

func newMemo[In, Out any](stage Stage) *memo[In, Out] {
	return &memo[In, Out]{stage: stage, entries: make(map[string]entry[Out])}
}

// slot holds what evaluating one item produced.
type slot[Out any] struct {
	entry  entry[Out]
	reason Reason
	fault  *diag.Diagnostic
}

// run evaluates fn for every item not answered by the memo. Items run in
// parallel; results come back in item order. An item whose fn panics or
// fails yields the zero Out and an internal fault diagnostic, and is not
// remembered. Entries for ids absent from items are dropped.
func (m *memo[In, Out]) run(ctx context.Context, items []item[In], fn func(In) (Out, error)) ([]Out, []diag.Diagnostic, []Step, error) {
	slots := make([]slot[Out], len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, it := range items {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			slots[i] = m.eval(it, fn)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, nil, err
	}

	outs := make([]Out, len(items))
	var faults []diag.Diagnostic
	steps := make([]Step, 0, len(items))
	seen := make(map[string]bool, len(items))
	for i, s := range slots {
		id := items[i].id
		seen[id] = true
		steps = append(steps, Step{Stage: m.stage, Item: id, Reason: s.reason})
		if s.fault != nil {
			faults = append(faults, *s.fault)
			delete(m.entries, id)
			continue
		}
		outs[i] = s.entry.val
		m.entries[id] = s.entry
	}
	for id := range m.entries {
		if !seen[id] {
			steps = append(steps, Step{Stage: m.stage, Item: id, Reason: ReasonRemoved})
			delete(m.entries, id)
		}
	}
	return outs, faults, steps, nil
}

func (m *memo[In, Out]) eval(it item[In], fn func(In) (Out, error)) (s slot[Out]) {
	defer func() {
		if r := recover(); r != nil {
			d := diag.InternalFault.At(it.pos, "%s %s: panic: %v", m.stage, it.id, r)
			s = slot[Out]{reason: ReasonNew, fault: &d}
		}
	}()

	inKey, err := keys.Try(it.in)
	if err != nil {
		return m.fail(it, err)
	}
	prev, ok := m.entries[it.id]
	if ok && prev.in == inKey {
		return slot[Out]{entry: prev, reason: ReasonCached}
	}

	val, err := fn(it.in)
	if err != nil {
		return m.fail(it, err)
	}
	outKey, err := keys.Try(val)
	if err != nil {
		return m.fail(it, err)
	}

	s = slot[Out]{entry: entry[Out]{in: inKey, out: outKey, val: val}, reason: ReasonNew}
	switch {
	case !ok:
	case prev.out == outKey:
		s.reason = ReasonUnchanged
	default:
		s.reason = ReasonModified
	}
	return s
}

func (m *memo[In, Out]) fail(it item[In], err error) slot[Out] {
	d := diag.InternalFault.At(it.pos, "%s %s: %v", m.stage, it.id, err)
	return slot[Out]{reason: ReasonNew, fault: &d}
}
