package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/broady/fastenum/fastenumgen/diag"
)

func items(ins ...string) []item[string] {
	its := make([]item[string], len(ins))
	for i, in := range ins {
		its[i] = item[string]{id: in[:1], in: in}
	}
	return its
}

func TestMemoFaults(t *testing.T) {
	m := newMemo[string, int]("test")
	fn := func(in string) (int, error) {
		switch in {
		case "boom":
			panic("kaboom")
		case "fail":
			return 0, errors.New("bad input")
		}
		return len(in), nil
	}

	outs, faults, steps, err := m.run(context.Background(), items("abc", "boom", "fail"), fn)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]int{3, 0, 0}, outs); diff != "" {
		t.Errorf("outputs (-want +got):\n%s", diff)
	}
	if len(faults) != 2 {
		t.Fatalf("got faults %v, want 2", faults)
	}
	for _, f := range faults {
		if f.Code != diag.InternalFault.Code || !f.Blocking {
			t.Errorf("fault %v", f)
		}
	}
	if len(steps) != 3 {
		t.Errorf("got %d steps, want 3", len(steps))
	}

	_, _, steps, err = m.run(context.Background(), items("abc", "boom", "fail"), fn)
	if err != nil {
		t.Fatal(err)
	}
	want := []Step{
		{Stage: "test", Item: "a", Reason: ReasonCached},
		{Stage: "test", Item: "b", Reason: ReasonNew},
		{Stage: "test", Item: "f", Reason: ReasonNew},
	}
	if diff := cmp.Diff(want, steps); diff != "" {
		t.Errorf("faulted items must not be remembered (-want +got):\n%s", diff)
	}
}

func TestMemoReasons(t *testing.T) {
	m := newMemo[string, int]("test")
	fn := func(in string) (int, error) { return len(in), nil }

	if _, _, _, err := m.run(context.Background(), items("abc", "xy", "q"), fn); err != nil {
		t.Fatal(err)
	}
	outs, _, steps, err := m.run(context.Background(), items("abc", "xz", "zzzz"), fn)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]int{3, 2, 4}, outs); diff != "" {
		t.Errorf("outputs (-want +got):\n%s", diff)
	}
	want := []Step{
		{Stage: "test", Item: "a", Reason: ReasonCached},
		{Stage: "test", Item: "x", Reason: ReasonUnchanged},
		{Stage: "test", Item: "z", Reason: ReasonNew},
		{Stage: "test", Item: "q", Reason: ReasonRemoved},
	}
	if diff := cmp.Diff(want, steps); diff != "" {
		t.Errorf("steps (-want +got):\n%s", diff)
	}

	_, _, steps, err = m.run(context.Background(), items("abcd"), fn)
	if err != nil {
		t.Fatal(err)
	}
	if steps[0].Reason != ReasonModified {
		t.Errorf("changed output reported as %q", steps[0].Reason)
	}
}
