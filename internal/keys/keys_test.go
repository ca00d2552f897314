package keys

import "testing"

type sample struct {
	Name   string
	Values []int
	Tags   map[string]string
	Nested *sample
}

func TestOfStructural(t *testing.T) {
	a := sample{Name: "a", Values: []int{1, 2}, Tags: map[string]string{"x": "1", "y": "2", "z": "3"}}
	b := sample{Name: "a", Values: []int{1, 2}, Tags: map[string]string{"z": "3", "y": "2", "x": "1"}}
	if Of(a) != Of(b) {
		t.Error("equal values produced different keys")
	}
	if Of(&a) != Of(a) {
		t.Error("pointer and value should encode the same")
	}

	c := a
	c.Values = []int{2, 1}
	if Of(a) == Of(c) {
		t.Error("element order must be part of the key")
	}
	d := a
	d.Nested = &sample{Name: "n"}
	if Of(a) == Of(d) {
		t.Error("nested value must be part of the key")
	}
}

func TestTryRejectsFuncs(t *testing.T) {
	if _, err := Try(struct{ F func() }{F: func() {}}); err == nil {
		t.Error("expected error for func field")
	}
	defer func() {
		if recover() == nil {
			t.Error("Of should panic on unencodable values")
		}
	}()
	Of(make(chan int))
}
