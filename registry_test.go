package fastenum

import (
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type level int8

const (
	low  level = -1
	high level = 1
)

func TestRegisterReplaces(t *testing.T) {
	Register(false, Member[level]{Name: "Low", Value: low})
	if got := Name(high); got != "1" {
		t.Errorf("Name(high) before replace = %q", got)
	}

	Register(false,
		Member[level]{Name: "Low", Value: low},
		Member[level]{Name: "High", Label: "Loud", Value: high},
	)
	if got := Name(high); got != "Loud" {
		t.Errorf("Name(high) = %q, want Loud", got)
	}
	if got := Name(low); got != "Low" {
		t.Errorf("Name(low) = %q, want Low", got)
	}
	if diff := cmp.Diff([]any{int8(-1), int8(1)}, UnderlyingValues[level]()); diff != "" {
		t.Errorf("UnderlyingValues mismatch (-want +got):\n%s", diff)
	}
	if v, err := Parse[level]("-1", false); err != nil || v != low {
		t.Errorf("Parse(-1) = %d, %v", v, err)
	}
}

func TestRegisterConcurrent(t *testing.T) {
	type wide uint64
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			Register(true, Member[wide]{Name: fmt.Sprint("W", i), Value: 1 << 63})
		}()
		go func() {
			defer wg.Done()
			_ = Name(wide(1 << 63))
			_ = IsDefined(wide(0))
		}()
	}
	wg.Wait()

	if !IsDefined(wide(1 << 63)) {
		t.Error("value not defined after registration")
	}
	if got := Format(wide(1<<63), "D"); got != "9223372036854775808" {
		t.Errorf("Format(D) = %q", got)
	}
}
