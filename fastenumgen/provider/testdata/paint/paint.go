// Package paint declares enumerations for provider tests.
package paint

//fastenum:generate
type Color int32

const (
	Red Color = iota
	//fastenum:display Lime green
	Green
	Blue    //fastenum:description The sky
	Crimson = Red
)

// Perm is a set of permissions.
//
//fastenum:generate name=PermOps intercept=false
//fastenum:flags
type Perm uint8

const (
	Read Perm = 1 << iota
	Write
	Exec
)

const unrelated = 7

// Box holds any value.
type Box[T any] struct{ v T }

// Kinds declares a marked type inside a generic method.
func (b Box[T]) Kinds() int {
	//fastenum:generate
	type Inner int
	return int(Inner(0))
}

func local() int {
	//fastenum:generate
	type step int
	return int(step(1))
}

//fastenum:generate
type Label string
