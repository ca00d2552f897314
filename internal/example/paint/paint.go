// Package paint declares the enumerations used by the generator's
// end-to-end tests. Its extension units are checked in; regenerate them
// with "go run ./cmd/fastenum gen -p ./internal/example/...".
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
//fastenum:generate
//fastenum:flags
type Perm uint8

const (
	Read Perm = 1 << iota
	Write
	Exec
)
