// Package app calls the reflection-based API.
package app

import (
	"github.com/broady/fastenum"
	"github.com/broady/fastenum/fastenumgen/provider/testdata/levels"
	"github.com/broady/fastenum/fastenumgen/provider/testdata/paint"
)

//fastenum:external github.com/broady/fastenum/fastenumgen/provider/testdata/levels.Level
//fastenum:intercept github.com/broady/fastenum/fastenumgen/provider/testdata/levels.Level
//fastenum:external github.com/broady/fastenum/fastenumgen/provider/testdata/levels.Missing
//fastenum:external github.com/broady/fastenum/fastenumgen/provider/testdata/nope.Thing

// Show formats a color.
func Show(c paint.Color) string {
	s := fastenum.Name(c)
	s += fastenum.Format(c, "X")
	if fastenum.HasFlag(paint.Read|paint.Write, paint.Read) {
		s += fastenum.Name(levels.High)
	}
	return s
}

var names = fastenum.Names[paint.Color]()

func generic[T fastenum.Enum](v T) string {
	return fastenum.Name(v)
}

//fastenum:flags
type orphan int
