// Package levels declares an enumeration without directives.
package levels

type Level uint16

const (
	Low  Level = 10
	High Level = 20
)
