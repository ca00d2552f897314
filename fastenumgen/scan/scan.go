// Package scan turns calls to the reflection-based API into fingerprinted
// candidates and groups them into interception requests.
package scan

import (
	"cmp"
	"crypto/sha256"
	"encoding/base64"
	"slices"
	"strconv"
	"unicode"
	"unicode/utf8"

	"github.com/broady/fastenum/fastenumgen/host"
	"github.com/broady/fastenum/fastenumgen/ir"
)

// ShapeVersion is mixed into every fingerprint. Changing the way calls are
// identified must change it.
const ShapeVersion = "v1"

// Operations maps the functions of the reflection-based API to the
// operation they perform.
var Operations = map[string]ir.OperationKind{
	"Name":             ir.OpStringify,
	"Format":           ir.OpStringify,
	"AppendName":       ir.OpAppendBuffer,
	"HasFlag":          ir.OpFlagTest,
	"Parse":            ir.OpParse,
	"TryParse":         ir.OpTryParse,
	"IsDefined":        ir.OpIsDefined,
	"IsDefinedName":    ir.OpIsDefined,
	"Names":            ir.OpNames,
	"Values":           ir.OpValues,
	"UnderlyingValues": ir.OpUnderlyingValues,
}

// Fingerprint identifies a call by the file and top-level declaration it
// appears in, its position among API calls in that declaration, and its
// normalized text. Edits outside the declaration leave it unchanged.
func Fingerprint(c host.Call) string {
	h := sha256.New()
	for _, part := range []string{ShapeVersion, c.File, c.Anchor, strconv.Itoa(c.Ordinal), c.Text} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}

// Candidate classifies one call. It reports false for functions outside
// the API and for calls whose enumeration type could not be resolved.
func Candidate(c host.Call) (ir.CallSiteCandidate, bool) {
	op, ok := Operations[c.Func]
	if !ok || c.Target == "" {
		return ir.CallSiteCandidate{}, false
	}
	cand := ir.CallSiteCandidate{
		Fingerprint:     Fingerprint(c),
		Target:          c.Target,
		Op:              op,
		File:            c.File,
		HostPackage:     c.Package,
		HostPackageName: c.PackageName,
	}
	switch c.Func {
	case "Format":
		cand.Args.Format = c.Format
		cand.Args.FormatDynamic = !c.FormatConst
	case "IsDefinedName":
		cand.Args.ByName = true
	}
	return cand, true
}

// Group builds the interception requests for one enumeration, one per
// calling package. Calls without a generated equivalent are dropped, as
// are calls from packages that cannot refer to the extension unit.
func Group(d *ir.EnumDescriptor, candidates []ir.CallSiteCandidate) []ir.InterceptionRequest {
	byPkg := make(map[string]*ir.InterceptionRequest)
	for _, c := range candidates {
		if !c.Eligible(d) || !reachable(d, c.HostPackage) {
			continue
		}
		r, ok := byPkg[c.HostPackage]
		if !ok {
			r = &ir.InterceptionRequest{
				Target:          d.FullName,
				Enum:            d,
				HostPackage:     c.HostPackage,
				HostPackageName: c.HostPackageName,
			}
			byPkg[c.HostPackage] = r
		}
		r.Sites = append(r.Sites, c)
	}

	reqs := make([]ir.InterceptionRequest, 0, len(byPkg))
	for _, r := range byPkg {
		slices.SortFunc(r.Sites, func(a, b ir.CallSiteCandidate) int {
			return cmp.Or(cmp.Compare(a.File, b.File), cmp.Compare(a.Fingerprint, b.Fingerprint))
		})
		r.Sites = slices.CompactFunc(r.Sites, func(a, b ir.CallSiteCandidate) bool {
			return a.Fingerprint == b.Fingerprint
		})
		reqs = append(reqs, *r)
	}
	slices.SortFunc(reqs, func(a, b ir.InterceptionRequest) int {
		return cmp.Compare(a.HostPackage, b.HostPackage)
	})
	return reqs
}

// reachable reports whether code in pkg can call the extension unit of d.
// The enumeration's own package cannot import a unit generated elsewhere,
// since that unit imports it.
func reachable(d *ir.EnumDescriptor, pkg string) bool {
	if pkg == d.UnitPackage {
		return true
	}
	if pkg == d.Package && d.Foreign() {
		return false
	}
	r, _ := utf8.DecodeRuneInString(d.UnitName)
	return unicode.IsUpper(r)
}
