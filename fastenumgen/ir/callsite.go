package ir

// OperationKind classifies a call to the reflection-based API.
type OperationKind string

const (
	OpStringify        OperationKind = "stringify"
	OpFlagTest         OperationKind = "flag-test"
	OpParse            OperationKind = "parse"
	OpTryParse         OperationKind = "try-parse"
	OpIsDefined        OperationKind = "is-defined"
	OpNames            OperationKind = "names"
	OpValues           OperationKind = "values"
	OpUnderlyingValues OperationKind = "underlying-values"
	OpAppendBuffer     OperationKind = "append-buffer"
)

// ArgShape is the part of a call's arguments that decides whether a fast
// equivalent exists and which one.
type ArgShape struct {
	// Format is the constant format argument of a Format call.
	Format string

	// FormatDynamic is set when the format argument is not a constant.
	FormatDynamic bool

	// ByName is set for IsDefinedName, the string form of is-defined.
	ByName bool
}

// CallSiteCandidate is one call to the reflection-based API whose
// enumeration type is known. It holds no source offsets, so it stays
// equal while unrelated code around the call is edited.
type CallSiteCandidate struct {
	// Fingerprint identifies the call across runs.
	Fingerprint string

	// Target is the FullName of the enumeration type.
	Target string

	Op   OperationKind
	Args ArgShape

	// File is the module-relative path of the file containing the call.
	File string

	// HostPackage is the import path of the package containing the call.
	HostPackage string

	// HostPackageName is the package clause name of HostPackage.
	HostPackageName string
}

// Eligible reports whether the generated unit of d offers an equivalent
// for the call.
func (c CallSiteCandidate) Eligible(d *EnumDescriptor) bool {
	if d == nil || d.FullName != c.Target {
		return false
	}
	switch c.Op {
	case OpStringify:
		if c.Args.FormatDynamic {
			return false
		}
		switch c.Args.Format {
		case "", "g", "G":
			return true
		}
		return false
	case OpFlagTest:
		return d.Flags
	}
	return true
}

// InterceptionRequest collects the eligible calls for one enumeration made
// from one package. Redirect functions must live in the calling package,
// so requests never span packages.
type InterceptionRequest struct {
	Target          string
	Enum            *EnumDescriptor
	HostPackage     string
	HostPackageName string

	// Sites is ordered by file then fingerprint.
	Sites []CallSiteCandidate
}

// ID identifies the request within a run.
func (r InterceptionRequest) ID() string {
	return r.Target + "@" + r.HostPackage
}

// FileName returns the name of the interception unit file.
func (r InterceptionRequest) FileName() string {
	return SanitizeName(r.Target) + "_intercept_fastenum.go"
}
