package main

import (
	_ "embed"
	"runtime/debug"
	"strings"
)

//go:embed VERSION
var embeddedVersion string

// Version returns the version string.
//
// When installed via `go install ...@version`, returns the module version.
// Development builds report "devel-<VERSION>+<revision>" when the VCS
// revision is stamped.
func Version() string {
	base := strings.TrimSpace(embeddedVersion)

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return base
	}
	if info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}

	var rev string
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && len(s.Value) >= 7 {
			rev = s.Value[:7]
			break
		}
	}
	if rev != "" {
		return "devel-" + base + "+" + rev
	}
	return "devel-" + base
}
