package fastenumgen

import (
	"log/slog"

	"github.com/broady/fastenum/fastenumgen/sink"
)

// Config holds the configuration for code generation.
type Config struct {
	// Dir is the directory package patterns are resolved in. It must be
	// inside the module. Default: the current directory.
	Dir string

	// Patterns select the packages to scan, e.g. "./...". Generated units
	// can only be placed in scanned packages.
	// Default: []string{"./..."}
	Patterns []string

	// BuildFlags are passed to the go command when loading packages.
	BuildFlags []string

	// Sink receives extension units, with paths relative to the module
	// root. Default: a filesystem sink rooted at the module.
	Sink sink.OutputSink

	// Logger receives progress and diagnostics. Default: slog.Default().
	Logger *slog.Logger
}

func applyConfigDefaults(cfg *Config) *Config {
	// Make a copy to avoid mutating the input
	result := *cfg

	if len(result.Patterns) == 0 {
		result.Patterns = []string{"./..."}
	}
	if result.Logger == nil {
		result.Logger = slog.Default()
	}
	return &result
}

// Generator provides a fluent API for code generation. It remembers the
// results of each stage, so repeated runs only redo the work for what
// changed in between.
//
// Example:
//
//	res, err := fastenumgen.In("./").
//	    Patterns("./internal/...").
//	    Generate(ctx)
type Generator struct {
	cfg    Config
	engine *engine
}

// In creates a Generator loading packages from dir.
func In(dir string) *Generator {
	return &Generator{cfg: Config{Dir: dir}}
}

// FromConfig creates a Generator from a complete configuration.
func FromConfig(cfg Config) *Generator {
	return &Generator{cfg: cfg}
}

// Patterns adds package patterns to scan.
func (g *Generator) Patterns(patterns ...string) *Generator {
	g.cfg.Patterns = append(g.cfg.Patterns, patterns...)
	return g
}

// BuildFlags adds flags for the go command, such as -tags=integration.
func (g *Generator) BuildFlags(flags ...string) *Generator {
	g.cfg.BuildFlags = append(g.cfg.BuildFlags, flags...)
	return g
}

// Sink sets where extension units are written.
func (g *Generator) Sink(s sink.OutputSink) *Generator {
	g.cfg.Sink = s
	return g
}

// DryRun keeps extension units in memory. They are available from the
// result.
func (g *Generator) DryRun() *Generator {
	g.cfg.Sink = sink.NewMemorySink()
	return g
}

// Logger sets the logger.
func (g *Generator) Logger(l *slog.Logger) *Generator {
	g.cfg.Logger = l
	return g
}
