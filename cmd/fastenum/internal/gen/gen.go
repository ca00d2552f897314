// Package gen implements the gen command and the flags shared by every
// command that loads packages.
package gen

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"

	"github.com/broady/fastenum/fastenumgen"
	"github.com/broady/fastenum/fastenumgen/diag"
)

// Scope selects the packages to load.
type Scope struct {
	Dir      string   `help:"Directory package patterns are resolved in." short:"C" default:"." type:"existingdir" env:"FASTENUM_DIR"`
	Patterns []string `help:"Packages to scan." short:"p" default:"./..." env:"FASTENUM_PATTERNS"`
	Tags     string   `help:"Build tags used when loading packages." env:"FASTENUM_TAGS"`
	Verbose  bool     `help:"Log every pipeline step." short:"v" env:"FASTENUM_VERBOSE"`
}

// Logger returns the logger for progress output on stderr.
func (s *Scope) Logger() *slog.Logger {
	level := slog.LevelInfo
	if s.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// Generator configures a generator for the scope.
func (s *Scope) Generator() *fastenumgen.Generator {
	g := fastenumgen.In(s.Dir).Patterns(s.Patterns...).Logger(s.Logger())
	if s.Tags != "" {
		g = g.BuildFlags("-tags=" + s.Tags)
	}
	return g
}

type Cmd struct {
	Scope `embed:""`

	DryRun bool `help:"Report the units that would be written without writing them." short:"n"`
	JSON   bool `help:"Print a JSON report on stdout." env:"FASTENUM_JSON"`
	Watch  bool `help:"Watch for changes and regenerate." short:"w"`
}

func (c *Cmd) Run(ctx context.Context) error {
	g := c.Generator()
	if c.DryRun {
		g = g.DryRun()
	}
	if c.Watch {
		logger := c.Logger()
		done := func(*fastenumgen.GenerateResult) {}
		if c.JSON {
			done = Reporter(os.Stdout, logger)
		}
		return Watch(ctx, g, c.Dir, logger, done)
	}

	res, err := g.Generate(ctx)
	if res != nil && c.JSON {
		if werr := WriteReport(os.Stdout, res); werr != nil {
			return werr
		}
	}
	if err != nil {
		return err
	}
	return BlockingError(res)
}

// Report is the machine-readable summary of a run.
type Report struct {
	Units         []string          `json:"units"`
	Written       []string          `json:"written,omitempty"`
	Interceptions []string          `json:"interceptions,omitempty"`
	Diagnostics   []diag.Diagnostic `json:"diagnostics"`
	Steps         []string          `json:"steps,omitempty"`
}

// NewReport summarizes res.
func NewReport(res *fastenumgen.GenerateResult) *Report {
	r := &Report{
		Units:       []string{},
		Written:     res.Written,
		Diagnostics: res.Diagnostics,
	}
	if r.Diagnostics == nil {
		r.Diagnostics = []diag.Diagnostic{}
	}
	for _, f := range res.Files {
		r.Units = append(r.Units, f.Path)
	}
	for _, ic := range res.Interceptions {
		r.Interceptions = append(r.Interceptions, ic.Request.Target+" in "+ic.Request.HostPackage)
	}
	for _, s := range res.Steps {
		r.Steps = append(r.Steps, s.String())
	}
	return r
}

// WriteReport writes the JSON report of res to w.
func WriteReport(w io.Writer, res *fastenumgen.GenerateResult) error {
	return json.MarshalWrite(w, NewReport(res), json.Deterministic(true), jsontext.WithIndent("  "))
}

// Reporter returns a watch callback writing each result with WriteReport.
// Write failures are logged and do not stop the watch.
func Reporter(w io.Writer, logger *slog.Logger) func(*fastenumgen.GenerateResult) {
	return func(res *fastenumgen.GenerateResult) {
		if err := WriteReport(w, res); err != nil {
			logger.Error("write report", slog.Any("error", err))
		}
	}
}

// BlockingError returns an error when res holds blocking diagnostics.
func BlockingError(res *fastenumgen.GenerateResult) error {
	n := 0
	for _, d := range res.Diagnostics {
		if d.Blocking {
			n++
		}
	}
	if n == 0 {
		return nil
	}
	return fmt.Errorf("%d blocking diagnostic(s)", n)
}
