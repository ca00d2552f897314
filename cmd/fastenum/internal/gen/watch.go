package gen

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/broady/fastenum/fastenumgen"
	"github.com/broady/fastenum/fastenumgen/provider"
	"github.com/broady/fastenum/internal/conf"
)

// settle is how long the tree must be quiet before a rerun.
const settle = 150 * time.Millisecond

// Watch generates, then regenerates whenever a source file of a loaded
// package, go.mod or the project configuration changes. The generator's
// stage results carry over between runs. It returns when ctx is done.
func Watch(ctx context.Context, g *fastenumgen.Generator, dir string, logger *slog.Logger, done func(*fastenumgen.GenerateResult)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	watched := make(map[string]bool)
	add := func(dir string) {
		if dir == "" || watched[dir] {
			return
		}
		if err := w.Add(dir); err != nil {
			logger.Warn("cannot watch directory", slog.String("dir", dir), slog.Any("error", err))
			return
		}
		watched[dir] = true
	}
	if abs, err := filepath.Abs(dir); err == nil {
		add(abs)
	}

	run := func() {
		res, err := g.Generate(ctx)
		if res != nil && res.Snapshot != nil {
			add(res.Snapshot.ModuleDir)
			for _, p := range res.Snapshot.Packages {
				add(p.Dir)
			}
		}
		if err != nil {
			logger.Error("generate failed", slog.Any("error", err))
			return
		}
		done(res)
		logger.Info("watching for changes", slog.Int("dirs", len(watched)))
	}
	run()

	timer := time.NewTimer(settle)
	timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if Relevant(ev) {
				logger.Debug("change", slog.String("file", ev.Name), slog.String("op", ev.Op.String()))
				timer.Reset(settle)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", slog.Any("error", err))
		case <-timer.C:
			run()
		}
	}
}

// Relevant reports whether ev can change the generator's output. Writes of
// generated units are ignored so a run does not trigger the next.
func Relevant(ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod {
		return false
	}
	base := filepath.Base(ev.Name)
	switch {
	case base == "go.mod", base == conf.FileName:
		return true
	case strings.HasPrefix(base, ".") || strings.HasPrefix(base, "_"):
		return false
	case strings.HasSuffix(base, provider.GeneratedSuffix):
		return false
	}
	return strings.HasSuffix(base, ".go")
}
