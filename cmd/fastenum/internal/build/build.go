// Package build implements the commands that apply call-site interception
// through a go -overlay document.
package build

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/broady/fastenum/cmd/fastenum/internal/gen"
	"github.com/broady/fastenum/internal/runner"
)

type Overlay struct {
	gen.Scope `embed:""`

	Out string `arg:"" help:"Directory for the overlay document and rewritten files." type:"path"`
}

func (c *Overlay) Run(ctx context.Context) error {
	path, res, err := c.Generator().Overlay(ctx, c.Out)
	if err != nil {
		return err
	}
	if err := gen.BlockingError(res); err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}

type Cmd struct {
	gen.Scope `embed:""`

	Keep bool     `help:"Keep the overlay directory instead of removing it."`
	Verb string   `arg:"" help:"go subcommand: build, install, run, test, vet or list." enum:"build,install,run,test,vet,list"`
	Args []string `arg:"" optional:"" passthrough:"" help:"Arguments for the go command."`
}

func (c *Cmd) Run(ctx context.Context) error {
	dir, err := os.MkdirTemp("", "fastenum-overlay-*")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	if c.Keep {
		c.Logger().Info("keeping overlay", "dir", dir)
	} else {
		defer os.RemoveAll(dir)
	}

	path, res, err := c.Generator().Overlay(ctx, filepath.Join(dir, "overlay"))
	if err != nil {
		return err
	}
	if err := gen.BlockingError(res); err != nil {
		return err
	}
	return runner.Exec(ctx, runner.Options{
		Verb:    c.Verb,
		Overlay: path,
		Dir:     c.Dir,
		Args:    c.Args,
	})
}
