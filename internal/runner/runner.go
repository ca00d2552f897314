// Package runner runs the go command with an overlay document, so builds
// see the extension units and the rewritten call sites without the source
// tree being modified.
package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"slices"
	"strings"
)

// Verbs are the go subcommands that accept -overlay.
var Verbs = []string{"build", "install", "run", "test", "vet", "list"}

// Options configures the runner.
type Options struct {
	// Verb is the go subcommand, one of Verbs.
	Verb string

	// Overlay is the path of the overlay document.
	Overlay string

	// Dir is the working directory of the go command.
	Dir string

	// Args follow the -overlay flag: further flags, then packages, then
	// program or test arguments.
	Args []string

	// Env is appended to the environment of the current process.
	Env []string

	// Stdout and Stderr default to the process' own.
	Stdout io.Writer
	Stderr io.Writer

	// GoCmd is the go command to run. Default: "go".
	GoCmd string
}

// Command returns the go command described by opts without starting it.
func Command(ctx context.Context, opts Options) (*exec.Cmd, error) {
	if !slices.Contains(Verbs, opts.Verb) {
		return nil, fmt.Errorf("go %s does not accept -overlay; use one of %s", opts.Verb, strings.Join(Verbs, ", "))
	}
	if opts.Overlay == "" {
		return nil, fmt.Errorf("no overlay document")
	}
	for _, a := range opts.Args {
		if a == "-overlay" || strings.HasPrefix(a, "-overlay=") || strings.HasPrefix(a, "--overlay") {
			return nil, fmt.Errorf("%s conflicts with the generated overlay", a)
		}
	}

	gocmd := opts.GoCmd
	if gocmd == "" {
		gocmd = "go"
	}
	args := append([]string{opts.Verb, "-overlay", opts.Overlay}, opts.Args...)
	cmd := exec.CommandContext(ctx, gocmd, args...)
	cmd.Dir = opts.Dir
	cmd.Env = append(os.Environ(), opts.Env...)
	cmd.Stdout = opts.Stdout
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	cmd.Stderr = opts.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}
	return cmd, nil
}

// Exec runs the go command and waits for it.
func Exec(ctx context.Context, opts Options) error {
	cmd, err := Command(ctx, opts)
	if err != nil {
		return err
	}
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("go %s: %w", opts.Verb, err)
	}
	return nil
}
