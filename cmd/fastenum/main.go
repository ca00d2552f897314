package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"

	"github.com/broady/fastenum/cmd/fastenum/internal/build"
	"github.com/broady/fastenum/cmd/fastenum/internal/check"
	"github.com/broady/fastenum/cmd/fastenum/internal/gen"
)

type CLI struct {
	Version VersionCmd    `cmd:"" help:"Print version information."`
	Gen     gen.Cmd       `cmd:"" help:"Generate extension units for marked enumerations."`
	Check   check.Cmd     `cmd:"" help:"Report diagnostics without writing files."`
	Overlay build.Overlay `cmd:"" help:"Write a go build -overlay document that intercepts reflection calls."`
	Build   build.Cmd     `cmd:"" help:"Run a go command with call-site interception applied."`
}

type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Println(Version())
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cli := &CLI{}
	kctx := kong.Parse(cli,
		kong.Name("fastenum"),
		kong.Description("Reflection-free enumeration helpers for Go."),
		kong.UsageOnError(),
		kong.BindTo(ctx, (*context.Context)(nil)),
	)
	err := kctx.Run()
	kctx.FatalIfErrorf(err)
}
