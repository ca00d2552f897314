package check

import (
	"context"
	"fmt"
	"os"

	"github.com/broady/fastenum/cmd/fastenum/internal/gen"
	"github.com/broady/fastenum/fastenumgen/diag"
)

type Cmd struct {
	gen.Scope `embed:""`

	JSON   bool `help:"Print a JSON report on stdout." env:"FASTENUM_JSON"`
	Strict bool `help:"Fail on warnings as well as blocking diagnostics."`
}

func (c *Cmd) Run(ctx context.Context) error {
	res, err := c.Generator().Check(ctx)
	if err != nil {
		return err
	}
	if c.JSON {
		if err := gen.WriteReport(os.Stdout, res); err != nil {
			return err
		}
	} else {
		for _, d := range res.Diagnostics {
			fmt.Println(d)
		}
		fmt.Printf("✓ %d units, %d interceptions\n", len(res.Files), len(res.Interceptions))
	}

	if err := gen.BlockingError(res); err != nil {
		return err
	}
	if c.Strict {
		for _, d := range res.Diagnostics {
			if d.Severity >= diag.SeverityWarning {
				return fmt.Errorf("warnings reported in strict mode")
			}
		}
	}
	return nil
}
