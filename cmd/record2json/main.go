// record2json converts a Record directory to JSON (or YAML), inlining the
// documents its data and layout entries refer to.
//
// Usage:
//
//	record2json --input DIR [--output FILE|stdout] [--format json|yaml]
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	opendata "github.com/openmr3/go"
	"github.com/openmr3/go/internal/convert"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "record2json:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "record2json",
		Usage: "Convert a Record folder to JSON",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:     "input",
				Aliases:  []string{"i"},
				Required: true,
				Usage:    "input Record folder",
				EnvVars:  []string{"OPENDATA_INPUT"},
			},
		}, convert.CommonFlags()...),
		HideHelpCommand: true,
		Action:          run,
	}
}

func run(c *cli.Context) error {
	cfg, err := convert.Settings(c)
	if err != nil {
		return err
	}
	logger, err := convert.NewLogger(c.App.ErrWriter, cfg.Log)
	if err != nil {
		return err
	}

	rec, err := opendata.NewParser().WithLogger(logger).LoadRecord(c.String("input"))
	if err != nil {
		return err
	}
	logger.Debug("loaded record", "path", rec.Path)

	emitter := &convert.Emitter{
		Output: c.String("output"),
		Stdout: c.App.Writer,
		Config: cfg.Output,
		Logger: logger,
	}
	return emitter.Emit(rec.Mapping())
}
