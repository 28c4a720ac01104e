// opendata2json converts one OpenData document to JSON (or YAML).
//
// Usage:
//
//	opendata2json [--input FILE|stdin] [--output FILE|stdout] [--format json|yaml]
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
		fmt.Fprintln(os.Stderr, "opendata2json:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "opendata2json",
		Usage: "Convert an OpenData file to JSON",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:    "input",
				Aliases: []string{"i"},
				Value:   convert.Stdin,
				Usage:   "input OpenData file, or stdin",
				EnvVars: []string{"OPENDATA_INPUT"},
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

	parser := opendata.NewParser().WithLogger(logger)
	input := c.String("input")

	var doc *opendata.Document
	if convert.IsStdin(input) {
		doc, err = parser.ParseDocument(c.App.Reader)
	} else {
		doc, err = parser.ParseFile(input)
	}
	if err != nil {
		return err
	}

	emitter := &convert.Emitter{
		Output: c.String("output"),
		Stdout: c.App.Writer,
		Config: cfg.Output,
		Logger: logger,
	}
	return emitter.Emit(doc)
}
