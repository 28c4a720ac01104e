// Package convert holds the plumbing shared by the opendata2json and
// record2json tools: flags, configuration precedence, logging, and output.
package convert

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	opendata "github.com/openmr3/go"
	"github.com/openmr3/go/internal/config"
)

// Sentinels accepted by --input and --output, compared case-insensitively.
const (
	Stdin  = "stdin"
	Stdout = "stdout"
)

// CommonFlags returns the flags both tools accept besides --input.
func CommonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Value:   Stdout,
			Usage:   "output file, or stdout",
			EnvVars: []string{"OPENDATA_OUTPUT"},
		},
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "output encoding: json or yaml (default json)",
			EnvVars: []string{"OPENDATA_FORMAT"},
		},
		&cli.IntFlag{
			Name:    "indent",
			Usage:   "indent width; 0 writes compact JSON",
			EnvVars: []string{"OPENDATA_INDENT"},
		},
		&cli.StringFlag{
			Name:    "config",
			Usage:   "TOML configuration file",
			EnvVars: []string{"OPENDATA_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "debug, info, warn or error (default warn)",
			EnvVars: []string{"OPENDATA_LOG_LEVEL"},
		},
		&cli.StringFlag{
			Name:    "log-format",
			Usage:   "text or json (default text)",
			EnvVars: []string{"OPENDATA_LOG_FORMAT"},
		},
	}
}

// Settings loads the configuration file and applies flag and environment
// overrides on top of it.
func Settings(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if c.IsSet("format") {
		cfg.Output.Format = strings.ToLower(c.String("format"))
	}
	if c.IsSet("indent") {
		cfg.Output.Indent = c.Int("indent")
	}
	if c.IsSet("log-level") {
		cfg.Log.Level = strings.ToLower(c.String("log-level"))
	}
	if c.IsSet("log-format") {
		cfg.Log.Format = strings.ToLower(c.String("log-format"))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// NewLogger builds a slog logger writing to w.
func NewLogger(w io.Writer, cfg config.LogConfig) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

// IsStdin reports whether name is the stdin sentinel.
func IsStdin(name string) bool {
	return strings.EqualFold(name, Stdin)
}

// IsStdout reports whether name is the stdout sentinel.
func IsStdout(name string) bool {
	return strings.EqualFold(name, Stdout)
}

// Emitter serializes a value tree to a file or stdout.
type Emitter struct {
	Output string
	Stdout io.Writer
	Config config.OutputConfig
	Logger *slog.Logger
}

// Emit encodes v and writes it in full. Nothing is written when encoding
// fails; a SerializationError is logged with an outline of v first.
func (e *Emitter) Emit(v opendata.Value) error {
	var buf bytes.Buffer
	var err error
	switch e.Config.Format {
	case "yaml":
		err = opendata.EncodeYAML(&buf, v, e.Config.Indent)
	default:
		err = opendata.EncodeJSON(&buf, v, e.Config.Indent)
	}

	var serr *opendata.SerializationError
	if errors.As(err, &serr) {
		e.Logger.Error("cannot serialize value tree", "path", serr.Path, "reason", serr.Msg, "tree", opendata.Outline(v))
		return err
	}
	if err != nil {
		return err
	}

	if IsStdout(e.Output) {
		_, err = e.Stdout.Write(buf.Bytes())
		return err
	}
	if err := os.WriteFile(e.Output, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	e.Logger.Info("wrote output", "file", e.Output, "bytes", buf.Len())
	return nil
}
