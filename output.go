package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mitchellh/colorstring"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// log returns the logger attached to ctx, or a disabled one.
func log(ctx context.Context) *zerolog.Logger {
	return zerolog.Ctx(ctx)
}

// ConsoleWriter renders zerolog events as one colored line each.
type ConsoleWriter struct {
	Out     io.Writer
	NoColor bool
	Debug   bool

	buffer strings.Builder
	lock   sync.Mutex
}

func NewConsoleWriter(out io.Writer) *ConsoleWriter {
	return &ConsoleWriter{Out: out}
}

func (w *ConsoleWriter) Write(p []byte) (n int, err error) {
	w.lock.Lock()
	defer w.lock.Unlock()

	var evt map[string]interface{}
	d := json.NewDecoder(bytes.NewReader(p))
	d.UseNumber()
	if err := d.Decode(&evt); err != nil {
		return 0, eris.Wrapf(err, "cannot decode event: %s", p)
	}

	w.buffer.Reset()
	switch evt[zerolog.LevelFieldName] {
	case "fatal", "panic", "error":
		w.buffer.WriteString("[red]")
	case "warn":
		w.buffer.WriteString("[yellow]")
	case "debug", "trace":
		w.buffer.WriteString("[blue]")
	default:
		w.buffer.WriteString("[green]")
	}

	if target, ok := evt["target"].(string); ok && target != "" {
		w.buffer.WriteString(target + ": ")
	}

	if msg, ok := evt[zerolog.MessageFieldName].(string); ok {
		w.buffer.WriteString(msg)
	}

	if details, ok := evt[zerolog.ErrorFieldName]; ok {
		w.buffer.WriteString("\n")
		w.buffer.WriteString(fmt.Sprint(details))
	}

	if w.Debug {
		w.buffer.WriteString("\n")
		for name, value := range evt {
			w.buffer.WriteString(fmt.Sprintf("  %s: %+v\n", name, value))
		}
	}

	w.buffer.WriteString("[reset]\n")

	colorize := colorstring.Colorize{
		Colors:  colorstring.DefaultColors,
		Disable: w.NoColor,
		Reset:   true,
	}
	if _, err := io.WriteString(w.Out, colorize.Color(w.buffer.String())); err != nil {
		return 0, err
	}
	return len(p), nil
}

// levelFromEnv reads the LOGL variable. Unknown values fall back to info.
func levelFromEnv() (zerolog.Level, bool) {
	value := strings.TrimSpace(os.Getenv("LOGL"))
	if value == "" {
		return zerolog.InfoLevel, true
	}

	level, err := zerolog.ParseLevel(strings.ToLower(value))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel, false
	}
	return level, true
}

// newLogger builds the console logger. verbose forces the debug level.
func newLogger(out io.Writer, verbose bool) zerolog.Logger {
	level, known := levelFromEnv()
	if verbose && level > zerolog.DebugLevel {
		level = zerolog.DebugLevel
	}

	writer := NewConsoleWriter(out)
	writer.Debug = os.Getenv("YMK_DEBUG") != ""

	logger := zerolog.New(writer).Level(level)
	if !known {
		logger.Warn().Msgf("unknown log level %q in LOGL, using info", os.Getenv("LOGL"))
	}
	return logger
}

func init() {
	zerolog.ErrorMarshalFunc = func(err error) interface{} {
		return eris.ToString(err, os.Getenv("YMK_DEBUG") != "")
	}
}
