package main

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
)

// MetaCommand is a built-in invoked with the multi-word form $(name args...).
type MetaCommand int

const (
	MetaShell MetaCommand = iota + 1
	MetaWildcard
)

var metaKeywords = map[string]MetaCommand{
	"shell":    MetaShell,
	"wildcard": MetaWildcard,
	// historical spelling
	"whildcard": MetaWildcard,
}

func (m MetaCommand) String() string {
	switch m {
	case MetaShell:
		return "shell"
	case MetaWildcard:
		return "wildcard"
	}
	return "unknown"
}

// ParseMetaCommand maps a keyword to its built-in.
func ParseMetaCommand(keyword string) (MetaCommand, error) {
	if m, ok := metaKeywords[keyword]; ok {
		return m, nil
	}
	return 0, newError(UnknownMetaError, keyword, nil)
}

func (e *Expander) meta(ctx context.Context, target string, words []string) (string, error) {
	cmd, err := ParseMetaCommand(words[0])
	if err != nil {
		return "", err
	}

	switch cmd {
	case MetaShell:
		return e.shell(ctx, words[1], words[2:])
	case MetaWildcard:
		log(ctx).Warn().
			Str("target", target).
			Msgf("%s is not yet supported", words[0])
		return "", nil
	}
	return "", newError(UnknownMetaError, words[0], nil)
}

func (e *Expander) shell(ctx context.Context, program string, args []string) (string, error) {
	name := strings.Join(append([]string{program}, args...), " ")
	if e.Shell == nil {
		return "", newError(ShellSpawnError, name, eris.New("no shell runner configured"))
	}

	out, err := e.Shell(ctx, program, args)
	if err != nil {
		return "", newError(ShellSpawnError, name, err)
	}
	if !utf8.Valid(out) {
		return "", newError(ShellSpawnError, name, eris.New("output is not valid UTF-8"))
	}
	return string(out), nil
}

// runShell starts program directly, without an intermediate shell, and
// returns what it wrote to stdout. Only a program that cannot be started is
// an error; a non-zero exit keeps the captured output and logs a warning.
func runShell(ctx context.Context, program string, args []string) ([]byte, error) {
	var stderr bytes.Buffer

	// #nosec G204 - running user-declared programs is the point of $(shell ...)
	cmd := exec.CommandContext(ctx, program, args...)
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			log(ctx).Warn().
				Int("status", exitErr.ExitCode()).
				Msgf("shell command %s exited with status %d: %s",
					program, exitErr.ExitCode(), strings.TrimSpace(stderr.String()))
			return out, nil
		}
		return nil, eris.Wrapf(err, "cannot start %s", program)
	}
	return out, nil
}
