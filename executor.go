package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// Executor runs one command of a chain and returns once it has completed.
type Executor interface {
	Execute(ctx context.Context, command string) error
}

// Run resolves goal and forwards its command chain, in order, to executor.
// The first failing command stops the run.
func (b *Build) Run(ctx context.Context, goal string, executor Executor) error {
	cmds, err := b.Plan(goal)
	if err != nil {
		return err
	}

	for _, cmd := range cmds {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := executor.Execute(ctx, cmd); err != nil {
			return err
		}
	}
	return nil
}

// LogExecutor only reports each command through the logger.
type LogExecutor struct{}

func (LogExecutor) Execute(ctx context.Context, command string) error {
	log(ctx).Info().Msgf("Running: %s", command)
	return nil
}

// DryRunExecutor prints each command to Out.
type DryRunExecutor struct {
	Out io.Writer
}

func (d DryRunExecutor) Execute(_ context.Context, command string) error {
	_, err := fmt.Fprintln(d.Out, command)
	return err
}

// ShellExecutor interprets each command as a POSIX shell program. Every
// command gets a fresh interpreter, so state such as cd does not carry over
// to the next command.
type ShellExecutor struct {
	Dir    string
	Stdout io.Writer
	Stderr io.Writer
}

func NewShellExecutor(dir string) *ShellExecutor {
	return &ShellExecutor{
		Dir:    dir,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

func (s *ShellExecutor) Execute(ctx context.Context, command string) error {
	if strings.TrimSpace(command) == "" {
		return nil
	}

	log(ctx).Info().Bool("command", true).Msg(command)

	file, err := syntax.NewParser().Parse(strings.NewReader(command), "")
	if err != nil {
		return newError(ExecError, command, eris.Wrap(err, "failed to parse command"))
	}

	opts := []interp.RunnerOption{
		interp.Env(expand.ListEnviron(os.Environ()...)),
		interp.StdIO(nil, s.Stdout, s.Stderr),
	}
	if s.Dir != "" {
		opts = append(opts, interp.Dir(s.Dir))
	}

	runner, err := interp.New(opts...)
	if err != nil {
		return newError(ExecError, command, eris.Wrap(err, "failed to initialize runner"))
	}

	if err := runner.Run(ctx, file); err != nil {
		return newError(ExecError, command, err)
	}
	return nil
}

type targetInfo struct {
	Name     string   `json:"name" yaml:"name"`
	Commands int      `json:"commands" yaml:"commands"`
	Deps     []string `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
}

func (b *Build) targetInfos() []targetInfo {
	infos := make([]targetInfo, 0, len(b.Targets))
	for _, name := range b.SortedNames() {
		target := b.Targets[name]
		infos = append(infos, targetInfo{
			Name:     name,
			Commands: len(target.Cmds),
			Deps:     target.Deps,
		})
	}
	return infos
}

func listTargets(w io.Writer, b *Build, format string) error {
	switch format {
	case "json":
		return listTargetsJSON(w, b)
	case "yaml":
		return listTargetsYAML(w, b)
	case "", "table":
		return listTargetsTable(w, b)
	}
	return eris.Errorf("unknown list format %q", format)
}

func listTargetsTable(w io.Writer, b *Build) error {
	fmt.Fprintln(w, "Available targets:")
	fmt.Fprintln(w, "------------------")

	maxNameLen := 0
	for name := range b.Targets {
		if len(name) > maxNameLen {
			maxNameLen = len(name)
		}
	}

	goal := b.DefaultGoal()
	for _, info := range b.targetInfos() {
		padding := strings.Repeat(" ", maxNameLen-len(info.Name)+2)
		deps := ""
		if len(info.Deps) > 0 {
			deps = fmt.Sprintf(" (depends: %s)", strings.Join(info.Deps, ", "))
		}
		marker := ""
		if info.Name == goal {
			marker = " [default]"
		}
		fmt.Fprintf(w, "  %s%s%d commands%s%s\n", info.Name, padding, info.Commands, deps, marker)
	}

	_, err := fmt.Fprintf(w, "\nTotal: %d targets\n", len(b.Targets))
	return err
}

func listTargetsJSON(w io.Writer, b *Build) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(map[string]interface{}{
		"targets": b.targetInfos(),
		"default": b.DefaultGoal(),
		"total":   len(b.Targets),
	})
}

func listTargetsYAML(w io.Writer, b *Build) error {
	encoder := yaml.NewEncoder(w)
	defer func() { _ = encoder.Close() }()
	return encoder.Encode(map[string]interface{}{
		"targets": b.targetInfos(),
		"default": b.DefaultGoal(),
		"total":   len(b.Targets),
	})
}
