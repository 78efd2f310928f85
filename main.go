package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/agilira/orpheus/pkg/orpheus"
	"github.com/rotisserie/eris"
)

const defaultBuildFile = "ymk.yaml"

var stdout io.Writer = os.Stdout

func main() {
	app := newApp()
	if err := app.Run(withDefaultCommand(os.Args[1:])); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(exitCode(err))
	}
}

func newApp() *orpheus.App {
	app := orpheus.New("ymk").
		SetDescription("Run tasks declared in a YAML build file").
		SetVersion("0.3.0")

	runCmd := orpheus.NewCommand("run", "Run a goal and its dependencies").
		SetHandler(runCommand).
		AddBoolFlag("exec", "x", false, "Execute commands with the built-in shell instead of logging them").
		AddBoolFlag("dry", "n", false, "Print the commands without executing them")

	planCmd := orpheus.NewCommand("plan", "Print the command chain of a goal").
		SetHandler(planCommand)

	listCmd := orpheus.NewCommand("list", "List the targets of the build file").
		SetHandler(listCommand).
		AddFlag("format", "o", "table", "Output format: table, json or yaml")

	validateCmd := orpheus.NewCommand("validate", "Load the build file and report problems").
		SetHandler(validateCommand)

	for _, cmd := range []*orpheus.Command{runCmd, planCmd, listCmd, validateCmd} {
		app.AddCommand(withBuildFlags(cmd))
	}
	app.SetDefaultCommand("run")
	return app
}

var commandNames = map[string]bool{
	"run":      true,
	"plan":     true,
	"list":     true,
	"validate": true,
	"help":     true,
}

// withDefaultCommand puts "run" in front of arguments that do not start with
// a command, so that "ymk [goal] [-C dir]" works like "ymk run ...".
// Top-level help and version flags are left alone.
func withDefaultCommand(args []string) []string {
	if len(args) == 0 || commandNames[args[0]] {
		return args
	}
	switch args[0] {
	case "-h", "--help", "--version":
		return args
	}
	return append([]string{"run"}, args...)
}

func withBuildFlags(cmd *orpheus.Command) *orpheus.Command {
	return cmd.
		AddFlag("directory", "C", ".", "Working directory").
		AddFlag("file", "f", defaultBuildFile, "Build file, relative to the working directory").
		AddBoolFlag("verbose", "v", false, "Enable debug logging")
}

// loadBuild applies the common flags and loads the build file.
func loadBuild(c *orpheus.Context) (context.Context, *Build, error) {
	logger := newLogger(os.Stderr, c.GetFlagBool("verbose"))
	ctx := logger.WithContext(context.Background())

	dir := c.GetFlagString("directory")
	if err := enterDirectory(dir); err != nil {
		return ctx, nil, orpheus.ValidationError("directory", err.Error())
	}
	logger.Debug().Str("path", dir).Msg("build directory set")

	build, err := Load(ctx, c.GetFlagString("file"))
	if err != nil {
		return ctx, nil, err
	}
	return ctx, build, nil
}

func enterDirectory(dir string) error {
	if dir == "" || dir == "." {
		return nil
	}

	info, err := os.Stat(dir)
	if err != nil {
		return eris.Wrapf(err, "cannot access %s", dir)
	}
	if !info.IsDir() {
		return eris.Errorf("path is not a directory: %s", dir)
	}
	return os.Chdir(dir)
}

// goalOf returns the first positional argument left after flag parsing, or
// the default goal.
func goalOf(c *orpheus.Context, build *Build) string {
	if c.Flags != nil {
		if args := c.Flags.Args(); len(args) > 0 {
			return args[0]
		}
	}
	return build.DefaultGoal()
}

// reportDangling logs the deps the resolver is going to skip.
func reportDangling(ctx context.Context, build *Build) {
	logger := log(ctx)
	for _, d := range build.DanglingDeps() {
		logger.Debug().Str("target", d.Target).Msgf("dependency %s is not a target, skipping", d.Dep)
	}
}

func runCommand(c *orpheus.Context) error {
	ctx, build, err := loadBuild(c)
	if err != nil {
		return err
	}

	var executor Executor = LogExecutor{}
	switch {
	case c.GetFlagBool("dry"):
		executor = DryRunExecutor{Out: stdout}
	case c.GetFlagBool("exec"):
		wd, err := os.Getwd()
		if err != nil {
			return orpheus.ExecutionError("run", err.Error())
		}
		executor = NewShellExecutor(wd)
	}

	goal := goalOf(c, build)
	reportDangling(ctx, build)
	log(ctx).Debug().Str("target", goal).Msg("resolving goal")
	return build.Run(ctx, goal, executor)
}

func planCommand(c *orpheus.Context) error {
	ctx, build, err := loadBuild(c)
	if err != nil {
		return err
	}
	reportDangling(ctx, build)
	return build.Run(ctx, goalOf(c, build), DryRunExecutor{Out: stdout})
}

func listCommand(c *orpheus.Context) error {
	_, build, err := loadBuild(c)
	if err != nil {
		return err
	}

	format := c.GetFlagString("format")
	if err := listTargets(stdout, build, format); err != nil {
		return orpheus.ValidationError("list", err.Error())
	}
	return nil
}

func validateCommand(c *orpheus.Context) error {
	ctx, build, err := loadBuild(c)
	if err != nil {
		return err
	}

	logger := log(ctx)
	for _, d := range build.DanglingDeps() {
		logger.Warn().Str("target", d.Target).Msgf("dependency %s is not a target and will be skipped", d.Dep)
	}
	logger.Info().Msgf("%d targets, %d variables", len(build.Targets), len(build.Variables))
	return nil
}

// exitCode maps an error to the process status: the error kind for build
// errors, the framework's code for CLI errors, 1 otherwise.
func exitCode(err error) int {
	if kind, ok := KindOf(err); ok {
		return kind.ExitCode()
	}

	var coded interface{ ExitCode() int }
	if errors.As(err, &coded) && coded.ExitCode() != 0 {
		return coded.ExitCode()
	}
	return 1
}
