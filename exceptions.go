package main

import (
	"errors"
	"fmt"
)

// ErrorKind classifies every fatal error. The numeric value doubles as the
// process exit status.
type ErrorKind int8

const (
	LoadError ErrorKind = iota + 1
	ShapeError
	MissingCmdError
	EmptyBuildError
	UnknownMetaError
	ShellSpawnError
	UnknownGoalError
	ExecError
)

var kindNames = map[ErrorKind]string{
	LoadError:        "LoadError",
	ShapeError:       "ShapeError",
	MissingCmdError:  "MissingCmdError",
	EmptyBuildError:  "EmptyBuildError",
	UnknownMetaError: "UnknownMetaError",
	ShellSpawnError:  "ShellSpawnError",
	UnknownGoalError: "UnknownGoalError",
	ExecError:        "ExecError",
}

var kindMessages = map[ErrorKind]string{
	LoadError:        "cannot load build file %s",
	ShapeError:       "malformed document at %s",
	MissingCmdError:  "target %s has no cmd field",
	EmptyBuildError:  "no target defined in %s",
	UnknownMetaError: "meta command %s is not supported",
	ShellSpawnError:  "shell command %s failed",
	UnknownGoalError: "no rule to make target %s",
	ExecError:        "command failed: %s",
}

func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", int8(k))
}

// ExitCode is the process status reported for errors of this kind.
func (k ErrorKind) ExitCode() int {
	return int(k)
}

// BuildError is returned by every fatal path of the loader, the expansion
// engine and the runner.
type BuildError struct {
	Kind ErrorKind
	Name string
	Err  error
}

func newError(kind ErrorKind, name string, cause error) *BuildError {
	return &BuildError{Kind: kind, Name: name, Err: cause}
}

func (e *BuildError) Error() string {
	msg := e.Kind.String() + ": " + fmt.Sprintf(kindMessages[e.Kind], e.Name)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

// Is matches any BuildError of the same kind, so the Err* sentinels below can
// be used with errors.Is.
func (e *BuildError) Is(target error) bool {
	var other *BuildError
	if !errors.As(target, &other) {
		return false
	}
	return other.Kind == e.Kind && (other.Name == "" || other.Name == e.Name)
}

var (
	ErrLoad        = &BuildError{Kind: LoadError}
	ErrShape       = &BuildError{Kind: ShapeError}
	ErrMissingCmd  = &BuildError{Kind: MissingCmdError}
	ErrEmptyBuild  = &BuildError{Kind: EmptyBuildError}
	ErrUnknownMeta = &BuildError{Kind: UnknownMetaError}
	ErrShellSpawn  = &BuildError{Kind: ShellSpawnError}
	ErrUnknownGoal = &BuildError{Kind: UnknownGoalError}
	ErrExec        = &BuildError{Kind: ExecError}
)

// KindOf returns the kind of the first BuildError in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var be *BuildError
	if errors.As(err, &be) {
		return be.Kind, true
	}
	return 0, false
}
