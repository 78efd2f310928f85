/*
Ymk is a small make-style task runner driven by a YAML build file.

Given a goal, ymk resolves the targets the goal depends on, linearizes them
into a command chain and hands every command, in order, to an executor.

# Build File

The root of the document (default: ymk.yaml) is a mapping. Entries whose value
is a mapping are targets; entries whose value is a string are variables.
Anything else at the root is ignored.

	CC: "gcc"
	CFLAGS: "-O2 $(EXTRA)"
	EXTRA: "-g"

	build:
	  dep: [generate, check]
	  cmd: |
	    $(CC) $(CFLAGS) -o app main.c
	    strip app

	generate:
	  cmd: ["go generate ./...", "echo generated for $(@)"]

	check:
	  cmd: "test -f main.c"

A target needs a cmd, given as a block scalar (one command per line) or as a
list of strings. dep names one target or lists several; names that are not
targets are skipped.

# Expansion

Commands are expanded once, when the file is loaded. $(NAME) is replaced by
the variable NAME (itself expanded), by $(@) the current target's name, or
by the environment variable NAME, in that order. Unknown names expand to
nothing. A variable that refers back to itself expands to nothing.

Forms with more than one word call a built-in:

	$(shell git rev-parse HEAD)   stdout of the program, run without a shell
	$(wildcard *.c)               reserved, expands to nothing

# Resolution

Deps are visited depth first, left to right, and each target contributes its
commands once, after those of its deps. Dependency cycles are cut at the first
target visited twice.

# Commands

	ymk [goal]            same as ymk run [goal]
	ymk run [goal]        log the command chain (default command)
	ymk run -x [goal]     execute it with the built-in POSIX shell
	ymk run -n [goal]     print it
	ymk plan [goal]       print the command chain
	ymk list -o json      list targets as table, json or yaml
	ymk validate          load the file and report dangling deps

A program that exits with a non-zero status still yields its output; only a
program that cannot be started stops the load.

Flags go before the goal. Every command accepts -C to change directory first and -f to pick the build
file. The goal defaults to the first target of the file. The log level is read
from LOGL (trace, debug, info, warn, error).

Fatal errors print one line naming the error kind and the offending name; the
exit status identifies the kind.
*/
package main
