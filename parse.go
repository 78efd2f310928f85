package main

import (
	"context"
	"os"
	"regexp"
	"strings"
)

// $(BODY), where BODY runs up to the first closing parenthesis
var substitution = regexp.MustCompile(`\$\(([^)]+)\)`)

// Expander rewrites the $(...) forms of command strings.
type Expander struct {
	Variables map[string]Variable

	// LookupEnv is the fallback for names that are not variables.
	LookupEnv func(string) (string, bool)

	// Shell runs the program of a $(shell ...) form and returns its stdout.
	Shell func(ctx context.Context, program string, args []string) ([]byte, error)
}

func NewExpander(vars map[string]Variable) *Expander {
	return &Expander{
		Variables: vars,
		LookupEnv: os.LookupEnv,
		Shell:     runShell,
	}
}

// Expand substitutes every $(...) form of text. target names the target the
// text belongs to; it is the value of $(@) and is attached to log events.
//
// Variable values are expanded recursively before insertion. Environment
// values and shell output are inserted verbatim and scanning resumes after
// them.
func (e *Expander) Expand(ctx context.Context, target, text string) (string, error) {
	return e.expand(ctx, target, text, make(map[string]bool))
}

func (e *Expander) expand(ctx context.Context, target, text string, active map[string]bool) (string, error) {
	pos := 0
	for pos <= len(text) {
		loc := substitution.FindStringSubmatchIndex(text[pos:])
		if loc == nil {
			break
		}

		start, end := pos+loc[0], pos+loc[1]
		body := text[pos+loc[2] : pos+loc[3]]

		replacement, err := e.substitute(ctx, target, body, active)
		if err != nil {
			return "", err
		}

		log(ctx).Debug().
			Str("target", target).
			Msgf("$(%s) -> %q", body, replacement)

		text = text[:start] + replacement + text[end:]
		pos = start + len(replacement)
	}
	return text, nil
}

func (e *Expander) substitute(ctx context.Context, target, body string, active map[string]bool) (string, error) {
	words := strings.Fields(body)
	switch len(words) {
	case 0:
		return "", nil
	case 1:
		return e.lookup(ctx, target, words[0], active)
	default:
		return e.meta(ctx, target, words)
	}
}
