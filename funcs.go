package main

import "context"

// name of the automatic variable holding the current target
const targetVar = "@"

// lookup resolves a single-word reference: build variable, then automatic
// variable, then environment variable, else "".
func (e *Expander) lookup(ctx context.Context, target, name string, active map[string]bool) (string, error) {
	logger := log(ctx)

	if v, ok := e.Variables[name]; ok {
		if active[name] {
			logger.Warn().
				Str("target", target).
				Msgf("variable %s references itself, expanding to nothing", name)
			return "", nil
		}

		active[name] = true
		defer delete(active, name)

		return e.expand(ctx, target, v.Value, active)
	}

	if name == targetVar {
		return target, nil
	}

	logger.Warn().
		Str("target", target).
		Msgf("variable %s is not found in variables, checking env", name)

	if e.LookupEnv != nil {
		if value, ok := e.LookupEnv(name); ok {
			return value, nil
		}
	}
	return "", nil
}
