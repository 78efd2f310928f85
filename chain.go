package main

// Chain linearizes the commands reachable from goal: a depth-first walk over
// the deps of each target, emitting a target's commands after those of its
// deps. Every target is visited at most once, so cycles terminate. Deps that
// are not in targets are skipped.
func Chain(goal *Target, targets map[string]*Target) []string {
	visited := map[string]bool{goal.Name: true}
	cmds := []string{}

	var visit func(t *Target)
	visit = func(t *Target) {
		for _, name := range t.Deps {
			dep, ok := targets[name]
			if !ok || visited[name] {
				continue
			}
			visited[name] = true
			visit(dep)
		}
		cmds = append(cmds, t.Cmds...)
	}

	visit(goal)
	return cmds
}

// Plan returns the command chain of the named goal.
func (b *Build) Plan(goal string) ([]string, error) {
	target, ok := b.Targets[goal]
	if !ok {
		return nil, newError(UnknownGoalError, goal, nil)
	}
	return Chain(target, b.Targets), nil
}

// Dependency is an edge of the target graph.
type Dependency struct {
	Target string
	Dep    string
}

// DanglingDeps lists the deps that name no target, ordered by target then by
// position in the dep list.
func (b *Build) DanglingDeps() []Dependency {
	var dangling []Dependency
	for _, name := range b.SortedNames() {
		for _, dep := range b.Targets[name].Deps {
			if _, ok := b.Targets[dep]; !ok {
				dangling = append(dangling, Dependency{Target: name, Dep: dep})
			}
		}
	}
	return dangling
}
