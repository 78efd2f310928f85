package main

import "sort"

// Variable is a named string taken from a scalar at the document root.
type Variable struct {
	Name  string
	Value string
}

// Target is a named task with its dependencies and (expanded) commands.
type Target struct {
	Name string
	Deps []string
	Cmds []string
}

// Build is the in-memory model of one build document.
type Build struct {
	Targets   map[string]*Target
	Variables map[string]Variable

	// document order of target names
	order []string
}

func NewBuild() *Build {
	return &Build{
		Targets:   make(map[string]*Target),
		Variables: make(map[string]Variable),
	}
}

func (b *Build) addTarget(t *Target) {
	b.Targets[t.Name] = t
	b.order = append(b.order, t.Name)
}

// Names returns the target names in the order they appear in the document.
func (b *Build) Names() []string {
	names := make([]string, len(b.order))
	copy(names, b.order)
	return names
}

// SortedNames returns the target names sorted alphabetically.
func (b *Build) SortedNames() []string {
	names := b.Names()
	sort.Strings(names)
	return names
}

// DefaultGoal is the first target of the document, or "" for an empty build.
func (b *Build) DefaultGoal() string {
	if len(b.order) == 0 {
		return ""
	}
	return b.order[0]
}
