package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Load reads the build document at path, extracts its targets and variables
// and expands every command string.
func Load(ctx context.Context, path string) (*Build, error) {
	root, err := readDocument(path)
	if err != nil {
		return nil, err
	}

	build, err := Extract(root)
	if err != nil {
		var be *BuildError
		if errors.As(err, &be) && be.Kind == EmptyBuildError {
			be.Name = path
		}
		return nil, err
	}

	if err := build.expandCommands(ctx); err != nil {
		return nil, err
	}

	log(ctx).Debug().
		Str("path", path).
		Int("targets", len(build.Targets)).
		Int("variables", len(build.Variables)).
		Msg("build file loaded")

	return build, nil
}

// readDocument returns the root mapping node of the YAML document at path.
func readDocument(path string) (*yaml.Node, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, newError(LoadError, path, eris.Wrap(err, "failed to open"))
	}
	defer f.Close()

	var doc yaml.Node
	if err := yaml.NewDecoder(f).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, newError(ShapeError, path, eris.New("document is empty"))
		}
		return nil, newError(LoadError, path, eris.Wrap(err, "failed to parse YAML"))
	}

	root := resolve(&doc)
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = resolve(root.Content[0])
	}

	if root.Kind != yaml.MappingNode {
		return nil, newError(ShapeError, path, eris.Errorf("root must be a mapping, found %s", kindName(root)))
	}
	return root, nil
}

// Extract partitions the entries of the root mapping into targets (mapping
// values) and variables (string values). Anything else is ignored.
func Extract(root *yaml.Node) (*Build, error) {
	root = resolve(root)
	if root.Kind != yaml.MappingNode {
		return nil, newError(ShapeError, "document root", eris.Errorf("expected a mapping, found %s", kindName(root)))
	}

	build := NewBuild()
	seen := make(map[string]bool)

	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := resolve(root.Content[i]), resolve(root.Content[i+1])
		if key.Kind != yaml.ScalarNode {
			return nil, newError(ShapeError, position(key), eris.New("keys at the document root must be scalars"))
		}

		name := key.Value
		if seen[name] {
			return nil, newError(ShapeError, name, eris.Errorf("key defined twice (line %d)", key.Line))
		}
		seen[name] = true

		switch {
		case value.Kind == yaml.MappingNode:
			target, err := ParseTarget(name, value)
			if err != nil {
				return nil, err
			}
			build.addTarget(target)
		case isString(value):
			build.Variables[name] = Variable{Name: name, Value: value.Value}
		}
	}

	if len(build.Targets) == 0 {
		return nil, newError(EmptyBuildError, "document", nil)
	}
	return build, nil
}

// ParseTarget builds a Target from the mapping stored under name.
func ParseTarget(name string, node *yaml.Node) (*Target, error) {
	node = resolve(node)
	if node.Kind != yaml.MappingNode {
		return nil, newError(ShapeError, name, eris.Errorf("target must be a mapping, found %s", kindName(node)))
	}

	cmdNode := lookup(node, "cmd")
	if cmdNode == nil {
		return nil, newError(MissingCmdError, name, nil)
	}

	cmds, err := parseCmds(name, cmdNode)
	if err != nil {
		return nil, err
	}

	return &Target{
		Name: name,
		Deps: parseDeps(lookup(node, "dep")),
		Cmds: cmds,
	}, nil
}

func parseDeps(node *yaml.Node) []string {
	deps := []string{}
	if node == nil {
		return deps
	}

	switch {
	case isString(node):
		deps = append(deps, node.Value)
	case node.Kind == yaml.SequenceNode:
		for _, item := range node.Content {
			item = resolve(item)
			if isString(item) {
				deps = append(deps, item.Value)
			}
		}
	}
	return deps
}

func parseCmds(name string, node *yaml.Node) ([]string, error) {
	switch {
	case isString(node):
		return splitLines(node.Value), nil
	case node.Kind == yaml.SequenceNode:
		if len(node.Content) == 0 {
			return nil, newError(ShapeError, name+".cmd", eris.New("command list is empty"))
		}

		cmds := make([]string, 0, len(node.Content))
		for i, item := range node.Content {
			item = resolve(item)
			if !isString(item) {
				return nil, newError(ShapeError, fmt.Sprintf("%s.cmd[%d]", name, i),
					eris.Errorf("command must be a string, found %s", kindName(item)))
			}
			cmds = append(cmds, item.Value)
		}
		return cmds, nil
	default:
		return nil, newError(ShapeError, name+".cmd", eris.Errorf("expected a string or a list of strings, found %s", kindName(node)))
	}
}

// splitLines splits a block scalar into commands. Empty lines in the middle
// are kept; the empty lines produced by trailing newlines are not.
func splitLines(text string) []string {
	lines := strings.Split(text, "\n")
	for len(lines) > 1 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func (b *Build) expandCommands(ctx context.Context) error {
	expander := NewExpander(b.Variables)
	for _, name := range b.order {
		target := b.Targets[name]
		for i, cmd := range target.Cmds {
			expanded, err := expander.Expand(ctx, name, cmd)
			if err != nil {
				return err
			}
			target.Cmds[i] = expanded
		}
	}
	return nil
}

func lookup(mapping *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		k := resolve(mapping.Content[i])
		if k.Kind == yaml.ScalarNode && k.Value == key {
			return resolve(mapping.Content[i+1])
		}
	}
	return nil
}

func resolve(node *yaml.Node) *yaml.Node {
	for node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	return node
}

func isString(node *yaml.Node) bool {
	return node.Kind == yaml.ScalarNode && node.ShortTag() == "!!str"
}

func kindName(node *yaml.Node) string {
	switch node.Kind {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar " + node.ShortTag()
	case yaml.AliasNode:
		return "alias"
	}
	return "nothing"
}

func position(node *yaml.Node) string {
	return fmt.Sprintf("line %d, column %d", node.Line, node.Column)
}
