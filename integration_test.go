package main

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ===== INTEGRATION TESTS =====

func TestScenarios(t *testing.T) {
	tests := []struct {
		name     string
		doc      string
		env      map[string]string
		goal     string
		expected []string
	}{
		{
			name: "Linear chain",
			doc: `
a: {cmd: "A"}
b: {dep: a, cmd: "B"}
c: {dep: b, cmd: "C"}
`,
			goal:     "c",
			expected: []string{"A", "B", "C"},
		},
		{
			name: "Diamond",
			doc: `
a: {cmd: "A"}
b: {dep: a, cmd: "B"}
c: {dep: a, cmd: "C"}
d: {dep: [b, c], cmd: "D"}
`,
			goal:     "d",
			expected: []string{"A", "B", "C", "D"},
		},
		{
			name:     "Block scalar cmd",
			doc:      "t:\n  cmd: |\n    echo 1\n    echo 2\n",
			goal:     "t",
			expected: []string{"echo 1", "echo 2"},
		},
		{
			name: "Variable expansion",
			doc: `
CC: "gcc"
FLAGS: "-O2 $(EXTRA)"
EXTRA: "-g"
t: {cmd: "$(CC) $(FLAGS) main.c"}
`,
			goal:     "t",
			expected: []string{"gcc -O2 -g main.c"},
		},
		{
			name:     "Environment fallback",
			doc:      `t: {cmd: "cd $(HOME)"}`,
			env:      map[string]string{"HOME": "/u/x"},
			goal:     "t",
			expected: []string{"cd /u/x"},
		},
		{
			name: "Cycle tolerance",
			doc: `
a: {dep: b, cmd: "A"}
b: {dep: a, cmd: "B"}
`,
			goal:     "a",
			expected: []string{"B", "A"},
		},
		{
			name: "Automatic target variable",
			doc: `
OUT: "bin/$(@)"
server: {cmd: "go build -o $(OUT) ./cmd/$(@)"}
`,
			goal:     "server",
			expected: []string{"go build -o bin/server ./cmd/server"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			build, err := Load(context.Background(), writeBuildFile(t, tt.doc))
			require.NoError(t, err)

			cmds, err := build.Plan(tt.goal)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, cmds)
		})
	}
}

func TestE2ELogRun(t *testing.T) {
	path := writeBuildFile(t, `
VERSION: "1.2.3"
LDFLAGS: "-X main.version=$(VERSION)"

build:
  dep: [generate, lint]
  cmd:
    - go build -ldflags "$(LDFLAGS)" -o app .

generate:
  cmd: go generate ./...

lint:
  dep: [generate, missing-tool]
  cmd: |
    go vet ./...
    gofmt -l .
`)

	var buf bytes.Buffer
	ctx := zerolog.New(&buf).WithContext(context.Background())

	build, err := Load(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "build", build.DefaultGoal())

	require.NoError(t, build.Run(ctx, build.DefaultGoal(), LogExecutor{}))

	out := buf.String()
	expected := []string{
		"Running: go generate ./...",
		"Running: go vet ./...",
		"Running: gofmt -l .",
		`Running: go build -ldflags \"-X main.version=1.2.3\" -o app .`,
	}
	last := -1
	for _, line := range expected {
		idx := bytes.Index([]byte(out), []byte(line))
		require.GreaterOrEqual(t, idx, 0, "missing %q in %s", line, out)
		require.Greater(t, idx, last, "%q out of order", line)
		last = idx
	}

	assert.Equal(t, []Dependency{{Target: "lint", Dep: "missing-tool"}}, build.DanglingDeps())
}

func TestE2EShellRun(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("POSIX shell semantics")
	}
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, defaultBuildFile)
	require.NoError(t, os.WriteFile(path, []byte(`
OUT: "result.txt"
NAME: "$(shell printf ymk)"

all:
  dep: [first, second]
  cmd: echo all >> $(OUT)

first:
  cmd: echo first-$(NAME) >> $(OUT)

second:
  dep: first
  cmd: |
    echo second >> $(OUT)
    echo $(@) >> $(OUT)
`), 0o644))

	build, err := Load(context.Background(), path)
	require.NoError(t, err)

	var stdout, stderr bytes.Buffer
	executor := &ShellExecutor{Dir: dir, Stdout: &stdout, Stderr: &stderr}
	require.NoError(t, build.Run(context.Background(), "all", executor))

	content, err := os.ReadFile(filepath.Join(dir, "result.txt"))
	require.NoError(t, err)
	assert.Equal(t, "first-ymk\nsecond\nsecond\nall\n", string(content))
}

func TestE2EShellFailureStopsRun(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("POSIX shell semantics")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, defaultBuildFile)
	require.NoError(t, os.WriteFile(path, []byte(`
broken:
  cmd:
    - "false"
    - "touch never.txt"
`), 0o644))

	build, err := Load(context.Background(), path)
	require.NoError(t, err)

	executor := &ShellExecutor{Dir: dir, Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}}
	err = build.Run(context.Background(), "broken", executor)
	requireKind(t, err, ExecError)

	_, statErr := os.Stat(filepath.Join(dir, "never.txt"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestE2EShellNonZeroExitKeepsLoading(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("POSIX tools")
	}
	if _, err := exec.LookPath("grep"); err != nil {
		t.Skip("grep is not installed")
	}

	path := writeBuildFile(t, `t: {cmd: "echo [$(shell grep nomatch /dev/null)]"}`)

	build, err := Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []string{"echo []"}, build.Targets["t"].Cmds)
}

func TestE2ELoadFailures(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		kind ErrorKind
	}{
		{name: "Unknown meta command", doc: `t: {cmd: "$(patsubst %.c,%.o,x.c)"}`, kind: UnknownMetaError},
		{name: "Failing shell", doc: `t: {cmd: "$(shell ymk-no-such-program-12345 arg)"}`, kind: ShellSpawnError},
		{name: "Missing cmd", doc: "t:\n  dep: a\n", kind: MissingCmdError},
		{name: "Variables only", doc: "A: b\n", kind: EmptyBuildError},
		{name: "Sequence root", doc: "- a\n- b\n", kind: ShapeError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(context.Background(), writeBuildFile(t, tt.doc))
			requireKind(t, err, tt.kind)
		})
	}
}
