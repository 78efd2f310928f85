package main

import (
	"context"
	"testing"
)

// ===== FUNCS.GO UNIT TESTS =====

func TestLookupPrecedence(t *testing.T) {
	tests := []struct {
		name     string
		vars     map[string]string
		env      map[string]string
		ref      string
		target   string
		expected string
	}{
		{
			name:     "Variable wins over environment",
			vars:     map[string]string{"HOME": "/from/build"},
			env:      map[string]string{"HOME": "/from/env"},
			ref:      "HOME",
			expected: "/from/build",
		},
		{
			name:     "Environment when no variable",
			env:      map[string]string{"HOME": "/from/env"},
			ref:      "HOME",
			expected: "/from/env",
		},
		{
			name:     "Empty environment value is used",
			env:      map[string]string{"EMPTY": ""},
			ref:      "EMPTY",
			expected: "",
		},
		{
			name:     "Missing everywhere",
			ref:      "UNDEFINED",
			expected: "",
		},
		{
			name:     "Target name",
			ref:      "@",
			target:   "install",
			expected: "install",
		},
		{
			name:     "Variable named @ overrides target name",
			vars:     map[string]string{"@": "custom"},
			ref:      "@",
			target:   "install",
			expected: "custom",
		},
		{
			name:     "Target name inside variable",
			vars:     map[string]string{"OUT": "build/$(@).o"},
			ref:      "OUT",
			target:   "main",
			expected: "build/main.o",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := testExpander(tt.vars, tt.env)
			result, err := e.lookup(context.Background(), tt.target, tt.ref, map[string]bool{})
			if err != nil {
				t.Fatalf("lookup(%q) unexpected error: %v", tt.ref, err)
			}
			if result != tt.expected {
				t.Errorf("lookup(%q) = %q, want %q", tt.ref, result, tt.expected)
			}
		})
	}
}

func TestLookupRealEnvironment(t *testing.T) {
	t.Setenv("YMK_TEST_VALUE", "from-env")

	e := NewExpander(map[string]Variable{})
	result, err := e.Expand(context.Background(), "t", "value=$(YMK_TEST_VALUE)")
	if err != nil {
		t.Fatalf("Expand() unexpected error: %v", err)
	}
	if result != "value=from-env" {
		t.Errorf("Expand() = %q, want %q", result, "value=from-env")
	}
}

func TestLookupWithoutEnvironment(t *testing.T) {
	e := NewExpander(nil)
	e.LookupEnv = nil

	result, err := e.lookup(context.Background(), "t", "PATH", map[string]bool{})
	if err != nil {
		t.Fatalf("lookup() unexpected error: %v", err)
	}
	if result != "" {
		t.Errorf("lookup() = %q, want empty", result)
	}
}
