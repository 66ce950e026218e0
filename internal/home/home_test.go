package home

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNew(t *testing.T) {
	t.Run("with explicit path", func(t *testing.T) {
		dir, err := New("/tmp/test-tableqa")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if dir.Path() != "/tmp/test-tableqa" {
			t.Errorf("expected path /tmp/test-tableqa, got %s", dir.Path())
		}
	})

	t.Run("with empty path uses default", func(t *testing.T) {
		dir, err := New("")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		home, _ := os.UserHomeDir()
		expected := filepath.Join(home, DefaultDirName)
		if dir.Path() != expected {
			t.Errorf("expected path %s, got %s", expected, dir.Path())
		}
	})
}

func TestDir_Paths(t *testing.T) {
	dir, _ := New("/tmp/test-tableqa")

	tests := map[string]struct{ got, want string }{
		"ConfigPath": {dir.ConfigPath(), "/tmp/test-tableqa/config.yaml"},
		"RunsPath":   {dir.RunsPath(), "/tmp/test-tableqa/runs"},
		"CallsPath":  {dir.CallsPath(), "/tmp/test-tableqa/calls.jsonl"},
		"RunPath":    {dir.RunPath("abc", "json"), "/tmp/test-tableqa/runs/abc.json"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, tt.got)
			}
		})
	}
}

func TestDir_EnsureExists(t *testing.T) {
	tmpDir := t.TempDir()
	dir, err := New(filepath.Join(tmpDir, "tableqa-test"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if dir.Exists() {
		t.Error("expected directory to not exist initially")
	}
	if err := dir.EnsureExists(); err != nil {
		t.Fatalf("failed to ensure exists: %v", err)
	}
	if !dir.Exists() {
		t.Error("expected directory to exist after EnsureExists")
	}
	if _, err := os.Stat(dir.RunsPath()); err != nil {
		t.Errorf("runs directory not created: %v", err)
	}
	if dir.ConfigExists() {
		t.Error("expected config to not exist")
	}
	if err := os.WriteFile(dir.ConfigPath(), []byte("llm: {}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if !dir.ConfigExists() {
		t.Error("expected config to exist")
	}
}
