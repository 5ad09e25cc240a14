package cliapp

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"
)

// captureStdout runs fn with os.Stdout redirected to a pipe and returns
// everything written to it. The CLI commands print via fmt.Printf
// directly (matching the teacher's own search command), so cobra's
// SetOut has nothing to capture; redirecting the fd is what actually
// observes their output.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	orig := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = orig }()

	fn()

	w.Close()
	var buf bytes.Buffer
	io.Copy(&buf, r)
	return buf.String()
}

func TestRootRunsSearchAndPrints(t *testing.T) {
	rootCmd.SetArgs([]string{"--corpus", "nonexistent-corpus.yaml", "S0C7"})
	out := captureStdout(t, func() {
		if err := rootCmd.Execute(); err != nil {
			t.Fatalf("execute failed: %v", err)
		}
	})
	if !strings.Contains(out, "S0C7") {
		t.Fatalf("expected output to mention the matched document, got: %s", out)
	}
}

func TestSearchCommandVerbose(t *testing.T) {
	rootCmd.SetArgs([]string{"search", "--corpus", "nonexistent-corpus.yaml", "--verbose", "vsam status"})
	out := captureStdout(t, func() {
		if err := rootCmd.Execute(); err != nil {
			t.Fatalf("execute failed: %v", err)
		}
	})
	if !strings.Contains(out, "Search completed in") {
		t.Fatalf("expected verbose output to include timing info, got: %s", out)
	}
}

func TestSuggestCommand(t *testing.T) {
	rootCmd.SetArgs([]string{"suggest", "--corpus", "nonexistent-corpus.yaml", "vsa"})
	out := captureStdout(t, func() {
		if err := rootCmd.Execute(); err != nil {
			t.Fatalf("execute failed: %v", err)
		}
	})
	if !strings.Contains(out, "vsam") {
		t.Fatalf("expected suggestion output to contain 'vsam', got: %s", out)
	}
}

func TestStatsCommand(t *testing.T) {
	rootCmd.SetArgs([]string{"stats", "--corpus", "nonexistent-corpus.yaml"})
	out := captureStdout(t, func() {
		if err := rootCmd.Execute(); err != nil {
			t.Fatalf("execute failed: %v", err)
		}
	})
	if !strings.Contains(out, "Documents:") {
		t.Fatalf("expected stats output to contain 'Documents:', got: %s", out)
	}
}
