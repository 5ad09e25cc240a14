package cliapp

import (
	"strings"
	"testing"
)

func TestRootCommand(t *testing.T) {
	if rootCmd.Use != "corekb [query]" {
		t.Errorf("Expected command name 'corekb [query]', got '%s'", rootCmd.Use)
	}
	if rootCmd.Short == "" {
		t.Error("Command should have a short description")
	}
	if rootCmd.Long == "" {
		t.Error("Command should have a long description")
	}
}

func TestRootCommandHasSubcommands(t *testing.T) {
	expectedSubcommands := []string{"search", "suggest", "correct", "stats"}

	for _, expectedCmd := range expectedSubcommands {
		found := false
		for _, cmd := range rootCmd.Commands() {
			if cmd.Name() == expectedCmd {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Expected subcommand '%s' not found", expectedCmd)
		}
	}
}

func TestRootCommandFlags(t *testing.T) {
	expectedFlags := []string{"verbose", "corpus", "limit", "algorithm", "format", "no-color"}

	for _, expectedFlag := range expectedFlags {
		flag := rootCmd.PersistentFlags().Lookup(expectedFlag)
		if flag == nil {
			t.Errorf("Expected flag '%s' not found", expectedFlag)
		}
	}
}

func TestRootCommandHelp(t *testing.T) {
	if !strings.Contains(rootCmd.Long, "corekb") {
		t.Error("Help text should mention 'corekb'")
	}
}
