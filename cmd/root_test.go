package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"run", "discover", "analyze", "enrich", "build", "cells"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "directory-cli", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestStageCommands_ModeFlags(t *testing.T) {
	for _, c := range rootCmd.Commands() {
		switch c.Name() {
		case "run", "discover", "analyze", "enrich", "build":
		default:
			continue
		}
		for _, flag := range []string{"region", "limit", "dry-run", "resume"} {
			require.NotNil(t, c.Flags().Lookup(flag), "%s should have --%s", c.Name(), flag)
		}
		assert.Equal(t, "0", c.Flags().Lookup("limit").DefValue)
		assert.Equal(t, "false", c.Flags().Lookup("dry-run").DefValue)
	}
}

func TestRunCommand_StagesFlag(t *testing.T) {
	flag := runCmd.Flags().Lookup("stages")
	require.NotNil(t, flag)
	assert.Equal(t, "[]", flag.DefValue)
}

func TestCellsCommand_Flags(t *testing.T) {
	require.NotNil(t, cellsCmd.Flags().Lookup("region"))
	require.NotNil(t, cellsCmd.Flags().Lookup("count"))
}
