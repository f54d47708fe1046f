package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	cmds := rootCmd.Commands()

	// Collect subcommand names.
	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	// Verify expected subcommands are registered.
	expected := []string{"ingest", "frontier", "project", "quality", "serve"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "bench-cli", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestIngestCommand_Flags(t *testing.T) {
	for _, name := range []string{"benchmark", "source", "dry-run"} {
		require.NotNil(t, ingestCmd.Flags().Lookup(name), "ingest command should have --%s flag", name)
	}

	sub := make(map[string]bool)
	for _, c := range ingestCmd.Commands() {
		sub[c.Name()] = true
	}
	assert.True(t, sub["list"], "ingest should have a list subcommand")
}

func TestProjectCommand_Flags(t *testing.T) {
	flag := projectCmd.Flags().Lookup("method")
	require.NotNil(t, flag, "project command should have --method flag")
	assert.Equal(t, "linear", flag.DefValue)

	for _, name := range []string{"window", "horizon", "seed", "all", "json"} {
		require.NotNil(t, projectCmd.Flags().Lookup(name), "project command should have --%s flag", name)
	}
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}
