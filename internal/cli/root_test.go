package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executeRoot(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "synth", cmd.Use)
	assert.Contains(t, cmd.Long, "synthetic records")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"compile", "generate", "replay", "test"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verbose := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "v", verbose.Shorthand)
	assert.Equal(t, "false", verbose.DefValue)

	format := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "text", format.DefValue)

	require.NotNil(t, cmd.PersistentFlags().Lookup("config"))
}

func TestSubcommandFlags(t *testing.T) {
	tests := []struct {
		command string
		flags   []string
	}{
		{"compile", []string{"output", "now"}},
		{"generate", []string{"seed", "size", "retries", "unique", "max-attempts", "collection", "db", "output", "tokens", "now"}},
		{"replay", []string{"db", "run", "latest"}},
		{"test", []string{"update", "filter"}},
	}

	root := NewRootCommand()
	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			sub, _, err := root.Find([]string{tt.command})
			require.NoError(t, err)
			for _, f := range tt.flags {
				assert.NotNil(t, sub.Flags().Lookup(f), "missing --%s", f)
			}
		})
	}
}

func TestRoot_InvalidFormat(t *testing.T) {
	_, _, err := executeRoot(t, "--format", "xml", "compile", "testdata/schema/shop.cue")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}

func TestRoot_MissingConfig(t *testing.T) {
	_, _, err := executeRoot(t, "--config", filepath.Join(t.TempDir(), "nope.yaml"), "compile", "testdata/schema/shop.cue")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "config file not found")
}

func TestRoot_ConfigDefaults(t *testing.T) {
	dir := t.TempDir()
	schema := filepath.Join(dir, "n.cue")
	require.NoError(t, os.WriteFile(schema, []byte(`collection: n: {type: "number", constant: 4}`), 0o644))
	cfg := filepath.Join(dir, "synth.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("seed: 3\nsize: 2\nlog:\n  level: error\n"), 0o644))

	out, _, err := executeRoot(t, "--config", cfg, "--format", "json", "generate", schema)
	require.NoError(t, err)

	var resp struct {
		Data struct {
			Seed        uint64          `json:"seed"`
			Collections []GenerateStats `json:"collections"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, uint64(3), resp.Data.Seed)
	assert.Equal(t, []GenerateStats{{Name: "n", Records: 2}}, resp.Data.Collections)
}

func TestRoot_VerboseLogsToStderr(t *testing.T) {
	dir := t.TempDir()
	schema := filepath.Join(dir, "n.cue")
	require.NoError(t, os.WriteFile(schema, []byte(`collection: n: {type: "number", constant: 4}`), 0o644))

	out, errOut, err := executeRoot(t, "--verbose", "--format", "json", "generate", schema, "--size", "1")
	require.NoError(t, err)
	assert.True(t, json.Valid([]byte(out)), "stdout must stay valid JSON")
	assert.Contains(t, errOut, "sampled collection")
}
