package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emenda-labs/mergeassist/pkg/report"
)

func packages(t *testing.T) (a, b, c string) {
	t.Helper()
	dir := t.TempDir()
	for _, name := range []string{"a.yaml", "b.yaml", "c.yaml"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("objects: []\n"), 0o644))
	}
	return filepath.Join(dir, "a.yaml"), filepath.Join(dir, "b.yaml"), filepath.Join(dir, "c.yaml")
}

func execute(t *testing.T, args ...string) (*GlobalOptions, *AnalyzeOptions, error) {
	t.Helper()
	var global GlobalOptions
	var got *AnalyzeOptions

	root := NewRootCmd("test", &global)
	root.AddCommand(NewAnalyzeCmd(func(ctx context.Context, opts AnalyzeOptions) error {
		got = &opts
		return nil
	}))
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	return &global, got, err
}

func TestAnalyze_ParsesFlags(t *testing.T) {
	t.Parallel()
	a, b, c := packages(t)

	global, opts, err := execute(t, "analyze", "--base", a, "--customized", b, "--vendor", c,
		"--format", "json", "-o", "out.json", "--workers", "3", "-vv", "--config", "m.yaml")
	require.NoError(t, err)
	require.NotNil(t, opts)

	assert.Equal(t, a, opts.Base)
	assert.Equal(t, b, opts.Customized)
	assert.Equal(t, c, opts.Vendor)
	assert.Equal(t, report.FormatJSON, opts.Format)
	assert.Equal(t, "out.json", opts.Output)
	assert.Equal(t, 3, opts.Workers)
	assert.Equal(t, 2, global.Verbosity)
	assert.Equal(t, "m.yaml", global.ConfigPath)
}

func TestAnalyze_Defaults(t *testing.T) {
	t.Parallel()
	a, b, c := packages(t)

	global, opts, err := execute(t, "analyze", "--base", a, "--customized", b, "--vendor", c)
	require.NoError(t, err)
	assert.Equal(t, report.FormatText, opts.Format)
	assert.Equal(t, -1, opts.Workers)
	assert.False(t, global.Quiet)
}

func TestAnalyze_Validation(t *testing.T) {
	t.Parallel()
	a, b, c := packages(t)
	dir := filepath.Dir(a)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing vendor", []string{"--base", a, "--customized", b}, `"vendor" not set`},
		{"absent file", []string{"--base", a, "--customized", b, "--vendor", filepath.Join(dir, "nope.zip")}, "--vendor path does not exist"},
		{"directory", []string{"--base", dir, "--customized", b, "--vendor", c}, "--base path is a directory"},
		{"bad format", []string{"--base", a, "--customized", b, "--vendor", c, "--format", "xml"}, "unknown report format"},
		{"bad workers", []string{"--base", a, "--customized", b, "--vendor", c, "--workers", "-4"}, "--workers must not be negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, opts, err := execute(t, append([]string{"analyze"}, tt.args...)...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.Nil(t, opts, "run func must not be called")
		})
	}
}

func TestConfigCommands(t *testing.T) {
	t.Parallel()

	var calls []string
	var global GlobalOptions
	root := NewRootCmd("test", &global)
	configCmd := NewConfigCmd()
	configCmd.AddCommand(NewConfigValidateCmd(func(ctx context.Context) error {
		calls = append(calls, "validate")
		return nil
	}))
	configCmd.AddCommand(NewConfigShowCmd(func(ctx context.Context) error {
		calls = append(calls, "show")
		return nil
	}))
	root.AddCommand(configCmd)

	for _, sub := range []string{"validate", "show"} {
		root.SetArgs([]string{"config", sub, "--quiet"})
		require.NoError(t, root.ExecuteContext(context.Background()))
	}
	assert.Equal(t, []string{"validate", "show"}, calls)
	assert.True(t, global.Quiet)
}
