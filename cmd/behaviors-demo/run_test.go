package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunDemo_PrintsRenders(t *testing.T) {
	var out bytes.Buffer
	err := runDemo(t.Context(), runOptions{Dir: t.TempDir(), Duration: 50 * time.Millisecond}, &out)
	require.NoError(t, err)

	first, _, _ := strings.Cut(out.String(), "\n")
	assert.True(t, strings.HasPrefix(first, "#1 time="), first)
}

func TestRunDemo_AppliesConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
version: v1
log:
  level: error
metrics:
  namespace: clock_test
behaviors:
  Ticker:
    interval: 10ms
`), 0o644))

	var out bytes.Buffer
	err := runDemo(t.Context(), runOptions{ConfigPath: path, Duration: 50 * time.Millisecond}, &out)
	require.NoError(t, err)
	assert.NotEmpty(t, out.String())
}

func TestRunDemo_RejectsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "behaviors.yaml"), []byte("version: v2\n"), 0o644))

	err := runDemo(t.Context(), runOptions{Dir: dir, Duration: time.Millisecond}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported configuration version")
}

func TestRunDemo_RejectsInvalidBehaviorOptions(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "behaviors.yaml"), []byte(`
behaviors:
  Shuffle:
    every: 1s
`), 0o644))

	err := runDemo(t.Context(), runOptions{Dir: dir, Duration: time.Millisecond}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Shuffle")
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "behaviors-demo version "+Version)
}
