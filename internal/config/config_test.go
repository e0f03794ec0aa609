package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRead_Defaults checks that an empty file yields the defaults.
func TestRead_Defaults(t *testing.T) {
	cfg, err := Read(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, slog.LevelInfo, cfg.Level())
}

// TestRead_Values checks that file values override the defaults.
func TestRead_Values(t *testing.T) {
	cfg, err := Read(strings.NewReader(`
log_level: debug
format: yaml
store_path: /tmp/pyxrd
class_files: [a.yaml, b.yaml]
`))
	require.NoError(t, err)
	assert.Equal(t, "yaml", cfg.Format)
	assert.Equal(t, "/tmp/pyxrd", cfg.StorePath)
	assert.Equal(t, []string{"a.yaml", "b.yaml"}, cfg.ClassFiles)
	assert.Equal(t, slog.LevelDebug, cfg.Level())
}

// TestRead_Invalid checks validation and unknown keys.
func TestRead_Invalid(t *testing.T) {
	_, err := Read(strings.NewReader("log_level: loud\n"))
	assert.Error(t, err)

	_, err = Read(strings.NewReader("colour: red\n"))
	assert.Error(t, err)

	_, err = Read(strings.NewReader("class_files: ['']\n"))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pyxrd.yaml")
	require.NoError(t, os.WriteFile(path, []byte("format: json\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Format)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
