package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	// Run from a directory with no config file so defaults apply.
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { os.Chdir(wd) }) //nolint:errcheck

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "api_data_aadhar_enrolment", cfg.Input.EnrolmentDir)
	assert.Equal(t, "02-01-2006", cfg.Input.DateLayout)
	assert.Equal(t, 4, cfg.Input.Parallelism)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_ConfigFile(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(
		"input:\n  base_dir: /data\n  parallelism: 8\nlog:\n  level: debug\n"), 0o644))
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) }) //nolint:errcheck

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/data", cfg.Input.BaseDir)
	assert.Equal(t, 8, cfg.Input.Parallelism)
	assert.Equal(t, "debug", cfg.Log.Level)
	// Untouched keys keep defaults.
	assert.Equal(t, "api_data_aadhar_biometric", cfg.Input.BiometricDir)
}

func TestCategoryDir(t *testing.T) {
	c := InputConfig{BiometricDir: "b", DemographicDir: "d", EnrolmentDir: "e"}
	assert.Equal(t, "b", c.CategoryDir("biometric"))
	assert.Equal(t, "d", c.CategoryDir("demographic"))
	assert.Equal(t, "e", c.CategoryDir("enrolment"))
	assert.Equal(t, "other", c.CategoryDir("other"))
}

func TestInitLogger_BadLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "nope", Format: "json"})
	require.Error(t, err)
}
