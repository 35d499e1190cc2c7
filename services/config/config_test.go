package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	BaseURL string `yaml:"baseURL"`
	Number  int    `yaml:"number"`
	File    struct {
		Bucket string `yaml:"bucket"`
	} `yaml:"file"`
}

func TestLoad_KeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "job.yaml")
	require.NoError(t, os.WriteFile(p, []byte("baseURL: https://www.mnews.tw\nfile:\n  bucket: static\n"), 0o644))

	cfg := &testConfig{Number: 120}
	require.NoError(t, Load(p, cfg))
	assert.Equal(t, "https://www.mnews.tw", cfg.BaseURL)
	assert.Equal(t, 120, cfg.Number)
	assert.Equal(t, "static", cfg.File.Bucket)
}

func TestLoad_EmptyPath(t *testing.T) {
	cfg := &testConfig{Number: 1}
	require.NoError(t, Load("", cfg))
	assert.Equal(t, 1, cfg.Number)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	err := Load(filepath.Join(dir, "missing.yaml"), &testConfig{})
	assert.Error(t, err)

	p := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(p, []byte("number: [1, 2"), 0o644))
	err = Load(p, &testConfig{})
	assert.Error(t, err)
}
