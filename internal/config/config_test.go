package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pakprep.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `app-id: org.example.Browser
manifest: org.example.Browser.yaml
repo-root: .
arch: aarch64
`)

	release, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "org.example.Browser", release.AppID)
	assert.Equal(t, "aarch64", release.Arch)
	// defaults fill the rest
	assert.Equal(t, "ffmpeg", release.Module)
	assert.Equal(t, "build", release.BuildDir)
}

func TestLoadInvalidArch(t *testing.T) {
	path := writeConfig(t, `arch: riscv64`)

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidArch))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestDefaultsValidate(t *testing.T) {
	release := &Release{}
	release.ApplyDefaults()
	require.NoError(t, release.Validate())
	assert.Equal(t, "x86_64", release.Arch)
}
