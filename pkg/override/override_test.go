package override

import (
	"archive/zip"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const descriptorFixture = `{
    "name": "ffmpeg",
    "buildsystem": "autotools",
    "config-opts": ["--enable-shared", "--disable-doc"],
    "sources": [
        {
            "type": "git",
            "url": "https://git.ffmpeg.org/ffmpeg.git",
            "commit": "1234567890abcdef1234567890abcdef12345678"
        }
    ]
}
`

func setupRepo(t *testing.T) (repoRoot, buildDir string) {
	t.Helper()
	base := t.TempDir()
	repoRoot = filepath.Join(base, "repo")
	buildDir = filepath.Join(base, "build")
	require.NoError(t, os.MkdirAll(filepath.Join(repoRoot, "modules"), 0755))
	require.NoError(t, os.MkdirAll(buildDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(repoRoot, "modules", "ffmpeg.json"), []byte(descriptorFixture), 0644))
	return repoRoot, buildDir
}

func writeZip(t *testing.T, path string, entries map[string]string, order []string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := zip.NewWriter(f)
	for _, name := range order {
		entry, err := w.Create(name)
		require.NoError(t, err)
		_, err = entry.Write([]byte(entries[name]))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
}

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return b
}

func TestStageArchiveSelectsArchitecture(t *testing.T) {
	repoRoot, buildDir := setupRepo(t)
	archivePath := filepath.Join(t.TempDir(), "artifacts.zip")
	writeZip(t, archivePath, map[string]string{
		"a/Linux-x86_64-ffmpeg.tar.gz":  "x86 payload",
		"b/Linux-aarch64-ffmpeg.tar.gz": "arm payload",
	}, []string{"a/Linux-x86_64-ffmpeg.tar.gz", "b/Linux-aarch64-ffmpeg.tar.gz"})

	staged, err := New(repoRoot, buildDir, "ffmpeg").Stage(archivePath, "x86_64")
	require.NoError(t, err)

	assert.Equal(t, "a/Linux-x86_64-ffmpeg.tar.gz", staged.Entry)
	assert.Equal(t, "x86 payload", string(readFile(t, staged.RootCopy)))
}

func TestStageArchiveFallsBackToGenericEntry(t *testing.T) {
	repoRoot, buildDir := setupRepo(t)
	archivePath := filepath.Join(t.TempDir(), "artifacts.zip")
	writeZip(t, archivePath, map[string]string{
		"misc/ffmpeg.tar.gz": "generic payload",
	}, []string{"misc/ffmpeg.tar.gz"})

	staged, err := New(repoRoot, buildDir, "ffmpeg").Stage(archivePath, "aarch64")
	require.NoError(t, err)

	assert.Equal(t, "misc/ffmpeg.tar.gz", staged.Entry)
	assert.Equal(t, "generic payload", string(readFile(t, staged.RootCopy)))
}

func TestStageArchiveFirstEntryWinsTies(t *testing.T) {
	repoRoot, buildDir := setupRepo(t)
	archivePath := filepath.Join(t.TempDir(), "artifacts.zip")
	writeZip(t, archivePath, map[string]string{
		"late/Linux-x86_64-ffmpeg.tar.gz":  "second",
		"early/Linux-x86_64-ffmpeg.tar.gz": "first",
	}, []string{"early/Linux-x86_64-ffmpeg.tar.gz", "late/Linux-x86_64-ffmpeg.tar.gz"})

	staged, err := New(repoRoot, buildDir, "ffmpeg").Stage(archivePath, "x86_64")
	require.NoError(t, err)

	assert.Equal(t, "early/Linux-x86_64-ffmpeg.tar.gz", staged.Entry)
	assert.Equal(t, "first", string(readFile(t, staged.RootCopy)))
}

func TestStageArchiveNoMatchingEntry(t *testing.T) {
	repoRoot, buildDir := setupRepo(t)
	archivePath := filepath.Join(t.TempDir(), "artifacts.zip")
	writeZip(t, archivePath, map[string]string{
		"notes.txt": "nothing useful",
	}, []string{"notes.txt"})

	_, err := New(repoRoot, buildDir, "ffmpeg").Stage(archivePath, "x86_64")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoMatchingEntry))
	assert.Contains(t, err.Error(), "Linux-x86_64-ffmpeg.tar.gz")
}

func TestStageSingleFileFansOutIdenticalCopies(t *testing.T) {
	repoRoot, buildDir := setupRepo(t)
	overridePath := filepath.Join(t.TempDir(), "ffmpeg.tar.gz")
	require.NoError(t, os.WriteFile(overridePath, []byte("prebuilt ffmpeg"), 0644))

	staged, err := New(repoRoot, buildDir, "ffmpeg").Stage(overridePath, "x86_64")
	require.NoError(t, err)

	assert.Empty(t, staged.Entry)
	root := readFile(t, staged.RootCopy)
	assert.Equal(t, "prebuilt ffmpeg", string(root))
	assert.Equal(t, root, readFile(t, staged.BuildCopy))
	assert.Equal(t, root, readFile(t, staged.ModuleCopy))
	assert.Equal(t, filepath.Join(repoRoot, ".flatpak-builder", "build", "ffmpeg", "ffmpeg.tar.gz"), staged.ModuleCopy)
}

func TestStageRewritesDescriptorSources(t *testing.T) {
	repoRoot, buildDir := setupRepo(t)
	overridePath := filepath.Join(t.TempDir(), "ffmpeg.tar.gz")
	require.NoError(t, os.WriteFile(overridePath, []byte("payload"), 0644))

	staged, err := New(repoRoot, buildDir, "ffmpeg").Stage(overridePath, "x86_64")
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(readFile(t, staged.Descriptor), &doc))

	assert.Equal(t, []interface{}{
		map[string]interface{}{"type": "file", "path": "../ffmpeg.tar.gz"},
	}, doc["sources"])

	// every other field survives the rewrite
	assert.Equal(t, "ffmpeg", doc["name"])
	assert.Equal(t, "autotools", doc["buildsystem"])
	assert.Equal(t, []interface{}{"--enable-shared", "--disable-doc"}, doc["config-opts"])
}

func TestStageMissingOverride(t *testing.T) {
	repoRoot, buildDir := setupRepo(t)

	_, err := New(repoRoot, buildDir, "ffmpeg").Stage(filepath.Join(t.TempDir(), "nope.zip"), "x86_64")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingOverride))

	// fails before anything is staged
	assert.NoFileExists(t, filepath.Join(repoRoot, "ffmpeg.tar.gz"))
	assert.NoFileExists(t, filepath.Join(buildDir, "ffmpeg.tar.gz"))
}

func TestStageMissingDescriptor(t *testing.T) {
	base := t.TempDir()
	repoRoot := filepath.Join(base, "repo")
	buildDir := filepath.Join(base, "build")
	require.NoError(t, os.MkdirAll(repoRoot, 0755))

	overridePath := filepath.Join(base, "ffmpeg.tar.gz")
	require.NoError(t, os.WriteFile(overridePath, []byte("payload"), 0644))

	_, err := New(repoRoot, buildDir, "ffmpeg").Stage(overridePath, "x86_64")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDescriptorNotFound))
}
