// Package manifest applies targeted, line-oriented edits to the generated
// flatpak-builder manifest. The manifest is deliberately never parsed as YAML:
// the contract is that only the targeted lines change and every other byte is
// written back verbatim, which a parse/re-serialize round trip cannot
// guarantee.
package manifest

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pakprep/cli/internal/errs"
	"github.com/pakprep/cli/internal/fileutils"
	"github.com/pakprep/cli/internal/logging"
)

// ErrNotFound is returned when the manifest file does not exist at patch time
var ErrNotFound = errors.New("manifest not found")

// gitSourceMarker opens a git source block; matched against the trimmed line
const gitSourceMarker = "- type: git"

// The VAAPI fragments are matched by exact line equality, indentation included.
// If upstream reformats the manifest these silently stop matching; that
// fragility is pinned by tests rather than papered over with fuzzy matching.
const (
	VAAPIModuleLine  = "  - modules/libva.json"
	VAAPIFlagLine    = "        - -DUSE_VAAPI=ON"
	VAAPIEnableLine  = "        - -Dvaapi=enabled"
	VAAPIDisableLine = "        - -Dvaapi=disabled"
)

// SetGitSource rewrites the url and commit fields of git source blocks in the
// manifest, preserving each line's original indentation. Only the first
// url/commit pair inside a block is touched; the commit line closes the block.
func SetGitSource(path, url, commit string) error {
	data, err := read(path)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}

	lines, rewritten := rewriteGitSource(strings.Split(strings.TrimRight(string(data), "\n"), "\n"), url, commit)
	if rewritten > 1 {
		// The packaging repo declares a single upstream source; more than one
		// git block means the generated manifest changed shape upstream.
		logging.Warning("Manifest %s has %d git source blocks; rewrote url/commit in all of them", path, rewritten)
	}

	return write(path, lines)
}

// DisableVAAPI strips the optional VAAPI acceleration fragments from the
// manifest: the libva module reference and the compile flag are removed, the
// enable flag is flipped to disabled in place. Running it on an already
// patched manifest is a no-op.
func DisableVAAPI(path string) error {
	data, err := read(path)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}

	var lines []string
	for _, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
		switch line {
		case VAAPIModuleLine, VAAPIFlagLine:
			continue
		case VAAPIEnableLine:
			lines = append(lines, VAAPIDisableLine)
		default:
			lines = append(lines, line)
		}
	}

	return write(path, lines)
}

// rewriteGitSource returns the transformed lines and the number of git blocks
// whose commit line was rewritten (a bare marker with no fields counts for nothing)
func rewriteGitSource(lines []string, url, commit string) ([]string, int) {
	insideGitBlock := false
	rewritten := 0
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == gitSourceMarker {
			insideGitBlock = true
			continue
		}
		if !insideGitBlock {
			continue
		}

		indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
		if strings.HasPrefix(trimmed, "url:") {
			lines[i] = fmt.Sprintf("%surl: \"%s\"", indent, url)
		} else if strings.HasPrefix(trimmed, "commit:") {
			lines[i] = fmt.Sprintf("%scommit: \"%s\"", indent, commit)
			insideGitBlock = false
			rewritten++
		}
	}
	return lines, rewritten
}

func read(path string) ([]byte, error) {
	if !fileutils.FileExists(path) {
		return nil, errs.Wrap(ErrNotFound, "No manifest file at %s", path)
	}
	return fileutils.ReadFile(path)
}

func write(path string, lines []string) error {
	if err := fileutils.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n")); err != nil {
		return errs.Wrap(err, "Could not write manifest %s", path)
	}
	return nil
}
