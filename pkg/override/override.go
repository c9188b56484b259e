// Package override stages a prebuilt ffmpeg tarball as a source override for
// the ffmpeg module, so the packaging build consumes the supplied binary
// instead of compiling ffmpeg from its declared git source.
package override

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/thoas/go-funk"

	"github.com/pakprep/cli/internal/errs"
	"github.com/pakprep/cli/internal/fileutils"
	"github.com/pakprep/cli/internal/logging"
	"github.com/pakprep/cli/internal/unarchiver"
)

var (
	// ErrMissingOverride is returned when the supplied override path does not exist
	ErrMissingOverride = errors.New("override artifact not found")
	// ErrNoMatchingEntry is returned when an override archive holds no usable payload
	ErrNoMatchingEntry = errors.New("no matching archive entry")
	// ErrDescriptorNotFound is returned when the ffmpeg module descriptor is absent
	ErrDescriptorNotFound = errors.New("module descriptor not found")
)

// payloadName is the filename downstream tooling expects at every staging destination
const payloadName = "ffmpeg.tar.gz"

// StagedSource reports where the payload was staged and which archive entry fed it
type StagedSource struct {
	RootCopy   string
	BuildCopy  string
	ModuleCopy string
	Descriptor string
	// Entry is the selected archive entry name; empty for a single-file override
	Entry string
}

// Stager stages override payloads into a packaging repository checkout
type Stager struct {
	repoRoot string
	buildDir string
	module   string
}

func New(repoRoot, buildDir, module string) *Stager {
	return &Stager{repoRoot: repoRoot, buildDir: buildDir, module: module}
}

// Stage copies the override payload to the repository root, the build output
// dir and the per-module build dir, then rewrites the module descriptor to
// source the staged copy. Re-running with the same inputs is safe; partially
// written copies from a failed run are simply overwritten.
func (s *Stager) Stage(overridePath, arch string) (*StagedSource, error) {
	if !fileutils.FileExists(overridePath) {
		return nil, errs.Wrap(ErrMissingOverride, "No override artifact at %s", overridePath)
	}

	staged := &StagedSource{
		RootCopy:   filepath.Join(s.repoRoot, payloadName),
		BuildCopy:  filepath.Join(s.buildDir, payloadName),
		ModuleCopy: filepath.Join(s.repoRoot, ".flatpak-builder", "build", s.module, payloadName),
		Descriptor: filepath.Join(s.repoRoot, "modules", s.module+".json"),
	}

	// The kind is inferred from the extension alone; content is never sniffed
	if strings.EqualFold(filepath.Ext(overridePath), ".zip") {
		entry, err := selectEntry(overridePath, arch)
		if err != nil {
			return nil, err
		}
		staged.Entry = entry

		logging.Info("Extracting %s from %s", entry, overridePath)
		ua := unarchiver.NewZip()
		if err := ua.ExtractEntry(overridePath, entry, staged.RootCopy); err != nil {
			return nil, errs.Wrap(err, "Could not extract override payload to %s", staged.RootCopy)
		}
	} else {
		logging.Info("Copying override %s", overridePath)
		if err := fileutils.CopyFilePreserve(overridePath, staged.RootCopy); err != nil {
			return nil, errs.Wrap(err, "Could not copy override payload to %s", staged.RootCopy)
		}
	}

	// Fan out from the root copy; order matters only for error reporting
	for _, target := range []string{staged.BuildCopy, staged.ModuleCopy} {
		if err := fileutils.CopyFile(staged.RootCopy, target); err != nil {
			return nil, errs.Wrap(err, "Could not stage override payload at %s", target)
		}
	}

	if err := s.rewriteDescriptor(staged); err != nil {
		return nil, err
	}

	return staged, nil
}

// selectEntry picks the payload from an override archive: entries matching the
// architecture-specific suffix win, otherwise any ffmpeg tarball qualifies.
// Ties go to the first entry in archive listing order.
func selectEntry(archivePath, arch string) (string, error) {
	ua := unarchiver.NewZip()
	names, err := ua.List(archivePath)
	if err != nil {
		return "", errs.Wrap(err, "Could not enumerate override archive %s", archivePath)
	}

	preferredSuffix := fmt.Sprintf("Linux-%s-%s", arch, payloadName)
	candidates := funk.FilterString(names, func(name string) bool {
		return strings.HasSuffix(name, preferredSuffix)
	})
	if len(candidates) == 0 {
		candidates = funk.FilterString(names, func(name string) bool {
			return strings.HasSuffix(name, payloadName)
		})
	}
	if len(candidates) == 0 {
		return "", errs.Wrap(ErrNoMatchingEntry,
			"Archive %s has no entry ending in %s or %s", archivePath, preferredSuffix, payloadName)
	}

	return candidates[0], nil
}

// rewriteDescriptor replaces the descriptor's sources with a single file
// reference to the repository-root copy, relative to the descriptor's own
// directory. Every other field survives the round trip unchanged.
func (s *Stager) rewriteDescriptor(staged *StagedSource) error {
	if !fileutils.FileExists(staged.Descriptor) {
		return errs.Wrap(ErrDescriptorNotFound, "No module descriptor at %s", staged.Descriptor)
	}

	data, err := fileutils.ReadFile(staged.Descriptor)
	if err != nil {
		return err
	}

	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return errs.Wrap(err, "Could not parse module descriptor %s", staged.Descriptor)
	}

	relPath, err := filepath.Rel(filepath.Dir(staged.Descriptor), staged.RootCopy)
	if err != nil {
		return errs.Wrap(err, "Could not relativize %s against %s", staged.RootCopy, staged.Descriptor)
	}

	doc["sources"] = []interface{}{
		map[string]interface{}{
			"type": "file",
			"path": filepath.ToSlash(relPath),
		},
	}

	out, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return errs.Wrap(err, "Could not serialize module descriptor %s", staged.Descriptor)
	}

	return fileutils.WriteFile(staged.Descriptor, append(out, '\n'))
}
