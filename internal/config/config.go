package config

import (
	"errors"

	"github.com/thoas/go-funk"
	"gopkg.in/yaml.v3"

	"github.com/pakprep/cli/internal/errs"
	"github.com/pakprep/cli/internal/fileutils"
)

// ErrInvalidArch is returned when the configured architecture tag is not supported
var ErrInvalidArch = errors.New("unsupported architecture")

// Archs are the architecture tags the packaging pipeline builds for
var Archs = []string{"x86_64", "aarch64"}

// Release describes one packaging run: which manifest to patch and where the
// packaging repo checkout lives. Loaded from pakprep.yaml; CLI flags override
// individual fields.
type Release struct {
	AppID    string `yaml:"app-id"`
	Manifest string `yaml:"manifest"`
	RepoRoot string `yaml:"repo-root"`
	BuildDir string `yaml:"build-dir"`
	Module   string `yaml:"module"`
	Arch     string `yaml:"arch"`
}

// Load reads a release config file and applies defaults
func Load(path string) (*Release, error) {
	data, err := fileutils.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(err, "Could not read config %s", path)
	}

	release := &Release{}
	if err := yaml.Unmarshal(data, release); err != nil {
		return nil, errs.Wrap(err, "Could not parse config %s", path)
	}

	release.ApplyDefaults()
	if err := release.Validate(); err != nil {
		return nil, err
	}

	return release, nil
}

// Exists reports whether a config file is present at the given path
func Exists(path string) bool {
	return fileutils.FileExists(path)
}

func (r *Release) ApplyDefaults() {
	if r.Module == "" {
		r.Module = "ffmpeg"
	}
	if r.Arch == "" {
		r.Arch = "x86_64"
	}
	if r.BuildDir == "" {
		r.BuildDir = "build"
	}
}

func (r *Release) Validate() error {
	if !funk.ContainsString(Archs, r.Arch) {
		return errs.Wrap(ErrInvalidArch, "Architecture %q is not one of %v", r.Arch, Archs)
	}
	return nil
}
