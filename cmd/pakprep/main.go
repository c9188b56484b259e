package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pakprep/cli/internal/config"
	"github.com/pakprep/cli/internal/logging"
	"github.com/pakprep/cli/pkg/manifest"
	"github.com/pakprep/cli/pkg/override"
)

func main() {
	if err := rootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "pakprep: %s\n", err)
		os.Exit(1)
	}
}

type options struct {
	configPath string
	verbose    bool

	manifestPath string
	url          string
	commit       string
	disableVAAPI bool

	overridePath string
	arch         string
	repoRoot     string
	buildDir     string
	module       string
}

func rootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "pakprep",
		Short:         "Prepare a flatpak packaging repo for a release build",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.verbose {
				logging.SetLevel(logging.ALL)
			}
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "pakprep.yaml", "release config file")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(patchCommand(opts), stageCommand(opts), prepareCommand(opts))
	return root
}

func patchCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patch",
		Short: "Rewrite the manifest's git source and optionally strip VAAPI",
		RunE: func(cmd *cobra.Command, args []string) error {
			release, err := resolve(opts)
			if err != nil {
				return err
			}
			return runPatch(release, opts)
		},
	}
	addPatchFlags(cmd, opts)
	return cmd
}

func stageCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stage",
		Short: "Stage a prebuilt ffmpeg override into the packaging repo",
		RunE: func(cmd *cobra.Command, args []string) error {
			release, err := resolve(opts)
			if err != nil {
				return err
			}
			if opts.overridePath == "" {
				return fmt.Errorf("an override artifact is required; pass --override")
			}
			return runStage(release, opts)
		},
	}
	addStageFlags(cmd, opts)
	return cmd
}

func prepareCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prepare",
		Short: "Patch the manifest, then stage the ffmpeg override if one was supplied",
		RunE: func(cmd *cobra.Command, args []string) error {
			release, err := resolve(opts)
			if err != nil {
				return err
			}
			if err := runPatch(release, opts); err != nil {
				return err
			}
			if opts.overridePath == "" {
				logging.Debug("No override artifact supplied, skipping staging")
				return nil
			}
			return runStage(release, opts)
		},
	}
	addPatchFlags(cmd, opts)
	addStageFlags(cmd, opts)
	return cmd
}

func addPatchFlags(cmd *cobra.Command, opts *options) {
	cmd.Flags().StringVar(&opts.manifestPath, "manifest", "", "path to the generated manifest")
	cmd.Flags().StringVar(&opts.url, "url", "", "upstream source url")
	cmd.Flags().StringVar(&opts.commit, "commit", "", "upstream source revision")
	cmd.Flags().BoolVar(&opts.disableVAAPI, "disable-vaapi", false, "strip the VAAPI acceleration fragments")
}

func addStageFlags(cmd *cobra.Command, opts *options) {
	cmd.Flags().StringVar(&opts.overridePath, "override", "", "prebuilt ffmpeg artifact (tarball or CI zip)")
	cmd.Flags().StringVar(&opts.arch, "arch", "", "target architecture tag")
	cmd.Flags().StringVar(&opts.repoRoot, "repo-root", "", "packaging repo checkout")
	cmd.Flags().StringVar(&opts.buildDir, "build-dir", "", "build output directory")
	cmd.Flags().StringVar(&opts.module, "module", "", "module receiving the override")
}

// resolve merges the optional config file with flag overrides, flags winning
func resolve(opts *options) (*config.Release, error) {
	release := &config.Release{}
	if config.Exists(opts.configPath) {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			return nil, err
		}
		release = loaded
	}

	if opts.manifestPath != "" {
		release.Manifest = opts.manifestPath
	}
	if opts.arch != "" {
		release.Arch = opts.arch
	}
	if opts.repoRoot != "" {
		release.RepoRoot = opts.repoRoot
	}
	if opts.buildDir != "" {
		release.BuildDir = opts.buildDir
	}
	if opts.module != "" {
		release.Module = opts.module
	}

	release.ApplyDefaults()
	if err := release.Validate(); err != nil {
		return nil, err
	}
	return release, nil
}

func runPatch(release *config.Release, opts *options) error {
	if release.Manifest == "" {
		return fmt.Errorf("a manifest path is required; pass --manifest or set it in %s", opts.configPath)
	}
	if opts.url == "" || opts.commit == "" {
		return fmt.Errorf("both --url and --commit are required")
	}

	if release.AppID != "" {
		logging.Info("Preparing release of %s", release.AppID)
	}
	logging.Info("Patching %s with %s @ %s", release.Manifest, opts.url, opts.commit)
	if err := manifest.SetGitSource(release.Manifest, opts.url, opts.commit); err != nil {
		return err
	}

	if opts.disableVAAPI {
		logging.Info("Disabling VAAPI in %s", release.Manifest)
		if err := manifest.DisableVAAPI(release.Manifest); err != nil {
			return err
		}
	}
	return nil
}

func runStage(release *config.Release, opts *options) error {
	stager := override.New(release.RepoRoot, release.BuildDir, release.Module)
	staged, err := stager.Stage(opts.overridePath, release.Arch)
	if err != nil {
		return err
	}

	logging.Info("Staged override at %s, %s and %s", staged.RootCopy, staged.BuildCopy, staged.ModuleCopy)
	return nil
}
