// Package config builds the Settings value every installer component receives.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/adamancini/muxup/internal/types"
)

// Defaults for the upstream sources and the shim.
const (
	DefaultReleaseAPI       = "https://api.github.com"
	DefaultReleaseOwner     = "nelsonenzo"
	DefaultReleaseRepo      = "tmux-appimage"
	DefaultAssetPattern     = "AppImage"
	DefaultPluginManagerURL = "https://github.com/tmux-plugins/tpm"
	DefaultFallbackBinary   = "/usr/bin/tmux"
	DefaultProbeTimeout     = 5 * time.Second
)

// Settings is the complete configuration of one install run.
type Settings struct {
	ForceRefresh  bool   `json:"force_refresh" yaml:"force_refresh"`
	Arch          string `json:"arch" yaml:"arch"`
	SkipClipboard bool   `json:"skip_clipboard" yaml:"skip_clipboard"`

	ReleaseAPI       string        `json:"release_api" yaml:"release_api"`
	ReleaseOwner     string        `json:"release_owner" yaml:"release_owner"`
	ReleaseRepo      string        `json:"release_repo" yaml:"release_repo"`
	AssetPattern     string        `json:"asset_pattern" yaml:"asset_pattern"`
	PluginManagerURL string        `json:"plugin_manager_url" yaml:"plugin_manager_url"`
	FallbackBinary   string        `json:"fallback_binary" yaml:"fallback_binary"`
	ProbeTimeout     time.Duration `json:"probe_timeout" yaml:"probe_timeout"`

	// GitHubToken is optional and only eases API rate limits.
	GitHubToken string `json:"-" yaml:"-"`
	// Shell is the login shell path used to pick the startup file.
	Shell string `json:"shell,omitempty" yaml:"shell,omitempty"`

	Paths Paths `json:"paths" yaml:"paths"`

	// SourceFile is the settings file that was loaded, if any.
	SourceFile string `json:"source_file,omitempty" yaml:"source_file,omitempty"`

	// Warnings lists malformed values that were ignored while loading.
	Warnings []string `json:"-" yaml:"-"`
}

// Paths is the fixed on-disk layout, rooted at the user's home directory.
type Paths struct {
	Home       string   `json:"home" yaml:"home"`
	LocalBin   string   `json:"local_bin" yaml:"local_bin"`
	Artifact   string   `json:"artifact" yaml:"artifact"`
	Shim       string   `json:"shim" yaml:"shim"`
	ConfigFile string   `json:"config_file" yaml:"config_file"`
	PluginDir  string   `json:"plugin_dir" yaml:"plugin_dir"`
	RCFiles    []string `json:"rc_files" yaml:"rc_files"`
}

// PathsFor returns the layout for the given home directory.
func PathsFor(home string) Paths {
	localBin := filepath.Join(home, ".local", "bin")
	return Paths{
		Home:       home,
		LocalBin:   localBin,
		Artifact:   filepath.Join(localBin, "tmux.appimage"),
		Shim:       filepath.Join(localBin, "tmux"),
		ConfigFile: filepath.Join(home, ".tmux.conf"),
		PluginDir:  filepath.Join(home, ".tmux", "plugins", "tpm"),
		RCFiles: []string{
			filepath.Join(home, ".bashrc"),
			filepath.Join(home, ".zshrc"),
			filepath.Join(home, ".profile"),
		},
	}
}

// Default returns settings with every default applied.
func Default(home string) *Settings {
	return &Settings{
		Arch:             types.ArchAuto,
		ReleaseAPI:       DefaultReleaseAPI,
		ReleaseOwner:     DefaultReleaseOwner,
		ReleaseRepo:      DefaultReleaseRepo,
		AssetPattern:     DefaultAssetPattern,
		PluginManagerURL: DefaultPluginManagerURL,
		FallbackBinary:   DefaultFallbackBinary,
		ProbeTimeout:     DefaultProbeTimeout,
		Paths:            PathsFor(home),
	}
}

// LookupEnvFunc matches os.LookupEnv.
type LookupEnvFunc func(key string) (string, bool)

// LoadOptions controls where Load reads from.
type LoadOptions struct {
	// Home overrides the home directory (defaults to os.UserHomeDir).
	Home string
	// ConfigPath is an explicit settings file (the --config flag).
	ConfigPath string
	// LookupEnv reads the process environment (defaults to os.LookupEnv).
	LookupEnv LookupEnvFunc
	// Logger receives one warning per ignored value. May be nil.
	Logger *log.Logger
}

// Load resolves settings from defaults, the settings file, the env file and
// the process environment, in increasing precedence. Flags are applied by
// the caller afterwards.
//
// Malformed values never fail the load: each one is ignored with a warning
// and the previous value (ultimately the default) is kept. Only a missing
// --config file or an unknown home directory is an error.
func Load(opts LoadOptions) (*Settings, error) {
	lookup := opts.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}

	home := opts.Home
	if home == "" {
		h, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to determine home directory: %w", err)
		}
		home = h
	}

	s := Default(home)

	path, err := FindSettingsFile(opts.ConfigPath, lookup, home)
	if err != nil {
		return nil, err
	}
	if path != "" {
		s.applyFile(path, lookup)
	}

	envPath := EnvFilePath(lookup, home)
	if envFile, err := readEnvFile(envPath); err != nil {
		s.warnf("ignoring env file: %v", err)
	} else {
		s.applyEnv(envPath, mapLookup(envFile))
	}
	s.applyEnv("environment", lookup)

	s.resetInvalid()
	if err := s.Validate(); err != nil {
		return nil, err
	}

	if opts.Logger != nil {
		for _, w := range s.Warnings {
			opts.Logger.Warn(w)
		}
	}
	return s, nil
}

// ConfigDir returns $XDG_CONFIG_HOME/muxup, defaulting to ~/.config/muxup.
func ConfigDir(lookup LookupEnvFunc, home string) string {
	xdgConfig, ok := lookup("XDG_CONFIG_HOME")
	if !ok || xdgConfig == "" {
		xdgConfig = filepath.Join(home, ".config")
	}
	return filepath.Join(xdgConfig, "muxup")
}

// EnvFilePath returns the location of the KEY=VALUE overrides file.
func EnvFilePath(lookup LookupEnvFunc, home string) string {
	return filepath.Join(ConfigDir(lookup, home), "env")
}

// FindSettingsFile returns the settings file to load, or "" when none exists.
// An explicit path must exist; the other locations are optional.
func FindSettingsFile(explicitPath string, lookup LookupEnvFunc, home string) (string, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return "", fmt.Errorf("specified settings file not found: %s", explicitPath)
		}
		return explicitPath, nil
	}

	if envPath, ok := lookup("MUXUP_CONFIG"); ok && envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath, nil
		}
	}

	dir := ConfigDir(lookup, home)
	for _, name := range []string{"config.yaml", "config.yml", "config.toml", "config.json", "config"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", nil
}

// ArchOverridden reports whether the arch setting bypasses probing.
func (s *Settings) ArchOverridden() bool {
	return s.Arch != "" && s.Arch != types.ArchAuto
}

// ReleaseSlug returns "owner/repo" of the release source.
func (s *Settings) ReleaseSlug() string {
	return s.ReleaseOwner + "/" + s.ReleaseRepo
}
