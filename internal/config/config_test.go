package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adamancini/muxup/internal/types"
)

func TestPathsFor(t *testing.T) {
	p := PathsFor("/home/u")

	assert.Equal(t, "/home/u/.local/bin", p.LocalBin)
	assert.Equal(t, "/home/u/.local/bin/tmux.appimage", p.Artifact)
	assert.Equal(t, "/home/u/.local/bin/tmux", p.Shim)
	assert.Equal(t, "/home/u/.tmux.conf", p.ConfigFile)
	assert.Equal(t, "/home/u/.tmux/plugins/tpm", p.PluginDir)
	assert.Len(t, p.RCFiles, 3)
}

func TestLoadDefaults(t *testing.T) {
	home := t.TempDir()

	s, err := Load(LoadOptions{Home: home, LookupEnv: envMap(nil)})
	require.NoError(t, err)

	assert.Equal(t, types.ArchAuto, s.Arch)
	assert.False(t, s.ArchOverridden())
	assert.False(t, s.ForceRefresh)
	assert.False(t, s.SkipClipboard)
	assert.Equal(t, DefaultProbeTimeout, s.ProbeTimeout)
	assert.Empty(t, s.SourceFile)
}

func TestLoadPrecedence(t *testing.T) {
	home := t.TempDir()
	dir := filepath.Join(home, ".config", "muxup")
	require.NoError(t, os.MkdirAll(dir, 0755))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("arch: from-file\nforce_refresh: true\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "env"), []byte("MUXUP_ARCH=from-env-file\nMUXUP_SKIP_CLIPBOARD=yes\n"), 0644))

	s, err := Load(LoadOptions{
		Home:      home,
		LookupEnv: envMap(map[string]string{"MUXUP_FORCE": "0"}),
	})
	require.NoError(t, err)

	assert.Equal(t, "from-env-file", s.Arch, "env file beats settings file")
	assert.True(t, s.SkipClipboard)
	assert.False(t, s.ForceRefresh, "process env beats settings file")
	assert.Equal(t, filepath.Join(dir, "config.yaml"), s.SourceFile)
}

func TestLoadArchPassesThroughVerbatim(t *testing.T) {
	s, err := Load(LoadOptions{
		Home:      t.TempDir(),
		LookupEnv: envMap(map[string]string{"MUXUP_ARCH": "Weird-Arch_9000"}),
	})
	require.NoError(t, err)

	assert.Equal(t, "Weird-Arch_9000", s.Arch)
	assert.True(t, s.ArchOverridden())
}

func TestLoadExplicitPathMissing(t *testing.T) {
	_, err := Load(LoadOptions{
		Home:       t.TempDir(),
		ConfigPath: "/nonexistent/muxup.toml",
		LookupEnv:  envMap(nil),
	})
	assert.Error(t, err)
}

func TestLoadXDGConfigHome(t *testing.T) {
	home := t.TempDir()
	xdg := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(xdg, "muxup"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(xdg, "muxup", "config.toml"), []byte("probe_timeout = \"1500ms\"\n"), 0644))

	s, err := Load(LoadOptions{Home: home, LookupEnv: envMap(map[string]string{"XDG_CONFIG_HOME": xdg})})
	require.NoError(t, err)

	assert.Equal(t, 1500*time.Millisecond, s.ProbeTimeout)
}

func TestLoadIgnoresMalformedOverrides(t *testing.T) {
	tests := []struct {
		name  string
		env   map[string]string
		check func(t *testing.T, s *Settings)
		warn  string
	}{
		{
			name:  "unparsable timeout",
			env:   map[string]string{EnvProbeTimeout: "soon"},
			check: func(t *testing.T, s *Settings) { assert.Equal(t, DefaultProbeTimeout, s.ProbeTimeout) },
			warn:  EnvProbeTimeout,
		},
		{
			name:  "negative timeout",
			env:   map[string]string{EnvProbeTimeout: "-3s"},
			check: func(t *testing.T, s *Settings) { assert.Equal(t, DefaultProbeTimeout, s.ProbeTimeout) },
			warn:  "probe_timeout",
		},
		{
			name: "repo without owner",
			env:  map[string]string{EnvReleaseRepo: "justaname"},
			check: func(t *testing.T, s *Settings) {
				assert.Equal(t, DefaultReleaseOwner+"/"+DefaultReleaseRepo, s.ReleaseSlug())
			},
			warn: EnvReleaseRepo,
		},
		{
			name:  "non-http release api",
			env:   map[string]string{EnvReleaseAPI: "ftp://example.com"},
			check: func(t *testing.T, s *Settings) { assert.Equal(t, DefaultReleaseAPI, s.ReleaseAPI) },
			warn:  "release_api",
		},
		{
			name:  "non-boolean force",
			env:   map[string]string{EnvForce: "maybe"},
			check: func(t *testing.T, s *Settings) { assert.False(t, s.ForceRefresh) },
			warn:  EnvForce,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			s, err := Load(LoadOptions{
				Home:      t.TempDir(),
				LookupEnv: envMap(tt.env),
				Logger:    log.New(&logs),
			})
			require.NoError(t, err)

			tt.check(t, s)
			require.Len(t, s.Warnings, 1)
			assert.Contains(t, s.Warnings[0], tt.warn)
			assert.Contains(t, logs.String(), tt.warn)
		})
	}
}

func TestLoadSkipsUnparsableSettingsFile(t *testing.T) {
	home := t.TempDir()
	dir := filepath.Join(home, ".config", "muxup")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("arch: [unclosed\n"), 0644))

	s, err := Load(LoadOptions{Home: home, LookupEnv: envMap(nil)})
	require.NoError(t, err)

	assert.Equal(t, types.ArchAuto, s.Arch)
	assert.Empty(t, s.SourceFile)
	require.Len(t, s.Warnings, 1)
	assert.Contains(t, s.Warnings[0], "ignoring settings file")
}

func TestLoadSettingsFileBadValueKeepsTheRest(t *testing.T) {
	home := t.TempDir()
	dir := filepath.Join(home, ".config", "muxup")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("arch: aarch64\nprobe_timeout: soon\n"), 0644))

	s, err := Load(LoadOptions{Home: home, LookupEnv: envMap(nil)})
	require.NoError(t, err)

	assert.Equal(t, "aarch64", s.Arch)
	assert.Equal(t, DefaultProbeTimeout, s.ProbeTimeout)
	assert.Len(t, s.Warnings, 1)
}

func TestParseBool(t *testing.T) {
	for _, v := range []string{"1", "true", "YES", "on"} {
		b, ok := ParseBool(v)
		assert.True(t, ok, v)
		assert.True(t, b, v)
	}
	for _, v := range []string{"0", "false", "No", "off"} {
		b, ok := ParseBool(v)
		assert.True(t, ok, v)
		assert.False(t, b, v)
	}
	_, ok := ParseBool("maybe")
	assert.False(t, ok)
}

func TestValidate(t *testing.T) {
	s := Default("/home/u")
	assert.NoError(t, s.Validate())

	s.Paths.Home = ""
	assert.ErrorContains(t, s.Validate(), "paths.home")
	s.Paths.Home = "/home/u"

	s.ProbeTimeout = 0
	s.ReleaseRepo = ""
	err := s.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "probe_timeout")
	assert.Contains(t, err.Error(), "release_repo")
}

func TestLoadReleaseAPI(t *testing.T) {
	home := t.TempDir()
	dir := filepath.Join(home, ".config", "muxup")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("release_api = \"https://mirror.example.com/api/\"\n"), 0644))

	s, err := Load(LoadOptions{Home: home, LookupEnv: envMap(nil)})
	require.NoError(t, err)
	assert.Equal(t, "https://mirror.example.com/api", s.ReleaseAPI)

	s, err = Load(LoadOptions{Home: home, LookupEnv: envMap(map[string]string{EnvReleaseAPI: "http://127.0.0.1:8080"})})
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8080", s.ReleaseAPI)
}
