package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format represents the file format of a settings file.
type Format int

const (
	FormatUnknown Format = iota
	FormatYAML
	FormatTOML
	FormatJSON
)

// detectFormat determines the file format based on extension or content.
func detectFormat(path string, content []byte) Format {
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".yaml", ".yml":
		return FormatYAML
	case ".toml":
		return FormatTOML
	case ".json":
		return FormatJSON
	}

	// Content sniffing for extensionless files
	return sniffFormat(content)
}

// sniffFormat attempts to detect format from content.
func sniffFormat(content []byte) Format {
	trimmed := strings.TrimSpace(string(content))

	if strings.HasPrefix(trimmed, "{") {
		return FormatJSON
	}

	for _, line := range strings.Split(trimmed, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.Contains(line, "=") || strings.HasPrefix(line, "[") {
			return FormatTOML
		}
		if strings.Contains(line, ":") {
			return FormatYAML
		}
	}

	return FormatUnknown
}

// fileSettings is the on-disk schema. Pointers distinguish "unset" from false.
type fileSettings struct {
	ForceRefresh     *bool  `yaml:"force_refresh" toml:"force_refresh" json:"force_refresh"`
	Arch             string `yaml:"arch" toml:"arch" json:"arch"`
	SkipClipboard    *bool  `yaml:"skip_clipboard" toml:"skip_clipboard" json:"skip_clipboard"`
	ReleaseAPI       string `yaml:"release_api" toml:"release_api" json:"release_api"`
	ReleaseRepo      string `yaml:"release_repo" toml:"release_repo" json:"release_repo"`
	AssetPattern     string `yaml:"asset_pattern" toml:"asset_pattern" json:"asset_pattern"`
	PluginManagerURL string `yaml:"plugin_manager_url" toml:"plugin_manager_url" json:"plugin_manager_url"`
	FallbackBinary   string `yaml:"fallback_binary" toml:"fallback_binary" json:"fallback_binary"`
	ProbeTimeout     string `yaml:"probe_timeout" toml:"probe_timeout" json:"probe_timeout"`
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns in content.
func expandEnvVars(content []byte, lookup LookupEnvFunc) []byte {
	return envVarPattern.ReplaceAllFunc(content, func(match []byte) []byte {
		parts := envVarPattern.FindSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		value, _ := lookup(string(parts[1]))
		if value == "" && len(parts) >= 3 && len(parts[2]) > 0 {
			value = string(parts[2])
		}

		return []byte(value)
	})
}

// parse parses the content according to the specified format.
func parse(content []byte, format Format, lookup LookupEnvFunc) (*fileSettings, error) {
	content = expandEnvVars(content, lookup)

	var raw fileSettings

	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(content, &raw); err != nil {
			return nil, fmt.Errorf("YAML parse error: %w", err)
		}
	case FormatTOML:
		if err := toml.Unmarshal(content, &raw); err != nil {
			return nil, fmt.Errorf("TOML parse error: %w", err)
		}
	case FormatJSON:
		if err := json.Unmarshal(content, &raw); err != nil {
			return nil, fmt.Errorf("JSON parse error: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown file format")
	}

	return &raw, nil
}

// applyFile loads path and merges the values it sets. A file that cannot be
// read or parsed is skipped with a warning.
func (s *Settings) applyFile(path string, lookup LookupEnvFunc) {
	content, err := os.ReadFile(path)
	if err != nil {
		s.warnf("ignoring settings file: %v", err)
		return
	}

	// An empty file is valid and changes nothing.
	if len(strings.TrimSpace(string(content))) == 0 {
		s.SourceFile = path
		return
	}

	format := detectFormat(path, content)
	if format == FormatUnknown {
		s.warnf("ignoring settings file %s: unable to detect its format", path)
		return
	}

	raw, err := parse(content, format, lookup)
	if err != nil {
		s.warnf("ignoring settings file %s: %v", path, err)
		return
	}

	s.SourceFile = path
	s.merge(raw)
}

// merge copies the keys raw sets. A malformed value keeps the current one.
func (s *Settings) merge(raw *fileSettings) {
	if raw.ForceRefresh != nil {
		s.ForceRefresh = *raw.ForceRefresh
	}
	if raw.SkipClipboard != nil {
		s.SkipClipboard = *raw.SkipClipboard
	}
	if raw.Arch != "" {
		s.Arch = raw.Arch
	}
	if raw.ReleaseAPI != "" {
		s.ReleaseAPI = strings.TrimRight(raw.ReleaseAPI, "/")
	}
	if raw.ReleaseRepo != "" {
		if err := s.setReleaseRepo(raw.ReleaseRepo); err != nil {
			s.warnf("release_repo: %v; keeping %s", err, s.ReleaseSlug())
		}
	}
	if raw.AssetPattern != "" {
		s.AssetPattern = raw.AssetPattern
	}
	if raw.PluginManagerURL != "" {
		s.PluginManagerURL = raw.PluginManagerURL
	}
	if raw.FallbackBinary != "" {
		s.FallbackBinary = raw.FallbackBinary
	}
	if raw.ProbeTimeout != "" {
		if d, err := time.ParseDuration(raw.ProbeTimeout); err != nil {
			s.warnf("probe_timeout: invalid duration %q; keeping %s", raw.ProbeTimeout, s.ProbeTimeout)
		} else {
			s.ProbeTimeout = d
		}
	}
}

// setReleaseRepo accepts "owner/repo".
func (s *Settings) setReleaseRepo(slug string) error {
	owner, repo, ok := strings.Cut(slug, "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return fmt.Errorf("release repo must be owner/repo, got %q", slug)
	}
	s.ReleaseOwner = owner
	s.ReleaseRepo = repo
	return nil
}
