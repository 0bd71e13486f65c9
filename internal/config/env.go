package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Recognized environment overrides.
const (
	EnvForce         = "MUXUP_FORCE"
	EnvArch          = "MUXUP_ARCH"
	EnvSkipClipboard = "MUXUP_SKIP_CLIPBOARD"
	EnvReleaseRepo   = "MUXUP_RELEASE_REPO"
	EnvReleaseAPI    = "MUXUP_RELEASE_API"
	EnvProbeTimeout  = "MUXUP_PROBE_TIMEOUT"
	EnvGitHubToken   = "GITHUB_TOKEN"
)

// ParseBool reads the truthy/falsy spellings accepted by the overrides.
// ok is false when the value is neither.
func ParseBool(val string) (value, ok bool) {
	switch strings.ToLower(strings.TrimSpace(val)) {
	case "true", "1", "yes", "on":
		return true, true
	case "false", "0", "no", "off":
		return false, true
	}
	return false, false
}

// applyEnv applies MUXUP_* overrides found through lookup. Values that do not
// parse are reported as warnings and leave the setting unchanged; source names
// where they came from.
func (s *Settings) applyEnv(source string, lookup LookupEnvFunc) {
	applyString := func(key string, target *string) {
		if val, ok := lookup(key); ok && val != "" {
			*target = val
		}
	}

	applyBool := func(key string, target *bool) {
		val, ok := lookup(key)
		if !ok || val == "" {
			return
		}
		if b, valid := ParseBool(val); valid {
			*target = b
			return
		}
		s.warnf("%s: %s=%q is not a boolean; ignoring it", source, key, val)
	}

	applyBool(EnvForce, &s.ForceRefresh)
	applyBool(EnvSkipClipboard, &s.SkipClipboard)
	// Any arch string is taken verbatim.
	applyString(EnvArch, &s.Arch)
	applyString(EnvGitHubToken, &s.GitHubToken)
	applyString("SHELL", &s.Shell)
	if val, ok := lookup(EnvReleaseAPI); ok && val != "" {
		s.ReleaseAPI = strings.TrimRight(val, "/")
	}

	if val, ok := lookup(EnvReleaseRepo); ok && val != "" {
		if err := s.setReleaseRepo(val); err != nil {
			s.warnf("%s: %s: %v; keeping %s", source, EnvReleaseRepo, err, s.ReleaseSlug())
		}
	}

	if val, ok := lookup(EnvProbeTimeout); ok && val != "" {
		if d, err := time.ParseDuration(val); err != nil {
			s.warnf("%s: %s: invalid duration %q; keeping %s", source, EnvProbeTimeout, val, s.ProbeTimeout)
		} else {
			s.ProbeTimeout = d
		}
	}
}

// readEnvFile reads a KEY=VALUE file. A missing file yields an empty map.
func readEnvFile(path string) (map[string]string, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return map[string]string{}, nil
	}

	values, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read env file %s: %w", path, err)
	}
	return values, nil
}

func mapLookup(m map[string]string) LookupEnvFunc {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}
