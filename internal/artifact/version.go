package artifact

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// tmux prints "tmux 3.5a", "tmux next-3.6" or "tmux 3.4-rc".
var versionRegex = regexp.MustCompile(`^tmux\s+(next-)?(\d+)\.(\d+)([a-z]?)(?:-([a-zA-Z0-9.]+))?\s*$`)

// Version is a tmux version.
type Version struct {
	Major      int
	Minor      int
	Letter     string // patch letter, "a" in 3.5a
	Next       bool   // development build ("next-3.6")
	Prerelease string
}

// ParseVersion parses `tmux -V` output.
func ParseVersion(s string) (*Version, error) {
	line := strings.TrimSpace(s)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = strings.TrimSpace(line[:i])
	}

	matches := versionRegex.FindStringSubmatch(line)
	if matches == nil {
		return nil, fmt.Errorf("invalid version output: %q", s)
	}

	major, _ := strconv.Atoi(matches[2])
	minor, _ := strconv.Atoi(matches[3])

	return &Version{
		Major:      major,
		Minor:      minor,
		Letter:     matches[4],
		Next:       matches[1] != "",
		Prerelease: matches[5],
	}, nil
}

// ParseTag parses a release tag such as "3.5a" or "v3.4".
func ParseTag(tag string) (*Version, error) {
	return ParseVersion("tmux " + strings.TrimPrefix(strings.TrimSpace(tag), "v"))
}

// String returns the version as tmux prints it, without the "tmux " prefix.
func (v *Version) String() string {
	s := fmt.Sprintf("%d.%d%s", v.Major, v.Minor, v.Letter)
	if v.Prerelease != "" {
		s += "-" + v.Prerelease
	}
	if v.Next {
		s = "next-" + s
	}
	return s
}

// Compare compares two versions
// Returns:
//   - 1 if v > other
//   - 0 if v == other
//   - -1 if v < other
func (v *Version) Compare(other *Version) int {
	if v.Major != other.Major {
		return sign(v.Major - other.Major)
	}
	if v.Minor != other.Minor {
		return sign(v.Minor - other.Minor)
	}
	if v.Letter != other.Letter {
		return strings.Compare(v.Letter, other.Letter)
	}

	// Stable versions (no prerelease) are greater than prereleases
	if v.Prerelease == "" && other.Prerelease != "" {
		return 1
	}
	if v.Prerelease != "" && other.Prerelease == "" {
		return -1
	}
	return strings.Compare(v.Prerelease, other.Prerelease)
}

// IsLessThan returns true if v < other
func (v *Version) IsLessThan(other *Version) bool {
	return v.Compare(other) < 0
}

func sign(n int) int {
	switch {
	case n > 0:
		return 1
	case n < 0:
		return -1
	}
	return 0
}
