package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a settings validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// problems lists the fields the installer cannot run with.
// The arch is not checked: unknown strings pass through.
func (s *Settings) problems() []ValidationError {
	var errs []ValidationError

	if s.ReleaseOwner == "" || s.ReleaseRepo == "" {
		errs = append(errs, ValidationError{Field: "release_repo", Message: "owner and repo are required"})
	}
	if !strings.HasPrefix(s.ReleaseAPI, "http://") && !strings.HasPrefix(s.ReleaseAPI, "https://") {
		errs = append(errs, ValidationError{Field: "release_api", Message: "must be an http(s) URL"})
	}
	if s.AssetPattern == "" {
		errs = append(errs, ValidationError{Field: "asset_pattern", Message: "must not be empty"})
	}
	if s.ProbeTimeout <= 0 {
		errs = append(errs, ValidationError{Field: "probe_timeout", Message: "must be positive"})
	}
	if s.Paths.Home == "" {
		errs = append(errs, ValidationError{Field: "paths.home", Message: "is required"})
	}
	return errs
}

// Validate checks fields the installer cannot run without.
func (s *Settings) Validate() error {
	errs := s.problems()
	if len(errs) == 0 {
		return nil
	}

	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return fmt.Errorf("invalid settings:\n  - %s", strings.Join(msgs, "\n  - "))
}

// resetInvalid puts every invalid field that has a default back to it, with a
// warning. Only the home directory has no default.
func (s *Settings) resetInvalid() {
	def := Default(s.Paths.Home)

	for _, p := range s.problems() {
		switch p.Field {
		case "release_repo":
			s.ReleaseOwner, s.ReleaseRepo = def.ReleaseOwner, def.ReleaseRepo
		case "release_api":
			s.ReleaseAPI = def.ReleaseAPI
		case "asset_pattern":
			s.AssetPattern = def.AssetPattern
		case "probe_timeout":
			s.ProbeTimeout = def.ProbeTimeout
		default:
			continue
		}
		s.warnf("%s; using the default", p.Error())
	}
}

func (s *Settings) warnf(format string, args ...any) {
	s.Warnings = append(s.Warnings, fmt.Sprintf(format, args...))
}
