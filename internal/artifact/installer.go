// Package artifact installs the tmux AppImage and its launch shim.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/adamancini/muxup/internal/release"
	"github.com/adamancini/muxup/internal/shim"
	"github.com/adamancini/muxup/internal/system"
	"github.com/adamancini/muxup/internal/types"
)

// Fetcher returns the latest release document.
type Fetcher interface {
	Latest(ctx context.Context) (*release.Release, error)
}

// Downloader saves a URL to a local path.
type Downloader interface {
	Download(ctx context.Context, url, dst string) error
}

// Options configures an Installer.
type Options struct {
	ArtifactPath string
	ShimPath     string
	AssetPattern string
	// Arch is logged with the resolved asset; it does not filter assets.
	Arch  string
	Chain shim.Chain
}

// Result describes one Install call.
type Result struct {
	State       types.ArtifactState `json:"state" yaml:"state"`
	Fetched     bool                `json:"fetched" yaml:"fetched"`
	AssetURL    string              `json:"asset_url,omitempty" yaml:"asset_url,omitempty"`
	Tag         string              `json:"tag,omitempty" yaml:"tag,omitempty"`
	Previous    string              `json:"previous,omitempty" yaml:"previous,omitempty"`
	SHA256      string              `json:"sha256,omitempty" yaml:"sha256,omitempty"`
	ShimWritten bool                `json:"shim_written" yaml:"shim_written"`
	Version     string              `json:"version,omitempty" yaml:"version,omitempty"`
	Warnings    []string            `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Installer drives the artifact state machine.
type Installer struct {
	opts       Options
	fetcher    Fetcher
	downloader Downloader
	runner     system.CommandRunner
	logger     *log.Logger
}

// NewInstaller creates an Installer.
func NewInstaller(opts Options, fetcher Fetcher, downloader Downloader, runner system.CommandRunner, logger *log.Logger) *Installer {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Installer{
		opts:       opts,
		fetcher:    fetcher,
		downloader: downloader,
		runner:     runner,
		logger:     logger,
	}
}

// State reports the artifact state for the given force flag.
func (i *Installer) State(force bool) types.ArtifactState {
	return types.ResolveArtifactState(fileExists(i.opts.ArtifactPath), force)
}

// Install fetches the artifact when it is absent or force is set, then always
// rewrites the shim. A fetch failure is returned after the shim is written so
// the fallback chain still reaches a system tmux.
func (i *Installer) Install(ctx context.Context, force bool) (*Result, error) {
	res := &Result{State: i.State(force)}

	var fetchErr error
	if res.State.NeedsFetch() {
		fetchErr = i.fetch(ctx, res)
		if fetchErr != nil {
			i.logger.Warn("artifact fetch failed", "err", fetchErr)
		}
	} else {
		i.logger.Info("tmux AppImage already present, skipping download", "path", i.opts.ArtifactPath)
	}

	if err := shim.WriteFile(i.opts.ShimPath, i.opts.Chain); err != nil {
		return res, errors.Join(fetchErr, fmt.Errorf("failed to write shim: %w", err))
	}
	res.ShimWritten = true
	i.logger.Debug("shim written", "path", i.opts.ShimPath)

	if fetchErr != nil {
		return res, fetchErr
	}

	i.readVersion(ctx, res)
	return res, nil
}

func (i *Installer) fetch(ctx context.Context, res *Result) error {
	rel, err := i.fetcher.Latest(ctx)
	if err != nil {
		return fmt.Errorf("failed to get latest release: %w", err)
	}
	res.Tag = rel.TagName

	url, err := release.SelectAsset(rel, i.opts.AssetPattern)
	if err != nil {
		return err
	}
	res.AssetURL = url
	i.logger.Info("resolved release asset", "tag", rel.TagName, "url", url, "arch", i.opts.Arch)
	i.logTransition(ctx, res, rel.TagName)

	if err := i.downloader.Download(ctx, url, i.opts.ArtifactPath); err != nil {
		return fmt.Errorf("failed to download %s: %w", url, err)
	}
	if err := os.Chmod(i.opts.ArtifactPath, 0755); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	res.Fetched = true

	if sum, err := release.FileSHA256(i.opts.ArtifactPath); err == nil {
		res.SHA256 = sum
		i.logger.Debug("downloaded artifact", "path", i.opts.ArtifactPath, "sha256", sum)
	}
	return nil
}

// logTransition reports how the release being fetched relates to the tmux the
// shim currently runs. Nothing is logged when either version is unreadable.
func (i *Installer) logTransition(ctx context.Context, res *Result, tag string) {
	latest, err := ParseTag(tag)
	if err != nil {
		i.logger.Debug("release tag is not a tmux version", "tag", tag)
		return
	}
	ctx, cancel := context.WithTimeout(ctx, i.opts.Chain.Timeout+time.Second)
	defer cancel()
	current, err := InstalledVersion(ctx, i.runner, i.opts.ShimPath)
	if err != nil {
		return
	}
	res.Previous = current.String()

	switch {
	case current.IsLessThan(latest):
		i.logger.Info(fmt.Sprintf("upgrading %s -> %s", current, latest))
	case latest.IsLessThan(current):
		i.logger.Warn(fmt.Sprintf("downgrading %s -> %s", current, latest))
	default:
		i.logger.Info(fmt.Sprintf("reinstalling %s", latest))
	}
}

// readVersion asks the shim for its version. Failure is only a warning.
func (i *Installer) readVersion(ctx context.Context, res *Result) {
	timeout := i.opts.Chain.Timeout*time.Duration(len(i.opts.Chain.Strategies)) + time.Second
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out, err := i.runner.Run(ctx, i.opts.ShimPath, shim.VersionFlag)
	if err != nil {
		i.warn(res, fmt.Sprintf("could not read tmux version: %v", err))
		return
	}

	v, err := ParseVersion(string(out))
	if err != nil {
		i.warn(res, fmt.Sprintf("could not parse tmux version from %q", strings.TrimSpace(string(out))))
		return
	}
	res.Version = v.String()
	i.logger.Info("tmux ready", "version", res.Version)
}

func (i *Installer) warn(res *Result, msg string) {
	res.Warnings = append(res.Warnings, msg)
	i.logger.Warn(msg)
}

// InstalledVersion runs the shim and parses its version.
func InstalledVersion(ctx context.Context, runner system.CommandRunner, shimPath string) (*Version, error) {
	if !fileExists(shimPath) {
		return nil, fmt.Errorf("shim not installed at %s", shimPath)
	}
	out, err := runner.Run(ctx, shimPath, shim.VersionFlag)
	if err != nil {
		return nil, fmt.Errorf("failed to run %s %s: %w", shimPath, shim.VersionFlag, err)
	}
	return ParseVersion(string(out))
}

// Availability compares an installed tmux with the latest release tag.
type Availability struct {
	Latest string `json:"latest" yaml:"latest"`
	Newer  bool   `json:"newer" yaml:"newer"`
}

// CheckLatest fetches the latest release and reports whether it is newer than
// installed. A nil installed version counts as older than any release. A tag
// that is not a tmux version is reported verbatim and never counts as newer.
func CheckLatest(ctx context.Context, fetcher Fetcher, installed *Version) (*Availability, error) {
	rel, err := fetcher.Latest(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest release: %w", err)
	}
	a := &Availability{Latest: rel.TagName}
	latest, err := ParseTag(rel.TagName)
	if err != nil {
		return a, nil
	}
	a.Latest = latest.String()
	a.Newer = installed == nil || installed.IsLessThan(latest)
	return a, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
