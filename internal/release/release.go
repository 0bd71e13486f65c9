// Package release reads GitHub release metadata and downloads release assets.
package release

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrNoAsset is returned when no asset URL matches the pattern.
var ErrNoAsset = errors.New("no matching release asset")

// Asset is one downloadable file of a release. GitHub names the public URL
// browser_download_url; mirrors often use download_url.
type Asset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
	DownloadURL        string `json:"download_url"`
}

// URL returns the asset's download URL.
func (a Asset) URL() string {
	if a.BrowserDownloadURL != "" {
		return a.BrowserDownloadURL
	}
	return a.DownloadURL
}

// Release is the subset of a release document muxup reads.
type Release struct {
	TagName string  `json:"tag_name"`
	Name    string  `json:"name"`
	HTMLURL string  `json:"html_url"`
	Assets  []Asset `json:"assets"`
}

// Parse decodes a release document.
func Parse(r io.Reader) (*Release, error) {
	var rel Release
	if err := json.NewDecoder(r).Decode(&rel); err != nil {
		return nil, fmt.Errorf("failed to decode release: %w", err)
	}
	return &rel, nil
}

// URLs returns every non-empty asset URL in document order.
func (r *Release) URLs() []string {
	urls := make([]string, 0, len(r.Assets))
	for _, a := range r.Assets {
		if u := a.URL(); u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}

// SelectAsset returns the first asset URL, in document order, that contains
// pattern case-insensitively. The architecture is not part of the match.
func SelectAsset(r *Release, pattern string) (string, error) {
	needle := strings.ToLower(pattern)
	for _, u := range r.URLs() {
		if strings.Contains(strings.ToLower(u), needle) {
			return u, nil
		}
	}
	return "", fmt.Errorf("%w: none of %d asset URLs contain %q", ErrNoAsset, len(r.URLs()), pattern)
}
