package release

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Client fetches release metadata from the GitHub API.
type Client struct {
	owner       string
	repo        string
	githubToken string // Optional, for rate limiting
	client      *http.Client
	baseURL     string
}

// NewClient creates a client for owner/repo.
func NewClient(owner, repo string) *Client {
	return &Client{
		owner: owner,
		repo:  repo,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: "https://api.github.com",
	}
}

// WithToken sets an optional GitHub token for authentication.
func (c *Client) WithToken(token string) *Client {
	c.githubToken = token
	return c
}

// WithBaseURL points the client at another API root, such as a mirror.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = baseURL
	return c
}

// Endpoint returns the latest-release URL.
func (c *Client) Endpoint() string {
	return fmt.Sprintf("%s/repos/%s/%s/releases/latest", c.baseURL, c.owner, c.repo)
}

// Latest fetches the latest release.
func (c *Client) Latest(ctx context.Context) (*Release, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Endpoint(), nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", "muxup")
	if c.githubToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.githubToken)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", c.Endpoint(), err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GitHub API returned status %d", resp.StatusCode)
	}

	return Parse(resp.Body)
}
