// Package update checks GitHub releases for a newer synthia version.
package update

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	githubRepo       = "danhajduk/synthia-repo"
	defaultAPIURL    = "https://api.github.com"
	defaultHTTPLimit = 10 * time.Second
)

// Info describes the running version against the latest release.
type Info struct {
	Current   string `json:"current"`
	Latest    string `json:"latest"`
	UpToDate  bool   `json:"up_to_date"`
	CheckedAt string `json:"checked_at"`
}

// Checker queries the GitHub releases API.
type Checker struct {
	current string
	apiURL  string
	client  *http.Client
	now     func() time.Time
}

// NewChecker returns a Checker for the given running version.
func NewChecker(current string) *Checker {
	return &Checker{
		current: current,
		apiURL:  defaultAPIURL,
		client:  &http.Client{Timeout: defaultHTTPLimit},
		now:     time.Now,
	}
}

type release struct {
	TagName string `json:"tag_name"`
}

// LatestVersion fetches the latest release tag, with any "v" prefix stripped.
func (c *Checker) LatestVersion(ctx context.Context) (string, error) {
	url := fmt.Sprintf("%s/repos/%s/releases/latest", c.apiURL, githubRepo)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build release request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch latest release: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch latest release: status %d", resp.StatusCode)
	}

	var rel release
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		return "", fmt.Errorf("failed to decode release: %w", err)
	}
	return strings.TrimPrefix(rel.TagName, "v"), nil
}

// Check compares the running version with the latest release.
func (c *Checker) Check(ctx context.Context) (Info, error) {
	latest, err := c.LatestVersion(ctx)
	if err != nil {
		return Info{}, err
	}
	return Info{
		Current:   c.current,
		Latest:    latest,
		UpToDate:  latest == "" || latest <= c.current,
		CheckedAt: c.now().UTC().Format(time.RFC3339),
	}, nil
}
