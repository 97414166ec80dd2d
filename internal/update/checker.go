package update

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mindmorass/infinity-clipboard/internal/logger"
)

const (
	// GitHubRepo is the repository to check for updates
	GitHubRepo = "mindmorass/infinity-clipboard"

	// DefaultAPIURL is the GitHub REST API root
	DefaultAPIURL = "https://api.github.com"

	// CheckInterval is how often to check for updates
	CheckInterval = 6 * time.Hour
)

// Release represents a GitHub release
type Release struct {
	TagName     string    `json:"tag_name"`
	Name        string    `json:"name"`
	Body        string    `json:"body"`
	HTMLURL     string    `json:"html_url"`
	PublishedAt time.Time `json:"published_at"`
	Prerelease  bool      `json:"prerelease"`
	Draft       bool      `json:"draft"`
}

// UpdateInfo contains information about an available update
type UpdateInfo struct {
	Available      bool      `json:"available"`
	CurrentVersion string    `json:"current_version"`
	LatestVersion  string    `json:"latest_version,omitempty"`
	ReleaseURL     string    `json:"release_url,omitempty"`
	ReleaseNotes   string    `json:"-"`
	PublishedAt    time.Time `json:"published_at,omitempty"`
}

// Checker asks GitHub whether a newer release exists
type Checker struct {
	currentVersion string
	apiURL         string
	repo           string
	httpClient     *http.Client

	mu         sync.Mutex
	lastCheck  time.Time
	lastResult *UpdateInfo
}

// NewChecker creates a new update checker
func NewChecker(currentVersion string) *Checker {
	return &Checker{
		currentVersion: currentVersion,
		apiURL:         DefaultAPIURL,
		repo:           GitHubRepo,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SetAPIURL points the checker at another GitHub API root
func (c *Checker) SetAPIURL(u string) {
	c.apiURL = strings.TrimSuffix(u, "/")
}

// SetHTTPClient replaces the HTTP client
func (c *Checker) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// Check fetches the latest release and compares it to the running version
func (c *Checker) Check(ctx context.Context) (*UpdateInfo, error) {
	url := fmt.Sprintf("%s/repos/%s/releases/latest", c.apiURL, c.repo)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", "infinity-clipboard-update-checker")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch release: %w", err)
	}
	defer resp.Body.Close()

	info := &UpdateInfo{CurrentVersion: c.currentVersion}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		// no releases yet
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("GitHub API returned status %d", resp.StatusCode)
	default:
		var release Release
		if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
			return nil, fmt.Errorf("decode release: %w", err)
		}

		if !release.Prerelease && !release.Draft {
			info.Available = IsNewerVersion(release.TagName, c.currentVersion)
			info.LatestVersion = release.TagName
			info.ReleaseURL = release.HTMLURL
			info.ReleaseNotes = release.Body
			info.PublishedAt = release.PublishedAt
		}
	}

	c.mu.Lock()
	c.lastCheck = time.Now()
	c.lastResult = info
	c.mu.Unlock()

	logger.Debug().Bool("available", info.Available).Str("latest", info.LatestVersion).Msg("update check finished")
	return info, nil
}

// CheckIfNeeded checks for updates if enough time has passed
func (c *Checker) CheckIfNeeded(ctx context.Context) (*UpdateInfo, error) {
	c.mu.Lock()
	cached := c.lastResult
	fresh := time.Since(c.lastCheck) < CheckInterval
	c.mu.Unlock()

	if fresh && cached != nil {
		return cached, nil
	}
	return c.Check(ctx)
}

// GetLastResult returns the last check result without making a request
func (c *Checker) GetLastResult() *UpdateInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastResult
}

// GetCurrentVersion returns the current version
func (c *Checker) GetCurrentVersion() string {
	return c.currentVersion
}

// IsNewerVersion reports whether latest is a higher major.minor.patch than
// current. Development builds ("dev" or empty) never report an update.
func IsNewerVersion(latest, current string) bool {
	current = strings.TrimPrefix(current, "v")
	if current == "dev" || current == "" {
		return false
	}

	latestParts := parseVersion(latest)
	currentParts := parseVersion(current)

	for i := 0; i < 3; i++ {
		if latestParts[i] != currentParts[i] {
			return latestParts[i] > currentParts[i]
		}
	}

	return false
}

// parseVersion parses a version string into [major, minor, patch]
func parseVersion(v string) [3]int {
	var parts [3]int
	v = strings.TrimPrefix(v, "v")

	// drop -rc1, +build and similar suffixes
	if idx := strings.IndexAny(v, "-+"); idx != -1 {
		v = v[:idx]
	}

	for i, seg := range strings.SplitN(v, ".", 3) {
		n, err := strconv.Atoi(seg)
		if err != nil {
			break
		}
		parts[i] = n
	}

	return parts
}
