// Package update checks GitHub for a newer published release.
package update

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/ink1ing/rambooster/pkg/internal/utils"
	log "github.com/sirupsen/logrus"
)

// DefaultReleaseURL is the GitHub API endpoint for the newest release.
const DefaultReleaseURL = "https://api.github.com/repos/ink1ing/rambooster/releases/latest"

// Release is the subset of the GitHub release payload the agent needs.
type Release struct {
	TagName     string    `json:"tag_name"`
	HTMLURL     string    `json:"html_url"`
	PublishedAt time.Time `json:"published_at"`
}

// Version is the release version without the leading v of the tag convention.
func (r Release) Version() string {
	return strings.TrimPrefix(r.TagName, "v")
}

// Checker queries the GitHub API for the latest published release.
type Checker struct {
	client *retryablehttp.Client
	url    string
	logger *log.Logger
}

func NewChecker(logger *log.Logger) *Checker {
	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.Logger = &utils.LeveledLogrus{Logger: logger}

	return &Checker{
		client: client,
		url:    DefaultReleaseURL,
		logger: logger,
	}
}

// LatestRelease fetches the newest release.
func (c *Checker) LatestRelease(ctx context.Context) (Release, error) {
	// Add a timeout context to avoid hanging
	reqCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := retryablehttp.NewRequestWithContext(reqCtx, "GET", c.url, nil)
	if err != nil {
		return Release{}, err
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := c.client.Do(req)
	if err != nil {
		return Release{}, fmt.Errorf("failed to fetch latest release: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		body, _ := io.ReadAll(resp.Body)
		c.logger.Warnf("Release check failed. Response body: %s", string(body))
		return Release{}, fmt.Errorf("failed to fetch latest release, code: %d", resp.StatusCode)
	}

	var release Release
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return Release{}, fmt.Errorf("failed to decode release payload: %w", err)
	}
	if release.TagName == "" {
		return Release{}, errors.New("release payload has no tag_name")
	}
	return release, nil
}

// CheckForUpdate reports whether a release newer than current exists.
func (c *Checker) CheckForUpdate(ctx context.Context, current string) (Release, bool, error) {
	release, err := c.LatestRelease(ctx)
	if err != nil {
		return Release{}, false, err
	}
	return release, CompareVersions(current, release.Version()) < 0, nil
}

// CompareVersions orders two dotted numeric versions, ignoring a leading v.
// Missing and non-numeric segments count as zero, so "1.2" equals "1.2.0".
func CompareVersions(a, b string) int {
	partsA := versionParts(a)
	partsB := versionParts(b)

	length := len(partsA)
	if len(partsB) > length {
		length = len(partsB)
	}

	for i := 0; i < length; i++ {
		var partA, partB int
		if i < len(partsA) {
			partA = partsA[i]
		}
		if i < len(partsB) {
			partB = partsB[i]
		}
		if partA != partB {
			if partA < partB {
				return -1
			}
			return 1
		}
	}
	return 0
}

func versionParts(v string) []int {
	v = strings.TrimPrefix(v, "v")
	fields := strings.Split(v, ".")
	parts := make([]int, len(fields))
	for i, field := range fields {
		n, err := strconv.Atoi(field)
		if err != nil {
			n = 0
		}
		parts[i] = n
	}
	return parts
}
