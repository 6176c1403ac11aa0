package identity

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"regexp"
	"strings"
)

// DefaultProfileURL is the Steam community profile prefix; the account id
// is appended verbatim.
const DefaultProfileURL = "https://steamcommunity.com/profiles/"

// maxProfileBytes bounds how much of a profile page is read.
const maxProfileBytes = 2 * 1024 * 1024

// ErrNameNotFound is returned when a profile page carries no persona name.
var ErrNameNotFound = errors.New("display name not found")

var personaPattern = regexp.MustCompile(`<span class="actual_persona_name">([^<]+)</span>`)

// Fetcher looks up a display name over the network.
type Fetcher interface {
	FetchName(ctx context.Context, accountID string) (string, error)
}

// SteamFetcher scrapes the persona name from a public Steam profile page.
type SteamFetcher struct {
	ProfileURL string
	Client     *http.Client
}

// NewSteamFetcher returns a fetcher for profileURL (DefaultProfileURL when empty).
func NewSteamFetcher(profileURL string, client *http.Client) *SteamFetcher {
	if profileURL == "" {
		profileURL = DefaultProfileURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &SteamFetcher{ProfileURL: profileURL, Client: client}
}

// FetchName implements Fetcher.
func (f *SteamFetcher) FetchName(ctx context.Context, accountID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.ProfileURL+accountID, nil)
	if err != nil {
		return "", fmt.Errorf("building profile request: %w", err)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetching profile: unexpected status %s", resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProfileBytes))
	if err != nil {
		return "", fmt.Errorf("reading profile: %w", err)
	}

	match := personaPattern.FindSubmatch(body)
	if match == nil {
		return "", ErrNameNotFound
	}
	name := strings.TrimSpace(html.UnescapeString(string(match[1])))
	if name == "" {
		return "", ErrNameNotFound
	}
	return name, nil
}
