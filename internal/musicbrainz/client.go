// Package musicbrainz consumes the public MusicBrainz web service: genre
// lookup, release search, artist browse by tag, and release-group fetches.
// The response schema is a fixed external contract; only the fields the
// resolver consumes are decoded.
package musicbrainz

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/cesargomez89/lavender/internal/constants"
	"github.com/cesargomez89/lavender/internal/httpclient"
)

const (
	// Artists browsed by tag are restricted to groups from a fixed country
	// to keep results recognisable.
	browseArtistType    = "group"
	browseArtistCountry = "US"

	artistReleaseLimit = 10
)

type Client struct {
	baseURL   string
	userAgent string
	doer      httpclient.Doer
}

// NewClient returns a client rooted at baseURL that dispatches through doer.
// Passing a session-scoped doer applies that session's pacing and budget to
// every call.
func NewClient(baseURL string, doer httpclient.Doer) *Client {
	return &Client{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		userAgent: constants.UserAgent,
		doer:      doer,
	}
}

// LookupGenre resolves a genre name to its MusicBrainz genre entity.
// An unrecognised genre returns (nil, nil); that is the normal miss path,
// not a failure.
func (c *Client) LookupGenre(ctx context.Context, name string) (*Genre, error) {
	u := fmt.Sprintf("%s/genre/%s?fmt=json", c.baseURL, url.PathEscape(name))

	var g Genre
	found, err := c.getJSON(ctx, u, &g)
	if err != nil {
		return nil, err
	}
	if !found || g.ID == "" {
		return nil, nil
	}
	return &g, nil
}

// SearchReleasesByArtist searches official releases credited to the named
// artist. Names shorter than four characters match too broadly, so the query
// adds a status:official restriction for them.
func (c *Client) SearchReleasesByArtist(ctx context.Context, artist string) ([]Release, error) {
	query := fmt.Sprintf("artist:%q", artist)
	if len(artist) < constants.ShortArtistNameLen {
		query += " AND status:official"
	}

	u := fmt.Sprintf("%s/release?query=%s&limit=%d&fmt=json",
		c.baseURL, url.QueryEscape(query), artistReleaseLimit)

	var result struct {
		Releases []Release `json:"releases"`
	}
	if _, err := c.getJSON(ctx, u, &result); err != nil {
		return nil, err
	}
	return result.Releases, nil
}

// BrowseArtistsByTag searches artists carrying the given genre tag.
func (c *Client) BrowseArtistsByTag(ctx context.Context, tag string) ([]Artist, error) {
	query := fmt.Sprintf("tag:%s AND type:%s AND country:%s", tag, browseArtistType, browseArtistCountry)
	u := fmt.Sprintf("%s/artist?query=%s&limit=%d&fmt=json",
		c.baseURL, url.QueryEscape(query), constants.BrowseLimit)

	var result struct {
		Artists []Artist `json:"artists"`
	}
	if _, err := c.getJSON(ctx, u, &result); err != nil {
		return nil, err
	}
	return result.Artists, nil
}

// ReleaseGroupsByGenre fetches album release-groups tagged with a genre id.
func (c *Client) ReleaseGroupsByGenre(ctx context.Context, genreID string) ([]ReleaseGroup, error) {
	u := fmt.Sprintf("%s/release-group?genre=%s&type=album&limit=%d&fmt=json",
		c.baseURL, url.QueryEscape(genreID), constants.BrowseLimit)

	var result struct {
		ReleaseGroups []ReleaseGroup `json:"release-groups"`
	}
	if _, err := c.getJSON(ctx, u, &result); err != nil {
		return nil, err
	}
	return result.ReleaseGroups, nil
}

// ReleaseGroupsByArtist fetches up to limit album release-groups credited to
// the artist id.
func (c *Client) ReleaseGroupsByArtist(ctx context.Context, artistID string, limit int) ([]ReleaseGroup, error) {
	u := fmt.Sprintf("%s/release-group?artist=%s&type=album&limit=%d&fmt=json",
		c.baseURL, url.QueryEscape(artistID), limit)

	var result struct {
		ReleaseGroups []ReleaseGroup `json:"release-groups"`
	}
	if _, err := c.getJSON(ctx, u, &result); err != nil {
		return nil, err
	}
	return result.ReleaseGroups, nil
}

// getJSON performs a GET and decodes the body into out. It returns
// (false, nil) on 404, which callers treat as a lookup miss.
func (c *Client) getJSON(ctx context.Context, u string, out interface{}) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.doer.Do(ctx, req)
	if err != nil {
		return false, fmt.Errorf("failed to execute request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("musicbrainz returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("failed to decode response: %w", err)
	}
	return true, nil
}
