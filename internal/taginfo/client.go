// Package taginfo talks to the taginfo API, the authoritative source of OSM
// tag usage data, to ground generated tags against real-world tagging.
package taginfo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/osmquery/overpass-gen/internal/overpass"
)

// DefaultBaseURL is the public taginfo API endpoint
const DefaultBaseURL = "https://taginfo.openstreetmap.org/api/4"

// Client is an HTTP client for the taginfo API
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
}

// NewClient creates a new taginfo client
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		userAgent: "overpass-gen/1.0",
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// ShowTag reports whether taginfo knows the key/value pair. The API answers
// 200 for known tags and 404 for unknown ones.
func (c *Client) ShowTag(ctx context.Context, key, value string) (bool, error) {
	params := url.Values{}
	params.Set("key", key)
	params.Set("value", value)

	resp, err := c.getWithRetry(ctx, "/tag/show", params)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("taginfo API error %d for tag %s=%s", resp.StatusCode, key, value)
	}
}

// keyValuesResponse is the shape of the /key/values endpoint
type keyValuesResponse struct {
	Data []struct {
		Value    string  `json:"value"`
		Count    int64   `json:"count"`
		Fraction float64 `json:"fraction"`
	} `json:"data"`
}

// KeyValues returns the most common values for a key, ordered by usage count
func (c *Client) KeyValues(ctx context.Context, key string) ([]string, error) {
	params := url.Values{}
	params.Set("key", key)
	params.Set("sortname", "count")
	params.Set("sortorder", "desc")
	params.Set("page", "1")
	params.Set("rp", "100")
	params.Set("qtype", "key")

	resp, err := c.getWithRetry(ctx, "/key/values", params)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("taginfo API error %d for key %s", resp.StatusCode, key)
	}

	var parsed keyValuesResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode key values response: %w", err)
	}

	values := make([]string, 0, len(parsed.Data))
	for _, item := range parsed.Data {
		values = append(values, item.Value)
	}
	return values, nil
}

// LookupTag implements the tag-validity lookup contract directly on the
// client. Deprecation knowledge lives in the Warmer, which wraps this.
func (c *Client) LookupTag(ctx context.Context, key, value string) (overpass.TagLookupResult, error) {
	valid, err := c.ShowTag(ctx, key, value)
	if err != nil {
		return overpass.TagLookupResult{}, err
	}
	return overpass.TagLookupResult{Valid: valid}, nil
}

// doGet executes a single GET request against the API
func (c *Client) doGet(ctx context.Context, path string, params url.Values) (*http.Response, error) {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}
