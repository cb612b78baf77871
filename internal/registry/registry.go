// Package registry queries a local Ollama daemon for its loaded models.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

var (
	// ErrUnreachable indicates the daemon did not answer within the timeout.
	ErrUnreachable = errors.New("ollama unreachable")

	// ErrMalformedResponse indicates the daemon answered but the body could
	// not be parsed as a tag listing.
	ErrMalformedResponse = errors.New("malformed ollama response")
)

const defaultHost = "http://localhost:11434"

// Client is a minimal HTTP client for the daemon's tag-listing endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a Client for the given base URL. An empty URL selects the
// default local daemon address.
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultHost
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 3 * time.Second,
		},
	}
}

// Ping reports whether the daemon answers on its tag-listing endpoint.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.get(ctx)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// ListModels returns the tag of every model the daemon currently serves.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	resp, err := c.get(ctx)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	tags := make([]string, 0, len(payload.Models))
	for _, m := range payload.Models {
		tags = append(tags, m.Name)
	}
	return tags, nil
}

// FindByPrefix resolves a requested model name to a concrete loaded tag.
// The second return is false when nothing installed matches.
func (c *Client) FindByPrefix(ctx context.Context, name string) (string, bool, error) {
	tags, err := c.ListModels(ctx)
	if err != nil {
		return "", false, err
	}
	tag, ok := MatchPrefix(tags, name)
	return tag, ok, nil
}

func (c *Client) get(ctx context.Context) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: status %d", ErrUnreachable, resp.StatusCode)
	}
	return resp, nil
}

// MatchPrefix resolves name against a set of installed tags. An exact tag
// wins, then a tag directly under the requested name ("llama3.2" resolves
// "llama3.2:3b"). Requiring the ":" separator keeps "llama3.2" from matching
// "llama3.20:1b" and keeps a pinned variant like "llama3.2:1b" from
// resolving to its sibling "llama3.2:3b".
func MatchPrefix(installed []string, name string) (string, bool) {
	for _, tag := range installed {
		if tag == name {
			return tag, true
		}
	}
	for _, tag := range installed {
		if strings.HasPrefix(tag, name+":") {
			return tag, true
		}
	}
	return "", false
}
