package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

const defaultBaseURL = "https://api.themoviedb.org/3"

// Client is a thin read-only proxy over the TMDB v3 API. Responses are
// passed through as raw JSON, we never remodel the upstream payloads.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

type ClientOption func(*Client)

func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.http = httpClient
	}
}

func NewClient(token string, opts ...ClientOption) *Client {
	client := &Client{
		baseURL: defaultBaseURL,
		token:   token,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// SearchByName searches titles of one media type. mediaType is "movie"
// or "tv".
func (c *Client) SearchByName(ctx context.Context, mediaType, query string) (json.RawMessage, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("include_adult", "false")
	params.Set("language", "en-US")
	params.Set("page", "1")
	return c.get(ctx, "/search/"+mediaType, params)
}

// SearchByID fetches a single title by its TMDB identifier. mediaType is
// "movie" or "tv".
func (c *Client) SearchByID(ctx context.Context, mediaType, id string) (json.RawMessage, error) {
	params := url.Values{}
	params.Set("language", "en-US")
	return c.get(ctx, fmt.Sprintf("/%s/%s", mediaType, id), params)
}

func (c *Client) get(ctx context.Context, path string, params url.Values) (json.RawMessage, error) {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to build tmdb request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	res, err := c.http.Do(req)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "tmdb request failed")
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "failed to read tmdb response")
	}

	if res.StatusCode != http.StatusOK {
		return nil, goerrors.New("tmdb request failed", goerrors.CategoryOperation).
			WithTextCode("TMDB_UPSTREAM_ERROR").
			WithMetadata(map[string]any{"status": res.StatusCode, "path": path})
	}

	return json.RawMessage(body), nil
}
