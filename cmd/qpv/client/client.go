// Package client is a small HTTP client for the qpv API server used by the
// CLI review commands.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/mbuckingham74/quilting-patterns-viewer/api"
	"github.com/mbuckingham74/quilting-patterns-viewer/api/duplicates"
	"github.com/mbuckingham74/quilting-patterns-viewer/api/search"
	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/config"
	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/utils"
	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/verify"
)

// Verification calls the vision model and can take up to a minute.
const defaultTimeout = 90 * time.Second

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("qpv API returned HTTP %d: %s", e.StatusCode, e.Message)
}

// Client calls a qpv API server.
type Client struct {
	baseURL *url.URL
	token   string
	http    *http.Client
}

// New creates a Client for the server at apiTarget authenticating with token.
func New(apiTarget, token string) (*Client, error) {
	u, err := url.Parse(apiTarget)
	if err != nil {
		return nil, fmt.Errorf("invalid API target URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid API target URL %q: scheme must be http or https", apiTarget)
	}
	if u.Path == "" {
		u.Path = "/"
	}

	return &Client{
		baseURL: u,
		token:   token,
		http:    &http.Client{Timeout: defaultTimeout},
	}, nil
}

// FromConfig creates a Client from the [client] config section.
func FromConfig(cfg *config.Config) (*Client, error) {
	if cfg.Client.Token == "" {
		return nil, errors.New("no API token configured (set client.token or pass --token)")
	}
	return New(cfg.Client.APITarget, cfg.Client.Token)
}

// ListDuplicates calls GET /v1/admin/duplicates.
func (c *Client) ListDuplicates(ctx context.Context, threshold float64, limit int) (*duplicates.Output, error) {
	q := url.Values{}
	q.Set("threshold", strconv.FormatFloat(threshold, 'f', -1, 64))
	q.Set("limit", strconv.Itoa(limit))

	out := &duplicates.Output{}
	if err := c.do(ctx, http.MethodGet, "/v1/admin/duplicates", q, nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

// VerifyDuplicates calls POST /v1/admin/duplicates/verify.
func (c *Client) VerifyDuplicates(ctx context.Context, id1, id2 int64) (*verify.Result, error) {
	body := api.VerifyRequest{PatternID1: &id1, PatternID2: &id2}

	out := &verify.Result{}
	if err := c.do(ctx, http.MethodPost, "/v1/admin/duplicates/verify", nil, body, out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeletePattern calls DELETE /v1/admin/patterns/:id.
func (c *Client) DeletePattern(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, "/v1/admin/patterns/"+strconv.FormatInt(id, 10), nil, nil, nil)
}

// SearchPatterns calls GET /v1/patterns/search.
func (c *Client) SearchPatterns(ctx context.Context, query string, limit int) (*search.Output, error) {
	q := url.Values{}
	q.Set("query", query)
	q.Set("limit", strconv.Itoa(limit))

	out := &search.Output{}
	if err := c.do(ctx, http.MethodGet, "/v1/patterns/search", q, nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	// JoinPath keeps any prefix the server is mounted under
	u := c.baseURL.JoinPath(path)
	u.RawQuery = query.Encode()

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", utils.UserAgent())
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to qpv API at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: string(bytes.TrimSpace(data))}
		var errBody api.ErrorResponse
		if json.Unmarshal(data, &errBody) == nil && errBody.Error != "" {
			apiErr.Message = errBody.Error
		}
		return apiErr
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
