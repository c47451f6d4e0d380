// Package httpapi implements the JSON HTTP contract of the entity API:
// paginated list endpoints, item endpoints with an optional wrapper field,
// and create/update/delete with JSON error bodies.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Config configures the API client.
type Config struct {
	// BaseURL is the root of the API, e.g. "https://api.statuskit.dev".
	BaseURL string

	// HTTPClient overrides the underlying client. Nil gets a client with a
	// 30s timeout.
	HTTPClient *http.Client

	// UserAgent overrides the User-Agent header.
	UserAgent string

	// Header holds extra headers attached to every request, typically
	// authorization.
	Header http.Header
}

// Client is a JSON client for the entity API.
type Client struct {
	base      *url.URL
	hc        *http.Client
	userAgent string
	header    http.Header
}

const defaultUserAgent = "go-entity-cache"

// New creates an API client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("httpapi: BaseURL is required")
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "httpapi: invalid BaseURL")
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}

	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}

	return &Client{
		base:      base,
		hc:        hc,
		userAgent: ua,
		header:    cfg.Header.Clone(),
	}, nil
}

// GetJSON issues a GET and decodes the response body into out.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out, nil)
}

// PostJSON issues a POST with a JSON body. Every POST carries an
// Idempotency-Key header so a retried create cannot duplicate the entity.
func (c *Client) PostJSON(ctx context.Context, path string, body, out any) error {
	idem := http.Header{"Idempotency-Key": []string{uuid.NewString()}}
	return c.do(ctx, http.MethodPost, path, nil, body, out, idem)
}

// PutJSON issues a PUT with a JSON body.
func (c *Client) PutJSON(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, nil, body, out, nil)
}

// Delete issues a DELETE.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any, extra http.Header) error {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return errors.Wrapf(err, "httpapi: encode %s %s body", method, path)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return errors.Wrapf(err, "httpapi: build %s %s", method, path)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range c.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	for k, vs := range extra {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return errors.Wrapf(err, "httpapi: %s %s", method, path)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{
			Code:    resp.StatusCode,
			Status:  http.StatusText(resp.StatusCode),
			Message: serverMessage(resp.Body),
		}
	}

	if out == nil {
		return nil
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrapf(err, "httpapi: read %s %s response", method, path)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Wrapf(err, "httpapi: decode %s %s response", method, path)
	}
	return nil
}

// serverMessage extracts the optional `error` field from an error response
// body. Anything that does not parse as JSON yields an empty message.
func serverMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 1<<16))
	if err != nil {
		return ""
	}
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}
	return body.Error
}
