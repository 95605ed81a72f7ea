// Package objstore downloads objects from the storage API backing document
// uploads.
package objstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// ErrObjectNotFound is returned when the storage API has no object at the
// requested path.
var ErrObjectNotFound = errors.New("storage object not found")

const maxObjectBytes = 32 << 20 // refuse to buffer more than 32 MiB

// Client fetches objects over the storage HTTP API using a service key.
type Client struct {
	baseURL    string
	serviceKey string
	http       *http.Client
}

// NewClient creates a storage client. baseURL is the storage API root, e.g.
// "https://project.example.co/storage/v1".
func NewClient(baseURL, serviceKey string) *Client {
	return &Client{
		baseURL:    baseURL,
		serviceKey: serviceKey,
		http:       &http.Client{},
	}
}

// Download fetches an object's contents from a bucket.
func (c *Client) Download(ctx context.Context, bucket, path string) ([]byte, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("storage URL not configured")
	}

	u := fmt.Sprintf("%s/object/%s/%s", c.baseURL, url.PathEscape(bucket), escapePath(path))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading %s/%s: %w", bucket, path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%s/%s: %w", bucket, path, ErrObjectNotFound)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("storage returned %d: %s", resp.StatusCode, string(body))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxObjectBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading object body: %w", err)
	}
	if len(data) > maxObjectBytes {
		return nil, fmt.Errorf("object %s/%s exceeds %d bytes", bucket, path, maxObjectBytes)
	}
	return data, nil
}

// escapePath escapes each path segment while keeping separators.
func escapePath(p string) string {
	u := &url.URL{Path: p}
	return u.EscapedPath()
}
