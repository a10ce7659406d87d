// Package http wraps the standard HTTP client with the operations the
// catalog and archive packages need: page fetches, streaming downloads and
// range-request random access into remote archives.
package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/klimadata/euets/pkg/errors"
)

// Client handles HTTP operations against the datahub and archive hosts.
type Client struct {
	doer      Doer
	userAgent string
}

// NewClient creates a client with the given timeout and user agent.
func NewClient(timeout time.Duration, userAgent string) *Client {
	if userAgent == "" {
		userAgent = "euets/1.0"
	}
	return &Client{
		doer:      &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// NewClientWithDoer creates a client on an externally supplied transport.
func NewClientWithDoer(doer Doer, userAgent string) *Client {
	if userAgent == "" {
		userAgent = "euets/1.0"
	}
	return &Client{doer: doer, userAgent: userAgent}
}

// GetPage fetches a page and returns the body as a string.
func (c *Client) GetPage(ctx context.Context, rawURL string) (string, error) {
	resp, err := c.get(ctx, rawURL, "")
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrapf(errors.ErrTransport, "failed to read body from %s: %v", rawURL, err)
	}
	return string(body), nil
}

// Open starts a streaming GET and returns the body reader together with the
// declared content length (-1 when unknown). The caller must close the body.
// Read failures mid-stream classify as ErrTransport, like the request itself.
func (c *Client) Open(ctx context.Context, rawURL string) (io.ReadCloser, int64, error) {
	resp, err := c.get(ctx, rawURL, "")
	if err != nil {
		return nil, 0, err
	}
	return &transportBody{ReadCloser: resp.Body, url: rawURL}, resp.ContentLength, nil
}

// transportBody wraps a response body so a connection dropped mid-transfer
// surfaces with the same sentinel as any other transport failure.
type transportBody struct {
	io.ReadCloser
	url string
}

func (b *transportBody) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)
	if err != nil && err != io.EOF {
		return n, errors.Wrapf(errors.ErrTransport, "failed to read body from %s: %v", b.url, err)
	}
	return n, err
}

func (c *Client) get(ctx context.Context, rawURL, rangeHeader string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("User-Agent", c.userAgent)
	if rangeHeader != "" {
		req.Header.Set("Range", rangeHeader)
	}

	resp, err := c.doer.Do(req)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrTransport, "GET %s: %v", rawURL, err)
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusPartialContent:
		return resp, nil
	default:
		_ = resp.Body.Close()
		return nil, fmt.Errorf("GET %s: %w: %d", rawURL, errors.ErrUnexpectedStatus, resp.StatusCode)
	}
}
