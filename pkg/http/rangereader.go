package http

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/klimadata/euets/pkg/errors"
)

// RangeReader provides random access into a remote resource via HTTP range
// requests, so a zip archive's central directory can be read without
// materializing the whole payload. When the server does not honor range
// requests the entire body is fetched once into memory and served from there.
//
// It implements io.Reader, io.ReaderAt and io.Seeker.
type RangeReader struct {
	client *Client
	ctx    context.Context
	url    string
	size   int64
	offset int64

	// full is set when the server answered the probe with 200 instead of
	// 206; all reads are then served from the buffered payload.
	full *bytes.Reader
}

// NewRangeReader probes rawURL with a one-byte range request and returns a
// reader positioned at the start of the resource. The context is retained
// for subsequent range requests, which io.ReaderAt cannot carry itself.
func (c *Client) NewRangeReader(ctx context.Context, rawURL string) (*RangeReader, error) {
	resp, err := c.get(ctx, rawURL, "bytes=0-0")
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusPartialContent {
		size, err := parseTotalSize(resp.Header.Get("Content-Range"))
		if err != nil {
			return nil, err
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		return &RangeReader{client: c, ctx: ctx, url: rawURL, size: size}, nil
	}

	// Server ignored the range header; fall back to a full in-memory fetch.
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrTransport, "failed to read body from %s: %v", rawURL, err)
	}
	return &RangeReader{
		client: c,
		ctx:    ctx,
		url:    rawURL,
		size:   int64(len(data)),
		full:   bytes.NewReader(data),
	}, nil
}

// Size returns the total size of the remote resource in bytes.
func (r *RangeReader) Size() int64 {
	return r.size
}

// ReadAt reads len(p) bytes starting at off, issuing one range request per
// call unless the payload was buffered.
func (r *RangeReader) ReadAt(p []byte, off int64) (int, error) {
	if r.full != nil {
		return r.full.ReadAt(p, off)
	}
	if off < 0 {
		return 0, fmt.Errorf("negative offset %d", off)
	}
	// An empty read must not build an inverted range header.
	if len(p) == 0 {
		return 0, nil
	}
	if off >= r.size {
		return 0, io.EOF
	}
	end := off + int64(len(p)) - 1
	if end >= r.size {
		end = r.size - 1
	}

	resp, err := r.client.get(r.ctx, r.url, fmt.Sprintf("bytes=%d-%d", off, end))
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusPartialContent {
		// The server stopped honoring ranges mid-stream; buffer everything
		// and serve the read from memory.
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return 0, errors.Wrapf(errors.ErrTransport, "failed to read body from %s: %v", r.url, err)
		}
		r.full = bytes.NewReader(data)
		r.size = int64(len(data))
		return r.full.ReadAt(p, off)
	}

	want := int(end - off + 1)
	n, err := io.ReadFull(resp.Body, p[:want])
	if err != nil {
		return n, errors.Wrapf(errors.ErrTransport, "short range read from %s: %v", r.url, err)
	}
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Read reads from the current offset.
func (r *RangeReader) Read(p []byte) (int, error) {
	n, err := r.ReadAt(p, r.offset)
	r.offset += int64(n)
	return n, err
}

// Seek implements io.Seeker.
func (r *RangeReader) Seek(offset int64, whence int) (int64, error) {
	var next int64
	switch whence {
	case io.SeekStart:
		next = offset
	case io.SeekCurrent:
		next = r.offset + offset
	case io.SeekEnd:
		next = r.size + offset
	default:
		return 0, fmt.Errorf("invalid whence %d", whence)
	}
	if next < 0 {
		return 0, fmt.Errorf("negative position %d", next)
	}
	r.offset = next
	if r.full != nil {
		_, _ = r.full.Seek(next, io.SeekStart)
	}
	return next, nil
}

func parseTotalSize(contentRange string) (int64, error) {
	// Format: "bytes 0-0/12345".
	_, total, found := strings.Cut(contentRange, "/")
	if !found || total == "*" {
		return 0, errors.Wrapf(errors.ErrTransport, "unparseable Content-Range %q", contentRange)
	}
	size, err := strconv.ParseInt(total, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(errors.ErrTransport, "unparseable Content-Range %q", contentRange)
	}
	return size, nil
}
