package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/klimadata/euets/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPage(t *testing.T) {
	tests := []struct {
		name        string
		handler     http.HandlerFunc
		wantErr     error
		wantBody    string
	}{
		{
			name: "successful fetch",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte("<html>catalog</html>"))
			},
			wantBody: "<html>catalog</html>",
		},
		{
			name: "non-success status is a transport error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
			wantErr: errors.ErrTransport,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			c := NewClient(time.Second, "euets-test")
			body, err := c.GetPage(context.Background(), server.URL)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantBody, body)
		})
	}
}

func TestGetPageSendsUserAgent(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	c := NewClient(time.Second, "euets-test/9")
	_, err := c.GetPage(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "euets-test/9", gotUA)
}

func TestOpenStreamsBody(t *testing.T) {
	payload := strings.Repeat("x", 1024)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(payload))
	}))
	defer server.Close()

	c := NewClient(time.Second, "")
	body, size, err := c.Open(context.Background(), server.URL)
	require.NoError(t, err)
	defer func() { _ = body.Close() }()

	assert.Equal(t, int64(len(payload)), size)
	got, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, payload, string(got))
}

func TestOpenMidStreamFailureIsTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		// Promise more bytes than are sent; the connection drops mid-body.
		w.Header().Set("Content-Length", "4096")
		_, _ = w.Write([]byte(strings.Repeat("x", 1024)))
	}))
	defer server.Close()

	c := NewClient(time.Second, "")
	body, _, err := c.Open(context.Background(), server.URL)
	require.NoError(t, err)
	defer func() { _ = body.Close() }()

	_, err = io.ReadAll(body)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrTransport)
}

// rangeServer serves content with full range-request support.
func rangeServer(t *testing.T, content []byte) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.ServeContent(w, r, "data.bin", time.Now(), strings.NewReader(string(content)))
	}))
}

func TestRangeReader(t *testing.T) {
	content := []byte("0123456789abcdefghij")
	server := rangeServer(t, content)
	defer server.Close()

	c := NewClient(time.Second, "")
	r, err := c.NewRangeReader(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, int64(len(content)), r.Size())

	buf := make([]byte, 5)
	n, err := r.ReadAt(buf, 10)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "abcde", string(buf))

	// Read past the end returns what exists plus EOF.
	n, err = r.ReadAt(buf, int64(len(content))-2)
	assert.Equal(t, 2, n)
	assert.ErrorIs(t, err, io.EOF)

	// Offset beyond the end is EOF outright.
	_, err = r.ReadAt(buf, int64(len(content))+10)
	assert.ErrorIs(t, err, io.EOF)
}

func TestRangeReaderEmptyReadAt(t *testing.T) {
	content := []byte("0123456789")
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		http.ServeContent(w, r, "data.bin", time.Now(), strings.NewReader(string(content)))
	}))
	defer server.Close()

	c := NewClient(time.Second, "")
	r, err := c.NewRangeReader(context.Background(), server.URL)
	require.NoError(t, err)
	probes := requests

	// A zero-length read must succeed without issuing a range request; an
	// inverted header like bytes=5-4 would draw a 416 from the server.
	n, err := r.ReadAt(nil, 5)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, probes, requests)
}

func TestRangeReaderSeekAndRead(t *testing.T) {
	content := []byte("0123456789")
	server := rangeServer(t, content)
	defer server.Close()

	c := NewClient(time.Second, "")
	r, err := c.NewRangeReader(context.Background(), server.URL)
	require.NoError(t, err)

	pos, err := r.Seek(-4, io.SeekEnd)
	require.NoError(t, err)
	assert.Equal(t, int64(6), pos)

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "6789", string(got))
}

func TestRangeReaderFallbackWithoutRangeSupport(t *testing.T) {
	content := []byte("full payload without range support")
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests++
		// Ignore the Range header entirely.
		_, _ = w.Write(content)
	}))
	defer server.Close()

	c := NewClient(time.Second, "")
	r, err := c.NewRangeReader(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, int64(len(content)), r.Size())
	assert.Equal(t, 1, requests)

	buf := make([]byte, 4)
	_, err = r.ReadAt(buf, 5)
	require.NoError(t, err)
	assert.Equal(t, "payl", string(buf))

	// Served from the buffered payload, no extra request.
	assert.Equal(t, 1, requests)
}

func TestParseTotalSize(t *testing.T) {
	size, err := parseTotalSize("bytes 0-0/12345")
	require.NoError(t, err)
	assert.Equal(t, int64(12345), size)

	_, err = parseTotalSize("bytes 0-0/*")
	assert.ErrorIs(t, err, errors.ErrTransport)

	_, err = parseTotalSize("")
	assert.Error(t, err)
}
