// Package catalog is the discovery and retrieval engine: it fetches the
// datahub catalog, exposes datasets with lazy archive operations, and checks
// whether a newer revision than a known baseline has been published.
package catalog

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"github.com/klimadata/euets/internal/logger"
	"github.com/klimadata/euets/pkg/archive"
	"github.com/klimadata/euets/pkg/errors"
	httpclient "github.com/klimadata/euets/pkg/http"
	"github.com/klimadata/euets/pkg/model"
	"github.com/klimadata/euets/pkg/scrape"
	"github.com/klimadata/euets/pkg/storage"
)

// Dataset is one catalog record with lazy archive operations attached. The
// archive URL and the file listing are resolved on first use and cached for
// the dataset's lifetime; resolution failures are not cached, so a later call
// retries. All methods are safe for concurrent use, and concurrent first
// calls collapse into a single resolution.
type Dataset struct {
	model.DatasetRecord

	client   *httpclient.Client
	reader   *archive.Reader
	resolver *storage.Resolver

	mu       sync.Mutex
	url      string
	urlKnown bool
	files    []model.ArchiveFile
	listed   bool
}

func newDataset(rec model.DatasetRecord, client *httpclient.Client, reader *archive.Reader, resolver *storage.Resolver) *Dataset {
	return &Dataset{
		DatasetRecord: rec,
		client:        client,
		reader:        reader,
		resolver:      resolver,
	}
}

// URL resolves the dataset's archive URL. A catalog record links to a
// download viewer page rather than the zip itself; resolution fetches that
// page and extracts the real archive URL. Datasets without an archive link
// (factsheet-only records) resolve to the empty string with no error.
func (d *Dataset) URL(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.resolveURL(ctx)
}

// resolveURL must be called with d.mu held.
func (d *Dataset) resolveURL(ctx context.Context) (string, error) {
	if d.urlKnown {
		return d.url, nil
	}

	link, ok := scrape.ArchiveLink(d.Links)
	if !ok {
		d.urlKnown = true
		return "", nil
	}

	// A link that already points at a zip needs no viewer-page indirection.
	if isZipURL(link.URL) {
		d.url = link.URL
		d.urlKnown = true
		return d.url, nil
	}

	logger.Debug("resolving archive url", logger.Fields{"dataset": d.ID, "viewer": link.URL})
	page, err := d.client.GetPage(ctx, link.URL)
	if err != nil {
		return "", err
	}
	zipURL, err := scrape.ResolveDownloadURL(page)
	if err != nil {
		return "", errors.Wrapf(err, "dataset %s", d.ID)
	}

	// The viewer page may use a relative href.
	if base, err := url.Parse(link.URL); err == nil {
		if ref, err := url.Parse(zipURL); err == nil {
			zipURL = base.ResolveReference(ref).String()
		}
	}

	d.url = zipURL
	d.urlKnown = true
	return d.url, nil
}

// Files lists the archive's entries without downloading the archive. The
// listing is served via range requests against the remote zip and cached on
// first success. Returns ErrNoArchiveLink for factsheet-only datasets.
func (d *Dataset) Files(ctx context.Context) ([]model.ArchiveFile, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.listed {
		return d.files, nil
	}

	archiveURL, err := d.resolveURL(ctx)
	if err != nil {
		return nil, err
	}
	if archiveURL == "" {
		return nil, errors.Wrapf(errors.ErrNoArchiveLink, "dataset %s", d.ID)
	}

	src, err := d.client.NewRangeReader(ctx, archiveURL)
	if err != nil {
		return nil, err
	}
	files, err := d.reader.List(ctx, src)
	if err != nil {
		return nil, err
	}

	d.files = files
	d.listed = true
	return d.files, nil
}

// Download streams the dataset's archive to dest and returns the final
// location. When dest names a directory the archive lands there as
// "<dataset id>.zip"; otherwise dest is taken as the target file. dest may
// carry a scheme (file://, s3://) to pick a storage backend.
func (d *Dataset) Download(ctx context.Context, dest string) (string, error) {
	backend, location, err := d.resolver.Resolve(dest)
	if err != nil {
		return "", err
	}

	archiveURL, err := d.URL(ctx)
	if err != nil {
		return "", err
	}
	if archiveURL == "" {
		return "", errors.Wrapf(errors.ErrNoArchiveLink, "dataset %s", d.ID)
	}

	if backend.IsDir(location) {
		location = backend.Join(location, d.ID+".zip")
	}

	logger.Debug("downloading archive", logger.Fields{"dataset": d.ID, "url": archiveURL, "dest": location})
	body, _, err := d.client.Open(ctx, archiveURL)
	if err != nil {
		return "", err
	}
	defer func() { _ = body.Close() }()

	return backend.Write(ctx, location, body)
}

// Extract streams the archive entries matching pattern into the destination
// directory, preserving their in-archive relative paths. Only matching
// entries are transferred; Extract("*") is a full extraction. Returns the
// written locations in archive order.
func (d *Dataset) Extract(ctx context.Context, pattern, dest string) ([]string, error) {
	backend, location, err := d.resolver.Resolve(dest)
	if err != nil {
		return nil, err
	}

	archiveURL, err := d.URL(ctx)
	if err != nil {
		return nil, err
	}
	if archiveURL == "" {
		return nil, errors.Wrapf(errors.ErrNoArchiveLink, "dataset %s", d.ID)
	}

	src, err := d.client.NewRangeReader(ctx, archiveURL)
	if err != nil {
		return nil, err
	}
	return d.reader.ExtractMatching(ctx, src, pattern, backend, location)
}

func isZipURL(rawURL string) bool {
	if i := strings.IndexAny(rawURL, "?#"); i >= 0 {
		rawURL = rawURL[:i]
	}
	return strings.HasSuffix(rawURL, ".zip")
}
