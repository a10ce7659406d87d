// Package archive lists and selectively extracts zip archives, reading from
// seekable sources so remote archives never need a full download just to
// enumerate their contents.
package archive

import (
	"context"
	stderrors "errors"
	"io"

	"github.com/klimadata/euets/pkg/errors"
	"github.com/klimadata/euets/pkg/model"
	"github.com/klimadata/euets/pkg/storage"
	"github.com/mholt/archives"
)

// Reader handles zip listing and extraction. The source must implement
// io.ReaderAt and io.Seeker on top of io.Reader; the zip format needs random
// access to its central directory. http.RangeReader and bytes.Reader both
// qualify.
type Reader struct {
	format archives.Zip
}

// NewReader creates a Reader.
func NewReader() *Reader {
	return &Reader{}
}

// List enumerates the archive's entries without decompressing any of them.
// Only the central directory is read, so a range-backed remote source costs
// a handful of small requests.
func (r *Reader) List(ctx context.Context, src io.Reader) ([]model.ArchiveFile, error) {
	var files []model.ArchiveFile

	err := r.format.Extract(ctx, src, func(_ context.Context, f archives.FileInfo) error {
		if f.IsDir() {
			return nil
		}
		files = append(files, model.ArchiveFile{
			Name: f.NameInArchive,
			Size: f.Size(),
			Type: model.FileTypeOf(f.NameInArchive),
		})
		return nil
	})
	if err != nil {
		return nil, wrapArchiveErr(err)
	}
	return files, nil
}

// ExtractMatching streams every entry whose in-archive path matches the glob
// pattern into the backend under destDir, preserving the entries' relative
// paths. Unmatched entries are never decompressed. Returns the resolved
// output paths in archive order; zero matches yields an empty slice and
// performs zero writes.
func (r *Reader) ExtractMatching(ctx context.Context, src io.Reader, pattern string, backend storage.Backend, destDir string) ([]string, error) {
	// Surface pattern syntax errors before touching the archive.
	if _, err := Match(pattern, ""); err != nil {
		return nil, err
	}

	var written []string
	err := r.format.Extract(ctx, src, func(ctx context.Context, f archives.FileInfo) error {
		if f.IsDir() {
			return nil
		}
		ok, err := Match(pattern, f.NameInArchive)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}

		entry, err := f.Open()
		if err != nil {
			return err
		}
		defer func() { _ = entry.Close() }()

		path, err := backend.Write(ctx, backend.Join(destDir, f.NameInArchive), entry)
		if err != nil {
			return err
		}
		written = append(written, path)
		return nil
	})
	if err != nil {
		return nil, wrapArchiveErr(err)
	}
	return written, nil
}

// wrapArchiveErr classifies extraction failures: destination, transport and
// cancellation errors pass through untouched, everything else is a corrupt or
// truncated archive.
func wrapArchiveErr(err error) error {
	switch {
	case stderrors.Is(err, errors.ErrDestination),
		stderrors.Is(err, errors.ErrTransport),
		stderrors.Is(err, ErrBadPattern),
		stderrors.Is(err, context.Canceled),
		stderrors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return errors.Wrap(errors.ErrArchiveRead, err.Error())
	}
}
