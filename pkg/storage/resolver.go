// Package storage resolves destination strings to backends and implements
// the local-filesystem and S3 backends behind one write capability.
package storage

import (
	"context"
	"strings"

	"github.com/klimadata/euets/pkg/errors"
)

// Options selects which optional backends get registered. A nil entry
// leaves its scheme out of the registry entirely, so an unconfigured
// backend fails scheme resolution instead of failing mid-stream.
type Options struct {
	S3 *S3Options
}

// Resolver classifies destination strings and hands out the matching
// backend together with the backend-local write location.
type Resolver struct {
	local    Backend
	backends map[string]Backend
}

// NewResolver builds the scheme registry. Backend construction errors (bad
// credentials config and the like) surface here, not during a write.
func NewResolver(ctx context.Context, opts Options) (*Resolver, error) {
	local := NewLocalBackend()
	backends := map[string]Backend{}

	if opts.S3 != nil {
		s3b, err := NewS3Backend(ctx, *opts.S3)
		if err != nil {
			return nil, err
		}
		backends["s3"] = s3b
	}

	return &Resolver{local: local, backends: backends}, nil
}

// Resolve splits a destination into (backend, location). A bare or relative
// path and the file:// scheme map to the local filesystem; anything else is
// looked up in the scheme registry. Unknown schemes fail before any byte of
// the source is read.
func (r *Resolver) Resolve(dest string) (Backend, string, error) {
	scheme, rest, found := strings.Cut(dest, "://")
	if !found {
		return r.local, dest, nil
	}
	if scheme == "file" {
		return r.local, rest, nil
	}
	backend, ok := r.backends[scheme]
	if !ok {
		return nil, "", errors.Wrapf(errors.ErrUnsupportedScheme, "%q", scheme)
	}
	return backend, rest, nil
}
