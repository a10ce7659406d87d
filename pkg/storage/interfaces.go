//go:generate mockgen -package storage -destination=./backend_mock.go . Backend
package storage

import (
	"context"
	"io"
)

// Backend is the capability a destination must provide: stream bytes to a
// location and join path segments. Backends differ in transport but expose
// identical semantics; callers never branch on the backend type.
type Backend interface {
	// Write streams r to location and returns the resolved path of the
	// written object. A failed or cancelled write must not leave a partial
	// object visible at location.
	Write(ctx context.Context, location string, r io.Reader) (string, error)

	// Join appends name to base using the backend's separator rules.
	Join(base, name string) string

	// IsDir reports whether location names a directory-like target, in
	// which case callers append a derived filename.
	IsDir(location string) bool
}
