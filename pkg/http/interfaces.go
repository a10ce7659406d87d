//go:generate mockgen -package http -destination=./doer_mock.go . Doer
package http

import "net/http"

// Doer is the minimal transport seam used by the Client. *http.Client
// satisfies it; tests substitute a mock to instrument call counts.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}
