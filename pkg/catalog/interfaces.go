package catalog

import "context"

//go:generate mockgen -package catalog -destination=./renderer_mock.go . Renderer

// Renderer produces fully rendered catalog HTML. The datahub paginates
// datasets behind client-side year tabs, so a plain GET only sees the default
// tab; a Renderer drives a real browser through every tab and returns one
// HTML snapshot per tab state.
type Renderer interface {
	Pages(ctx context.Context, url string) ([]string, error)
}
