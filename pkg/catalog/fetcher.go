package catalog

import (
	"context"
	"sync"

	"github.com/klimadata/euets/internal/logger"
	"github.com/klimadata/euets/pkg/archive"
	"github.com/klimadata/euets/pkg/errors"
	httpclient "github.com/klimadata/euets/pkg/http"
	"github.com/klimadata/euets/pkg/model"
	"github.com/klimadata/euets/pkg/scrape"
	"github.com/klimadata/euets/pkg/storage"
)

// Result is the outcome of one catalog fetch. Malformed records are reported
// in Errors without affecting the parseable ones; Datasets keeps the catalog
// page order.
type Result struct {
	Datasets []*Dataset         `json:"datasets"`
	Errors   []model.ParseError `json:"errors,omitempty"`
}

// Find returns the dataset with the given id.
func (r *Result) Find(id string) (*Dataset, bool) {
	for _, d := range r.Datasets {
		if d.ID == id {
			return d, true
		}
	}
	return nil, false
}

// Current returns the datasets not superseded by a newer revision.
func (r *Result) Current() []*Dataset {
	var out []*Dataset
	for _, d := range r.Datasets {
		if !d.Superseded {
			out = append(out, d)
		}
	}
	return out
}

// Fetcher retrieves and parses the datahub catalog.
type Fetcher struct {
	client   *httpclient.Client
	parser   *scrape.Parser
	reader   *archive.Reader
	resolver *storage.Resolver
	renderer Renderer
	url      string

	// crawlMu serializes full crawls; a browser crawl is expensive enough
	// that concurrent callers should queue rather than race.
	crawlMu sync.Mutex
}

// NewFetcher creates a fetcher for the catalog at url. renderer may be nil,
// in which case FetchAll is unavailable and Fetch still works.
func NewFetcher(client *httpclient.Client, parser *scrape.Parser, resolver *storage.Resolver, url string, renderer Renderer) *Fetcher {
	return &Fetcher{
		client:   client,
		parser:   parser,
		reader:   archive.NewReader(),
		resolver: resolver,
		renderer: renderer,
		url:      url,
	}
}

// Fetch retrieves the catalog page with a plain GET and parses the datasets
// visible in the default tab. Use FetchAll to also reach datasets hidden
// behind the year tabs.
func (f *Fetcher) Fetch(ctx context.Context) (*Result, error) {
	page, err := f.client.GetPage(ctx, f.url)
	if err != nil {
		return nil, err
	}
	return f.assemble([]string{page})
}

// FetchAll drives a browser through every year tab of the catalog and merges
// the datasets of all tab states, deduplicated by id with first-seen order
// preserved. Concurrent calls are serialized.
func (f *Fetcher) FetchAll(ctx context.Context) (*Result, error) {
	if f.renderer == nil {
		return nil, errors.Wrap(errors.ErrConfigValidation, "full crawl requires a browser renderer")
	}

	f.crawlMu.Lock()
	defer f.crawlMu.Unlock()

	pages, err := f.renderer.Pages(ctx, f.url)
	if err != nil {
		return nil, err
	}
	logger.Debug("full crawl rendered", logger.Fields{"pages": len(pages)})
	return f.assemble(pages)
}

// assemble parses the pages, merges records deduplicated by id and marks
// superseded revisions across the merged set.
func (f *Fetcher) assemble(pages []string) (*Result, error) {
	seen := make(map[string]bool)
	var records []model.DatasetRecord
	var parseErrs []model.ParseError

	for _, page := range pages {
		recs, errs, err := f.parser.Parse(page)
		if err != nil {
			return nil, err
		}
		for _, rec := range recs {
			if seen[rec.ID] {
				continue
			}
			seen[rec.ID] = true
			records = append(records, rec)
		}
		parseErrs = mergeParseErrors(seen, parseErrs, errs)
	}

	if err := f.parser.MarkSuperseded(records); err != nil {
		return nil, err
	}

	result := &Result{Errors: parseErrs}
	for _, rec := range records {
		result.Datasets = append(result.Datasets, newDataset(rec, f.client, f.reader, f.resolver))
	}
	logger.Debug("catalog parsed", logger.Fields{"datasets": len(result.Datasets), "parse_errors": len(parseErrs)})
	return result, nil
}

// mergeParseErrors appends errs to dst, dropping errors whose dataset id was
// already seen on an earlier page. Errors without an id are never
// deduplicated; an empty id must not swallow unrelated errors.
func mergeParseErrors(seen map[string]bool, dst, errs []model.ParseError) []model.ParseError {
	for _, perr := range errs {
		if perr.DatasetID != "" {
			if seen[perr.DatasetID] {
				continue
			}
			seen[perr.DatasetID] = true
		}
		dst = append(dst, perr)
	}
	return dst
}

// CheckNewer fetches the catalog and reports whether a dataset newer than
// baselineID has been published. It returns the id of the newest current
// dataset. Superseded revisions never count as newer.
func (f *Fetcher) CheckNewer(ctx context.Context, baselineID string) (string, bool, error) {
	result, err := f.Fetch(ctx)
	if err != nil {
		return "", false, err
	}

	latest := ""
	for _, d := range result.Current() {
		if latest == "" || model.CompareIDs(d.ID, latest) > 0 {
			latest = d.ID
		}
	}
	if latest == "" {
		return "", false, errors.Wrap(errors.ErrDatasetNotFound, "catalog contains no current dataset")
	}

	return latest, model.CompareIDs(latest, baselineID) > 0, nil
}
