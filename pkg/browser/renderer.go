// Package browser implements the catalog renderer on a headless Chrome
// instance. The datahub hides most datasets behind client-side year tabs, so
// a full crawl has to click through every tab and snapshot the rendered HTML.
package browser

import (
	"context"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
	"github.com/klimadata/euets/internal/logger"
	"github.com/klimadata/euets/pkg/config"
	"github.com/klimadata/euets/pkg/errors"
)

const (
	accordionSelector = ".datasets-tab .accordion.ui"
	tabSelector       = ".datasets-tab .ui.menu .item"
)

// Renderer drives a Chrome instance through the catalog's year tabs. It
// implements catalog.Renderer.
type Renderer struct {
	headless    bool
	settleDelay time.Duration
}

// NewRenderer creates a renderer from the browser configuration.
func NewRenderer(cfg config.BrowserConfig) *Renderer {
	settle := cfg.TabSettleDelay
	if settle <= 0 {
		settle = config.DefaultTabSettleDelay
	}
	return &Renderer{headless: cfg.Headless, settleDelay: settle}
}

// Pages navigates to the catalog, waits for the dataset accordions to render,
// then clicks every year tab in turn and snapshots the page after each click.
// The tab content has no reliable completion selector, so a fixed settle
// delay follows each click. The first snapshot is the default tab state.
func (r *Renderer) Pages(ctx context.Context, url string) ([]string, error) {
	opts := chromedp.DefaultExecAllocatorOptions[:]
	if !r.headless {
		opts = append(opts, chromedp.Flag("headless", false))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	logger.Debug("rendering catalog", logger.Fields{"url": url, "headless": r.headless})

	var snapshot string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitVisible(accordionSelector, chromedp.ByQuery),
		chromedp.OuterHTML("html", &snapshot, chromedp.ByQuery),
	)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrTransport, "failed to render catalog %s: %v", url, err)
	}
	pages := []string{snapshot}

	var tabs []*cdp.Node
	err = chromedp.Run(browserCtx,
		chromedp.Nodes(tabSelector, &tabs, chromedp.ByQueryAll, chromedp.AtLeast(0)),
	)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrTransport, "failed to enumerate year tabs: %v", err)
	}
	logger.Debug("year tabs found", logger.Fields{"tabs": len(tabs)})

	for i, tab := range tabs {
		var tabSnapshot string
		err = chromedp.Run(browserCtx,
			chromedp.MouseClickNode(tab),
			chromedp.Sleep(r.settleDelay),
			chromedp.OuterHTML("html", &tabSnapshot, chromedp.ByQuery),
		)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrTransport, "failed to render year tab %d: %v", i, err)
		}
		pages = append(pages, tabSnapshot)
	}

	return pages, nil
}
