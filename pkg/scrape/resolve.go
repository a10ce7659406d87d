package scrape

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/klimadata/euets/pkg/errors"
	"github.com/klimadata/euets/pkg/model"
)

// downloadAllLabel is the button text on the download viewer page whose
// enclosing anchor carries the actual zip URL.
const downloadAllLabel = "Download all files"

// directDownloadLabel is the catalog link pointing at the viewer page. It is
// not the zip itself.
const directDownloadLabel = "Direct download"

// ArchiveLink picks the archive link out of a record's links by label, or by
// a .zip URL suffix when no labeled link exists. Returns false for
// factsheet-only records.
func ArchiveLink(links []model.Link) (model.Link, bool) {
	for _, link := range links {
		if link.Label == directDownloadLabel {
			return link, true
		}
	}
	for _, link := range links {
		trimmed := link.URL
		if i := strings.IndexAny(trimmed, "?#"); i >= 0 {
			trimmed = trimmed[:i]
		}
		if strings.HasSuffix(trimmed, ".zip") {
			return link, true
		}
	}
	return model.Link{}, false
}

// ResolveDownloadURL extracts the zip URL from download viewer page HTML:
// the href of the anchor wrapping the "Download all files" span.
func ResolveDownloadURL(page string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return "", errors.Wrap(err, "failed to parse download page")
	}

	var zipURL string
	doc.Find("span").EachWithBreak(func(_ int, span *goquery.Selection) bool {
		if strings.TrimSpace(span.Text()) != downloadAllLabel {
			return true
		}
		if href, ok := span.Closest("a").Attr("href"); ok {
			zipURL = href
			return false
		}
		return true
	})

	if zipURL == "" {
		return "", errors.ErrDownloadLinkNotFound
	}
	return zipURL, nil
}
