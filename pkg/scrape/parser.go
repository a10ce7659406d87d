// Package scrape turns raw datahub HTML into structured dataset records. It
// is the single point of adaptation if the page markup changes.
package scrape

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/klimadata/euets/pkg/errors"
	"github.com/klimadata/euets/pkg/model"
	"golang.org/x/net/html"
)

// publishedLayout matches dates like "9 May 2019" or "1 Jul 2025".
const publishedLayout = "2 Jan 2006"

// factsheetLabel is the link label carrying the metadata factsheet URL.
const factsheetLabel = "Metadata Factsheet"

var yearRangePattern = regexp.MustCompile(`(\d{4})\s*[-–]\s*(\d{4})`)
var singleYearPattern = regexp.MustCompile(`\b(\d{4})\b`)

// Parser extracts dataset records from datahub catalog pages.
type Parser struct {
	seriesKey SeriesKeyFunc
}

// NewParser creates a parser. A nil seriesKey falls back to the title-prefix
// heuristic used for superseded marking.
func NewParser(seriesKey SeriesKeyFunc) *Parser {
	if seriesKey == nil {
		seriesKey = DefaultSeriesKey
	}
	return &Parser{seriesKey: seriesKey}
}

// Parse extracts all dataset records from one catalog page. A record that
// cannot be parsed yields a ParseError and does not stop the remaining
// records; every raw record ends up in exactly one of the two slices.
// Superseded flags are not set here. Call MarkSuperseded once all pages of
// a fetch have been merged.
func (p *Parser) Parse(page string) ([]model.DatasetRecord, []model.ParseError, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to parse catalog page")
	}

	var records []model.DatasetRecord
	var parseErrs []model.ParseError

	doc.Find(".datasets-tab .accordion.ui").Each(func(_ int, accordion *goquery.Selection) {
		id, ok := accordion.Attr("id")
		if !ok || id == "" {
			return
		}
		rec, err := parseRecord(id, accordion)
		if err != nil {
			parseErrs = append(parseErrs, model.ParseError{DatasetID: id, Message: err.Error()})
			return
		}
		records = append(records, rec)
	})

	return records, parseErrs, nil
}

// parseRecord parses a single accordion element into a dataset record.
func parseRecord(id string, accordion *goquery.Selection) (model.DatasetRecord, error) {
	var rec model.DatasetRecord

	titleSpan := accordion.Find(".dataset-title").First()
	if titleSpan.Length() == 0 {
		return rec, fmt.Errorf("missing required element: .dataset-title")
	}
	content := accordion.Find(".content").First()
	if content.Length() == 0 {
		return rec, fmt.Errorf("missing required element: .content")
	}

	title := firstText(titleSpan)
	if title == "" {
		return rec, fmt.Errorf("missing dataset title")
	}
	format := strings.TrimSpace(titleSpan.Find(".formats .dh-label").First().Text())

	var published *time.Time
	if text := fieldAfterLabel(content, "Published:"); text != "" {
		if t, err := time.Parse(publishedLayout, text); err == nil {
			published = &t
		}
	}

	coverage, ok := parseYears(fieldAfterLabel(content, "Temporal coverage:"))
	if !ok {
		// Fall back to a year range embedded in the title.
		coverage, ok = parseYears(title)
	}
	if !ok {
		return rec, fmt.Errorf("missing required field: temporal coverage")
	}
	if !coverage.Valid() {
		return rec, fmt.Errorf("invalid temporal coverage %s", coverage)
	}

	var factsheet string
	var links []model.Link
	content.Find("a").Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok {
			return
		}
		label := strings.TrimSpace(a.Text())
		if label == factsheetLabel {
			factsheet = href
			return
		}
		links = append(links, model.Link{Label: label, URL: href})
	})
	if factsheet == "" {
		return rec, fmt.Errorf("missing required field: %s", factsheetLabel)
	}

	return model.DatasetRecord{
		ID:        id,
		Title:     title,
		Format:    format,
		Published: published,
		Coverage:  coverage,
		Factsheet: factsheet,
		Links:     links,
	}, nil
}

// firstText returns the first non-empty text fragment directly under the
// selection, skipping nested elements like the format badges.
func firstText(s *goquery.Selection) string {
	if len(s.Nodes) == 0 {
		return ""
	}
	for n := s.Nodes[0].FirstChild; n != nil; n = n.NextSibling {
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				return t
			}
		}
	}
	return strings.TrimSpace(s.Text())
}

// fieldAfterLabel extracts the text following a <strong>Label:</strong>
// element, the datahub's field markup.
func fieldAfterLabel(content *goquery.Selection, label string) string {
	var out string
	content.Find("strong").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if !strings.Contains(s.Text(), label) {
			return true
		}
		if len(s.Nodes) == 0 {
			return true
		}
		if sib := s.Nodes[0].NextSibling; sib != nil && sib.Type == html.TextNode {
			out = strings.TrimSpace(sib.Data)
		}
		return false
	})
	return out
}

// parseYears parses "2005-2024" style ranges, accepting a bare "2024" as a
// single-year range.
func parseYears(text string) (model.YearRange, bool) {
	if text == "" {
		return model.YearRange{}, false
	}
	if m := yearRangePattern.FindStringSubmatch(text); m != nil {
		start, _ := strconv.Atoi(m[1])
		end, _ := strconv.Atoi(m[2])
		return model.YearRange{Start: start, End: end}, true
	}
	if m := singleYearPattern.FindStringSubmatch(text); m != nil {
		year, _ := strconv.Atoi(m[1])
		return model.YearRange{Start: year, End: year}, true
	}
	return model.YearRange{}, false
}
