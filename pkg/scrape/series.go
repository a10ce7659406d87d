package scrape

import (
	"regexp"
	"strings"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/klimadata/euets/pkg/errors"
	"github.com/klimadata/euets/pkg/model"
)

// SeriesKeyFunc derives the logical-series key of a record. Records sharing
// a key are revisions of the same dataset; all but the newest one per key
// are marked superseded.
type SeriesKeyFunc func(rec model.DatasetRecord) (string, error)

var seriesYearPattern = regexp.MustCompile(`\s*\(?\d{4}\s*[-–]\s*\d{4}\)?\s*`)
var whitespacePattern = regexp.MustCompile(`\s+`)

// DefaultSeriesKey strips the year range from the title and normalizes the
// remainder. Revisions of the same dataset differ only in their covered
// years, so the stripped title identifies the series.
func DefaultSeriesKey(rec model.DatasetRecord) (string, error) {
	key := seriesYearPattern.ReplaceAllString(rec.Title, " ")
	key = whitespacePattern.ReplaceAllString(key, " ")
	return strings.ToLower(strings.TrimSpace(key)), nil
}

// NewScriptSeriesKey compiles a Tengo script into a SeriesKeyFunc. The
// script receives `id` and `title` and must set `key`.
func NewScriptSeriesKey(script string) SeriesKeyFunc {
	return func(rec model.DatasetRecord) (string, error) {
		s := tengo.NewScript([]byte(script))
		s.SetImports(stdlib.GetModuleMap("text", "fmt"))
		_ = s.Add("id", rec.ID)
		_ = s.Add("title", rec.Title)
		_ = s.Add("key", "")

		compiled, err := s.Run()
		if err != nil {
			return "", errors.Wrap(errors.ErrSeriesScript, err.Error())
		}

		keyVar := compiled.Get("key")
		if keyVar == nil || keyVar.IsUndefined() {
			return "", errors.Wrap(errors.ErrSeriesScript, "script did not set key")
		}
		key := keyVar.String()
		if key == "" {
			return "", errors.Wrap(errors.ErrSeriesScript, "script produced an empty key")
		}
		return key, nil
	}
}

// MarkSuperseded groups records into series and marks every member except
// the most recent one superseded. Recency is publication date; records
// without a date lose to dated ones, and ties resolve to the higher dataset
// id under model.CompareIDs. The slice order is left untouched so callers
// keep catalog ordering.
func (p *Parser) MarkSuperseded(records []model.DatasetRecord) error {
	current := make(map[string]int) // series key -> index of newest record seen

	for i := range records {
		records[i].Superseded = true

		key, err := p.seriesKey(records[i])
		if err != nil {
			return err
		}
		best, seen := current[key]
		if !seen || newer(records[i], records[best]) {
			current[key] = i
		}
	}

	for _, i := range current {
		records[i].Superseded = false
	}
	return nil
}

// newer reports whether a supersedes b.
func newer(a, b model.DatasetRecord) bool {
	switch {
	case a.Published != nil && b.Published == nil:
		return true
	case a.Published == nil && b.Published != nil:
		return false
	case a.Published != nil && b.Published != nil && !a.Published.Equal(*b.Published):
		return a.Published.After(*b.Published)
	default:
		return model.CompareIDs(a.ID, b.ID) > 0
	}
}
