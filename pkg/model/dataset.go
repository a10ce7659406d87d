// Package model provides the data structures shared by the catalog, scrape
// and archive packages: dataset records, archive entries and parse errors.
package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-version"
)

// Link is a labeled hyperlink discovered on a catalog record. The archive
// URL is picked out of a record's links by label/format matching, never by
// position.
type Link struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// YearRange is the inclusive temporal coverage of a dataset.
type YearRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Valid reports whether the range is ordered and plausible.
func (r YearRange) Valid() bool {
	return r.Start > 0 && r.Start <= r.End
}

func (r YearRange) String() string {
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}

// DatasetRecord is one catalog revision as parsed from the datahub page.
// Records are immutable once constructed; the lazy archive operations live
// on catalog.Dataset, which wraps a record.
type DatasetRecord struct {
	ID         string     `json:"dataset_id"`
	Title      string     `json:"title"`
	Format     string     `json:"format"`
	Superseded bool       `json:"superseded"`
	Published  *time.Time `json:"published,omitempty"`
	Coverage   YearRange  `json:"temporal_coverage"`
	Factsheet  string     `json:"factsheet"`
	Links      []Link     `json:"links"`
}

// ArchiveFile is one entry inside a dataset's zip archive.
type ArchiveFile struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	Type string `json:"file_type"`
}

// ParseError records a catalog record that could not be parsed. It never
// aborts the surrounding fetch.
type ParseError struct {
	DatasetID string `json:"dataset_id,omitempty"`
	Message   string `json:"message"`
}

func (e ParseError) Error() string {
	if e.DatasetID == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.DatasetID, e.Message)
}

// CompareIDs orders two dataset ids. Ids that parse as versions (plain
// numbers included) compare numerically; everything else falls back to a
// lexicographic comparison. Returns -1, 0 or 1. This is the single "newer
// than" ordering used for both superseded marking and the freshness check.
func CompareIDs(a, b string) int {
	va, errA := version.NewVersion(a)
	vb, errB := version.NewVersion(b)
	if errA == nil && errB == nil {
		return va.Compare(vb)
	}
	return strings.Compare(a, b)
}

// FileTypeOf infers a file type from the entry name's extension.
func FileTypeOf(name string) string {
	base := name
	if i := strings.LastIndexByte(base, '/'); i >= 0 {
		base = base[i+1:]
	}
	i := strings.LastIndexByte(base, '.')
	if i <= 0 || i == len(base)-1 {
		return ""
	}
	return strings.ToLower(base[i+1:])
}
