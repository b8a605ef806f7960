// Package snyk extracts vulnerability advisories from snyk.io advisory pages
// (https://snyk.io/vuln/<id>).
package snyk

import (
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/xerrors"
)

// Fetcher returns the parsed advisory page for a URL. Implementations fail
// with an error wrapping ErrFetch.
type Fetcher interface {
	Fetch(url string, bypassCache bool) (*goquery.Document, error)
}

// Extractor turns advisory pages into advisories. It holds no state besides
// its fetcher and is safe for concurrent use when the fetcher is.
type Extractor struct {
	fetcher Fetcher
}

func NewExtractor(fetcher Fetcher) Extractor {
	return Extractor{fetcher: fetcher}
}

// Extract returns the advisories described by the page at url. When doc is
// nil the page is obtained from the fetcher; fetch errors are returned as is.
func (e Extractor) Extract(url string, bypassCache bool, doc *goquery.Document) ([]Advisory, error) {
	if doc == nil {
		if e.fetcher == nil {
			return nil, xerrors.Errorf("no document and no fetcher for %s: %w", url, ErrFetch)
		}
		var err error
		if doc, err = e.fetcher.Fetch(url, bypassCache); err != nil {
			return nil, err
		}
	}
	return Parse(url, doc)
}

// Parse returns the advisories described by doc, the page served at url.
// It only reads doc, and the same input always yields the same advisories.
//
// When some affected-package rows fail, the advisories of the remaining rows
// are returned together with an error joining a RowError per failed row.
func Parse(url string, doc *goquery.Document) ([]Advisory, error) {
	if doc == nil {
		return nil, xerrors.Errorf("nil document for %s: %w", url, ErrParse)
	}

	src, err := ParseSourceURL(url)
	if err != nil {
		return nil, err
	}

	fields, err := extractFields(doc)
	if err != nil {
		return nil, xerrors.Errorf("failed to extract %s: %w", src.ID, err)
	}

	advisories, err := assemble(url, src, fields, affectedRows(doc, src))
	if err != nil {
		return advisories, xerrors.Errorf("failed to assemble %s: %w", src.ID, err)
	}
	return advisories, nil
}
