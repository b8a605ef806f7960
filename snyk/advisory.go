package snyk

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/exp/slices"
	"golang.org/x/xerrors"
)

const (
	idPrefix = "snykio"

	// pages covering several packages list them in a table
	rowsSelector       = "table.affected-packages tbody tr"
	rowManagerClass    = ".affected-packages__manager"
	rowPackageClass    = ".affected-packages__package"
	rowVulnerableClass = ".affected-packages__vulnerable"
	rowUnaffectedClass = ".affected-packages__unaffected"
	rowPatchedClass    = ".affected-packages__patched"

	// single-package pages name it in the header lede
	ledeSelector           = ".header__lede"
	ledePackageSelector    = ".header__lede--package"
	ledeVersionsSelector   = ".header__lede--versions"
	ledeUnaffectedSelector = ".header__lede--unaffected"
	ledePatchedSelector    = ".header__lede--patched"
)

type affectedRow struct {
	Token      string
	Package    string
	Vulnerable string
	Unaffected cell
	Patched    cell
}

type cell struct {
	Text    string
	Present bool
}

func readCell(s *goquery.Selection, selector string) cell {
	found := s.Find(selector).First()
	return cell{Text: found.Text(), Present: found.Length() > 0}
}

// affectedRows returns the affected-package rows of a page in document order.
// A page without a package table has exactly one row, described by the header
// lede and the ecosystem token of its URL.
func affectedRows(doc *goquery.Document, src SourceID) []affectedRow {
	var rows []affectedRow
	doc.Find(rowsSelector).Each(func(_ int, tr *goquery.Selection) {
		if tr.Find("td").Length() == 0 {
			// header row
			return
		}
		rows = append(rows, affectedRow{
			Token:      strings.TrimSpace(tr.Find(rowManagerClass).First().Text()),
			Package:    strings.TrimSpace(tr.Find(rowPackageClass).First().Text()),
			Vulnerable: tr.Find(rowVulnerableClass).First().Text(),
			Unaffected: readCell(tr, rowUnaffectedClass),
			Patched:    readCell(tr, rowPatchedClass),
		})
	})
	if len(rows) > 0 {
		return rows
	}

	lede := doc.Find(ledeSelector).First()
	return []affectedRow{{
		Token:      src.Token,
		Package:    strings.TrimSpace(lede.Find(ledePackageSelector).First().Text()),
		Vulnerable: lede.Find(ledeVersionsSelector).First().Text(),
		Unaffected: readCell(lede, ledeUnaffectedSelector),
		Patched:    readCell(lede, ledePatchedSelector),
	}}
}

// assemble builds one advisory per row. Rows that cannot be built are reported
// as RowErrors; the advisories of the other rows are still returned.
func assemble(sourceURL string, src SourceID, fields pageFields, rows []affectedRow) ([]Advisory, error) {
	var (
		advisories []Advisory
		errs       []error
	)
	for i, row := range rows {
		adv, err := newAdvisory(sourceURL, src, fields, row)
		if err != nil {
			errs = append(errs, &RowError{Row: i, Err: err})
			continue
		}
		advisories = append(advisories, adv)
	}
	return advisories, errors.Join(errs...)
}

func newAdvisory(sourceURL string, src SourceID, fields pageFields, row affectedRow) (Advisory, error) {
	if row.Package == "" {
		return Advisory{}, missingField("affected_package")
	}
	if hasParentSegment(row.Package) {
		return Advisory{}, xerrors.Errorf("affected package %q has a parent path segment: %w", row.Package, ErrParse)
	}
	if row.Token == "" {
		return Advisory{}, missingField("package_manager")
	}
	pm, err := ResolvePackageManager(row.Token)
	if err != nil {
		return Advisory{}, err
	}
	vulnerable, err := SplitRanges(row.Vulnerable)
	if err != nil {
		return Advisory{}, err
	}

	return Advisory{
		ID:                 fmt.Sprintf("%s:%s:%s:%s", idPrefix, pm, row.Package, src.Suffix),
		Title:              fields.Title,
		Description:        fields.Description,
		AffectedPackage:    row.Package,
		VulnerableVersions: vulnerable,
		UnaffectedVersions: splitOptionalRanges(row.Unaffected.Text, row.Unaffected.Present),
		PatchedVersions:    splitOptionalRanges(row.Patched.Text, row.Patched.Present),
		Severity:           fields.Severity,
		PackageManager:     pm,
		CVE:                slices.Clone(fields.CVE),
		CWE:                slices.Clone(fields.CWE),
		OSVDB:              slices.Clone(fields.OSVDB),
		CvssV2Vector:       fields.CvssV2Vector,
		CvssV2Score:        fields.CvssV2Score,
		CvssV3Vector:       fields.CvssV3Vector,
		CvssV3Score:        fields.CvssV3Score,
		DisclosedDate:      fields.DisclosedDate,
		CreatedDate:        fields.CreatedDate,
		LastModifiedDate:   fields.LastModifiedDate,
		Credit:             slices.Clone(fields.Credit),
		References:         slices.Clone(fields.References),
		SourceURL:          sourceURL,
	}, nil
}

// hasParentSegment reports whether a package name contains a ".." segment.
// Names end up in output file paths.
func hasParentSegment(name string) bool {
	segments := strings.FieldsFunc(name, func(r rune) bool {
		return r == '/' || r == '\\' || r == ':'
	})
	return slices.Contains(segments, "..")
}
