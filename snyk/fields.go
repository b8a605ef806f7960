package snyk

import (
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
	"github.com/samber/lo"
	"golang.org/x/exp/slices"
	"golang.org/x/xerrors"
)

const (
	titleSelector      = "h1"
	overviewSelector   = "#overview"
	detailsSelector    = "#details"
	referencesSelector = "#references"
	severitySelector   = ".severity-widget__text"
	infoSelector       = "dl.vuln-info"

	disclosedLabel    = "disclosed"
	publishedLabel    = "published"
	lastModifiedLabel = "last modified"
	creditLabel       = "credit"
	cveLabel          = "cve"
	cweLabel          = "cwe"
	osvdbLabel        = "osvdb"
	cvssV2Label       = "cvss v2"
	cvssV3Label       = "cvss v3"

	unknownCredit = "Unknown"
)

var severities = []string{"low", "medium", "high", "critical"}

// pageFields holds everything shared by the advisories of one page.
type pageFields struct {
	Title            string
	Description      string
	Severity         string
	CVE              []string
	CWE              []string
	OSVDB            []string
	CvssV2Vector     *string
	CvssV2Score      *string
	CvssV3Vector     *string
	CvssV3Score      *string
	DisclosedDate    Date
	CreatedDate      Date
	LastModifiedDate Date
	Credit           []string
	References       []string
}

func extractFields(doc *goquery.Document) (pageFields, error) {
	if doc.Find(titleSelector).Length() == 0 && doc.Find(infoSelector).Length() == 0 {
		return pageFields{}, xerrors.Errorf("neither a title nor an advisory info list: %w", ErrParse)
	}

	var (
		fields pageFields
		err    error
	)

	if fields.Title = collapseSpace(doc.Find(titleSelector).First().Text()); fields.Title == "" {
		return pageFields{}, missingField("title")
	}
	if fields.Description, err = description(doc); err != nil {
		return pageFields{}, err
	}
	if fields.Severity, err = severity(doc); err != nil {
		return pageFields{}, err
	}

	info := infoList(doc)
	if fields.DisclosedDate, err = info.date(disclosedLabel, "disclosed_date"); err != nil {
		return pageFields{}, err
	}
	if fields.CreatedDate, err = info.date(publishedLabel, "created_date"); err != nil {
		return pageFields{}, err
	}
	if fields.LastModifiedDate, err = info.date(lastModifiedLabel, "last_modified_date"); err != nil {
		return pageFields{}, err
	}
	if fields.CreatedDate.After(fields.LastModifiedDate.Time) {
		return pageFields{}, xerrors.Errorf("published date %s is after last modified date %s: %w",
			fields.CreatedDate, fields.LastModifiedDate, ErrParse)
	}

	fields.Credit = info.credit()
	fields.CVE = info.identifiers(cveLabel)
	fields.CWE = info.identifiers(cweLabel)
	fields.OSVDB = info.identifiers(osvdbLabel)
	fields.CvssV2Vector, fields.CvssV2Score = info.cvss(cvssV2Label)
	fields.CvssV3Vector, fields.CvssV3Score = info.cvss(cvssV3Label)
	fields.References = references(doc)

	return fields, nil
}

// description renders the overview card and the optional vulnerability-class
// explainer as markdown, with links as numbered footnotes.
func description(doc *goquery.Document) (string, error) {
	overview := doc.Find(overviewSelector).First()
	if overview.Length() == 0 {
		return "", missingField("description")
	}

	conv := md.NewConverter("", true, &md.Options{LinkStyle: "referenced"})
	parts := []string{cardMarkdown(conv, overview)}
	if details := doc.Find(detailsSelector).First(); details.Length() > 0 {
		parts = append(parts, cardMarkdown(conv, details))
	}

	desc := strings.TrimSpace(strings.Join(lo.Compact(parts), "\n\n"))
	if desc == "" {
		return "", missingField("description")
	}
	return desc, nil
}

func cardMarkdown(conv *md.Converter, card *goquery.Selection) string {
	// work on a copy so the caller's document is left untouched
	card = card.Clone()
	card.ChildrenFiltered("h2").First().Remove()
	return strings.TrimSpace(conv.Convert(card))
}

func severity(doc *goquery.Document) (string, error) {
	s := strings.ToLower(collapseSpace(doc.Find(severitySelector).First().Text()))
	s = strings.TrimSpace(strings.TrimSuffix(s, "severity"))
	if s == "" {
		return "", missingField("severity")
	}
	if !slices.Contains(severities, s) {
		return "", xerrors.Errorf("unknown severity %q: %w", s, ErrParse)
	}
	return s, nil
}

func references(doc *goquery.Document) []string {
	card := doc.Find(referencesSelector).First()
	if card.Length() == 0 {
		return nil
	}
	refs := card.Find("a[href]").Map(func(_ int, s *goquery.Selection) string {
		return strings.TrimSpace(s.AttrOr("href", ""))
	})
	return lo.Uniq(lo.Compact(refs))
}

// infoEntries maps normalized <dt> labels of the advisory info list to their <dd>.
type infoEntries map[string]*goquery.Selection

func infoList(doc *goquery.Document) infoEntries {
	entries := infoEntries{}
	doc.Find(infoSelector).Find("dt").Each(func(_ int, dt *goquery.Selection) {
		dd := dt.Next()
		if goquery.NodeName(dd) != "dd" {
			return
		}
		label := strings.ToLower(strings.TrimSuffix(collapseSpace(dt.Text()), ":"))
		if _, ok := entries[label]; !ok {
			entries[label] = dd
		}
	})
	return entries
}

func (e infoEntries) date(label, field string) (Date, error) {
	dd, ok := e[label]
	if !ok {
		return Date{}, missingField(field)
	}

	value := strings.TrimSpace(dd.Find("time").First().AttrOr("datetime", ""))
	if value == "" {
		value = collapseSpace(dd.Text())
	}
	if value == "" {
		return Date{}, missingField(field)
	}

	t, err := dateparse.ParseIn(value, time.UTC)
	if err != nil {
		return Date{}, xerrors.Errorf("%s %q is not a date (%v): %w", field, value, err, ErrMissingRequiredField)
	}
	t = t.UTC()
	return NewDate(t.Year(), t.Month(), t.Day()), nil
}

func (e infoEntries) credit() []string {
	dd, ok := e[creditLabel]
	if !ok {
		return []string{unknownCredit}
	}

	var names []string
	if items := dd.Find("li"); items.Length() > 0 {
		names = items.Map(func(_ int, s *goquery.Selection) string {
			return collapseSpace(s.Text())
		})
	} else {
		names = lo.Map(strings.Split(dd.Text(), ","), func(s string, _ int) string {
			return collapseSpace(s)
		})
	}

	names = lo.Uniq(lo.Compact(names))
	if len(names) == 0 {
		return []string{unknownCredit}
	}
	return names
}

// identifiers returns nil when the label is absent and a non-nil, possibly
// empty, list when it is present.
func (e infoEntries) identifiers(label string) []string {
	dd, ok := e[label]
	if !ok {
		return nil
	}

	var ids []string
	if links := dd.Find("a"); links.Length() > 0 {
		ids = links.Map(func(_ int, s *goquery.Selection) string {
			return strings.TrimSpace(s.Text())
		})
	} else {
		ids = strings.FieldsFunc(dd.Text(), func(r rune) bool {
			return r == ',' || r == ' ' || r == '\n' || r == '\t'
		})
	}
	return append([]string{}, lo.Uniq(lo.Compact(ids))...)
}

func (e infoEntries) cvss(label string) (vector, score *string) {
	dd, ok := e[label]
	if !ok {
		return nil, nil
	}
	return optionalText(dd.Find(".cvss__vector")), optionalText(dd.Find(".cvss__score"))
}

func optionalText(s *goquery.Selection) *string {
	text := strings.TrimSpace(s.First().Text())
	if text == "" {
		return nil
	}
	return &text
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
