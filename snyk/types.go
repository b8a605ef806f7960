package snyk

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/package-url/packageurl-go"
	"golang.org/x/xerrors"
)

const dateFormat = "2006-01-02"

type Advisory struct {
	ID                 string         `json:"id"`
	Title              string         `json:"title"`
	Description        string         `json:"description"`
	AffectedPackage    string         `json:"affected_package"`
	VulnerableVersions []string       `json:"vulnerable_versions"`
	UnaffectedVersions []string       `json:"unaffected_versions"`
	PatchedVersions    []string       `json:"patched_versions"`
	Severity           string         `json:"severity"`
	PackageManager     PackageManager `json:"package_manager"`
	CVE                []string       `json:"cve"`
	CWE                []string       `json:"cwe"`
	OSVDB              []string       `json:"osvdb"`
	CvssV2Vector       *string        `json:"cvss_v2_vector"`
	CvssV2Score        *string        `json:"cvss_v2_score"`
	CvssV3Vector       *string        `json:"cvss_v3_vector"`
	CvssV3Score        *string        `json:"cvss_v3_score"`
	DisclosedDate      Date           `json:"disclosed_date"`
	CreatedDate        Date           `json:"created_date"`
	LastModifiedDate   Date           `json:"last_modified_date"`
	Credit             []string       `json:"credit"`
	References         []string       `json:"references"`
	SourceURL          string         `json:"source_url"`
}

// PackageURL returns the purl of the affected package.
func (a Advisory) PackageURL() *packageurl.PackageURL {
	var namespace, name string
	switch a.PackageManager {
	case Maven:
		namespace, name = splitLast(a.AffectedPackage, ":")
	case Go, NPM, Packagist:
		namespace, name = splitLast(a.AffectedPackage, "/")
	default:
		name = a.AffectedPackage
	}
	return packageurl.NewPackageURL(a.PackageManager.PurlType(), namespace, name, "", nil, "")
}

func splitLast(s, sep string) (string, string) {
	i := strings.LastIndex(s, sep)
	if i < 0 {
		return "", s
	}
	return s[:i], s[i+len(sep):]
}

// Date is a calendar date without time of day, encoded as "2006-01-02".
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) String() string {
	return d.Format(dateFormat)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	t, err := time.Parse(dateFormat, s)
	if err != nil {
		return xerrors.Errorf("invalid date %q: %w", s, err)
	}
	d.Time = t
	return nil
}
