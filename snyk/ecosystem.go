package snyk

import (
	"net/url"
	"sort"
	"strings"

	"github.com/package-url/packageurl-go"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"golang.org/x/xerrors"
)

type PackageManager string

const (
	Maven     PackageManager = "maven"
	PyPI      PackageManager = "pypi"
	RubyGems  PackageManager = "rubygems"
	Go        PackageManager = "go"
	Packagist PackageManager = "packagist"
	NuGet     PackageManager = "nuget"
	NPM       PackageManager = "npm"
	Cargo     PackageManager = "cargo"
	Hex       PackageManager = "hex"
	CocoaPods PackageManager = "cocoapods"
)

var (
	PackageManagers = []PackageManager{Maven, PyPI, RubyGems, Go, Packagist, NuGet, NPM, Cargo, Hex, CocoaPods}

	// vendor codes used in SNYK-<VENDOR>-<SLUG>-<N> identifiers
	vendorCodes = map[string]PackageManager{
		"JAVA":      Maven,
		"PYTHON":    PyPI,
		"RUBY":      RubyGems,
		"GOLANG":    Go,
		"PHP":       Packagist,
		"DOTNET":    NuGet,
		"JS":        NPM,
		"RUST":      Cargo,
		"HEX":       Hex,
		"COCOAPODS": CocoaPods,
	}

	purlTypes = map[PackageManager]string{
		Maven:     packageurl.TypeMaven,
		PyPI:      packageurl.TypePyPi,
		RubyGems:  packageurl.TypeGem,
		Go:        packageurl.TypeGolang,
		Packagist: packageurl.TypeComposer,
		NuGet:     packageurl.TypeNuget,
		NPM:       packageurl.TypeNPM,
		Cargo:     packageurl.TypeCargo,
		Hex:       packageurl.TypeHex,
		CocoaPods: packageurl.TypeCocoapods,
	}
)

// ResolvePackageManager maps a vendor code (JAVA, GOLANG, ...) or a package
// manager name (npm, maven, ...) to a PackageManager. Matching is case-insensitive.
func ResolvePackageManager(token string) (PackageManager, error) {
	token = strings.TrimSpace(token)
	if pm, ok := vendorCodes[strings.ToUpper(token)]; ok {
		return pm, nil
	}
	if pm := PackageManager(strings.ToLower(token)); slices.Contains(PackageManagers, pm) {
		return pm, nil
	}

	codes := maps.Keys(vendorCodes)
	sort.Strings(codes)
	return "", xerrors.Errorf("%q is neither a vendor code (%s) nor a package manager: %w",
		token, strings.Join(codes, ", "), ErrUnknownEcosystem)
}

func (pm PackageManager) PurlType() string {
	return purlTypes[pm]
}

// SourceID is the advisory identifier embedded in a snyk.io advisory URL.
//
//	https://snyk.io/vuln/SNYK-JAVA-ORGJBPM-31602 => {ID: "SNYK-JAVA-ORGJBPM-31602", Token: "JAVA", Slug: "ORGJBPM", Suffix: "31602"}
//	https://snyk.io/vuln/npm:xlsx:20180222       => {ID: "npm:xlsx:20180222", Token: "npm", Slug: "xlsx", Suffix: "20180222"}
//
// Slug is informational only: it drops the separators of the real package name.
type SourceID struct {
	ID     string
	Token  string
	Slug   string
	Suffix string
}

func ParseSourceURL(rawURL string) (SourceID, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return SourceID{}, xerrors.Errorf("invalid advisory URL %q: %v: %w", rawURL, err, ErrParse)
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) < 2 || segments[0] != "vuln" {
		return SourceID{}, xerrors.Errorf("no advisory identifier in %q: %w", rawURL, ErrParse)
	}
	id := strings.Join(segments[1:], "/")

	var sep string
	switch {
	case len(id) > 5 && strings.EqualFold(id[:5], "SNYK-"):
		sep = "-"
	case strings.Contains(id, ":"):
		sep = ":"
	default:
		return SourceID{}, xerrors.Errorf("unknown advisory identifier format %q: %w", id, ErrParse)
	}

	parts := strings.Split(id, sep)
	if sep == "-" {
		// drop the SNYK prefix
		parts = parts[1:]
	}
	if len(parts) < 3 {
		return SourceID{}, xerrors.Errorf("unknown advisory identifier format %q: %w", id, ErrParse)
	}

	suffix := parts[len(parts)-1]
	if !isNumeric(suffix) {
		return SourceID{}, xerrors.Errorf("advisory identifier %q has no numeric suffix: %w", id, ErrParse)
	}

	return SourceID{
		ID:     id,
		Token:  parts[0],
		Slug:   strings.Join(parts[1:len(parts)-1], sep),
		Suffix: suffix,
	}, nil
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
