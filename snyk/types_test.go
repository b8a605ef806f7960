package snyk_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquasecurity/vuln-list-snyk/snyk"
)

func TestDate_JSON(t *testing.T) {
	b, err := json.Marshal(snyk.NewDate(2017, 12, 7))
	require.NoError(t, err)
	assert.Equal(t, `"2017-12-07"`, string(b))

	var got snyk.Date
	require.NoError(t, json.Unmarshal(b, &got))
	assert.True(t, got.Equal(snyk.NewDate(2017, 12, 7).Time))

	err = json.Unmarshal([]byte(`"07 Dec, 2017"`), &got)
	assert.ErrorContains(t, err, "invalid date")
}

func TestAdvisory_JSON(t *testing.T) {
	adv := snyk.Advisory{
		ID:                 "snykio:npm:xlsx:20180222",
		AffectedPackage:    "xlsx",
		VulnerableVersions: []string{"<0.12.2"},
		PackageManager:     snyk.NPM,
		CVE:                []string{},
		CvssV3Score:        strPtr("3.7"),
		DisclosedDate:      snyk.NewDate(2018, 2, 21),
	}
	b, err := json.Marshal(adv)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(b, &got))

	// absent fields are null, present but empty lists are []
	assert.Nil(t, got["cwe"])
	assert.Nil(t, got["cvss_v3_vector"])
	assert.Equal(t, []any{}, got["cve"])
	assert.Equal(t, "3.7", got["cvss_v3_score"])
	assert.Equal(t, "npm", got["package_manager"])
	assert.Equal(t, "2018-02-21", got["disclosed_date"])
	assert.Contains(t, got, "unaffected_versions")
}

func TestAdvisory_PackageURL(t *testing.T) {
	tests := []struct {
		name string
		adv  snyk.Advisory
		want string
	}{
		{
			name: "maven",
			adv:  snyk.Advisory{PackageManager: snyk.Maven, AffectedPackage: "org.jbpm:jbpm-designer-client"},
			want: "pkg:maven/org.jbpm/jbpm-designer-client",
		},
		{
			name: "go",
			adv:  snyk.Advisory{PackageManager: snyk.Go, AffectedPackage: "github.com/btcsuite/go-socks/socks"},
			want: "pkg:golang/github.com/btcsuite/go-socks/socks",
		},
		{
			name: "composer",
			adv:  snyk.Advisory{PackageManager: snyk.Packagist, AffectedPackage: "contao/listing-bundle"},
			want: "pkg:composer/contao/listing-bundle",
		},
		{
			name: "npm",
			adv:  snyk.Advisory{PackageManager: snyk.NPM, AffectedPackage: "xlsx"},
			want: "pkg:npm/xlsx",
		},
		{
			name: "pypi",
			adv:  snyk.Advisory{PackageManager: snyk.PyPI, AffectedPackage: "swauth"},
			want: "pkg:pypi/swauth",
		},
		{
			name: "nuget",
			adv:  snyk.Advisory{PackageManager: snyk.NuGet, AffectedPackage: "mime"},
			want: "pkg:nuget/mime",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.adv.PackageURL().ToString())
		})
	}
}
